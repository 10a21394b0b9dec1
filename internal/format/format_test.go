package format

import (
	"strings"
	"testing"
	"time"

	"github.com/ashureev/profiledesk/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestProfile(t *testing.T) {
	t.Parallel()

	p := &domain.ExternalProfile{
		Name:            "Ada Lovelace",
		Headline:        "Analyst of engines.",
		Location:        "London",
		CurrentPosition: &domain.Position{Title: "Mathematician", Company: "Analytical Society"},
		Skills:          []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		Education:       []domain.Education{{School: "Home", Degree: "Tutoring", Field: "Mathematics"}, {School: ""}},
	}

	got := Profile(p, "Writes about looms.")
	assert.True(t, strings.HasPrefix(got, "Ada Lovelace, Analyst of engines. Currently Mathematician at Analytical Society. Based in London."), got)
	assert.Contains(t, got, "Skills: a, b, c, d, e, f, g, h and 2 more.")
	assert.Contains(t, got, "Education: Tutoring in Mathematics from Home.")
	assert.Contains(t, got, "Recent posts: Writes about looms.")
}

func TestProfileMinimal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "This person.", Profile(&domain.ExternalProfile{}, ""))
	assert.Empty(t, Profile(nil, "x"))
}

func TestAnalysis(t *testing.T) {
	t.Parallel()

	r := &domain.AnalysisReport{
		PersonalityType:    "Analyst",
		DISC:               domain.DISCScores{Dominance: 20, Influence: 35.4, Steadiness: 60, Conscientiousness: 90},
		Strengths:          []string{"precision", "patience"},
		CommunicationStyle: "Direct and data-driven",
		OutreachRecommendations: []string{
			"lead with numbers",
		},
	}

	got := Analysis("Ada", r)
	assert.Contains(t, got, "Ada comes across as an Analyst.")
	assert.Contains(t, got, "dominance 20, influence 35, steadiness 60, conscientiousness 90")
	assert.Contains(t, got, "Strengths: precision, patience.")
	assert.Contains(t, got, "Communication style: Direct and data-driven.")
	assert.Contains(t, got, "Outreach tips: lead with numbers.")
	assert.NotContains(t, got, "Weaknesses")
}

func TestSearchHistory(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "There are no previous searches for this profile.", SearchHistory(nil))

	h := &domain.SearchHistory{Entries: []domain.SearchEntry{
		{Query: "golang", SearchedAt: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
	}}
	assert.Equal(t, "Found 1 previous search: golang (Mar 4, 2026).", SearchHistory(h))
}

func TestServiceStatus(t *testing.T) {
	t.Parallel()

	got := ServiceStatus(&domain.ServiceStatus{Status: "active", Plan: "pro", CreditsRemaining: 1})
	assert.Equal(t, "Service status is active on the pro plan, with 1 credit remaining.", got)
}
