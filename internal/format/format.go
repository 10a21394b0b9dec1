// Package format renders enrichment documents as text suitable for a
// voice or chat reply.
package format

import (
	"fmt"
	"strings"

	"github.com/ashureev/profiledesk/internal/domain"
)

const (
	maxSkills   = 8
	maxSearches = 5
)

// Profile renders a profile with the given post summary.
func Profile(p *domain.ExternalProfile, postSummary string) string {
	if p == nil {
		return ""
	}
	var b strings.Builder

	name := orDefault(p.Name, "This person")
	if p.Headline != "" {
		fmt.Fprintf(&b, "%s, %s.", name, strings.TrimSuffix(p.Headline, "."))
	} else {
		fmt.Fprintf(&b, "%s.", name)
	}
	if pos := p.CurrentPosition; pos != nil && (pos.Title != "" || pos.Company != "") {
		switch {
		case pos.Title != "" && pos.Company != "":
			fmt.Fprintf(&b, " Currently %s at %s.", pos.Title, pos.Company)
		case pos.Title != "":
			fmt.Fprintf(&b, " Currently %s.", pos.Title)
		default:
			fmt.Fprintf(&b, " Currently at %s.", pos.Company)
		}
	}
	if p.Location != "" {
		fmt.Fprintf(&b, " Based in %s.", p.Location)
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "\nSkills: %s.", joinLimited(p.Skills, maxSkills))
	}
	if edu := educationLine(p.Education); edu != "" {
		fmt.Fprintf(&b, "\nEducation: %s.", edu)
	}
	if postSummary != "" {
		fmt.Fprintf(&b, "\nRecent posts: %s", postSummary)
	}
	return b.String()
}

// Analysis renders a personality analysis report.
func Analysis(name string, r *domain.AnalysisReport) string {
	if r == nil {
		return ""
	}
	var b strings.Builder

	subject := orDefault(name, "This person")
	if r.PersonalityType != "" {
		fmt.Fprintf(&b, "%s comes across as %s.", subject, article(r.PersonalityType))
	} else {
		fmt.Fprintf(&b, "Here is the personality analysis for %s.", subject)
	}
	d := r.DISC
	fmt.Fprintf(&b, " DISC scores: dominance %.0f, influence %.0f, steadiness %.0f, conscientiousness %.0f.",
		d.Dominance, d.Influence, d.Steadiness, d.Conscientiousness)

	writeList(&b, "Strengths", r.Strengths)
	writeList(&b, "Weaknesses", r.Weaknesses)
	writeField(&b, "Communication style", r.CommunicationStyle)
	writeField(&b, "Work style", r.WorkStyle)
	writeField(&b, "Leadership style", r.LeadershipStyle)
	writeList(&b, "Outreach tips", r.OutreachRecommendations)
	writeList(&b, "Interests", r.DetectedInterests)
	return b.String()
}

// SearchHistory renders the most recent lookups.
func SearchHistory(h *domain.SearchHistory) string {
	if h == nil || len(h.Entries) == 0 {
		return "There are no previous searches for this profile."
	}
	n := len(h.Entries)
	shown := h.Entries
	if n > maxSearches {
		shown = shown[:maxSearches]
	}
	queries := make([]string, 0, len(shown))
	for _, e := range shown {
		q := e.Query
		if !e.SearchedAt.IsZero() {
			q += " (" + e.SearchedAt.Format("Jan 2, 2006") + ")"
		}
		queries = append(queries, q)
	}
	return fmt.Sprintf("Found %d previous %s: %s.", n, plural(n, "search", "searches"), strings.Join(queries, "; "))
}

// ServiceStatus renders the enrichment account state.
func ServiceStatus(s *domain.ServiceStatus) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Service status is %s", orDefault(s.Status, "unknown"))
	if s.Plan != "" {
		fmt.Fprintf(&b, " on the %s plan", s.Plan)
	}
	fmt.Fprintf(&b, ", with %d %s remaining.", s.CreditsRemaining, plural(s.CreditsRemaining, "credit", "credits"))
	return b.String()
}

func educationLine(entries []domain.Education) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.School == "" {
			continue
		}
		detail := strings.TrimSpace(strings.Join(nonEmpty(e.Degree, e.Field), " in "))
		if detail != "" {
			parts = append(parts, detail+" from "+e.School)
		} else {
			parts = append(parts, e.School)
		}
	}
	return strings.Join(parts, "; ")
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s: %s.", label, strings.Join(items, ", "))
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "\n%s: %s", label, value)
	if !strings.HasSuffix(value, ".") {
		b.WriteString(".")
	}
}

func joinLimited(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:limit], ", ") + fmt.Sprintf(" and %d more", len(items)-limit)
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func article(noun string) string {
	if noun == "" {
		return noun
	}
	switch strings.ToLower(noun[:1]) {
	case "a", "e", "i", "o", "u":
		return "an " + noun
	}
	return "a " + noun
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
