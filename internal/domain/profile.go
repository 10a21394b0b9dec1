// Package domain contains the core types shared by the webhook components.
package domain

import (
	"time"
)

// ResolvedIdentity is the outcome of resolving a profile URL to the
// enrichment API's internal person identifier.
type ResolvedIdentity struct {
	PersonID   string
	ProfileURL string
	Name       string // display name, may be empty
}

// Position is a job title held at a company.
type Position struct {
	Title   string `json:"title"`
	Company string `json:"company"`
}

// Education is one education entry of a profile.
type Education struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Field  string `json:"fieldOfStudy"`
}

// Post is a recent post authored by the profile owner.
type Post struct {
	Text     string    `json:"text"`
	PostedAt time.Time `json:"postedAt"`
}

// ExternalProfile is the read-only view of a person returned by get-person.
type ExternalProfile struct {
	ID              string      `json:"id"`
	Name            string      `json:"fullName"`
	Headline        string      `json:"headline"`
	About           string      `json:"about"`
	Location        string      `json:"location"`
	CurrentPosition *Position   `json:"currentPosition,omitempty"`
	Skills          []string    `json:"skills"`
	Education       []Education `json:"education"`
	RecentPosts     []Post      `json:"recentPosts"`
}

// DISCScores holds DISC-style trait scores on a 0-100 scale.
type DISCScores struct {
	Dominance         float64 `json:"dominance"`
	Influence         float64 `json:"influence"`
	Steadiness        float64 `json:"steadiness"`
	Conscientiousness float64 `json:"conscientiousness"`
}

// AnalysisReport is the personality analysis of a person.
type AnalysisReport struct {
	PersonalityType         string     `json:"personalityType"`
	DISC                    DISCScores `json:"disc"`
	Strengths               []string   `json:"strengths"`
	Weaknesses              []string   `json:"weaknesses"`
	CommunicationStyle      string     `json:"communicationStyle"`
	WorkStyle               string     `json:"workStyle"`
	LeadershipStyle         string     `json:"leadershipStyle"`
	OutreachRecommendations []string   `json:"outreachRecommendations"`
	DetectedInterests       []string   `json:"detectedInterests"`
}

// SearchEntry is one past lookup made for a person.
type SearchEntry struct {
	Query      string    `json:"query"`
	SearchedAt time.Time `json:"searchedAt"`
}

// SearchHistory lists past lookups for a person.
type SearchHistory struct {
	Entries []SearchEntry `json:"searches"`
}

// ServiceStatus is the enrichment account state for a person's owner.
type ServiceStatus struct {
	Status           string    `json:"status"`
	Plan             string    `json:"plan"`
	CreditsRemaining int       `json:"creditsRemaining"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
