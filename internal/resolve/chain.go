// Package resolve turns a user-supplied profile URL into the enrichment API's
// person identifier and, chained from it, into a dependent report.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/profiledesk/internal/apperr"
	"github.com/ashureev/profiledesk/internal/domain"
	"github.com/ashureev/profiledesk/internal/enrichment"
)

// DependentKind selects the downstream endpoint fetched after resolution.
type DependentKind string

const (
	SearchHistory       DependentKind = "search_history"
	ServiceStatus       DependentKind = "service_status"
	PersonalityAnalysis DependentKind = "personality_analysis"
)

// Document is a dependent report. Exactly one field matching Kind is set.
type Document struct {
	Kind          DependentKind
	SearchHistory *domain.SearchHistory
	ServiceStatus *domain.ServiceStatus
	Analysis      *domain.AnalysisReport
}

// Chain resolves identities and fetches dependent documents.
type Chain struct {
	api    enrichment.API
	logger *slog.Logger
}

// NewChain creates a resolution chain over the given enrichment API.
func NewChain(api enrichment.API, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{api: api, logger: logger}
}

// ResolveIdentity maps a profile URL to a person identifier.
func (c *Chain) ResolveIdentity(ctx context.Context, profileURL string) (domain.ResolvedIdentity, error) {
	profileURL = strings.TrimSpace(profileURL)
	if profileURL == "" {
		return domain.ResolvedIdentity{}, apperr.InvalidInput("profile URL is required")
	}

	person, err := c.api.GetPerson(ctx, profileURL)
	if err != nil {
		return domain.ResolvedIdentity{}, err
	}
	if person == nil || person.ID == "" {
		return domain.ResolvedIdentity{}, apperr.MissingField("id")
	}

	c.logger.Debug("identity resolved", "profile_url", profileURL, "person_id", person.ID)
	return domain.ResolvedIdentity{PersonID: person.ID, ProfileURL: profileURL, Name: person.Name}, nil
}

// FetchDependent fetches the kind-specific document for a resolved identity.
func (c *Chain) FetchDependent(ctx context.Context, id domain.ResolvedIdentity, kind DependentKind) (Document, error) {
	if id.PersonID == "" {
		return Document{}, apperr.InvalidInput("person ID is required")
	}

	doc := Document{Kind: kind}
	var err error
	switch kind {
	case SearchHistory:
		doc.SearchHistory, err = c.api.PersonSearchHistory(ctx, id.PersonID)
	case ServiceStatus:
		doc.ServiceStatus, err = c.api.PersonServiceStatus(ctx, id.PersonID)
	case PersonalityAnalysis:
		doc.Analysis, err = c.api.PersonPersonalityAnalysis(ctx, id.PersonID)
	default:
		return Document{}, apperr.Internal(fmt.Errorf("unknown dependent kind %q", kind))
	}
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Run resolves profileURL and fetches the dependent document. The dependent
// endpoint is never called when resolution fails; the resolution error is
// returned unchanged.
func (c *Chain) Run(ctx context.Context, profileURL string, kind DependentKind) (domain.ResolvedIdentity, Document, error) {
	id, err := c.ResolveIdentity(ctx, profileURL)
	if err != nil {
		return domain.ResolvedIdentity{}, Document{}, err
	}
	doc, err := c.FetchDependent(ctx, id, kind)
	if err != nil {
		return domain.ResolvedIdentity{}, Document{}, err
	}
	return id, doc, nil
}
