// Package enrichment is a typed client for the profile enrichment API.
//
// Each operation is a single best-effort GET: no retry, no caching and no
// rate limiting. Failures are returned as classified apperr errors.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ashureev/profiledesk/internal/apperr"
	"github.com/ashureev/profiledesk/internal/domain"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// Endpoint paths relative to the base URL.
const (
	pathPerson              = "/person"
	pathSearchHistory       = "/person/search-history"
	pathServiceStatus       = "/person/service-status"
	pathPersonalityAnalysis = "/person/personality-analysis"
)

// API is the set of enrichment operations used by the resolution chain and jobs.
type API interface {
	GetPerson(ctx context.Context, linkedinURL string) (*domain.ExternalProfile, error)
	PersonSearchHistory(ctx context.Context, personID string) (*domain.SearchHistory, error)
	PersonServiceStatus(ctx context.Context, userID string) (*domain.ServiceStatus, error)
	PersonPersonalityAnalysis(ctx context.Context, personID string) (*domain.AnalysisReport, error)
}

// Ensure Client implements API.
var _ API = (*Client)(nil)

// Client calls the enrichment API over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config holds configuration for the client.
type Config struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates an enrichment API client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("enrichment base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.APIToken,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GetPerson looks up a person by profile URL.
func (c *Client) GetPerson(ctx context.Context, linkedinURL string) (*domain.ExternalProfile, error) {
	var out domain.ExternalProfile
	if err := c.get(ctx, pathPerson, url.Values{"linkedinUrl": {linkedinURL}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PersonSearchHistory returns past lookups for a person.
func (c *Client) PersonSearchHistory(ctx context.Context, personID string) (*domain.SearchHistory, error) {
	var out domain.SearchHistory
	if err := c.get(ctx, pathSearchHistory, url.Values{"personId": {personID}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PersonServiceStatus returns the enrichment account state for a user.
func (c *Client) PersonServiceStatus(ctx context.Context, userID string) (*domain.ServiceStatus, error) {
	var out domain.ServiceStatus
	if err := c.get(ctx, pathServiceStatus, url.Values{"userId": {userID}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PersonPersonalityAnalysis returns the personality analysis for a person.
func (c *Client) PersonPersonalityAnalysis(ctx context.Context, personID string) (*domain.AnalysisReport, error) {
	var out domain.AnalysisReport
	if err := c.get(ctx, pathPersonalityAnalysis, url.Values{"personId": {personID}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// envelope is the {data: {...}} wrapper around every success body.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.doOnce(ctx, path, query)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperr.Internal(fmt.Errorf("decode %s response: %w", path, err))
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return apperr.MissingField("data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperr.Internal(fmt.Errorf("decode %s data: %w", path, err))
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("enrichment request failed", "path", path, "error", err)
		return nil, apperr.Unavailable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("read %s response: %w", path, err))
	}

	c.logger.Debug("enrichment request completed",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch resp.StatusCode {
	case http.StatusOK:
		return raw, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Warn("enrichment API rejected credentials", "path", path, "status", resp.StatusCode)
		return nil, apperr.Rejected(resp.StatusCode, string(raw))
	default:
		return nil, apperr.BadStatus(resp.StatusCode, string(raw))
	}
}
