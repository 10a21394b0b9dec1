// Package summarize compresses fetched documents into a single paragraph
// using a generative-text model.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"github.com/ashureev/profiledesk/internal/apperr"
	"google.golang.org/genai"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ErrorPrefix starts every failure string returned in place of a summary.
const ErrorPrefix = "Error summarizing posts: "

// NoPostsText is returned for empty input.
const NoPostsText = "No recent posts to summarize."

const promptTemplate = `Summarize the following LinkedIn posts into one short paragraph that can be read aloud.
Focus on the recurring topics and the author's point of view. Do not use lists or markdown.

Posts:
%s`

// Summarizer is the interface jobs use to summarize text. Implementations
// never fail: problems are reported inside the returned string.
type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds summarizer configuration.
type Config struct {
	Model    string
	APIKey   string // Gemini API backend when set
	Project  string // Vertex AI backend otherwise
	Location string
	BaseURL  string

	// TokenProvider overrides application default credentials on Vertex AI.
	TokenProvider auth.TokenProvider
}

// GenAISummarizer calls a Gemini model through google.golang.org/genai.
type GenAISummarizer struct {
	models contentGenerator
	tokens auth.TokenProvider // nil with an API key
	model  string
	logger *slog.Logger
}

// Ensure GenAISummarizer implements Summarizer.
var _ Summarizer = (*GenAISummarizer)(nil)

// New creates a summarizer backed by a genai client.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*GenAISummarizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		return nil, errors.New("summarizer model is required")
	}

	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	}

	var tokens auth.TokenProvider
	if cfg.APIKey != "" {
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	} else {
		tokens = cfg.TokenProvider
		if tokens == nil {
			creds, err := credentials.DetectDefault(&credentials.DetectOptions{
				Scopes: []string{cloudPlatformScope},
			})
			if err != nil {
				return nil, apperr.Auth(fmt.Errorf("detect default credentials: %w", err))
			}
			tokens = creds
		} else {
			tokens = auth.NewCachedTokenProvider(tokens, nil)
		}
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Credentials = auth.NewCredentials(&auth.CredentialsOptions{TokenProvider: tokens})
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	logger.Info("Summarizer initialized", "model", cfg.Model, "backend", backendName(cc.Backend))

	return &GenAISummarizer{
		models: client.Models,
		tokens: tokens,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func backendName(b genai.Backend) string {
	if b == genai.BackendVertexAI {
		return "vertex"
	}
	return "gemini"
}

// Summarize returns a one-paragraph summary of text, or an ErrorPrefix
// string describing why no summary could be produced.
func (s *GenAISummarizer) Summarize(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return NoPostsText
	}

	if s.tokens != nil {
		if _, err := s.tokens.Token(ctx); err != nil {
			s.logger.Warn("summarizer token acquisition failed", "error", err)
			return ErrorPrefix + "could not obtain access token: " + err.Error()
		}
	}

	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(promptTemplate, text), genai.RoleUser),
	}
	resp, err := s.models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		s.logger.Warn("summarizer request failed", "model", s.model, "error", err)
		return ErrorPrefix + err.Error()
	}

	summary, err := firstCandidateText(resp)
	if err != nil {
		s.logger.Warn("summarizer response malformed", "model", s.model, "error", err)
		return ErrorPrefix + err.Error()
	}
	return summary
}

func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("response contained no candidates")
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return "", errors.New("first candidate has no content")
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("first candidate has no text")
	}
	return out, nil
}
