package jobs

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ashureev/profiledesk/internal/apperr"
	"github.com/ashureev/profiledesk/internal/enrichment"
	"github.com/ashureev/profiledesk/internal/format"
	"github.com/ashureev/profiledesk/internal/resolve"
	"github.com/ashureev/profiledesk/internal/summarize"
)

// maxPostsSummarized bounds how many recent posts go into one prompt.
const maxPostsSummarized = 10

// Runner builds the Work bodies for each job kind.
type Runner struct {
	api        enrichment.API
	chain      *resolve.Chain
	summarizer summarize.Summarizer
	logger     *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(api enrichment.API, chain *resolve.Chain, s summarize.Summarizer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{api: api, chain: chain, summarizer: s, logger: logger}
}

// ProfileFetch fetches the profile at profileURL and summarizes its recent
// posts. A summarization failure degrades only the summary line.
func (r *Runner) ProfileFetch(profileURL string) Work {
	return func(ctx context.Context) (string, error) {
		u := strings.TrimSpace(profileURL)
		if u == "" {
			return "", apperr.InvalidInput("profile URL is required")
		}

		person, err := r.api.GetPerson(ctx, u)
		if err != nil {
			return "", err
		}
		if person == nil {
			return "", apperr.MissingField("data")
		}

		posts := make([]string, 0, len(person.RecentPosts))
		for _, p := range person.RecentPosts {
			if text := strings.TrimSpace(p.Text); text != "" {
				posts = append(posts, text)
			}
			if len(posts) == maxPostsSummarized {
				break
			}
		}
		summary := r.summarizer.Summarize(ctx, strings.Join(posts, "\n\n"))

		r.logger.Debug("Profile fetched", "person_id", person.ID, "posts", len(posts))
		return format.Profile(person, summary), nil
	}
}

// AnalysisFetch resolves profileURL and fetches the personality analysis.
func (r *Runner) AnalysisFetch(profileURL string) Work {
	return func(ctx context.Context) (string, error) {
		id, doc, err := r.chain.Run(ctx, profileURL, resolve.PersonalityAnalysis)
		if err != nil {
			return "", err
		}
		return format.Analysis(id.Name, doc.Analysis), nil
	}
}
