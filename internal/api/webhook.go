package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/ashureev/profiledesk/internal/apperr"
	"github.com/ashureev/profiledesk/internal/dialog"
	"github.com/ashureev/profiledesk/internal/domain"
	"github.com/ashureev/profiledesk/internal/format"
	"github.com/ashureev/profiledesk/internal/jobs"
	"github.com/ashureev/profiledesk/internal/resolve"
	"github.com/ashureev/profiledesk/internal/store"
)

// Intent display names handled by the webhook.
const (
	IntentProfileSummarizer = "LinkedIn Profile Summarizer"
	IntentGetProfileSummary = "Get Profile Summary"
	IntentPersonality       = "Personality Analysis"
	IntentGetPersonality    = "Get Personality Analysis"
	IntentSearchHistory     = "Search History"
	IntentServiceStatus     = "Service Status"
)

// JobSubmitter starts background jobs.
type JobSubmitter interface {
	Submit(ctx context.Context, key domain.SlotKey, work jobs.Work) (string, error)
}

// SlotPoller consumes job results.
type SlotPoller interface {
	Poll(ctx context.Context, key domain.SlotKey) (domain.PollResult, error)
}

// WorkBuilder builds the job bodies.
type WorkBuilder interface {
	ProfileFetch(profileURL string) jobs.Work
	AnalysisFetch(profileURL string) jobs.Work
}

// ChainRunner runs the resolution chain synchronously.
type ChainRunner interface {
	Run(ctx context.Context, profileURL string, kind resolve.DependentKind) (domain.ResolvedIdentity, resolve.Document, error)
}

// Deps are the collaborators of a Webhook.
type Deps struct {
	Jobs     JobSubmitter
	Slots    SlotPoller
	Work     WorkBuilder
	Chain    ChainRunner
	Contexts *dialog.Propagator
}

// Reply is what an intent handler produces: the text to speak and an
// optional context for following turns.
type Reply struct {
	Text    string
	Context *dialog.Context
}

type intentHandler func(ctx context.Context, turn dialog.Turn) (Reply, error)

// Webhook routes dialogue turns to intent handlers.
type Webhook struct {
	jobs     JobSubmitter
	slots    SlotPoller
	work     WorkBuilder
	chain    ChainRunner
	contexts *dialog.Propagator
	logger   *slog.Logger
	routes   map[string]intentHandler
}

// NewWebhook creates a Webhook with the fixed dispatch table.
func NewWebhook(deps Deps, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Contexts == nil {
		deps.Contexts = dialog.NewPropagator(0)
	}
	h := &Webhook{
		jobs:     deps.Jobs,
		slots:    deps.Slots,
		work:     deps.Work,
		chain:    deps.Chain,
		contexts: deps.Contexts,
		logger:   logger,
	}
	h.routes = map[string]intentHandler{
		IntentProfileSummarizer: h.submit(domain.JobProfileFetch, h.work.ProfileFetch, ProfileAckText),
		IntentGetProfileSummary: h.poll(domain.JobProfileFetch),
		IntentPersonality:       h.submit(domain.JobAnalysisFetch, h.work.AnalysisFetch, AnalysisAckText),
		IntentGetPersonality:    h.poll(domain.JobAnalysisFetch),
		IntentSearchHistory:     h.lookup(resolve.SearchHistory),
		IntentServiceStatus:     h.lookup(resolve.ServiceStatus),
	}
	return h
}

// Handle serves POST /webhook. It always answers 200 with a well-formed
// fulfillment body.
func (h *Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	turn, err := dialog.Decode(r.Body)
	if err != nil {
		h.logger.Warn("Rejected webhook request", "error", err)
		JSON(w, http.StatusOK, dialog.Response{FulfillmentText: UserMessage(err)})
		return
	}

	reply, err := h.Dispatch(r.Context(), turn)
	if err != nil {
		h.logFailure(turn, err)
		reply = Reply{Text: UserMessage(err)}
	}

	resp := dialog.Response{FulfillmentText: reply.Text}
	if reply.Context != nil {
		resp.OutputContexts = []dialog.Context{*reply.Context}
	}
	JSON(w, http.StatusOK, resp)
}

// Dispatch runs the handler registered for the turn's intent. A handler
// panic is returned as an internal error.
func (h *Webhook) Dispatch(ctx context.Context, turn dialog.Turn) (reply Reply, err error) {
	handler, ok := h.routes[turn.Intent]
	if !ok {
		return Reply{}, apperr.UnknownIntent(turn.Intent)
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Intent handler panicked",
				"intent", turn.Intent, "panic", r, "stack", string(debug.Stack()))
			reply = Reply{}
			err = apperr.Internal(fmt.Errorf("intent handler panicked: %v", r))
		}
	}()
	return handler(ctx, turn)
}

func (h *Webhook) logFailure(turn dialog.Turn, err error) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindUnknownIntent, apperr.KindInvalidInput:
		h.logger.Info("Turn not fulfilled", "session", turn.Session, "intent", turn.Intent, "kind", kind, "error", err)
	default:
		h.logger.Error("Turn failed", "session", turn.Session, "intent", turn.Intent, "kind", kind, "error", err)
	}
}

func (h *Webhook) profileURL(turn dialog.Turn) (string, error) {
	u, ok := h.contexts.Resolve(turn.Session, turn.Params, turn.Contexts, dialog.ParamProfileURL)
	if !ok {
		return "", apperr.InvalidInput("%s parameter is required", dialog.ParamProfileURL)
	}
	return u, nil
}

func (h *Webhook) rememberURL(session, profileURL string) *dialog.Context {
	c := h.contexts.Persist(session, map[string]string{dialog.ParamProfileURL: profileURL})
	return &c
}

// submit starts a background job and acknowledges it immediately.
func (h *Webhook) submit(kind domain.JobKind, build func(string) jobs.Work, ack string) intentHandler {
	return func(ctx context.Context, turn dialog.Turn) (Reply, error) {
		u, err := h.profileURL(turn)
		if err != nil {
			return Reply{}, err
		}

		key := domain.SlotKey{SessionID: turn.Session, Kind: kind}
		jobID, err := h.jobs.Submit(ctx, key, build(u))
		if errors.Is(err, store.ErrSlotOutstanding) {
			h.logger.Info("Submission rejected, result outstanding", "session", turn.Session, "kind", kind)
			return Reply{Text: OutstandingText, Context: h.rememberURL(turn.Session, u)}, nil
		}
		if err != nil {
			return Reply{}, apperr.Internal(fmt.Errorf("submit %s job: %w", kind, err))
		}

		h.logger.Info("Job submitted", "session", turn.Session, "kind", kind, "job_id", jobID)
		return Reply{Text: ack, Context: h.rememberURL(turn.Session, u)}, nil
	}
}

// poll consumes the session's result for kind, if one is ready.
func (h *Webhook) poll(kind domain.JobKind) intentHandler {
	return func(ctx context.Context, turn dialog.Turn) (Reply, error) {
		key := domain.SlotKey{SessionID: turn.Session, Kind: kind}
		res, err := h.slots.Poll(ctx, key)
		if err != nil {
			return Reply{}, apperr.Internal(fmt.Errorf("poll %s slot: %w", kind, err))
		}

		switch res.Status {
		case domain.PollPending:
			return Reply{Text: PendingText}, nil
		case domain.PollReady, domain.PollFailed:
			h.logger.Info("Job result delivered", "session", turn.Session, "kind", kind, "job_id", res.JobID, "status", res.Status)
			return Reply{Text: res.Text}, nil
		default:
			return Reply{Text: NotFoundText}, nil
		}
	}
}

// lookup runs the resolution chain within the turn.
func (h *Webhook) lookup(kind resolve.DependentKind) intentHandler {
	return func(ctx context.Context, turn dialog.Turn) (Reply, error) {
		u, err := h.profileURL(turn)
		if err != nil {
			return Reply{}, err
		}

		_, doc, err := h.chain.Run(ctx, u, kind)
		if err != nil {
			return Reply{}, err
		}

		var text string
		switch kind {
		case resolve.SearchHistory:
			text = format.SearchHistory(doc.SearchHistory)
		case resolve.ServiceStatus:
			text = format.ServiceStatus(doc.ServiceStatus)
		default:
			return Reply{}, apperr.Internal(fmt.Errorf("no formatter for %q", kind))
		}
		return Reply{Text: text, Context: h.rememberURL(turn.Session, u)}, nil
	}
}
