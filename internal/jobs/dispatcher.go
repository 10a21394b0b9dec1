// Package jobs runs slow lookups in the background and records their
// outcome in the result slot store for a later conversational turn.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ashureev/profiledesk/internal/apperr"
	"github.com/ashureev/profiledesk/internal/domain"
	"github.com/ashureev/profiledesk/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const (
	// completeTimeout bounds each attempt at the final store write of a job.
	completeTimeout = 5 * time.Second
	// completeAttempts is how often that write is tried before the slot is
	// left for the sweeper to expire.
	completeAttempts = 3
	completeBackoff  = 100 * time.Millisecond
	// staleGrace pads the pending lifetime past the last completion attempt.
	staleGrace = 5 * time.Second
)

// ErrShuttingDown is returned by Submit after Shutdown has been called.
var ErrShuttingDown = errors.New("dispatcher shutting down")

var errOutcomeLost = errors.New("job outcome was never recorded")

// Work is the body of a job. It returns the text stored in a Ready slot.
type Work func(ctx context.Context) (string, error)

// Job is one unit of background work bound to a result slot.
type Job struct {
	ID   string
	Key  domain.SlotKey
	Work Work
}

// Config holds dispatcher configuration.
type Config struct {
	// Timeout bounds each job. Expired jobs complete as Failed.
	Timeout time.Duration
	// MaxConcurrency caps concurrently running jobs. 0 means unbounded.
	MaxConcurrency int
	// Describe converts a job failure into the message stored in the slot.
	Describe func(error) string
}

// Dispatcher starts jobs without blocking the caller and writes each job's
// outcome to the slot store exactly once.
type Dispatcher struct {
	store    store.SlotStore
	timeout  time.Duration
	sem      *semaphore.Weighted
	describe func(error) string
	logger   *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a dispatcher writing to st.
func NewDispatcher(st store.SlotStore, cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.Describe == nil {
		cfg.Describe = func(err error) string { return err.Error() }
	}

	var sem *semaphore.Weighted
	if cfg.MaxConcurrency > 0 {
		sem = semaphore.NewWeighted(int64(cfg.MaxConcurrency))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		store:    st,
		timeout:  cfg.Timeout,
		sem:      sem,
		describe: cfg.Describe,
		logger:   logger,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Submit creates a Pending slot for key and dispatches work against it.
// It returns store.ErrSlotOutstanding if the key already holds a slot.
func (d *Dispatcher) Submit(ctx context.Context, key domain.SlotKey, work Work) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return "", ErrShuttingDown
	}

	job := Job{ID: uuid.NewString(), Key: key, Work: work}
	if err := d.store.Submit(ctx, key, job.ID); err != nil {
		return "", err
	}
	d.dispatchLocked(job)
	return job.ID, nil
}

// dispatchLocked starts job. The caller holds d.mu and has checked closed,
// so wg.Add never races Shutdown's Wait.
func (d *Dispatcher) dispatchLocked(job Job) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		start := time.Now()
		outcome := d.execute(job)

		if err := d.record(job, outcome); err != nil {
			d.logger.Error("Failed to record job outcome",
				"job_id", job.ID,
				"session_id", job.Key.SessionID,
				"kind", job.Key.Kind,
				"error", err)
			return
		}
		d.logger.Info("Job completed",
			"job_id", job.ID,
			"session_id", job.Key.SessionID,
			"kind", job.Key.Kind,
			"state", outcome.State(),
			"duration_ms", time.Since(start).Milliseconds())
	}()

	d.logger.Info("Job dispatched", "job_id", job.ID, "session_id", job.Key.SessionID, "kind", job.Key.Kind)
}

// record writes outcome to the job's slot, retrying transient store errors.
// A slot that no longer belongs to the job is not retried.
func (d *Dispatcher) record(job Job, outcome domain.Outcome) error {
	var err error
	for attempt := 0; attempt < completeAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(completeBackoff * time.Duration(1<<(attempt-1)))
		}
		ctx, cancel := context.WithTimeout(context.Background(), completeTimeout)
		err = d.store.Complete(ctx, job.Key, job.ID, outcome)
		cancel()
		if err == nil || errors.Is(err, store.ErrSlotNotFound) {
			return err
		}
		d.logger.Warn("Recording job outcome failed", "job_id", job.ID, "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("record outcome after %d attempts: %w", completeAttempts, err)
}

// StaleAfter is the age past which a Pending slot can no longer be
// completed by its job.
func (d *Dispatcher) StaleAfter() time.Duration {
	return d.timeout + completeAttempts*completeTimeout + staleGrace
}

// SweepConfig returns the sweeper settings matching this dispatcher's job
// lifetime. Expired pending slots carry the message of a timed out job.
func (d *Dispatcher) SweepConfig(interval, retention time.Duration) SweepConfig {
	return SweepConfig{
		Interval:     interval,
		Retention:    retention,
		StaleAfter:   d.StaleAfter(),
		StaleMessage: d.describe(apperr.Timeout(errOutcomeLost)),
	}
}

type result struct {
	payload string
	err     error
}

// execute runs job under its timeout and maps the result to an outcome.
func (d *Dispatcher) execute(job Job) domain.Outcome {
	ctx, cancel := context.WithTimeout(d.baseCtx, d.timeout)
	defer cancel()

	if d.sem != nil {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			return d.failure(job, contextFailure(ctx))
		}
		defer d.sem.Release(1)
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("Job panicked", "job_id", job.ID, "panic", r, "stack", string(debug.Stack()))
				done <- result{err: apperr.Internal(fmt.Errorf("job panicked: %v", r))}
			}
		}()
		payload, err := job.Work(ctx)
		done <- result{payload: payload, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if ctx.Err() != nil {
				return d.failure(job, contextFailure(ctx))
			}
			return d.failure(job, r.err)
		}
		return domain.Outcome{Payload: r.payload}
	case <-ctx.Done():
		return d.failure(job, contextFailure(ctx))
	}
}

func (d *Dispatcher) failure(job Job, err error) domain.Outcome {
	d.logger.Warn("Job failed", "job_id", job.ID, "kind", job.Key.Kind, "error", err)
	return domain.Outcome{Failure: d.describe(err)}
}

func contextFailure(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Timeout(ctx.Err())
	}
	return apperr.Internal(fmt.Errorf("job cancelled: %w", ctx.Err()))
}

// Shutdown stops accepting jobs, cancels running ones and waits for their
// outcomes to be written or for ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
