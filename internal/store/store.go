// Package store provides the result slot store: one read-once cell per
// (session, job kind) holding a background job's pending or terminal outcome.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/profiledesk/internal/domain"
)

var (
	// ErrSlotOutstanding is returned by Submit while a slot for the same key
	// is still pending or holds an unconsumed result.
	ErrSlotOutstanding = errors.New("result slot outstanding")

	// ErrSlotNotFound is returned by Complete when no pending slot owned by
	// the given job exists.
	ErrSlotNotFound = errors.New("pending result slot not found")
)

// SlotStore defines the interface for result slot persistence.
// Implementations must be safe for concurrent use.
type SlotStore interface {
	// Submit creates a Pending slot for key owned by jobID.
	Submit(ctx context.Context, key domain.SlotKey, jobID string) error

	// Complete moves the Pending slot owned by jobID to Ready or Failed.
	Complete(ctx context.Context, key domain.SlotKey, jobID string, outcome domain.Outcome) error

	// Poll reports the slot state. A Ready or Failed slot is removed
	// atomically, leaving a consumption marker, and returned. Polling a
	// consumed key reports NotFound until the next Submit. A key that was
	// never submitted reports Pending with an empty JobID.
	Poll(ctx context.Context, key domain.SlotKey) (domain.PollResult, error)

	// ExpirePending fails Pending slots created before now-olderThan with
	// message. Their jobs can no longer complete them.
	ExpirePending(ctx context.Context, olderThan time.Duration, message string) (int64, error)

	// SweepTerminal removes Ready/Failed slots and consumption markers last
	// updated before now-olderThan.
	SweepTerminal(ctx context.Context, olderThan time.Duration) (int64, error)

	// Ping verifies the store is usable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

func pollResultOf(slot *domain.ResultSlot) domain.PollResult {
	switch slot.State {
	case domain.SlotReady:
		return domain.PollResult{Status: domain.PollReady, JobID: slot.JobID, Text: slot.Payload}
	case domain.SlotFailed:
		return domain.PollResult{Status: domain.PollFailed, JobID: slot.JobID, Text: slot.Message}
	default:
		return domain.PollResult{Status: domain.PollPending, JobID: slot.JobID}
	}
}
