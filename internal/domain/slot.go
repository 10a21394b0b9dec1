package domain

import (
	"time"
)

// JobKind tags the kind of background work a slot belongs to.
type JobKind string

const (
	// JobProfileFetch fetches a profile and summarizes its recent posts.
	JobProfileFetch JobKind = "profile_fetch"
	// JobAnalysisFetch resolves a person and fetches their personality analysis.
	JobAnalysisFetch JobKind = "analysis_fetch"
)

// Valid reports whether k is a known job kind.
func (k JobKind) Valid() bool {
	return k == JobProfileFetch || k == JobAnalysisFetch
}

// SlotState is the lifecycle state of a ResultSlot.
type SlotState string

const (
	SlotPending SlotState = "pending"
	SlotReady   SlotState = "ready"
	SlotFailed  SlotState = "failed"
)

// Terminal reports whether the state is Ready or Failed.
func (s SlotState) Terminal() bool {
	return s == SlotReady || s == SlotFailed
}

// SlotKey addresses a slot. At most one slot exists per key.
type SlotKey struct {
	SessionID string
	Kind      JobKind
}

// ResultSlot holds the pending or terminal outcome of one background job.
type ResultSlot struct {
	Key       SlotKey
	JobID     string
	State     SlotState
	Payload   string // Ready
	Message   string // Failed
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Outcome is what a finished job writes into its slot.
type Outcome struct {
	Payload string
	Failure string // non-empty means Failed
}

// State returns the terminal state the outcome maps to.
func (o Outcome) State() SlotState {
	if o.Failure != "" {
		return SlotFailed
	}
	return SlotReady
}

// PollStatus is the result of polling a slot.
type PollStatus string

const (
	PollNotFound PollStatus = "not_found"
	PollPending  PollStatus = "pending"
	PollReady    PollStatus = "ready"
	PollFailed   PollStatus = "failed"
)

// PollResult is returned by a poll. Text is the payload or failure message
// of a consumed slot and empty otherwise.
type PollResult struct {
	Status PollStatus
	JobID  string
	Text   string
}
