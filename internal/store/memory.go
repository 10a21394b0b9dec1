package store

import (
	"context"
	"sync"
	"time"

	"github.com/ashureev/profiledesk/internal/domain"
)

// MemoryStore implements SlotStore with mutex-guarded maps.
type MemoryStore struct {
	mu       sync.Mutex
	slots    map[domain.SlotKey]*domain.ResultSlot
	consumed map[domain.SlotKey]time.Time
	now      func() time.Time
}

// NewMemory creates an empty in-memory slot store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		slots:    make(map[domain.SlotKey]*domain.ResultSlot),
		consumed: make(map[domain.SlotKey]time.Time),
		now:      time.Now,
	}
}

// Submit creates a Pending slot for key owned by jobID.
func (m *MemoryStore) Submit(_ context.Context, key domain.SlotKey, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.slots[key]; exists {
		return ErrSlotOutstanding
	}
	now := m.now()
	m.slots[key] = &domain.ResultSlot{
		Key:       key,
		JobID:     jobID,
		State:     domain.SlotPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	delete(m.consumed, key)
	return nil
}

// Complete moves the Pending slot owned by jobID to its terminal state.
func (m *MemoryStore) Complete(_ context.Context, key domain.SlotKey, jobID string, outcome domain.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots[key]
	if !ok || slot.JobID != jobID || slot.State != domain.SlotPending {
		return ErrSlotNotFound
	}
	slot.State = outcome.State()
	slot.Payload = outcome.Payload
	slot.Message = outcome.Failure
	slot.UpdatedAt = m.now()
	return nil
}

// Poll reports the slot state, consuming it if terminal.
func (m *MemoryStore) Poll(_ context.Context, key domain.SlotKey) (domain.PollResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots[key]
	if !ok {
		if _, wasConsumed := m.consumed[key]; wasConsumed {
			return domain.PollResult{Status: domain.PollNotFound}, nil
		}
		return domain.PollResult{Status: domain.PollPending}, nil
	}
	if slot.State.Terminal() {
		delete(m.slots, key)
		m.consumed[key] = m.now()
	}
	return pollResultOf(slot), nil
}

// ExpirePending fails pending slots whose job outlived its deadline.
func (m *MemoryStore) ExpirePending(_ context.Context, olderThan time.Duration, message string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-olderThan)
	var expired int64
	for _, slot := range m.slots {
		if slot.State == domain.SlotPending && slot.CreatedAt.Before(cutoff) {
			slot.State = domain.SlotFailed
			slot.Message = message
			slot.UpdatedAt = now
			expired++
		}
	}
	return expired, nil
}

// SweepTerminal removes stale unconsumed results and consumption markers.
func (m *MemoryStore) SweepTerminal(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-olderThan)
	var removed int64
	for key, slot := range m.slots {
		if slot.State.Terminal() && slot.UpdatedAt.Before(cutoff) {
			delete(m.slots, key)
			removed++
		}
	}
	for key, at := range m.consumed {
		if at.Before(cutoff) {
			delete(m.consumed, key)
			removed++
		}
	}
	return removed, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
