package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/profiledesk/internal/domain"
	"github.com/ashureev/profiledesk/internal/shared"
	_ "modernc.org/sqlite"
)

// stateConsumed marks a row whose result was delivered. It only records
// that the key was consumed and is replaced by the next Submit.
const stateConsumed = "consumed"

// SQLiteStore implements SlotStore using SQLite.
//
// The default DSN is ":memory:" on a single connection, so slots never
// outlive the process.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite creates a new SQLite-backed slot store.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if isMemoryDSN(dsn) {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS result_slots (
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		job_id TEXT NOT NULL,
		state TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, kind)
	);
	CREATE INDEX IF NOT EXISTS idx_result_slots_updated ON result_slots(state, updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Submit creates a Pending slot for key owned by jobID.
func (s *SQLiteStore) Submit(ctx context.Context, key domain.SlotKey, jobID string) error {
	query := `
	INSERT INTO result_slots (session_id, kind, job_id, state, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id, kind) DO UPDATE SET
		job_id = excluded.job_id,
		state = excluded.state,
		payload = '',
		message = '',
		created_at = excluded.created_at,
		updated_at = excluded.updated_at
	WHERE result_slots.state = ?`

	now := s.now().UnixNano()
	var affected int64
	err := withBusyRetry(ctx, "submit", func() error {
		res, err := s.db.ExecContext(ctx, query,
			key.SessionID, string(key.Kind), jobID, string(domain.SlotPending), now, now, stateConsumed)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	if affected == 0 {
		return ErrSlotOutstanding
	}
	return nil
}

// Complete moves the Pending slot owned by jobID to its terminal state.
func (s *SQLiteStore) Complete(ctx context.Context, key domain.SlotKey, jobID string, outcome domain.Outcome) error {
	query := `
	UPDATE result_slots
	SET state = ?, payload = ?, message = ?, updated_at = ?
	WHERE session_id = ? AND kind = ? AND job_id = ? AND state = ?`

	var affected int64
	err := withBusyRetry(ctx, "complete", func() error {
		res, err := s.db.ExecContext(ctx, query,
			string(outcome.State()), outcome.Payload, outcome.Failure, s.now().UnixNano(),
			key.SessionID, string(key.Kind), jobID, string(domain.SlotPending))
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	if affected == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// Poll reports the slot state. A terminal slot is deleted in the same
// transaction that reads it and replaced by a consumption marker, so two
// polls never both observe a payload.
func (s *SQLiteStore) Poll(ctx context.Context, key domain.SlotKey) (domain.PollResult, error) {
	var slot domain.ResultSlot
	var state string
	err := withBusyRetry(ctx, "poll", func() error {
		return s.consume(ctx, key, &slot, &state)
	})
	if err == nil {
		slot.State = domain.SlotState(state)
		return pollResultOf(&slot), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.PollResult{}, fmt.Errorf("consume slot: %w", err)
	}

	var jobID string
	err = s.db.QueryRowContext(ctx,
		`SELECT job_id, state FROM result_slots WHERE session_id = ? AND kind = ?`,
		key.SessionID, string(key.Kind),
	).Scan(&jobID, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PollResult{Status: domain.PollPending}, nil
	}
	if err != nil {
		return domain.PollResult{}, fmt.Errorf("read slot: %w", err)
	}
	if state == stateConsumed {
		return domain.PollResult{Status: domain.PollNotFound}, nil
	}
	// A completion landing between the two statements is reported as
	// pending and consumed by the next poll.
	return domain.PollResult{Status: domain.PollPending, JobID: jobID}, nil
}

// consume deletes a terminal slot and leaves a marker in its place. It
// returns sql.ErrNoRows when the key holds no terminal slot.
func (s *SQLiteStore) consume(ctx context.Context, key domain.SlotKey, slot *domain.ResultSlot, state *string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
	DELETE FROM result_slots
	WHERE session_id = ? AND kind = ? AND state IN (?, ?)
	RETURNING job_id, state, payload, message`,
		key.SessionID, string(key.Kind), string(domain.SlotReady), string(domain.SlotFailed),
	).Scan(&slot.JobID, state, &slot.Payload, &slot.Message)
	if err != nil {
		return err
	}

	now := s.now().UnixNano()
	if _, err := tx.ExecContext(ctx, `
	INSERT INTO result_slots (session_id, kind, job_id, state, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		key.SessionID, string(key.Kind), slot.JobID, stateConsumed, now, now,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// ExpirePending fails pending slots whose job outlived its deadline.
func (s *SQLiteStore) ExpirePending(ctx context.Context, olderThan time.Duration, message string) (int64, error) {
	now := s.now()
	var expired int64
	err := withBusyRetry(ctx, "expire", func() error {
		res, err := s.db.ExecContext(ctx, `
		UPDATE result_slots
		SET state = ?, message = ?, updated_at = ?
		WHERE state = ? AND created_at < ?`,
			string(domain.SlotFailed), message, now.UnixNano(),
			string(domain.SlotPending), now.Add(-olderThan).UnixNano())
		if err != nil {
			return err
		}
		expired, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("expire slots: %w", err)
	}
	return expired, nil
}

// SweepTerminal removes stale unconsumed results and consumption markers.
func (s *SQLiteStore) SweepTerminal(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan).UnixNano()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM result_slots WHERE state IN (?, ?, ?) AND updated_at < ?`,
		string(domain.SlotReady), string(domain.SlotFailed), stateConsumed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep slots: %w", err)
	}
	return res.RowsAffected()
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withBusyRetry retries fn with exponential backoff while SQLite reports
// a busy or locked database.
func withBusyRetry(ctx context.Context, op string, fn func() error) error {
	const maxRetries = 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil || !shared.IsSQLiteConflictError(err) {
			return err
		}
		if i == maxRetries-1 {
			break
		}
		delay := baseDelay * time.Duration(1<<i) // 50ms, 100ms
		slog.Debug("Slot store busy, retrying", "op", op, "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, maxRetries, err)
}

// Ensure both backends implement SlotStore.
var (
	_ SlotStore = (*SQLiteStore)(nil)
	_ SlotStore = (*MemoryStore)(nil)
)
