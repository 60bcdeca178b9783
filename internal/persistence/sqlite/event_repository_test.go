package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/autoplanner/internal/persistence"
	"github.com/example/autoplanner/internal/persistence/sqlite/migration"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	pool, err := NewConnectionPool(migration.InMemoryTestSQLiteConfig())
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	t.Cleanup(func() {
		_ = pool.Close()
	})

	if _, err := Migrate(context.Background(), pool, discardLogger()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return pool
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleEvent(id string) persistence.Event {
	created := time.Date(2024, time.January, 2, 15, 4, 5, 123000000, time.UTC)
	return persistence.Event{
		ID:        id,
		OwnerID:   "user-1",
		Title:     "Planning",
		Date:      "2024-01-03",
		StartTime: "10:00:00",
		Duration:  60,
		Reminder:  15,
		Category:  "meeting",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)

	applied, err := Migrate(ctx, pool, discardLogger())
	if err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected no migrations on second run, got %d", applied)
	}

	status, err := MigrationStatus(ctx, pool, discardLogger())
	if err != nil {
		t.Fatalf("MigrationStatus failed: %v", err)
	}
	if status.CurrentVersion != "002" || len(status.Applied) != 2 || len(status.Pending) != 0 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestEventRepositoryConstraints(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(newTestPool(t))

	tests := map[string]func(*persistence.Event){
		"zero duration":    func(e *persistence.Event) { e.Duration = 0 },
		"long duration":    func(e *persistence.Event) { e.Duration = 1441 },
		"empty title":      func(e *persistence.Event) { e.Title = "" },
		"unknown category": func(e *persistence.Event) { e.Category = "party" },
		"reminder":         func(e *persistence.Event) { e.Reminder = 40321 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			event := sampleEvent("evt-" + name)
			mutate(&event)
			if err := repo.CreateEvent(ctx, event); !errors.Is(err, persistence.ErrConstraintViolation) {
				t.Fatalf("expected ErrConstraintViolation, got %v", err)
			}
		})
	}

	if err := repo.CreateEvent(ctx, persistence.Event{Title: "no id"}); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for missing id, got %v", err)
	}
}

func TestEventRepositoryKeepsTimestampPrecision(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(newTestPool(t))

	event := sampleEvent("evt-1")
	if err := repo.CreateEvent(ctx, event); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	stored, err := repo.GetEvent(ctx, event.OwnerID, event.ID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if !stored.CreatedAt.Equal(event.CreatedAt) {
		t.Fatalf("expected %v, got %v", event.CreatedAt, stored.CreatedAt)
	}
}

func TestEventRepositoryUpdateFillsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(newTestPool(t))
	later := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return later }

	event := sampleEvent("evt-1")
	if err := repo.CreateEvent(ctx, event); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	event.UpdatedAt = time.Time{}
	event.Title = "Renamed"
	if err := repo.UpdateEvent(ctx, event); err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}

	stored, err := repo.GetEvent(ctx, event.OwnerID, event.ID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if !stored.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated_at %v, got %v", later, stored.UpdatedAt)
	}
}

func TestErrorMapper(t *testing.T) {
	mapper := NewErrorMapper()

	tests := map[string]struct {
		err  error
		want error
	}{
		"no rows":     {err: sql.ErrNoRows, want: persistence.ErrNotFound},
		"unique":      {err: errors.New("UNIQUE constraint failed: events.id"), want: persistence.ErrDuplicate},
		"check":       {err: errors.New("CHECK constraint failed: duration"), want: persistence.ErrConstraintViolation},
		"not null":    {err: errors.New("NOT NULL constraint failed: events.title"), want: persistence.ErrConstraintViolation},
		"locked":      {err: errors.New("database is locked"), want: errDatabaseBusy},
		"passthrough": {err: io.ErrUnexpectedEOF, want: io.ErrUnexpectedEOF},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := mapper.MapError(tc.err); !errors.Is(got, tc.want) {
				t.Fatalf("MapError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}

	if mapper.MapError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestRetryHelper(t *testing.T) {
	fast := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}

	t.Run("retries busy errors", func(t *testing.T) {
		calls := 0
		err := NewRetryHelper(fast).WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked")
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Fatalf("expected success on third attempt, got %v after %d calls", err, calls)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := NewRetryHelper(fast).WithRetry(context.Background(), func() error {
			calls++
			return errors.New("database is locked")
		})
		if !errors.Is(err, errDatabaseBusy) || calls != 3 {
			t.Fatalf("expected busy error after 3 calls, got %v after %d", err, calls)
		}
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		err := NewRetryHelper(fast).WithRetry(context.Background(), func() error {
			calls++
			return errors.New("UNIQUE constraint failed: events.id")
		})
		if !errors.Is(err, persistence.ErrDuplicate) || calls != 1 {
			t.Fatalf("expected one duplicate failure, got %v after %d calls", err, calls)
		}
	})
}

func TestWithTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	boom := errors.New("boom")

	err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		event := sampleEvent("evt-tx")
		if _, err := tx.ExecContext(ctx, `INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID, event.OwnerID, event.Title, event.Date, event.StartTime, event.Duration,
			nil, nil, nil, event.Reminder, event.Category, "", "", "",
			formatTimestamp(event.CreatedAt), formatTimestamp(event.UpdatedAt)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int
	if err := pool.WithReadOnlyTransaction(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	}); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to discard insert, got %d rows", count)
	}
}

func TestEventRepositoryReadsUseTransactions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewEventRepository(newTestPool(t))
	if err := repo.CreateEvent(ctx, sampleEvent("evt-read")); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	if _, err := repo.GetEvent(ctx, "user-1", "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	listed, err := repo.ListEvents(ctx, "user-1")
	if err != nil || len(listed) != 1 || listed[0].ID != "evt-read" {
		t.Fatalf("unexpected listing %+v, %v", listed, err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := repo.GetEvent(cancelled, "user-1", "evt-read"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected GetEvent to stop on a cancelled context, got %v", err)
	}
	if _, err := repo.ListEvents(cancelled, "user-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected ListEvents to stop on a cancelled context, got %v", err)
	}
}
