package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/autoplanner/internal/persistence"
)

const eventColumns = `id, owner_id, title, event_date, start_time, duration, location, description,
	participants, reminder, category, caldav_uid, caldav_href, google_event_id, created_at, updated_at`

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
	now    func() time.Time
}

// NewEventRepository creates a SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		now:    time.Now,
	}
}

// CreateEvent inserts a new event. Zero timestamps are filled with the
// current time.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" || event.OwnerID == "" {
		return persistence.ErrConstraintViolation
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now().UTC()
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = event.CreatedAt
	}

	const query = `INSERT INTO events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, query,
				event.ID,
				event.OwnerID,
				event.Title,
				event.Date,
				event.StartTime,
				event.Duration,
				nullString(event.Location),
				nullString(event.Description),
				nullString(event.Participants),
				event.Reminder,
				event.Category,
				event.CalDAVUID,
				event.CalDAVHref,
				event.GoogleEventID,
				formatTimestamp(event.CreatedAt),
				formatTimestamp(event.UpdatedAt),
			)
			return r.mapper.MapError(err)
		})
	})
}

// UpdateEvent overwrites the mutable columns of an existing event owned by
// event.OwnerID. The id, owner and creation time never change.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" || event.OwnerID == "" {
		return persistence.ErrNotFound
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = r.now().UTC()
	}

	const query = `
		UPDATE events
		SET title = ?, event_date = ?, start_time = ?, duration = ?, location = ?, description = ?,
			participants = ?, reminder = ?, category = ?, caldav_uid = ?, caldav_href = ?,
			google_event_id = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			result, err := tx.ExecContext(ctx, query,
				event.Title,
				event.Date,
				event.StartTime,
				event.Duration,
				nullString(event.Location),
				nullString(event.Description),
				nullString(event.Participants),
				event.Reminder,
				event.Category,
				event.CalDAVUID,
				event.CalDAVHref,
				event.GoogleEventID,
				formatTimestamp(event.UpdatedAt),
				event.ID,
				event.OwnerID,
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rows == 0 {
				return persistence.ErrNotFound
			}
			return nil
		})
	})
}

// GetEvent returns the event with id owned by ownerID.
func (r *EventRepository) GetEvent(ctx context.Context, ownerID, id string) (persistence.Event, error) {
	if ownerID == "" || id == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}

	const query = `SELECT ` + eventColumns + ` FROM events WHERE id = ? AND owner_id = ?`

	var event persistence.Event
	err := r.pool.WithReadOnlyTransaction(ctx, func(tx *sql.Tx) error {
		var scanErr error
		event, scanErr = scanEvent(tx.QueryRowContext(ctx, query, id, ownerID))
		return scanErr
	})
	if err != nil {
		return persistence.Event{}, r.mapper.MapError(err)
	}
	return event, nil
}

// ListEvents returns ownerID's events ordered by date, start time and id.
func (r *EventRepository) ListEvents(ctx context.Context, ownerID string) ([]persistence.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE owner_id = ? ORDER BY event_date ASC, start_time ASC, id ASC`

	events := make([]persistence.Event, 0)
	err := r.pool.WithReadOnlyTransaction(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, ownerID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			event, err := scanEvent(rows)
			if err != nil {
				return err
			}
			events = append(events, event)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return events, nil
}

// DeleteEvent removes the event with id owned by ownerID.
func (r *EventRepository) DeleteEvent(ctx context.Context, ownerID, id string) error {
	if ownerID == "" || id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ? AND owner_id = ?`, id, ownerID)
		if err != nil {
			return r.mapper.MapError(err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var (
		event                            persistence.Event
		location, description, attendees sql.NullString
		createdAt, updatedAt             string
	)
	err := row.Scan(
		&event.ID,
		&event.OwnerID,
		&event.Title,
		&event.Date,
		&event.StartTime,
		&event.Duration,
		&location,
		&description,
		&attendees,
		&event.Reminder,
		&event.Category,
		&event.CalDAVUID,
		&event.CalDAVHref,
		&event.GoogleEventID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Event{}, err
	}

	event.Location = stringPtr(location)
	event.Description = stringPtr(description)
	event.Participants = stringPtr(attendees)

	if event.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if event.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return event, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
}
