// Package memory provides a process-local implementation of the persistence
// repositories, used by tests and the CLI's ephemeral mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/autoplanner/internal/persistence"
)

// Store keeps events in memory. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	events map[string]persistence.Event
	now    func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{events: make(map[string]persistence.Event), now: time.Now}
}

// CreateEvent stores a new event. Ids are unique across owners.
func (s *Store) CreateEvent(ctx context.Context, event persistence.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.ID == "" || event.OwnerID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; ok {
		return persistence.ErrDuplicate
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = event.CreatedAt
	}
	s.events[event.ID] = cloneEvent(event)
	return nil
}

// UpdateEvent replaces an event owned by event.OwnerID, keeping its creation time.
func (s *Store) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[event.ID]
	if !ok || existing.OwnerID != event.OwnerID {
		return persistence.ErrNotFound
	}
	event.CreatedAt = existing.CreatedAt
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = s.now().UTC()
	}
	s.events[event.ID] = cloneEvent(event)
	return nil
}

// GetEvent returns the event with id owned by ownerID.
func (s *Store) GetEvent(ctx context.Context, ownerID, id string) (persistence.Event, error) {
	if err := ctx.Err(); err != nil {
		return persistence.Event{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok || event.OwnerID != ownerID {
		return persistence.Event{}, persistence.ErrNotFound
	}
	return cloneEvent(event), nil
}

// ListEvents returns ownerID's events ordered by date, start time and id.
func (s *Store) ListEvents(ctx context.Context, ownerID string) ([]persistence.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]persistence.Event, 0)
	for _, event := range s.events {
		if event.OwnerID == ownerID {
			events = append(events, cloneEvent(event))
		}
	}

	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
	return events, nil
}

// DeleteEvent removes the event with id owned by ownerID.
func (s *Store) DeleteEvent(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok || event.OwnerID != ownerID {
		return persistence.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func cloneEvent(event persistence.Event) persistence.Event {
	event.Location = cloneString(event.Location)
	event.Description = cloneString(event.Description)
	event.Participants = cloneString(event.Participants)
	return event
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}
