package persistence

import "context"

// EventRepository stores events keyed by owner and id. Lookups for an id
// owned by someone else behave as if the id does not exist.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, ownerID, id string) (Event, error)
	// ListEvents returns the owner's events ordered by date, start time and id.
	ListEvents(ctx context.Context, ownerID string) ([]Event, error)
	DeleteEvent(ctx context.Context, ownerID, id string) error
}
