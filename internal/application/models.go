package application

import (
	"time"

	"github.com/example/autoplanner/internal/normalize"
)

// AllDayMinutes is the duration stored for all-day events.
const AllDayMinutes = 24 * 60

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
}

// Event is a scheduled calendar entry owned by a single user.
type Event struct {
	ID            string
	OwnerID       string
	Title         string
	Date          normalize.Date
	StartTime     normalize.TimeOfDay
	Duration      int
	Location      *string
	Description   *string
	Participants  *string
	Reminder      int
	Category      normalize.Category
	CalDAVUID     string
	CalDAVHref    string
	GoogleEventID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AllDay reports whether the event spans the whole day.
func (e Event) AllDay() bool {
	return e.StartTime == normalize.Midnight && e.Duration == AllDayMinutes
}

// Start returns the start instant of the event in loc.
func (e Event) Start(loc *time.Location) time.Time {
	return e.StartTime.On(e.Date, loc)
}

// End returns the end instant of the event in loc.
func (e Event) End(loc *time.Location) time.Time {
	return e.Start(loc).Add(time.Duration(e.Duration) * time.Minute)
}

// ScheduleItem pairs a normalized record with the id of the event it should
// update. An empty EventID creates a new event.
type ScheduleItem struct {
	EventID string
	Fields  normalize.Fields
}

// BatchError describes a single failed item of a batch. Index refers to the
// position in the caller's input.
type BatchError struct {
	Index  int
	Title  string
	Reason string
	Kind   string
}

// BatchResult collects the outcome of a scheduling batch.
type BatchResult struct {
	Created []Event
	Errors  []BatchError
}

// NormalizedItem is a successfully normalized candidate with its input position.
type NormalizedItem struct {
	Index  int
	Fields normalize.Fields
}

// NormalizeResult collects the outcome of normalizing a batch of candidates.
type NormalizeResult struct {
	Normalized []NormalizedItem
	Errors     []BatchError
}
