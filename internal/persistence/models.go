package persistence

import "time"

// Event is a calendar entry as stored. Date is YYYY-MM-DD and StartTime is
// HH:MM:SS; all-day entries are stored as 00:00:00 lasting 1440 minutes.
type Event struct {
	ID            string
	OwnerID       string
	Title         string
	Date          string
	StartTime     string
	Duration      int
	Location      *string
	Description   *string
	Participants  *string
	Reminder      int
	Category      string
	CalDAVUID     string
	CalDAVHref    string
	GoogleEventID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
