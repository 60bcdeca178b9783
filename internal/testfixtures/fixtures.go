package testfixtures

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/autoplanner/internal/application"
	"github.com/example/autoplanner/internal/normalize"
	"github.com/example/autoplanner/internal/persistence"
)

var eventCounter uint64

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// EventFixture represents a deterministic event that can be materialised as
// a normalized record, an application event or a persistence row.
type EventFixture struct {
	ID            string
	OwnerID       string
	Title         string
	Date          normalize.Date
	AllDay        bool
	StartTime     normalize.TimeOfDay
	Duration      int
	Location      *string
	Description   *string
	Participants  []string
	Reminder      int
	Category      normalize.Category
	CalDAVUID     string
	CalDAVHref    string
	GoogleEventID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a one hour meeting on the day after ReferenceTime,
// with optional overrides.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := EventFixture{
		ID:        fmt.Sprintf("event-%03d", idx),
		OwnerID:   "user-001",
		Title:     fmt.Sprintf("Event %03d", idx),
		Date:      normalize.DateOf(referenceTime).AddDays(1),
		StartTime: normalize.TimeOfDay{Hour: 10},
		Duration:  60,
		Reminder:  15,
		Category:  normalize.CategoryMeeting,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventOwner overrides the owning user.
func WithEventOwner(ownerID string) EventOption {
	return func(f *EventFixture) {
		f.OwnerID = ownerID
	}
}

// WithEventTitle overrides the generated title.
func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) {
		f.Title = title
	}
}

// WithEventDate sets the calendar date.
func WithEventDate(d normalize.Date) EventOption {
	return func(f *EventFixture) {
		f.Date = d
	}
}

// WithEventSlot sets a timed slot.
func WithEventSlot(start normalize.TimeOfDay, minutes int) EventOption {
	return func(f *EventFixture) {
		f.AllDay = false
		f.StartTime = start
		f.Duration = minutes
	}
}

// WithEventAllDay marks the fixture as an all-day event.
func WithEventAllDay() EventOption {
	return func(f *EventFixture) {
		f.AllDay = true
		f.StartTime = normalize.Midnight
		f.Duration = application.AllDayMinutes
	}
}

// WithEventLocation sets the location.
func WithEventLocation(location string) EventOption {
	return func(f *EventFixture) {
		f.Location = &location
	}
}

// WithEventDescription sets the description.
func WithEventDescription(description string) EventOption {
	return func(f *EventFixture) {
		f.Description = &description
	}
}

// WithEventParticipants sets the participant addresses.
func WithEventParticipants(addresses ...string) EventOption {
	return func(f *EventFixture) {
		f.Participants = append([]string(nil), addresses...)
	}
}

// WithEventReminder sets the reminder lead time in minutes.
func WithEventReminder(minutes int) EventOption {
	return func(f *EventFixture) {
		f.Reminder = minutes
	}
}

// WithEventCategory sets the category.
func WithEventCategory(category normalize.Category) EventOption {
	return func(f *EventFixture) {
		f.Category = category
	}
}

// WithEventSyncIDs sets the calendar integration identifiers.
func WithEventSyncIDs(caldavUID, caldavHref, googleEventID string) EventOption {
	return func(f *EventFixture) {
		f.CalDAVUID = caldavUID
		f.CalDAVHref = caldavHref
		f.GoogleEventID = googleEventID
	}
}

// WithEventTimestamps sets both created and updated timestamps on the fixture.
func WithEventTimestamps(created, updated time.Time) EventOption {
	return func(f *EventFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

func (f EventFixture) participants() *string {
	if len(f.Participants) == 0 {
		return nil
	}
	joined := strings.Join(f.Participants, ",")
	return &joined
}

// Fields returns the fixture as a normalized record.
func (f EventFixture) Fields() normalize.Fields {
	fields := normalize.Fields{
		Title:         f.Title,
		Date:          f.Date,
		AllDay:        f.AllDay,
		Location:      copyStringPtr(f.Location),
		Description:   copyStringPtr(f.Description),
		Participants:  f.participants(),
		Reminder:      f.Reminder,
		Category:      f.Category,
		CalDAVUID:     f.CalDAVUID,
		CalDAVHref:    f.CalDAVHref,
		GoogleEventID: f.GoogleEventID,
	}
	if !f.AllDay {
		start := f.StartTime
		duration := f.Duration
		fields.StartTime = &start
		fields.Duration = &duration
	}
	return fields
}

// Candidate returns the fixture as a text-only candidate, the shape an
// extraction step would produce.
func (f EventFixture) Candidate() normalize.Candidate {
	c := normalize.Candidate{
		Title:         normalize.TextOf(f.Title),
		Date:          normalize.DateText(f.Date.String()),
		AllDay:        normalize.FlagOf(f.AllDay),
		Reminder:      normalize.ReminderNumber(float64(f.Reminder)),
		Category:      normalize.TextOf(string(f.Category)),
		CalDAVUID:     f.CalDAVUID,
		CalDAVHref:    f.CalDAVHref,
		GoogleEventID: f.GoogleEventID,
	}
	if !f.AllDay {
		c.StartTime = normalize.TimeText(f.StartTime.String())
		c.Duration = normalize.DurationMinutes(f.Duration)
	}
	if f.Location != nil {
		c.Location = normalize.TextOf(*f.Location)
	}
	if f.Description != nil {
		c.Description = normalize.TextOf(*f.Description)
	}
	if len(f.Participants) > 0 {
		c.Participants = normalize.ParticipantsList(f.Participants...)
	}
	return c
}

// Application returns the fixture as an application.Event value.
func (f EventFixture) Application() application.Event {
	return application.Event{
		ID:            f.ID,
		OwnerID:       f.OwnerID,
		Title:         f.Title,
		Date:          f.Date,
		StartTime:     f.StartTime,
		Duration:      f.Duration,
		Location:      copyStringPtr(f.Location),
		Description:   copyStringPtr(f.Description),
		Participants:  f.participants(),
		Reminder:      f.Reminder,
		Category:      f.Category,
		CalDAVUID:     f.CalDAVUID,
		CalDAVHref:    f.CalDAVHref,
		GoogleEventID: f.GoogleEventID,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Event row.
func (f EventFixture) Persistence() persistence.Event {
	return persistence.Event{
		ID:            f.ID,
		OwnerID:       f.OwnerID,
		Title:         f.Title,
		Date:          f.Date.String(),
		StartTime:     f.StartTime.String(),
		Duration:      f.Duration,
		Location:      copyStringPtr(f.Location),
		Description:   copyStringPtr(f.Description),
		Participants:  f.participants(),
		Reminder:      f.Reminder,
		Category:      string(f.Category),
		CalDAVUID:     f.CalDAVUID,
		CalDAVHref:    f.CalDAVHref,
		GoogleEventID: f.GoogleEventID,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}
