package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/autoplanner/internal/application"
)

// ProductID identifies the generator in exported calendars.
const ProductID = "-//autoplanner//event export//EN"

// ICS renders events as one VCALENDAR. Timed events are written in UTC;
// all-day events use DATE values with an exclusive end on the next day.
func ICS(events []application.Event, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetCalscale("GREGORIAN")
	for _, event := range events {
		cal.AddVEvent(vevent(event, loc))
	}
	return cal.Serialize()
}

// UID returns the iCalendar UID used for event, preferring the CalDAV UID it
// was synced under.
func UID(event application.Event) string {
	if event.CalDAVUID != "" {
		return event.CalDAVUID
	}
	return event.ID
}

func vevent(event application.Event, loc *time.Location) *ical.VEvent {
	v := ical.NewEvent(UID(event))

	stamp := event.UpdatedAt
	if stamp.IsZero() {
		stamp = event.CreatedAt
	}
	v.SetDtStampTime(stamp)
	if !event.CreatedAt.IsZero() {
		v.SetCreatedTime(event.CreatedAt)
	}
	v.SetSummary(event.Title)

	if event.AllDay() {
		v.SetAllDayStartAt(event.Date.In(loc))
		v.SetAllDayEndAt(event.Date.AddDays(1).In(loc))
	} else {
		v.SetStartAt(event.Start(loc))
		v.SetEndAt(event.End(loc))
	}

	if event.Location != nil && *event.Location != "" {
		v.SetLocation(*event.Location)
	}
	if event.Description != nil && *event.Description != "" {
		v.SetDescription(*event.Description)
	}
	if event.Category != "" {
		v.AddCategory(string(event.Category))
	}
	for _, address := range attendees(event) {
		v.AddAttendee(address)
	}

	if event.Reminder > 0 {
		alarm := v.AddAlarm()
		alarm.SetAction(ical.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-PT%dM", event.Reminder))
		alarm.SetProperty(ical.ComponentPropertyDescription, event.Title)
	}
	return v
}
