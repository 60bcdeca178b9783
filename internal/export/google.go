package export

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/api/calendar/v3"

	"github.com/example/autoplanner/internal/application"
)

const (
	maxSummaryChars     = 1024
	maxLocationChars    = 1024
	maxDescriptionChars = 8000
)

var (
	attendeeSeparators = regexp.MustCompile(`[,\n;，、\s]+`)
	attendeePattern    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// GoogleEvent builds the Calendar API body for event. All-day events use
// date values ending the next day; timed events carry dateTime and the zone
// name of loc.
func GoogleEvent(event application.Event, loc *time.Location) *calendar.Event {
	if loc == nil {
		loc = time.UTC
	}

	body := &calendar.Event{
		Summary: trimText(event.Title, maxSummaryChars),
	}
	if event.AllDay() {
		body.Start = &calendar.EventDateTime{Date: event.Date.String()}
		body.End = &calendar.EventDateTime{Date: event.Date.AddDays(1).String()}
	} else {
		body.Start = &calendar.EventDateTime{DateTime: event.Start(loc).Format(time.RFC3339), TimeZone: loc.String()}
		body.End = &calendar.EventDateTime{DateTime: event.End(loc).Format(time.RFC3339), TimeZone: loc.String()}
	}

	if event.Location != nil && *event.Location != "" {
		body.Location = trimText(*event.Location, maxLocationChars)
	}
	if event.Description != nil && *event.Description != "" {
		body.Description = trimText(*event.Description, maxDescriptionChars)
	}
	for _, address := range attendees(event) {
		body.Attendees = append(body.Attendees, &calendar.EventAttendee{Email: address})
	}

	body.Reminders = &calendar.EventReminders{
		UseDefault: false,
		Overrides: []*calendar.EventReminder{{
			Method:          "popup",
			Minutes:         int64(event.Reminder),
			ForceSendFields: []string{"Minutes"},
		}},
		ForceSendFields: []string{"UseDefault"},
	}
	return body
}

// attendees extracts well-formed addresses from the stored participant list.
func attendees(event application.Event) []string {
	if event.Participants == nil {
		return nil
	}
	var out []string
	for _, part := range attendeeSeparators.Split(*event.Participants, -1) {
		if token := strings.TrimSpace(part); token != "" && attendeePattern.MatchString(token) {
			out = append(out, token)
		}
	}
	return out
}

// trimText shortens s to at most max characters, marking the cut with an
// ellipsis.
func trimText(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:max-1]), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) + "…"
}
