// Package export renders persisted events in the formats calendar
// collaborators consume: iCalendar documents for CalDAV servers and event
// bodies for the Google Calendar API. Nothing here talks to the network.
package export
