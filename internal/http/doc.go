// Package http provides HTTP handlers and middleware for the event API.
//
// Every /events endpoint requires the X-User-ID header set by the upstream
// auth gateway. Responses are JSON objects carrying an "ok" flag.
//   - POST /events/normalize: body {"events": [candidate...]}. Returns
//     {"ok","normalized_events","errors"}; nothing is stored.
//   - POST /events/schedule: body {"events": [record...]} where each record is
//     a normalized event with an optional "id" naming the event to update.
//   - POST /events/process: normalize then schedule in one call, same body as
//     /events/normalize.
//   - GET /events: the caller's events ordered by date and start time.
//   - GET /events/{id}.ics: a single event as text/calendar.
//
// Schedule and process answer 201 when at least one event was stored and 400
// otherwise; per-item failures are listed under "errors" with their input
// index.
package http
