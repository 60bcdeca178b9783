package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/autoplanner/internal/application"
	"github.com/example/autoplanner/internal/normalize"
)

type stubEventService struct {
	normalizeResult application.NormalizeResult
	batchResult     application.BatchResult
	events          []application.Event
	err             error

	gotCandidates []normalize.Candidate
	gotItems      []application.ScheduleItem
	gotPrincipal  application.Principal
	gotID         string
}

func (s *stubEventService) NormalizeBatch(_ context.Context, candidates []normalize.Candidate) (application.NormalizeResult, error) {
	s.gotCandidates = candidates
	return s.normalizeResult, s.err
}

func (s *stubEventService) ScheduleItems(_ context.Context, principal application.Principal, items []application.ScheduleItem) (application.BatchResult, error) {
	s.gotPrincipal = principal
	s.gotItems = items
	return s.batchResult, s.err
}

func (s *stubEventService) ProcessBatch(_ context.Context, principal application.Principal, candidates []normalize.Candidate) (application.BatchResult, error) {
	s.gotPrincipal = principal
	s.gotCandidates = candidates
	return s.batchResult, s.err
}

func (s *stubEventService) ListEvents(_ context.Context, principal application.Principal) ([]application.Event, error) {
	s.gotPrincipal = principal
	return s.events, s.err
}

func (s *stubEventService) GetEvent(_ context.Context, principal application.Principal, id string) (application.Event, error) {
	s.gotPrincipal = principal
	s.gotID = id
	if s.err != nil {
		return application.Event{}, s.err
	}
	for _, event := range s.events {
		if event.ID == id {
			return event, nil
		}
	}
	return application.Event{}, application.ErrNotFound
}

func newTestRouter(service *stubEventService) http.Handler {
	logger := slog.New(slog.DiscardHandler)
	return NewRouter(RouterConfig{
		Events:     NewEventHandler(service, time.UTC, logger),
		Middleware: []func(http.Handler) http.Handler{RequestLogger(logger), RequirePrincipal(logger)},
	})
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(PrincipalHeader, "user-1")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func sampleEvent(id string) application.Event {
	return application.Event{
		ID:        id,
		OwnerID:   "user-1",
		Title:     "Sync",
		Date:      normalize.Date{Year: 2026, Month: time.February, Day: 10},
		StartTime: normalize.TimeOfDay{Hour: 14, Minute: 30},
		Duration:  45,
		Reminder:  15,
		Category:  normalize.CategoryMeeting,
	}
}

func TestEventHandlerNormalize(t *testing.T) {
	t.Parallel()

	t.Run("returns normalized events and indexed errors", func(t *testing.T) {
		t.Parallel()

		start := normalize.TimeOfDay{Hour: 9}
		duration := 30
		service := &stubEventService{normalizeResult: application.NormalizeResult{
			Normalized: []application.NormalizedItem{{Index: 0, Fields: normalize.Fields{
				Title:     "Standup",
				Date:      normalize.Date{Year: 2026, Month: time.February, Day: 11},
				StartTime: &start,
				Duration:  &duration,
				Reminder:  15,
				Category:  normalize.CategoryWork,
			}}},
			Errors: []application.BatchError{{Index: 1, Title: "Unknown", Reason: "title is required", Kind: "normalization"}},
		}}

		recorder := doRequest(t, newTestRouter(service), http.MethodPost, "/events/normalize",
			`{"events": [{"title": "Standup", "date": "tomorrow", "start_time": "9am", "duration": "30m"}, {"date": "today"}]}`)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if len(service.gotCandidates) != 2 {
			t.Fatalf("expected two candidates, got %d", len(service.gotCandidates))
		}
		if title, ok := service.gotCandidates[0].Title.Value(); !ok || title != "Standup" {
			t.Fatalf("unexpected first candidate title %q", title)
		}

		body := decodeBody(t, recorder)
		if body["ok"] != true {
			t.Fatalf("expected ok=true, got %v", body["ok"])
		}
		normalized := body["normalized_events"].([]any)
		first := normalized[0].(map[string]any)
		if first["date"] != "2026-02-11" || first["start_time"] != "09:00:00" || first["category"] != "work" {
			t.Fatalf("unexpected normalized event %v", first)
		}
		errs := body["errors"].([]any)
		if errs[0].(map[string]any)["index"] != float64(1) {
			t.Fatalf("unexpected errors %v", errs)
		}
	})

	t.Run("rejects an empty events list", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{}
		recorder := doRequest(t, newTestRouter(service), http.MethodPost, "/events/normalize", `{"events": []}`)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		if body := decodeBody(t, recorder); body["ok"] != false || body["error"] != errEventsRequired.Error() {
			t.Fatalf("unexpected body %v", body)
		}
		if service.gotCandidates != nil {
			t.Fatalf("service should not be called")
		}
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		t.Parallel()

		recorder := doRequest(t, newTestRouter(&stubEventService{}), http.MethodPost, "/events/normalize", `{"events": [`)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		t.Parallel()

		recorder := doRequest(t, newTestRouter(&stubEventService{}), http.MethodGet, "/events/normalize", "")
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", recorder.Code)
		}
		if allow := recorder.Header().Get("Allow"); allow != http.MethodPost {
			t.Fatalf("expected Allow POST, got %q", allow)
		}
	})
}

func TestEventHandlerSchedule(t *testing.T) {
	t.Parallel()

	t.Run("passes ids and fields through and answers 201", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{batchResult: application.BatchResult{
			Created: []application.Event{sampleEvent("evt-1")},
			Errors:  []application.BatchError{{Index: 1, Title: "Gone", Reason: "not found", Kind: "not_found"}},
		}}

		recorder := doRequest(t, newTestRouter(service), http.MethodPost, "/events/schedule", `{"events": [
			{"title": "Sync", "date": "2026-02-10", "start_time": "14:30:00", "duration": 45, "reminder": 15, "category": "meeting"},
			{"id": " evt-9 ", "title": "Gone", "date": "2026-02-11", "all_day": true, "reminder": 0, "category": "other"}
		]}`)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", recorder.Code)
		}
		if service.gotPrincipal.UserID != "user-1" {
			t.Fatalf("expected principal user-1, got %q", service.gotPrincipal.UserID)
		}
		if len(service.gotItems) != 2 {
			t.Fatalf("expected two items, got %d", len(service.gotItems))
		}
		first, second := service.gotItems[0], service.gotItems[1]
		if first.EventID != "" || first.Fields.StartTime == nil || *first.Fields.StartTime != (normalize.TimeOfDay{Hour: 14, Minute: 30}) {
			t.Fatalf("unexpected first item %+v", first)
		}
		if second.EventID != "evt-9" || !second.Fields.AllDay || second.Fields.StartTime != nil {
			t.Fatalf("unexpected second item %+v", second)
		}

		body := decodeBody(t, recorder)
		created := body["created_events"].([]any)
		event := created[0].(map[string]any)
		if event["id"] != "evt-1" || event["start_time"] != "14:30:00" || event["all_day"] != false {
			t.Fatalf("unexpected created event %v", event)
		}
	})

	t.Run("answers 400 when nothing was created", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{batchResult: application.BatchResult{
			Errors: []application.BatchError{{Index: 0, Title: "Sync", Reason: "boom", Kind: "schedule"}},
		}}
		recorder := doRequest(t, newTestRouter(service), http.MethodPost, "/events/schedule",
			`{"events": [{"title": "Sync", "date": "2026-02-10", "all_day": true}]}`)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		if body["ok"] != false || len(body["created_events"].([]any)) != 0 {
			t.Fatalf("unexpected body %v", body)
		}
	})

	t.Run("rejects invalid dates", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{}
		recorder := doRequest(t, newTestRouter(service), http.MethodPost, "/events/schedule",
			`{"events": [{"title": "Sync", "date": "next week"}]}`)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		if service.gotItems != nil {
			t.Fatalf("service should not be called")
		}
	})
}

func TestEventHandlerProcess(t *testing.T) {
	t.Parallel()

	service := &stubEventService{batchResult: application.BatchResult{Created: []application.Event{sampleEvent("evt-2")}}}
	recorder := doRequest(t, newTestRouter(service), http.MethodPost, "/events/process",
		`{"events": [{"title": "Sync", "date": "2026-02-10", "start_time": "14:30", "duration": 45}]}`)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", recorder.Code)
	}
	if len(service.gotCandidates) != 1 || service.gotPrincipal.UserID != "user-1" {
		t.Fatalf("unexpected service call %+v / %+v", service.gotCandidates, service.gotPrincipal)
	}
	if body := decodeBody(t, recorder); body["errors"] != nil {
		t.Fatalf("expected null errors, got %v", body["errors"])
	}
}

func TestEventHandlerList(t *testing.T) {
	t.Parallel()

	t.Run("lists the caller's events", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{events: []application.Event{sampleEvent("a"), sampleEvent("b")}}
		recorder := doRequest(t, newTestRouter(service), http.MethodGet, "/events", "")

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		if events := body["events"].([]any); len(events) != 2 {
			t.Fatalf("expected two events, got %v", events)
		}
	})

	t.Run("maps unexpected errors to 500", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{err: errors.New("disk on fire")}
		recorder := doRequest(t, newTestRouter(service), http.MethodGet, "/events", "")

		if recorder.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", recorder.Code)
		}
		if body := decodeBody(t, recorder); strings.Contains(body["error"].(string), "disk") {
			t.Fatalf("internal error leaked: %v", body)
		}
	})

	t.Run("requires a principal", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		recorder := httptest.NewRecorder()
		newTestRouter(&stubEventService{}).ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})
}

func TestEventHandlerExportICS(t *testing.T) {
	t.Parallel()

	t.Run("renders a calendar", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{events: []application.Event{sampleEvent("evt-3")}}
		recorder := doRequest(t, newTestRouter(service), http.MethodGet, "/events/evt-3.ics", "")

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if service.gotID != "evt-3" {
			t.Fatalf("expected id evt-3, got %q", service.gotID)
		}
		if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
			t.Fatalf("unexpected content type %q", ct)
		}
		body := recorder.Body.String()
		for _, want := range []string{"BEGIN:VCALENDAR", "UID:evt-3", "SUMMARY:Sync", "DTSTART:20260210T143000Z"} {
			if !strings.Contains(body, want) {
				t.Fatalf("expected %q in calendar:\n%s", want, body)
			}
		}
	})

	t.Run("missing events map to 404", func(t *testing.T) {
		t.Parallel()

		recorder := doRequest(t, newTestRouter(&stubEventService{}), http.MethodGet, "/events/nope.ics", "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})

	t.Run("paths without the ics suffix are not routed", func(t *testing.T) {
		t.Parallel()

		service := &stubEventService{events: []application.Event{sampleEvent("evt-3")}}
		recorder := doRequest(t, newTestRouter(service), http.MethodGet, "/events/evt-3", "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
		if service.gotID != "" {
			t.Fatalf("service should not be called")
		}
	})
}
