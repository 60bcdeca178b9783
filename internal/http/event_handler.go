package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/autoplanner/internal/application"
	"github.com/example/autoplanner/internal/export"
	"github.com/example/autoplanner/internal/normalize"
)

const maxRequestBytes = 1 << 20

type eventService interface {
	NormalizeBatch(ctx context.Context, candidates []normalize.Candidate) (application.NormalizeResult, error)
	ScheduleItems(ctx context.Context, principal application.Principal, items []application.ScheduleItem) (application.BatchResult, error)
	ProcessBatch(ctx context.Context, principal application.Principal, candidates []normalize.Candidate) (application.BatchResult, error)
	ListEvents(ctx context.Context, principal application.Principal) ([]application.Event, error)
	GetEvent(ctx context.Context, principal application.Principal, id string) (application.Event, error)
}

// EventHandler serves the normalize, schedule and export endpoints.
type EventHandler struct {
	service   eventService
	location  *time.Location
	logger    *slog.Logger
	responder responder
}

// NewEventHandler creates an EventHandler. loc is the zone events are
// exported in; nil means UTC.
func NewEventHandler(service eventService, loc *time.Location, logger *slog.Logger) *EventHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EventHandler{service: service, location: loc, logger: logger, responder: newResponder(logger)}
}

// Normalize resolves a list of candidates without storing them.
func (h *EventHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	candidates, err := decodeCandidates(w, r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	result, err := h.service.NormalizeBatch(r.Context(), candidates)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	eventLogger(r.Context(), h.logger, "Normalize").DebugContext(r.Context(), "candidates normalized",
		"normalized", len(result.Normalized),
		"failed", len(result.Errors),
	)

	normalized := make([]normalize.Fields, len(result.Normalized))
	for i, item := range result.Normalized {
		normalized[i] = item.Fields
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, normalizeResponse{
		OK:         len(normalized) > 0,
		Normalized: normalized,
		Errors:     toErrorDTOs(result.Errors),
	})
}

// Schedule stores a list of normalized records. Records carrying an id update
// the existing event.
func (h *EventHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if len(req.Events) == 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errEventsRequired)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	items := make([]application.ScheduleItem, len(req.Events))
	for i, record := range req.Events {
		items[i] = application.ScheduleItem{EventID: strings.TrimSpace(record.ID), Fields: record.Fields}
	}

	result, err := h.service.ScheduleItems(r.Context(), principal, items)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.renderBatch(r.Context(), w, "Schedule", result)
}

// Process normalizes and schedules a list of candidates in one request.
func (h *EventHandler) Process(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	candidates, err := decodeCandidates(w, r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.ProcessBatch(r.Context(), principal, candidates)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.renderBatch(r.Context(), w, "Process", result)
}

// List returns the principal's events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	events, err := h.service.ListEvents(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResponse{
		OK:     true,
		Events: toEventDTOs(events),
	})
}

// ExportICS renders a single event as an iCalendar document.
func (h *EventHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.GetEvent(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	eventLogger(r.Context(), h.logger, "ExportICS").DebugContext(r.Context(), "event exported")
	h.responder.writeCalendar(r.Context(), w, event.ID+".ics", export.ICS([]application.Event{event}, h.location))
}

func (h *EventHandler) renderBatch(ctx context.Context, w http.ResponseWriter, operation string, result application.BatchResult) {
	eventLogger(ctx, h.logger, operation).InfoContext(ctx, "batch scheduled",
		"created", len(result.Created),
		"failed", len(result.Errors),
	)

	status := http.StatusBadRequest
	if len(result.Created) > 0 {
		status = http.StatusCreated
	}
	h.responder.writeJSON(ctx, w, status, batchResponse{
		OK:      len(result.Created) > 0,
		Created: toEventDTOs(result.Created),
		Errors:  toErrorDTOs(result.Errors),
	})
}

// decodeCandidates reads {"events": [...]} from the body. The body is decoded
// with yaml.v3 because candidate fields accept several value shapes.
func decodeCandidates(w http.ResponseWriter, r *http.Request) ([]normalize.Candidate, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		return nil, errBadRequestBody
	}

	var req candidatesRequest
	if err := yaml.Unmarshal(body, &req); err != nil {
		return nil, errBadRequestBody
	}
	if len(req.Events) == 0 {
		return nil, errEventsRequired
	}
	return req.Events, nil
}

type candidatesRequest struct {
	Events []normalize.Candidate `yaml:"events"`
}

type scheduleRequest struct {
	Events []scheduleRecord `json:"events"`
}

type scheduleRecord struct {
	ID string `json:"id"`
	normalize.Fields
}

type normalizeResponse struct {
	OK         bool               `json:"ok"`
	Normalized []normalize.Fields `json:"normalized_events"`
	Errors     []batchErrorDTO    `json:"errors"`
}

type batchResponse struct {
	OK      bool            `json:"ok"`
	Created []eventDTO      `json:"created_events"`
	Errors  []batchErrorDTO `json:"errors"`
}

type listResponse struct {
	OK     bool       `json:"ok"`
	Events []eventDTO `json:"events"`
}

type batchErrorDTO struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// toErrorDTOs returns nil for an empty list so the field encodes as null.
func toErrorDTOs(errs []application.BatchError) []batchErrorDTO {
	if len(errs) == 0 {
		return nil
	}
	out := make([]batchErrorDTO, len(errs))
	for i, e := range errs {
		out[i] = batchErrorDTO{Index: e.Index, Title: e.Title, Error: e.Reason, Kind: e.Kind}
	}
	return out
}

type eventDTO struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Date          normalize.Date      `json:"date"`
	StartTime     normalize.TimeOfDay `json:"start_time"`
	Duration      int                 `json:"duration"`
	AllDay        bool                `json:"all_day"`
	Location      *string             `json:"location"`
	Description   *string             `json:"description"`
	Participants  *string             `json:"participants"`
	Reminder      int                 `json:"reminder"`
	Category      normalize.Category  `json:"category"`
	CalDAVUID     string              `json:"caldav_uid,omitempty"`
	CalDAVHref    string              `json:"caldav_href,omitempty"`
	GoogleEventID string              `json:"google_event_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toEventDTOs(events []application.Event) []eventDTO {
	out := make([]eventDTO, len(events))
	for i, event := range events {
		out[i] = eventDTO{
			ID:            event.ID,
			Title:         event.Title,
			Date:          event.Date,
			StartTime:     event.StartTime,
			Duration:      event.Duration,
			AllDay:        event.AllDay(),
			Location:      event.Location,
			Description:   event.Description,
			Participants:  event.Participants,
			Reminder:      event.Reminder,
			Category:      event.Category,
			CalDAVUID:     event.CalDAVUID,
			CalDAVHref:    event.CalDAVHref,
			GoogleEventID: event.GoogleEventID,
			CreatedAt:     event.CreatedAt,
			UpdatedAt:     event.UpdatedAt,
		}
	}
	return out
}
