package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/example/autoplanner/internal/normalize"
	"github.com/example/autoplanner/internal/persistence"
)

const defaultNormalizeWorkers = 4

// EventRepository captures the persistence interactions needed to schedule events.
type EventRepository interface {
	GetEvent(ctx context.Context, ownerID, id string) (Event, error)
	CreateEvent(ctx context.Context, event Event) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
}

// EventLister is implemented by repositories that can enumerate an owner's events.
type EventLister interface {
	ListEvents(ctx context.Context, ownerID string) ([]Event, error)
}

// EventNormalizer turns loosely typed candidates into resolved records.
type EventNormalizer interface {
	Normalize(c normalize.Candidate, ref time.Time) (normalize.Fields, error)
}

// EventService normalizes candidates and persists the resulting events.
type EventService struct {
	events      EventRepository
	normalizer  EventNormalizer
	idGenerator func() string
	now         func() time.Time
	workers     int
	logger      *slog.Logger
}

// NewEventService wires dependencies for event scheduling.
func NewEventService(events EventRepository, normalizer EventNormalizer, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(events, normalizer, idGenerator, now, nil)
}

// NewEventServiceWithLogger constructs an event service with a specified logger.
func NewEventServiceWithLogger(events EventRepository, normalizer EventNormalizer, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:      events,
		normalizer:  normalizer,
		idGenerator: idGenerator,
		now:         now,
		workers:     defaultNormalizeWorkers,
		logger:      defaultLogger(logger),
	}
}

// WithNormalizeWorkers bounds how many candidates are normalized concurrently.
// Values below one are ignored.
func (s *EventService) WithNormalizeWorkers(n int) *EventService {
	if s != nil && n > 0 {
		s.workers = n
	}
	return s
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// Schedule persists a normalized record for principal. A non-empty existingID
// updates that event, which must belong to principal; otherwise a new event is
// created.
func (s *EventService) Schedule(ctx context.Context, principal Principal, fields normalize.Fields, existingID string) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Schedule",
		"principal_id", principal.UserID,
		"existing_id", existingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to schedule event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID).InfoContext(ctx, "event scheduled")
	}()

	if strings.TrimSpace(principal.UserID) == "" {
		err = &ScheduleError{Op: "validate", EventID: existingID, Err: ErrUnauthorized}
		return
	}
	if vErr := validateFields(fields); vErr.HasErrors() {
		err = &ScheduleError{Op: "validate", EventID: existingID, Err: vErr}
		return
	}

	if existingID != "" {
		event, err = s.update(ctx, principal, fields, existingID)
		return
	}
	event, err = s.create(ctx, principal, fields)
	return
}

func (s *EventService) create(ctx context.Context, principal Principal, fields normalize.Fields) (Event, error) {
	createdAt := s.now()
	event := applyFields(Event{
		ID:            s.idGenerator(),
		OwnerID:       principal.UserID,
		CalDAVUID:     fields.CalDAVUID,
		CalDAVHref:    fields.CalDAVHref,
		GoogleEventID: fields.GoogleEventID,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}, fields)

	persisted, err := s.events.CreateEvent(ctx, event)
	if err != nil {
		return Event{}, &ScheduleError{Op: "create", EventID: event.ID, Err: mapEventRepoError(err)}
	}
	return persisted, nil
}

func (s *EventService) update(ctx context.Context, principal Principal, fields normalize.Fields, id string) (Event, error) {
	existing, err := s.events.GetEvent(ctx, principal.UserID, id)
	if err != nil {
		return Event{}, &ScheduleError{Op: "update", EventID: id, Err: mapEventRepoError(err)}
	}
	if existing.OwnerID != principal.UserID {
		return Event{}, &ScheduleError{Op: "update", EventID: id, Err: ErrNotFound}
	}

	updated := applyFields(existing, fields)
	if fields.CalDAVUID != "" {
		updated.CalDAVUID = fields.CalDAVUID
	}
	if fields.CalDAVHref != "" {
		updated.CalDAVHref = fields.CalDAVHref
	}
	if fields.GoogleEventID != "" {
		updated.GoogleEventID = fields.GoogleEventID
	}
	updated.UpdatedAt = s.now()

	persisted, err := s.events.UpdateEvent(ctx, updated)
	if err != nil {
		return Event{}, &ScheduleError{Op: "update", EventID: id, Err: mapEventRepoError(err)}
	}
	return persisted, nil
}

// ScheduleItems schedules each item in order, collecting per-item failures
// instead of stopping.
func (s *EventService) ScheduleItems(ctx context.Context, principal Principal, items []ScheduleItem) (BatchResult, error) {
	if s == nil {
		return BatchResult{}, fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return BatchResult{}, fmt.Errorf("event repository not configured")
	}

	indices := make([]int, len(items))
	for i := range items {
		indices[i] = i
	}
	result := s.scheduleAll(ctx, principal, items, indices)

	s.loggerWith(ctx, "ScheduleItems", "principal_id", principal.UserID).InfoContext(ctx, "batch scheduled",
		"requested", len(items),
		"created", len(result.Created),
		"failed", len(result.Errors),
	)
	return result, nil
}

// ScheduleBatch creates one event per record.
func (s *EventService) ScheduleBatch(ctx context.Context, principal Principal, records []normalize.Fields) (BatchResult, error) {
	items := make([]ScheduleItem, len(records))
	for i, fields := range records {
		items[i] = ScheduleItem{Fields: fields}
	}
	return s.ScheduleItems(ctx, principal, items)
}

// NormalizeBatch normalizes candidates against the service clock. Failures
// are reported per candidate.
func (s *EventService) NormalizeBatch(ctx context.Context, candidates []normalize.Candidate) (NormalizeResult, error) {
	if s == nil {
		return NormalizeResult{}, fmt.Errorf("EventService is nil")
	}
	if s.normalizer == nil {
		return NormalizeResult{}, fmt.Errorf("event normalizer not configured")
	}
	return s.normalizeAll(ctx, candidates, s.now())
}

// ProcessBatch normalizes every candidate against a single reference instant
// and schedules the survivors in input order. Error indices refer to
// candidates.
func (s *EventService) ProcessBatch(ctx context.Context, principal Principal, candidates []normalize.Candidate) (result BatchResult, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}
	if s.normalizer == nil {
		err = fmt.Errorf("event normalizer not configured")
		return
	}

	logger := s.loggerWith(ctx, "ProcessBatch",
		"principal_id", principal.UserID,
		"candidates", len(candidates),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to process batch", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "batch processed", "created", len(result.Created), "failed", len(result.Errors))
	}()

	normalized, err := s.normalizeAll(ctx, candidates, s.now())
	if err != nil {
		return
	}

	items := make([]ScheduleItem, len(normalized.Normalized))
	indices := make([]int, len(normalized.Normalized))
	for i, item := range normalized.Normalized {
		items[i] = ScheduleItem{Fields: item.Fields}
		indices[i] = item.Index
	}
	scheduled := s.scheduleAll(ctx, principal, items, indices)

	result.Created = scheduled.Created
	result.Errors = mergeBatchErrors(normalized.Errors, scheduled.Errors)
	return
}

// ListEvents returns the principal's events ordered by date and start time.
func (s *EventService) ListEvents(ctx context.Context, principal Principal) ([]Event, error) {
	if s == nil {
		return nil, fmt.Errorf("EventService is nil")
	}
	lister, ok := s.events.(EventLister)
	if !ok {
		return nil, fmt.Errorf("event repository does not support listing")
	}
	if strings.TrimSpace(principal.UserID) == "" {
		return nil, ErrUnauthorized
	}

	events, err := lister.ListEvents(ctx, principal.UserID)
	if err != nil {
		return nil, mapEventRepoError(err)
	}
	return events, nil
}

// GetEvent returns a single event owned by principal.
func (s *EventService) GetEvent(ctx context.Context, principal Principal, id string) (Event, error) {
	if s == nil {
		return Event{}, fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}
	if strings.TrimSpace(principal.UserID) == "" {
		return Event{}, ErrUnauthorized
	}

	event, err := s.events.GetEvent(ctx, principal.UserID, id)
	if err != nil {
		return Event{}, mapEventRepoError(err)
	}
	if event.OwnerID != principal.UserID {
		return Event{}, ErrNotFound
	}
	return event, nil
}

func (s *EventService) normalizeAll(ctx context.Context, candidates []normalize.Candidate, ref time.Time) (NormalizeResult, error) {
	type outcome struct {
		fields normalize.Fields
		err    error
	}
	outcomes := make([]outcome, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, candidate := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fields, err := s.normalizer.Normalize(candidate, ref)
			outcomes[i] = outcome{fields: fields, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return NormalizeResult{}, err
	}

	var result NormalizeResult
	for i, o := range outcomes {
		if o.err != nil {
			result.Errors = append(result.Errors, BatchError{
				Index:  i,
				Title:  candidates[i].DisplayTitle(),
				Reason: o.err.Error(),
				Kind:   ErrorKind(o.err),
			})
			continue
		}
		result.Normalized = append(result.Normalized, NormalizedItem{Index: i, Fields: o.fields})
	}
	return result, nil
}

// scheduleAll schedules items sequentially; indices maps each item back to the
// caller's numbering.
func (s *EventService) scheduleAll(ctx context.Context, principal Principal, items []ScheduleItem, indices []int) BatchResult {
	var result BatchResult
	for i, item := range items {
		event, err := s.Schedule(ctx, principal, item.Fields, item.EventID)
		if err != nil {
			result.Errors = append(result.Errors, BatchError{
				Index:  indices[i],
				Title:  item.Fields.Title,
				Reason: err.Error(),
				Kind:   ErrorKind(err),
			})
			continue
		}
		result.Created = append(result.Created, event)
	}
	return result
}

// mergeBatchErrors interleaves two index-ordered error lists.
func mergeBatchErrors(a, b []BatchError) []BatchError {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	merged := make([]BatchError, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Index <= b[j].Index {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	merged = append(merged, a[i:]...)
	return append(merged, b[j:]...)
}

// isAllDay re-derives the all-day flag from the record rather than trusting it.
func isAllDay(fields normalize.Fields) bool {
	return fields.AllDay || fields.StartTime == nil || fields.Duration == nil || *fields.Duration <= 0
}

// applyFields copies the schedulable parts of fields onto event.
func applyFields(event Event, fields normalize.Fields) Event {
	event.Title = strings.TrimSpace(fields.Title)
	event.Date = fields.Date
	if isAllDay(fields) {
		event.StartTime = normalize.Midnight
		event.Duration = AllDayMinutes
	} else {
		event.StartTime = *fields.StartTime
		event.Duration = *fields.Duration
	}
	event.Location = fields.Location
	event.Description = fields.Description
	event.Participants = fields.Participants
	event.Reminder = fields.Reminder
	event.Category = fields.Category
	if event.Category == "" {
		event.Category = normalize.CategoryOther
	}
	return event
}

func validateFields(fields normalize.Fields) *ValidationError {
	vErr := &ValidationError{}

	title := strings.TrimSpace(fields.Title)
	switch {
	case title == "":
		vErr.add("title", "title is required")
	case utf8.RuneCountInString(title) > 200:
		vErr.add("title", "title must be at most 200 characters")
	}

	if fields.Date.IsZero() {
		vErr.add("date", "date is required")
	}

	if !isAllDay(fields) && *fields.Duration > normalize.MaxDurationMinutes {
		vErr.add("duration", fmt.Sprintf("duration must be between 1 and %d minutes", normalize.MaxDurationMinutes))
	}

	if fields.Reminder < 0 || fields.Reminder > normalize.MaxReminderMinutes {
		vErr.add("reminder", fmt.Sprintf("reminder must be between 0 and %d minutes", normalize.MaxReminderMinutes))
	}

	if fields.Category != "" && !fields.Category.Valid() {
		vErr.add("category", "unknown category")
	}

	return vErr
}

func mapEventRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, ErrAlreadyExists) || errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("event", "violates storage constraints")
		return vErr
	}
	return err
}
