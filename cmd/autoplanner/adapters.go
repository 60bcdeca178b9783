package main

import (
	"context"
	"fmt"

	"github.com/example/autoplanner/internal/application"
	"github.com/example/autoplanner/internal/normalize"
	"github.com/example/autoplanner/internal/persistence"
)

type eventRepositoryAdapter struct {
	repo persistence.EventRepository
}

func newEventRepositoryAdapter(repo persistence.EventRepository) *eventRepositoryAdapter {
	return &eventRepositoryAdapter{repo: repo}
}

func (a *eventRepositoryAdapter) CreateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.CreateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.Event{}, err
	}
	return a.GetEvent(ctx, event.OwnerID, event.ID)
}

func (a *eventRepositoryAdapter) UpdateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.UpdateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.Event{}, err
	}
	return a.GetEvent(ctx, event.OwnerID, event.ID)
}

func (a *eventRepositoryAdapter) GetEvent(ctx context.Context, ownerID, id string) (application.Event, error) {
	stored, err := a.repo.GetEvent(ctx, ownerID, id)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored)
}

func (a *eventRepositoryAdapter) ListEvents(ctx context.Context, ownerID string) ([]application.Event, error) {
	models, err := a.repo.ListEvents(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	events := make([]application.Event, 0, len(models))
	for _, model := range models {
		event, err := toApplicationEvent(model)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func toPersistenceEvent(event application.Event) persistence.Event {
	return persistence.Event{
		ID:            event.ID,
		OwnerID:       event.OwnerID,
		Title:         event.Title,
		Date:          event.Date.String(),
		StartTime:     event.StartTime.String(),
		Duration:      event.Duration,
		Location:      event.Location,
		Description:   event.Description,
		Participants:  event.Participants,
		Reminder:      event.Reminder,
		Category:      string(event.Category),
		CalDAVUID:     event.CalDAVUID,
		CalDAVHref:    event.CalDAVHref,
		GoogleEventID: event.GoogleEventID,
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.UpdatedAt,
	}
}

func toApplicationEvent(model persistence.Event) (application.Event, error) {
	date, err := normalize.ParseDate(model.Date)
	if err != nil {
		return application.Event{}, fmt.Errorf("decode event %s date: %w", model.ID, err)
	}
	start, err := normalize.ParseTimeOfDay(model.StartTime)
	if err != nil {
		return application.Event{}, fmt.Errorf("decode event %s start time: %w", model.ID, err)
	}
	return application.Event{
		ID:            model.ID,
		OwnerID:       model.OwnerID,
		Title:         model.Title,
		Date:          date,
		StartTime:     start,
		Duration:      model.Duration,
		Location:      model.Location,
		Description:   model.Description,
		Participants:  model.Participants,
		Reminder:      model.Reminder,
		Category:      normalize.Category(model.Category),
		CalDAVUID:     model.CalDAVUID,
		CalDAVHref:    model.CalDAVHref,
		GoogleEventID: model.GoogleEventID,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}, nil
}
