package main

import (
	"context"
	"errors"
	"testing"

	"github.com/example/autoplanner/internal/application"
	"github.com/example/autoplanner/internal/normalize"
	"github.com/example/autoplanner/internal/persistence"
	"github.com/example/autoplanner/internal/persistence/memory"
	"github.com/example/autoplanner/internal/testfixtures"
)

func TestEventRepositoryAdapter(t *testing.T) {
	t.Parallel()

	t.Run("round trips events through the store", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		adapter := newEventRepositoryAdapter(memory.New())
		event := testfixtures.NewEventFixture(
			testfixtures.WithEventID("evt-1"),
			testfixtures.WithEventOwner("owner"),
			testfixtures.WithEventSlot(normalize.TimeOfDay{Hour: 13, Minute: 45}, 50),
			testfixtures.WithEventLocation("Cafe"),
		).Application()

		created, err := adapter.CreateEvent(ctx, event)
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		if created.StartTime != event.StartTime || created.Date != event.Date || created.Category != event.Category {
			t.Fatalf("unexpected created event %+v", created)
		}
		if created.Location == nil || *created.Location != "Cafe" {
			t.Fatalf("expected location to round trip, got %v", created.Location)
		}

		created.Title = "Renamed"
		updated, err := adapter.UpdateEvent(ctx, created)
		if err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}
		if updated.Title != "Renamed" {
			t.Fatalf("expected renamed event, got %q", updated.Title)
		}

		listed, err := adapter.ListEvents(ctx, "owner")
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(listed) != 1 || listed[0].ID != "evt-1" {
			t.Fatalf("unexpected listing %+v", listed)
		}
	})

	t.Run("passes store errors through", func(t *testing.T) {
		t.Parallel()

		adapter := newEventRepositoryAdapter(memory.New())
		if _, err := adapter.GetEvent(context.Background(), "owner", "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected persistence.ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects rows with malformed dates", func(t *testing.T) {
		t.Parallel()

		row := testfixtures.NewEventFixture().Persistence()
		row.Date = "2024-13-40"
		if _, err := toApplicationEvent(row); err == nil {
			t.Fatalf("expected decode error")
		}
	})

	t.Run("all-day events keep their stored shape", func(t *testing.T) {
		t.Parallel()

		event := testfixtures.NewEventFixture(testfixtures.WithEventAllDay()).Application()
		row := toPersistenceEvent(event)
		if row.StartTime != "00:00:00" || row.Duration != application.AllDayMinutes {
			t.Fatalf("unexpected row %+v", row)
		}
		back, err := toApplicationEvent(row)
		if err != nil {
			t.Fatalf("toApplicationEvent failed: %v", err)
		}
		if !back.AllDay() {
			t.Fatalf("expected all-day event after round trip")
		}
	})
}
