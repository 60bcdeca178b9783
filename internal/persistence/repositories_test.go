package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/autoplanner/internal/normalize"
	"github.com/example/autoplanner/internal/persistence"
	"github.com/example/autoplanner/internal/persistence/memory"
	"github.com/example/autoplanner/internal/testfixtures"
)

type repositoryFactory func(t *testing.T) persistence.EventRepository

func repositories() map[string]repositoryFactory {
	return map[string]repositoryFactory{
		"memory": func(t *testing.T) persistence.EventRepository {
			return memory.New()
		},
		"sqlite": func(t *testing.T) persistence.EventRepository {
			return testfixtures.NewSQLiteHarness(t).Events
		},
	}
}

func newPersistenceEvent(opts ...testfixtures.EventOption) persistence.Event {
	return testfixtures.NewEventFixture(opts...).Persistence()
}

func TestEventRepository(t *testing.T) {
	t.Parallel()

	for name, factory := range repositories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			t.Run("creates, reads, updates, and deletes events", func(t *testing.T) {
				t.Parallel()

				ctx := context.Background()
				repo := factory(t)

				base := testfixtures.ReferenceTime()
				event := newPersistenceEvent(
					testfixtures.WithEventID("evt-crud"),
					testfixtures.WithEventOwner("user-1"),
					testfixtures.WithEventTitle("Planning"),
					testfixtures.WithEventLocation("Room 1"),
					testfixtures.WithEventParticipants("a@example.com", "b@example.com"),
					testfixtures.WithEventSyncIDs("uid-1", "/cal/uid-1.ics", ""),
					testfixtures.WithEventTimestamps(base, base),
				)

				if err := repo.CreateEvent(ctx, event); err != nil {
					t.Fatalf("CreateEvent failed: %v", err)
				}

				fetched, err := repo.GetEvent(ctx, "user-1", event.ID)
				if err != nil {
					t.Fatalf("GetEvent failed: %v", err)
				}
				if fetched.Title != "Planning" || fetched.Date != event.Date || fetched.StartTime != "10:00:00" {
					t.Fatalf("unexpected event %+v", fetched)
				}
				if fetched.Location == nil || *fetched.Location != "Room 1" {
					t.Fatalf("expected location to round trip, got %v", fetched.Location)
				}
				if fetched.Description != nil {
					t.Fatalf("expected nil description, got %v", *fetched.Description)
				}
				if fetched.Participants == nil || *fetched.Participants != "a@example.com,b@example.com" {
					t.Fatalf("expected participants to round trip, got %v", fetched.Participants)
				}
				if fetched.CalDAVUID != "uid-1" || fetched.CalDAVHref != "/cal/uid-1.ics" || fetched.GoogleEventID != "" {
					t.Fatalf("unexpected sync ids %+v", fetched)
				}
				if !fetched.CreatedAt.Equal(base) {
					t.Fatalf("expected created_at %v, got %v", base, fetched.CreatedAt)
				}

				updated := fetched
				updated.Title = "Planning (moved)"
				updated.Date = "2024-02-01"
				updated.StartTime = "00:00:00"
				updated.Duration = 1440
				updated.Location = nil
				updated.UpdatedAt = base.Add(time.Hour)
				if err := repo.UpdateEvent(ctx, updated); err != nil {
					t.Fatalf("UpdateEvent failed: %v", err)
				}

				fetched, err = repo.GetEvent(ctx, "user-1", event.ID)
				if err != nil {
					t.Fatalf("GetEvent after update failed: %v", err)
				}
				if fetched.Title != "Planning (moved)" || fetched.Duration != 1440 || fetched.Location != nil {
					t.Fatalf("update not applied: %+v", fetched)
				}
				if !fetched.CreatedAt.Equal(base) || !fetched.UpdatedAt.Equal(base.Add(time.Hour)) {
					t.Fatalf("unexpected timestamps %v/%v", fetched.CreatedAt, fetched.UpdatedAt)
				}

				if err := repo.DeleteEvent(ctx, "user-1", event.ID); err != nil {
					t.Fatalf("DeleteEvent failed: %v", err)
				}
				if _, err := repo.GetEvent(ctx, "user-1", event.ID); !errors.Is(err, persistence.ErrNotFound) {
					t.Fatalf("expected ErrNotFound after delete, got %v", err)
				}
			})

			t.Run("scopes events by owner", func(t *testing.T) {
				t.Parallel()

				ctx := context.Background()
				repo := factory(t)
				event := newPersistenceEvent(testfixtures.WithEventOwner("owner"))
				if err := repo.CreateEvent(ctx, event); err != nil {
					t.Fatalf("CreateEvent failed: %v", err)
				}

				if _, err := repo.GetEvent(ctx, "intruder", event.ID); !errors.Is(err, persistence.ErrNotFound) {
					t.Fatalf("expected ErrNotFound for other owner, got %v", err)
				}

				foreign := event
				foreign.OwnerID = "intruder"
				foreign.Title = "Hijacked"
				if err := repo.UpdateEvent(ctx, foreign); !errors.Is(err, persistence.ErrNotFound) {
					t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
				}
				if err := repo.DeleteEvent(ctx, "intruder", event.ID); !errors.Is(err, persistence.ErrNotFound) {
					t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
				}

				stored, err := repo.GetEvent(ctx, "owner", event.ID)
				if err != nil || stored.Title != event.Title {
					t.Fatalf("expected stored event to be untouched, got %+v, %v", stored, err)
				}
			})

			t.Run("rejects duplicate ids", func(t *testing.T) {
				t.Parallel()

				ctx := context.Background()
				repo := factory(t)
				event := newPersistenceEvent()
				if err := repo.CreateEvent(ctx, event); err != nil {
					t.Fatalf("CreateEvent failed: %v", err)
				}
				if err := repo.CreateEvent(ctx, event); !errors.Is(err, persistence.ErrDuplicate) {
					t.Fatalf("expected ErrDuplicate, got %v", err)
				}
			})

			t.Run("lists by date, start time, and id", func(t *testing.T) {
				t.Parallel()

				ctx := context.Background()
				repo := factory(t)
				day := normalize.Date{Year: 2024, Month: time.March, Day: 1}

				events := []persistence.Event{
					newPersistenceEvent(testfixtures.WithEventID("c"), testfixtures.WithEventOwner("u"), testfixtures.WithEventDate(day.AddDays(1)), testfixtures.WithEventSlot(normalize.TimeOfDay{Hour: 8}, 30)),
					newPersistenceEvent(testfixtures.WithEventID("b"), testfixtures.WithEventOwner("u"), testfixtures.WithEventDate(day), testfixtures.WithEventSlot(normalize.TimeOfDay{Hour: 9}, 30)),
					newPersistenceEvent(testfixtures.WithEventID("a"), testfixtures.WithEventOwner("u"), testfixtures.WithEventDate(day), testfixtures.WithEventSlot(normalize.TimeOfDay{Hour: 9}, 30)),
					newPersistenceEvent(testfixtures.WithEventID("d"), testfixtures.WithEventOwner("u"), testfixtures.WithEventDate(day), testfixtures.WithEventAllDay()),
					newPersistenceEvent(testfixtures.WithEventID("z"), testfixtures.WithEventOwner("other"), testfixtures.WithEventDate(day)),
				}
				for _, event := range events {
					if err := repo.CreateEvent(ctx, event); err != nil {
						t.Fatalf("CreateEvent(%s) failed: %v", event.ID, err)
					}
				}

				listed, err := repo.ListEvents(ctx, "u")
				if err != nil {
					t.Fatalf("ListEvents failed: %v", err)
				}
				var ids []string
				for _, event := range listed {
					ids = append(ids, event.ID)
				}
				want := []string{"d", "a", "b", "c"}
				if len(ids) != len(want) {
					t.Fatalf("expected %v, got %v", want, ids)
				}
				for i := range want {
					if ids[i] != want[i] {
						t.Fatalf("expected %v, got %v", want, ids)
					}
				}

				empty, err := repo.ListEvents(ctx, "nobody")
				if err != nil || len(empty) != 0 {
					t.Fatalf("expected no events, got %v, %v", empty, err)
				}
			})

			t.Run("fills zero timestamps", func(t *testing.T) {
				t.Parallel()

				ctx := context.Background()
				repo := factory(t)
				event := newPersistenceEvent(testfixtures.WithEventTimestamps(time.Time{}, time.Time{}))
				if err := repo.CreateEvent(ctx, event); err != nil {
					t.Fatalf("CreateEvent failed: %v", err)
				}

				stored, err := repo.GetEvent(ctx, event.OwnerID, event.ID)
				if err != nil {
					t.Fatalf("GetEvent failed: %v", err)
				}
				if stored.CreatedAt.IsZero() || !stored.UpdatedAt.Equal(stored.CreatedAt) {
					t.Fatalf("expected filled timestamps, got %v/%v", stored.CreatedAt, stored.UpdatedAt)
				}
			})
		})
	}
}
