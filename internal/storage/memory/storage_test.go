package memorystorage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dataacq/calsync/internal/storage"
	memorystorage "github.com/dataacq/calsync/internal/storage/memory"
)

func testEvent(id string, start time.Time) storage.Event {
	return storage.Event{
		ID:        id,
		Title:     "test",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Updated:   start,
		Status:    "confirmed",
		Organizer: "owner@example.com",
	}
}

func TestStorage(t *testing.T) {
	ctx := context.Background()
	initDate := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("upsert overwrites by id", func(t *testing.T) {
		s := memorystorage.New()
		e := testEvent("e1", initDate)
		require.NoError(t, s.UpsertEvent(ctx, e))

		e.Title = "updated title"
		e.Status = "cancelled"
		require.NoError(t, s.UpsertEvent(ctx, e))

		stored, err := s.GetEvent(ctx, "e1")
		require.NoError(t, err)
		require.Equal(t, e, stored)

		events, err := s.GetEventsForRange(ctx, initDate.Add(-time.Hour), initDate.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, events, 1)
	})

	t.Run("attendee pair inserted once", func(t *testing.T) {
		s := memorystorage.New()
		require.NoError(t, s.UpsertEvent(ctx, testEvent("e1", initDate)))

		a := storage.Attendee{EventID: "e1", Email: "a1@x.com"}
		require.NoError(t, s.AddAttendee(ctx, a))
		require.NoError(t, s.AddAttendee(ctx, a))
		require.NoError(t, s.AddAttendee(ctx, storage.Attendee{EventID: "e1", Email: "a2@x.com"}))

		attendees, err := s.GetAttendees(ctx, "e1")
		require.NoError(t, err)
		require.Equal(t, []storage.Attendee{
			{EventID: "e1", Email: "a1@x.com"},
			{EventID: "e1", Email: "a2@x.com"},
		}, attendees)
	})

	t.Run("range query ordered by start time", func(t *testing.T) {
		s := memorystorage.New()
		require.NoError(t, s.UpsertEvent(ctx, testEvent("later", initDate.AddDate(0, 0, 2))))
		require.NoError(t, s.UpsertEvent(ctx, testEvent("earlier", initDate)))
		require.NoError(t, s.UpsertEvent(ctx, testEvent("outside", initDate.AddDate(0, 1, 0))))

		events, err := s.GetEventsForRange(ctx, initDate, initDate.AddDate(0, 0, 7))
		require.NoError(t, err)
		require.Len(t, events, 2)
		require.Equal(t, "earlier", events[0].ID)
		require.Equal(t, "later", events[1].ID)
	})
}

func TestStorageNegativeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("attendee for unknown event", func(t *testing.T) {
		s := memorystorage.New()
		err := s.AddAttendee(ctx, storage.Attendee{EventID: "missing", Email: "a1@x.com"})
		require.ErrorIs(t, err, storage.ErrUnknownAttendee)
	})

	t.Run("get unknown event", func(t *testing.T) {
		s := memorystorage.New()
		_, err := s.GetEvent(ctx, "missing")
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})
}
