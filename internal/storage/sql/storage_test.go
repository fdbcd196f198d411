//go:build sql
// +build sql

package sqlstorage_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/dataacq/calsync/internal/storage"
	sqlstorage "github.com/dataacq/calsync/internal/storage/sql"
)

var (
	host     = "127.0.0.1"
	port     = 5532
	database = "testing"
	username = "postgres"
	password = "pas"
)

func TestMain(m *testing.M) {
	pgHost := os.Getenv("POSTGRES_HOST")
	pgPort := os.Getenv("POSTGRES_PORT")
	if pgHost != "" {
		host = pgHost
	}
	if pgPort != "" {
		port, _ = strconv.Atoi(pgPort)
	}

	cleanupDb()
	code := m.Run()
	os.Exit(code)
}

func TestStorage(t *testing.T) {
	initDate := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("migrate is idempotent", func(t *testing.T) {
		ctx := context.Background()
		s := createStorage(t)

		require.NoError(t, s.Migrate(ctx))
		require.NoError(t, s.Migrate(ctx))
	})

	t.Run("upsert overwrites by id", func(t *testing.T) {
		ctx := context.Background()
		s := createStorage(t)
		e := testEvent("e1", initDate)

		require.NoError(t, s.UpsertEvent(ctx, e))

		e.Title = "updated title"
		e.StartTime = e.StartTime.Add(30 * time.Minute)
		e.Status = "cancelled"
		require.NoError(t, s.UpsertEvent(ctx, e))

		stored, err := s.GetEvent(ctx, "e1")
		require.NoError(t, err)
		compareEvents(t, e, stored)

		events, err := s.GetEventsForRange(ctx, initDate, initDate.Add(time.Hour))
		require.NoError(t, err)
		require.Equal(t, 1, len(events))
	})

	t.Run("attendee pair inserted once", func(t *testing.T) {
		ctx := context.Background()
		s := createStorage(t)
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
		ctx := context.Background()
		s := createStorage(t)
		require.NoError(t, s.UpsertEvent(ctx, testEvent("later", initDate.AddDate(0, 0, 2))))
		require.NoError(t, s.UpsertEvent(ctx, testEvent("earlier", initDate)))

		events, err := s.GetEventsForRange(ctx, initDate, initDate.AddDate(0, 0, 7))
		require.NoError(t, err)
		require.Equal(t, 2, len(events))
		require.Equal(t, "earlier", events[0].ID)
		require.Equal(t, "later", events[1].ID)
	})
}

func TestStorageNegativeCases(t *testing.T) {
	t.Run("attendee for unknown event", func(t *testing.T) {
		ctx := context.Background()
		s := createStorage(t)

		err := s.AddAttendee(ctx, storage.Attendee{EventID: "___not_exists___", Email: "a1@x.com"})
		require.ErrorIs(t, err, storage.ErrUnknownAttendee)
	})

	t.Run("get unknown event", func(t *testing.T) {
		ctx := context.Background()
		s := createStorage(t)

		_, err := s.GetEvent(ctx, "___not_exists___")
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})
}

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

func cleanupDb() error {
	db, err := sqlx.Connect(
		"postgres",
		fmt.Sprintf("sslmode=disable host=%s port=%d dbname=%s user=%s password=%s", host, port, database, username, password),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("DROP TABLE IF EXISTS attendees")
	if err != nil {
		return err
	}
	_, err = db.Exec("DROP TABLE IF EXISTS events")
	return err
}

func compareEvents(t *testing.T, expected storage.Event, actual storage.Event) {
	t.Helper()
	require.True(t, expected.StartTime.Equal(actual.StartTime), "start time is not equals %q != %q", expected.StartTime, actual.StartTime)
	require.True(t, expected.EndTime.Equal(actual.EndTime), "end time is not equals %q != %q", expected.EndTime, actual.EndTime)
	require.True(t, expected.Updated.Equal(actual.Updated), "updated is not equals %q != %q", expected.Updated, actual.Updated)
	expected.StartTime = actual.StartTime
	expected.EndTime = actual.EndTime
	expected.Updated = actual.Updated
	require.Equal(t, expected, actual)
}

func createStorage(t *testing.T) *sqlstorage.Storage {
	t.Helper()
	s := sqlstorage.New(sqlstorage.Config{
		Host:     host,
		Port:     port,
		Database: database,
		Username: username,
		Password: password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() {
		s.Close(ctx)
		cancel()
		require.NoError(t, cleanupDb())
	})
	return s
}
