package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFoundEvent   = errors.New("event not found")
	ErrUnknownAttendee = errors.New("attendee references unknown event")
)

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	// Migrate creates the destination tables if they do not exist yet.
	Migrate(ctx context.Context) error
	// UpsertEvent inserts the event or overwrites every mutable field of an
	// existing row with the same ID.
	UpsertEvent(ctx context.Context, e Event) error
	// AddAttendee inserts the (event_id, email) pair; an already present
	// pair is a no-op. The referenced event row must exist.
	AddAttendee(ctx context.Context, a Attendee) error
	GetEvent(ctx context.Context, id string) (Event, error)
	GetEventsForRange(ctx context.Context, startTime time.Time, endTime time.Time) ([]Event, error)
	GetAttendees(ctx context.Context, eventID string) ([]Attendee, error)
}
