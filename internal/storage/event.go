package storage

import (
	"time"
)

// Event is one normalized calendar occurrence, keyed by the upstream event id.
type Event struct {
	ID        string    `db:"event_id"`
	Title     string    `db:"title"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
	Updated   time.Time `db:"updated"`
	Status    string    `db:"status"`
	Organizer string    `db:"organizer"`
}

// Attendee is one email address attached to one event. The pair
// (EventID, Email) is the natural key; inserting the same pair again
// is a no-op.
type Attendee struct {
	EventID string `db:"event_id"`
	Email   string `db:"email"`
}
