// Package normalizer maps raw Google Calendar entries to validated
// store records. Validation is strict: the first malformed record
// fails the whole run, nothing is skipped silently.
package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/dataacq/calsync/internal/storage"
)

const (
	placeholderTitle     = "No Title"
	placeholderStatus    = "No Status"
	placeholderOrganizer = "No Organizer"
	placeholderEmail     = "No Email"
)

var (
	ErrMissingID      = errors.New("event has no id")
	ErrMissingTime    = errors.New("missing both datetime and date")
	ErrInvalidUpdated = errors.New("invalid updated timestamp")
	ErrInvalidEmail   = errors.New("invalid attendee email")
)

var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Normalize validates one raw event into exactly one Event and its
// attendees, in the order they appear in the raw entry.
func Normalize(item *calendar.Event) (storage.Event, []storage.Attendee, error) {
	if item.Id == "" {
		return storage.Event{}, nil, ErrMissingID
	}

	startTime, err := parseEventTime(item.Start)
	if err != nil {
		return storage.Event{}, nil, fmt.Errorf("event %q: start time: %w", item.Id, err)
	}
	endTime, err := parseEventTime(item.End)
	if err != nil {
		return storage.Event{}, nil, fmt.Errorf("event %q: end time: %w", item.Id, err)
	}
	updated, err := time.Parse(time.RFC3339, item.Updated)
	if err != nil {
		return storage.Event{}, nil, fmt.Errorf("event %q: %w: %q", item.Id, ErrInvalidUpdated, item.Updated)
	}

	event := storage.Event{
		ID:        item.Id,
		Title:     stringOr(item.Summary, placeholderTitle),
		StartTime: startTime,
		EndTime:   endTime,
		Updated:   updated,
		Status:    stringOr(item.Status, placeholderStatus),
		Organizer: organizerEmail(item.Organizer),
	}

	attendees := make([]storage.Attendee, 0, len(item.Attendees))
	for _, raw := range item.Attendees {
		email := strings.TrimSpace(stringOr(raw.Email, placeholderEmail))
		if !emailShape.MatchString(email) {
			return storage.Event{}, nil,
				fmt.Errorf("event %q: attendee %q: %w", item.Id, email, ErrInvalidEmail)
		}
		attendees = append(attendees, storage.Attendee{EventID: item.Id, Email: email})
	}

	return event, attendees, nil
}

// parseEventTime resolves an event boundary: a precise datetime when
// present, otherwise the date-only value (all-day event) at midnight in
// the entry's stated zone.
func parseEventTime(eventTime *calendar.EventDateTime) (time.Time, error) {
	if eventTime == nil {
		return time.Time{}, ErrMissingTime
	}

	if eventTime.DateTime != "" {
		t, err := time.Parse(time.RFC3339, eventTime.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse datetime %q: %w", eventTime.DateTime, err)
		}
		return t, nil
	}

	if eventTime.Date != "" {
		t, err := time.Parse("2006-01-02", eventTime.Date)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date %q: %w", eventTime.Date, err)
		}
		if eventTime.TimeZone != "" {
			loc, err := time.LoadLocation(eventTime.TimeZone)
			if err == nil {
				t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
			}
		}
		return t, nil
	}

	return time.Time{}, ErrMissingTime
}

func organizerEmail(organizer *calendar.EventOrganizer) string {
	if organizer == nil || organizer.Email == "" {
		return placeholderOrganizer
	}
	return organizer.Email
}

func stringOr(value string, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}
