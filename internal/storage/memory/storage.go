package memorystorage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dataacq/calsync/internal/storage"
)

type Storage struct {
	mu        sync.RWMutex
	events    map[string]storage.Event
	attendees map[string][]storage.Attendee
}

func New() *Storage {
	return &Storage{
		events:    make(map[string]storage.Event),
		attendees: make(map[string][]storage.Attendee),
	}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) Migrate(_ context.Context) error {
	return nil
}

func (s *Storage) UpsertEvent(_ context.Context, e storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	return nil
}

func (s *Storage) AddAttendee(_ context.Context, a storage.Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[a.EventID]; !ok {
		return fmt.Errorf("attendee %q of event %q: %w", a.Email, a.EventID, storage.ErrUnknownAttendee)
	}
	for _, existing := range s.attendees[a.EventID] {
		if existing.Email == a.Email {
			return nil
		}
	}
	s.attendees[a.EventID] = append(s.attendees[a.EventID], a)
	return nil
}

func (s *Storage) GetEvent(_ context.Context, id string) (storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return storage.Event{}, fmt.Errorf("event %q: %w", id, storage.ErrNotFoundEvent)
	}
	return e, nil
}

// Select in range [startTime:endTime], ordered by start time.
func (s *Storage) GetEventsForRange(
	_ context.Context,
	startTime time.Time,
	endTime time.Time,
) ([]storage.Event, error) {
	events := make([]storage.Event, 0)
	s.mu.RLock()
	for _, event := range s.events {
		if !event.StartTime.Before(startTime) && !event.StartTime.After(endTime) {
			events = append(events, event)
		}
	}
	s.mu.RUnlock()
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events, nil
}

func (s *Storage) GetAttendees(_ context.Context, eventID string) ([]storage.Attendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attendees := make([]storage.Attendee, len(s.attendees[eventID]))
	copy(attendees, s.attendees[eventID])
	return attendees, nil
}
