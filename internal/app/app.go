// Package app runs one fetch-normalize-upsert pass. Rows for events no
// longer present upstream are never deleted; a re-run only overwrites
// events and skips already known attendee pairs.
package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/dataacq/calsync/internal/normalizer"
	"github.com/dataacq/calsync/internal/storage"
)

type Fetcher interface {
	FetchAll(ctx context.Context) ([]*calendar.Event, error)
}

// Report summarizes one completed run.
type Report struct {
	CalendarID  string    `json:"calendarId"`
	Events      int       `json:"events"`
	Attendees   int       `json:"attendees"`
	CompletedAt time.Time `json:"completedAt"`
}

type App struct {
	calendarID string
	fetcher    Fetcher
	storage    storage.Storage
}

func New(calendarID string, fetcher Fetcher, storage storage.Storage) *App {
	return &App{calendarID: calendarID, fetcher: fetcher, storage: storage}
}

// Sync migrates the schema, fetches the full window, validates every
// record, and writes them in fetch order. The first validation failure
// aborts the run before any write of that event. Each event row is
// written before its attendees.
func (a *App) Sync(ctx context.Context) (Report, error) {
	log.Info("running migrations...")
	if err := a.storage.Migrate(ctx); err != nil {
		return Report{}, err
	}

	log.Infof("fetching events of calendar %q...", a.calendarID)
	items, err := a.fetcher.FetchAll(ctx)
	if err != nil {
		return Report{}, err
	}
	log.Infof("fetched %d events", len(items))

	type group struct {
		event     storage.Event
		attendees []storage.Attendee
	}
	groups := make([]group, 0, len(items))
	for _, item := range items {
		event, attendees, err := normalizer.Normalize(item)
		if err != nil {
			return Report{}, err
		}
		groups = append(groups, group{event: event, attendees: attendees})
	}

	log.Info("inserting events...")
	report := Report{CalendarID: a.calendarID}
	for _, g := range groups {
		if err := a.storage.UpsertEvent(ctx, g.event); err != nil {
			return Report{}, err
		}
		report.Events++
		for _, attendee := range g.attendees {
			if err := a.storage.AddAttendee(ctx, attendee); err != nil {
				return Report{}, err
			}
			report.Attendees++
		}
	}

	report.CompletedAt = time.Now()
	return report, nil
}
