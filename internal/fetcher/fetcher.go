// Package fetcher pulls raw events from the Google Calendar API for one
// calendar and time window, following continuation tokens until the
// listing is exhausted.
package fetcher

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type Config struct {
	CalendarID      string
	TimeMin         time.Time
	TimeMax         time.Time
	PageSize        int64
	CredentialsFile string
}

// EventLister issues a single page of an events listing. The Google
// service satisfies it through googleLister; tests substitute a fake.
type EventLister interface {
	ListPage(ctx context.Context, pageToken string) (*calendar.Events, error)
}

type Fetcher struct {
	lister EventLister
}

// New builds a fetcher backed by the Google Calendar API, authenticated
// with a read-only service-account credential.
func New(ctx context.Context, config Config) (*Fetcher, error) {
	b, err := os.ReadFile(config.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file %q: %w", config.CredentialsFile, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials file %q: %w", config.CredentialsFile, err)
	}
	svc, err := calendar.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return NewWithLister(&googleLister{svc: svc, config: config}), nil
}

// NewWithLister builds a fetcher over an already constructed lister.
func NewWithLister(lister EventLister) *Fetcher {
	return &Fetcher{lister: lister}
}

// FetchAll accumulates every page of the listing, in page order. A page
// filled to the size hint is not the end of data; only an absent
// continuation token is.
func (f *Fetcher) FetchAll(ctx context.Context) ([]*calendar.Event, error) {
	var items []*calendar.Event
	pageToken := ""
	for {
		page, err := f.lister.ListPage(ctx, pageToken)
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}
		items = append(items, page.Items...)
		log.Debugf("fetched page with %d events", len(page.Items))
		if page.NextPageToken == "" {
			return items, nil
		}
		pageToken = page.NextPageToken
	}
}

type googleLister struct {
	svc    *calendar.Service
	config Config
}

func (l *googleLister) ListPage(ctx context.Context, pageToken string) (*calendar.Events, error) {
	call := l.svc.Events.List(l.config.CalendarID).
		Context(ctx).
		TimeMin(l.config.TimeMin.Format(time.RFC3339)).
		TimeMax(l.config.TimeMax.Format(time.RFC3339)).
		MaxResults(l.config.PageSize).
		SingleEvents(true).
		OrderBy("startTime")
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}
