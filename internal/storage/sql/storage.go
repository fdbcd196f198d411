package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/dataacq/calsync/internal/storage"
)

var ErrConnectionFailed = errors.New("failed to connect")

const dbErrForeignKeyViolation = "23503"

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	host     string
	port     int
	database string
	username string
	password string
	db       *sqlx.DB
}

func New(config Config) *Storage {
	return &Storage{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS events("+
			"event_id TEXT PRIMARY KEY, "+
			"title TEXT, "+
			"start_time TIMESTAMPTZ, "+
			"end_time TIMESTAMPTZ, "+
			"updated TIMESTAMPTZ, "+
			"status TEXT, "+
			"organizer TEXT)",
	)
	if err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS attendees("+
			"attendee_id SERIAL PRIMARY KEY, "+
			"event_id TEXT REFERENCES events(event_id), "+
			"email TEXT, "+
			"UNIQUE (event_id, email))",
	)
	if err != nil {
		return fmt.Errorf("failed to create attendees table: %w", err)
	}
	return nil
}

func (s *Storage) UpsertEvent(ctx context.Context, e storage.Event) error {
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO events(event_id, title, start_time, end_time, updated, status, organizer) "+
			"VALUES($1, $2, $3, $4, $5, $6, $7) "+
			"ON CONFLICT (event_id) DO UPDATE SET "+
			"title=EXCLUDED.title, start_time=EXCLUDED.start_time, end_time=EXCLUDED.end_time, "+
			"updated=EXCLUDED.updated, status=EXCLUDED.status, organizer=EXCLUDED.organizer",
		e.ID, e.Title, e.StartTime, e.EndTime, e.Updated, e.Status, e.Organizer)
	if err != nil {
		return fmt.Errorf("failed to upsert event %q: %w", e.ID, err)
	}
	return nil
}

func (s *Storage) AddAttendee(ctx context.Context, a storage.Attendee) error {
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO attendees(event_id, email) VALUES($1, $2) ON CONFLICT (event_id, email) DO NOTHING",
		a.EventID, a.Email)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == dbErrForeignKeyViolation {
		return fmt.Errorf("attendee %q of event %q: %w", a.Email, a.EventID, storage.ErrUnknownAttendee)
	}
	if err != nil {
		return fmt.Errorf("failed to add attendee %q of event %q: %w", a.Email, a.EventID, err)
	}
	return nil
}

func (s *Storage) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	var e storage.Event
	err := s.db.GetContext(
		ctx,
		&e,
		"SELECT event_id, title, start_time, end_time, updated, status, organizer FROM events WHERE event_id=$1",
		id)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("event %q: %w", id, storage.ErrNotFoundEvent)
	}
	return e, err
}

// Select in range [startTime:endTime], ordered by start time.
func (s *Storage) GetEventsForRange(
	ctx context.Context,
	startTime time.Time,
	endTime time.Time,
) ([]storage.Event, error) {
	var events []storage.Event
	err := s.db.SelectContext(
		ctx,
		&events,
		"SELECT event_id, title, start_time, end_time, updated, status, organizer "+
			"FROM events WHERE start_time>=$1 AND start_time<=$2 ORDER BY start_time",
		startTime,
		endTime,
	)
	return events, err
}

func (s *Storage) GetAttendees(ctx context.Context, eventID string) ([]storage.Attendee, error) {
	var attendees []storage.Attendee
	err := s.db.SelectContext(
		ctx,
		&attendees,
		"SELECT event_id, email FROM attendees WHERE event_id=$1 ORDER BY attendee_id",
		eventID,
	)
	return attendees, err
}
