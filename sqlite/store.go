package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	schedule "github.com/hariom-ql2/schedspec"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Config holds the configuration for the SQLite schedule store.
type Config struct {
	// Path is the database file. ":memory:" keeps everything in memory.
	// Required.
	Path string

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5 seconds.
	BusyTimeout time.Duration

	// Logger receives debug events for writes. Default: zerolog.Nop().
	Logger *zerolog.Logger
}

// Store implements schedule.Store on SQLite. Instants are stored as Unix
// milliseconds and schedule_data as wire-format JSON.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the database at config.Path and applies
// the schema.
func Open(ctx context.Context, config Config) (*Store, error) {
	path := strings.TrimSpace(config.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}
	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	// SQLite prefers a single writer; one connection also keeps a
	// ":memory:" database alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &Store{db: db, log: log.With().Str("store", "sqlite").Logger()}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", config.BusyTimeout.Milliseconds())); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set busy_timeout")
	}
	if err := st.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return errors.Wrap(err, "apply schema")
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert adds a new record.
func (s *Store) Insert(ctx context.Context, rec *schedule.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	env, err := schedule.Encode(rec.Spec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schedules(id, schedule_type, schedule_data, next_run, created_at) VALUES(?,?,?,?,?)`,
		rec.ID, string(env.ScheduleType), string(env.ScheduleData), nullMillis(rec.NextRun), rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return errors.Wrapf(err, "insert schedule %s", rec.ID)
	}
	s.log.Debug().Str("id", rec.ID).Str("type", string(env.ScheduleType)).Msg("schedule inserted")
	return nil
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*schedule.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, schedule_type, schedule_data, next_run, created_at FROM schedules WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(schedule.ErrNotFound, "schedule %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get schedule %s", id)
	}
	return rec, nil
}

// List returns all records ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*schedule.Record, error) {
	return s.query(ctx,
		`SELECT id, schedule_type, schedule_data, next_run, created_at FROM schedules ORDER BY created_at, id`)
}

// Due returns records whose next run is at or before at.
func (s *Store) Due(ctx context.Context, at time.Time) ([]*schedule.Record, error) {
	return s.query(ctx,
		`SELECT id, schedule_type, schedule_data, next_run, created_at FROM schedules
		 WHERE next_run IS NOT NULL AND next_run <= ? ORDER BY next_run, id`, at.UnixMilli())
}

// Update modifies a record's fields.
func (s *Store) Update(ctx context.Context, id string, u schedule.RecordUpdate) error {
	if u.NextRun == nil {
		return nil
	}
	res, err := s.db.ExecContext(ctx, `UPDATE schedules SET next_run = ? WHERE id = ?`, nullMillis(*u.NextRun), id)
	if err != nil {
		return errors.Wrapf(err, "update schedule %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(schedule.ErrNotFound, "schedule %s", id)
	}
	s.log.Debug().Str("id", id).Msg("schedule updated")
	return nil
}

// Remove deletes a record.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "delete schedule %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(schedule.ErrNotFound, "schedule %s", id)
	}
	s.log.Debug().Str("id", id).Msg("schedule removed")
	return nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*schedule.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query schedules")
	}
	defer rows.Close()

	var records []*schedule.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "iterate schedules")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*schedule.Record, error) {
	var (
		rec       schedule.Record
		kind      string
		data      string
		nextRun   sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&rec.ID, &kind, &data, &nextRun, &createdAt); err != nil {
		return nil, err
	}
	spec, err := schedule.Envelope{ScheduleType: schedule.Kind(kind), ScheduleData: []byte(data)}.Decode()
	if err != nil {
		return nil, errors.Wrapf(err, "schedule %s", rec.ID)
	}
	rec.Spec = spec
	if nextRun.Valid {
		t := time.UnixMilli(nextRun.Int64).UTC()
		rec.NextRun = &t
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &rec, nil
}

func nullMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
