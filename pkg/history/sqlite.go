// Package history keeps past analysis runs in SQLite so trends can be
// compared week over week.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrisonrobin/freetime/pkg/analysis"
)

//go:embed schema.sql
var schema string

const dateLayout = "2006-01-02"

// ErrNotFound is returned when no run matches.
var ErrNotFound = errors.New("run not found")

// Run is one stored analysis with its headline numbers.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Provider  string    `json:"provider"`
	TimeZone  string    `json:"timezone"`
	From      string    `json:"from"`
	To        string    `json:"to"`

	WorkDuration        time.Duration `json:"work_duration"`
	BusyDuration        time.Duration `json:"busy_duration"`
	FreeDuration        time.Duration `json:"free_duration"`
	ProductivityRatio   float64       `json:"productivity_ratio"`
	FocusSlots          int           `json:"focus_slots"`
	EffectiveFocusRatio float64       `json:"effective_focus_ratio"`
	SkippedEvents       int           `json:"skipped_events"`

	Report *analysis.Report `json:"report,omitempty"`
}

// Store handles database operations.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath is the history database in the user's config directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "freetime", "history.db"), nil
}

// New opens (and if needed creates) the database at dbPath.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database lives as long as its one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a report and returns the new run.
func (s *Store) Save(ctx context.Context, provider string, report analysis.Report) (*Run, error) {
	blob, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	run := &Run{
		ID:                  uuid.New().String(),
		CreatedAt:           s.now().UTC(),
		Provider:            provider,
		TimeZone:            report.TimeZone,
		From:                report.From.Format(dateLayout),
		To:                  report.To.Format(dateLayout),
		WorkDuration:        report.WorkDuration,
		BusyDuration:        report.BusyDuration,
		FreeDuration:        report.FreeDuration,
		ProductivityRatio:   report.ProductivityRatio,
		FocusSlots:          report.FocusSlots,
		EffectiveFocusRatio: report.EffectiveFocusRatio,
		SkippedEvents:       len(report.Skipped),
		Report:              &report,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, provider, timezone, range_from, range_to,
			work_seconds, busy_seconds, free_seconds, productivity_ratio,
			focus_slots, effective_focus_ratio, skipped_events, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.Provider, run.TimeZone, run.From, run.To,
		int64(run.WorkDuration/time.Second), int64(run.BusyDuration/time.Second), int64(run.FreeDuration/time.Second),
		run.ProductivityRatio, run.FocusSlots, run.EffectiveFocusRatio, run.SkippedEvents, string(blob),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

const runColumns = `id, created_at, provider, timezone, range_from, range_to,
	work_seconds, busy_seconds, free_seconds, productivity_ratio,
	focus_slots, effective_focus_ratio, skipped_events`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner, withReport bool) (*Run, error) {
	var (
		r                Run
		work, busy, free int64
		blob             string
	)
	dest := []any{&r.ID, &r.CreatedAt, &r.Provider, &r.TimeZone, &r.From, &r.To,
		&work, &busy, &free, &r.ProductivityRatio,
		&r.FocusSlots, &r.EffectiveFocusRatio, &r.SkippedEvents}
	if withReport {
		dest = append(dest, &blob)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	r.WorkDuration = time.Duration(work) * time.Second
	r.BusyDuration = time.Duration(busy) * time.Second
	r.FreeDuration = time.Duration(free) * time.Second

	if withReport {
		var report analysis.Report
		if err := json.Unmarshal([]byte(blob), &report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		r.Report = &report
	}
	return &r, nil
}

// List returns the most recent runs, newest first, without their reports.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Get returns a run with its full report.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+", report FROM runs WHERE id = ?", id)
	r, err := scanRun(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// Latest returns the newest run with its full report.
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+", report FROM runs ORDER BY created_at DESC LIMIT 1")
	r, err := scanRun(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}
