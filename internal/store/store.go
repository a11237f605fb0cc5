// Package store keeps a history of pipeline runs in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// Run sources.
const (
	SourceCLI    = "cli"
	SourceHTTP   = "http"
	SourceViewer = "viewer"
)

// timeLayout is fixed-width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one stored pipeline result.
type Run struct {
	ID        string       `json:"id"`
	Drawing   string       `json:"drawing"`
	Source    string       `json:"source"`
	CreatedAt time.Time    `json:"createdAt"`
	Success   bool         `json:"success"`
	RoomCount int          `json:"roomCount"`
	TotalLoad float64      `json:"totalLoad"`
	Error     string       `json:"error,omitempty"`
	Result    model.Result `json:"result"`
}

// Store wraps the history database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. A nil logger disables logging.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps :memory: databases coherent and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}

	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a result under a fresh id.
func (s *Store) SaveRun(drawing, source string, result model.Result) (Run, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return Run{}, fmt.Errorf("failed to encode result: %w", err)
	}

	run := Run{
		ID:        uuid.NewString(),
		Drawing:   drawing,
		Source:    source,
		CreatedAt: s.now().UTC(),
		Success:   result.Success,
		RoomCount: len(result.Rooms),
		TotalLoad: result.TotalLoad,
		Error:     result.Error,
		Result:    result,
	}

	_, err = s.db.Exec(
		`INSERT INTO runs (run_id, drawing, source, created_at, success, room_count, total_load, error, result_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Drawing, run.Source, run.CreatedAt.Format(timeLayout), run.Success,
		run.RoomCount, run.TotalLoad, run.Error, string(payload),
	)
	if err != nil {
		return Run{}, fmt.Errorf("failed to save run: %w", err)
	}

	s.logger.Debug("run saved", zap.String("run_id", run.ID), zap.String("drawing", drawing))
	return run, nil
}

// GetRun loads a run by id.
func (s *Store) GetRun(id string) (Run, error) {
	row := s.db.QueryRow(
		`SELECT run_id, drawing, source, created_at, success, room_count, total_load, error, result_json
		 FROM runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

// ListRuns returns up to limit runs, newest first. The stored result
// payload is included.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT run_id, drawing, source, created_at, success, room_count, total_load, error, result_json
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run.
func (s *Store) DeleteRun(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		createdAt string
		payload   string
	)
	if err := sc.Scan(&run.ID, &run.Drawing, &run.Source, &createdAt, &run.Success,
		&run.RoomCount, &run.TotalLoad, &run.Error, &payload); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = t
	if err := json.Unmarshal([]byte(payload), &run.Result); err != nil {
		return Run{}, fmt.Errorf("failed to decode result: %w", err)
	}
	return run, nil
}
