// Package sqlite stores grading results in a local SQLite file through the
// pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/gridbot/internal/grading"
)

const schema = `
CREATE TABLE IF NOT EXISTS grading_results (
	id            TEXT    PRIMARY KEY,
	world         TEXT    NOT NULL,
	seed          INTEGER NOT NULL,
	language      TEXT    NOT NULL,
	passed        INTEGER NOT NULL,
	goals         TEXT    NOT NULL,
	instructions  INTEGER NOT NULL,
	moves         INTEGER NOT NULL,
	program_error TEXT    NOT NULL DEFAULT '',
	created_at    TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_grading_results_world_created
	ON grading_results (world, created_at DESC);
`

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a grading.Store over one SQLite database file.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema.
//
// Precondition: path must be non-empty; ":memory:" opens a private database.
// Postcondition: the caller must Close the Store.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", path, err)
	}
	// One connection keeps writes serialised and :memory: shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: initialising: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Save implements grading.Store.
func (s *Store) Save(ctx context.Context, r grading.Result) error {
	goals := r.Goals
	if goals == nil {
		goals = []grading.GoalOutcome{}
	}
	b, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("encoding goals: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO grading_results
		 (id, world, seed, language, passed, goals, instructions, moves, program_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.WorldName, int64(r.Seed), string(r.Language), r.Passed, string(b),
		r.Instructions, r.Moves, r.ProgramError, r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return grading.ErrDuplicate
		}
		return fmt.Errorf("inserting grading result: %w", err)
	}
	return nil
}

// Get implements grading.Store.
func (s *Store) Get(ctx context.Context, id string) (grading.Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, world, seed, language, passed, goals, instructions, moves, program_error, created_at
		 FROM grading_results WHERE id = ?`, id)
	r, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return grading.Result{}, grading.ErrNotFound
	}
	return r, err
}

// ListByWorld implements grading.Store. A limit <= 0 returns every result.
func (s *Store) ListByWorld(ctx context.Context, world string, limit int) ([]grading.Result, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, world, seed, language, passed, goals, instructions, moves, program_error, created_at
		 FROM grading_results WHERE world = ? ORDER BY created_at DESC, id DESC LIMIT ?`, world, limit)
	if err != nil {
		return nil, fmt.Errorf("listing grading results: %w", err)
	}
	defer rows.Close()
	var out []grading.Result
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (grading.Result, error) {
	var (
		r       grading.Result
		seed    int64
		lang    string
		goals   string
		created string
	)
	if err := row.Scan(&r.ID, &r.WorldName, &seed, &lang, &r.Passed, &goals,
		&r.Instructions, &r.Moves, &r.ProgramError, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return grading.Result{}, err
		}
		return grading.Result{}, fmt.Errorf("scanning grading result: %w", err)
	}
	r.Seed = uint64(seed)
	r.Language = grading.Language(lang)
	if err := json.Unmarshal([]byte(goals), &r.Goals); err != nil {
		return grading.Result{}, fmt.Errorf("decoding goals: %w", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return grading.Result{}, fmt.Errorf("parsing created_at: %w", err)
	}
	r.CreatedAt = t
	return r, nil
}

var _ grading.Store = (*Store)(nil)
