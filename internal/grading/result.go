// Package grading runs student programs in fresh sessions, records the
// verdict and keeps it in a Store.
package grading

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cory-johannsen/gridbot/internal/game/world"
)

// ErrNotFound is returned when no result has the requested ID.
var ErrNotFound = errors.New("grading result not found")

// ErrDuplicate is returned when a result with the same ID is saved twice.
var ErrDuplicate = errors.New("grading result already exists")

// GoalOutcome is the stored form of one goal verdict.
type GoalOutcome struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Passed  bool   `json:"passed"`
}

// Result is the graded outcome of one program run.
type Result struct {
	ID           string        `json:"id"`
	WorldName    string        `json:"world"`
	Seed         uint64        `json:"seed"`
	Language     Language      `json:"language"`
	Passed       bool          `json:"passed"`
	Goals        []GoalOutcome `json:"goals"`
	Instructions int           `json:"instructions"`
	Moves        int           `json:"moves"`
	// ProgramError is the error that stopped the program early, if any.
	ProgramError string    `json:"program_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// GoalsFromCheck converts a world verdict into stored goal outcomes.
func GoalsFromCheck(cr world.CheckResult) []GoalOutcome {
	out := make([]GoalOutcome, 0, len(cr.Goals))
	for _, g := range cr.Goals {
		out = append(out, GoalOutcome{Kind: g.Kind.String(), Message: g.Message, Passed: g.Passed})
	}
	return out
}

// Store persists grading results.
type Store interface {
	// Save inserts r. Saving an existing ID returns ErrDuplicate.
	Save(ctx context.Context, r Result) error
	// Get returns the result with id or ErrNotFound.
	Get(ctx context.Context, id string) (Result, error)
	// ListByWorld returns the results for world, newest first.
	ListByWorld(ctx context.Context, world string, limit int) ([]Result, error)
}

// MemoryStore is an in-process Store used when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]Result
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]Result)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[r.ID]; ok {
		return ErrDuplicate
	}
	r.Goals = append([]GoalOutcome(nil), r.Goals...)
	m.results[r.ID] = r
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return Result{}, ErrNotFound
	}
	return r, nil
}

// ListByWorld implements Store. A limit <= 0 returns every result.
func (m *MemoryStore) ListByWorld(_ context.Context, world string, limit int) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Result
	for _, r := range m.results {
		if r.WorldName == world {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
