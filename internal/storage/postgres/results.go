package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/gridbot/internal/grading"
)

// ResultRepository is a grading.Store over the grading_results table.
type ResultRepository struct {
	db *pgxpool.Pool
}

// NewResultRepository creates a ResultRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewResultRepository(db *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{db: db}
}

const (
	resultColumns = `id, world, seed, language, passed, goals, instructions, moves, program_error, created_at`
	selectColumns = `id::text, world, seed, language, passed, goals, instructions, moves, program_error, created_at`
)

// Save inserts r.
//
// Precondition: r.ID must be a UUID.
// Postcondition: Returns grading.ErrDuplicate if r.ID is already stored.
func (r *ResultRepository) Save(ctx context.Context, res grading.Result) error {
	goals, err := json.Marshal(nonNilGoals(res.Goals))
	if err != nil {
		return fmt.Errorf("encoding goals: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO grading_results (`+resultColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.ID, res.WorldName, int64(res.Seed), string(res.Language), res.Passed,
		goals, res.Instructions, res.Moves, res.ProgramError, res.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return grading.ErrDuplicate
		}
		return fmt.Errorf("inserting grading result: %w", err)
	}
	return nil
}

// Get retrieves a result by ID.
//
// Postcondition: Returns the Result or grading.ErrNotFound.
func (r *ResultRepository) Get(ctx context.Context, id string) (grading.Result, error) {
	res, err := scanResult(r.db.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM grading_results WHERE id::text = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return grading.Result{}, grading.ErrNotFound
		}
		return grading.Result{}, fmt.Errorf("querying grading result: %w", err)
	}
	return res, nil
}

// ListByWorld returns the newest results for world. A limit <= 0 returns
// every result.
func (r *ResultRepository) ListByWorld(ctx context.Context, world string, limit int) ([]grading.Result, error) {
	query := `SELECT ` + selectColumns + ` FROM grading_results
		 WHERE world = $1 ORDER BY created_at DESC, id DESC`
	args := []any{world}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing grading results: %w", err)
	}
	defer rows.Close()

	var out []grading.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning grading result: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanResult(row pgx.Row) (grading.Result, error) {
	var (
		res   grading.Result
		seed  int64
		lang  string
		goals []byte
	)
	err := row.Scan(&res.ID, &res.WorldName, &seed, &lang, &res.Passed,
		&goals, &res.Instructions, &res.Moves, &res.ProgramError, &res.CreatedAt)
	if err != nil {
		return grading.Result{}, err
	}
	res.Seed = uint64(seed)
	res.Language = grading.Language(lang)
	if err := json.Unmarshal(goals, &res.Goals); err != nil {
		return grading.Result{}, fmt.Errorf("decoding goals: %w", err)
	}
	return res, nil
}

func nonNilGoals(g []grading.GoalOutcome) []grading.GoalOutcome {
	if g == nil {
		return []grading.GoalOutcome{}
	}
	return g
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation.
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

var _ grading.Store = (*ResultRepository)(nil)
