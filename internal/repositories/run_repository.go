package repositories

import (
	"database/sql"
	"sync"

	"github.com/alimgiray/giteastats/internal/models"
)

const runColumns = `id, days, all_branches, status, repositories_total, repositories_failed, commits, truncated, error_message, started_at, completed_at, created_at, updated_at`

// RunRepository handles database operations for collection runs
type RunRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewRunRepository creates a new RunRepository
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create creates a new collection run
func (r *RunRepository) Create(run *models.CollectionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `INSERT INTO collection_runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		run.ID,
		run.Days,
		run.AllBranches,
		run.Status,
		run.RepositoriesTotal,
		run.RepositoriesFailed,
		run.Commits,
		run.Truncated,
		run.ErrorMessage,
		run.StartedAt,
		run.CompletedAt,
		run.CreatedAt,
		run.UpdatedAt,
	)
	return err
}

// Update stores the current state of a run
func (r *RunRepository) Update(run *models.CollectionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		UPDATE collection_runs
		SET status = ?, repositories_total = ?, repositories_failed = ?, commits = ?, truncated = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.Status,
		run.RepositoriesTotal,
		run.RepositoriesFailed,
		run.Commits,
		run.Truncated,
		run.ErrorMessage,
		run.CompletedAt,
		run.UpdatedAt,
		run.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByID retrieves a run by ID
func (r *RunRepository) GetByID(id string) (*models.CollectionRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row := r.db.QueryRow(`SELECT `+runColumns+` FROM collection_runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRecent returns the most recently started runs, newest first
func (r *RunRepository) ListRecent(limit int) ([]*models.CollectionRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM collection_runs ORDER BY started_at DESC LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*models.CollectionRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.CollectionRun, error) {
	run := &models.CollectionRun{}
	err := row.Scan(
		&run.ID,
		&run.Days,
		&run.AllBranches,
		&run.Status,
		&run.RepositoriesTotal,
		&run.RepositoriesFailed,
		&run.Commits,
		&run.Truncated,
		&run.ErrorMessage,
		&run.StartedAt,
		&run.CompletedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
