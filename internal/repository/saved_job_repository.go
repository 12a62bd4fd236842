package repository

import (
	"context"
	"errors"
	"fmt"

	"jobdash/internal/database"

	"github.com/jackc/pgx/v5"
)

type SavedJobRepository interface {
	Save(ctx context.Context, userID, jobID string) error
	Remove(ctx context.Context, userID, jobID string) error
	IsSaved(ctx context.Context, userID, jobID string) (bool, error)
	SavedAmong(ctx context.Context, userID string, jobIDs []string) ([]string, error)
}

type PostgresSavedJobRepository struct {
	db database.Querier
}

func NewPostgresSavedJobRepository(db database.Querier) *PostgresSavedJobRepository {
	return &PostgresSavedJobRepository{db: db}
}

// Save is idempotent: saving an already saved pair leaves a single row.
func (r *PostgresSavedJobRepository) Save(ctx context.Context, userID, jobID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO saved_jobs (user_id, job_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, job_id) DO NOTHING`,
		userID, jobID,
	)
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

// Remove deletes by key. Removing a pair that does not exist is not an error.
func (r *PostgresSavedJobRepository) Remove(ctx context.Context, userID, jobID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM saved_jobs WHERE user_id = $1 AND job_id = $2`, userID, jobID)
	if err != nil {
		return fmt.Errorf("remove saved job: %w", err)
	}
	return nil
}

func (r *PostgresSavedJobRepository) IsSaved(ctx context.Context, userID, jobID string) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM saved_jobs WHERE user_id = $1 AND job_id = $2)`,
		userID, jobID,
	)
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("saved lookup: %w", err)
	}
	return exists, nil
}

// SavedAmong returns the subset of jobIDs the user has saved.
func (r *PostgresSavedJobRepository) SavedAmong(ctx context.Context, userID string, jobIDs []string) ([]string, error) {
	if userID == "" || len(jobIDs) == 0 {
		return []string{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT job_id FROM saved_jobs WHERE user_id = $1 AND job_id = ANY($2)`,
		userID, jobIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("saved lookup: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, len(jobIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
