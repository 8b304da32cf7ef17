package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pwannenmacher/campus-fest/internal/models"
)

// ScoreRepository handles judge score database operations
type ScoreRepository struct {
	db *sql.DB
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db *sql.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

const scoreColumns = `id, program_id, registration_id, judge_id, criteria, total_points, created_at, updated_at`

func scanScore(row scanner) (*models.Score, error) {
	var s models.Score
	var criteria []byte
	if err := row.Scan(&s.ID, &s.ProgramID, &s.RegistrationID, &s.JudgeID, &criteria,
		&s.TotalPoints, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(criteria, &s.Criteria); err != nil {
		return nil, fmt.Errorf("failed to decode criteria: %w", err)
	}
	return &s, nil
}

// Upsert stores the judge's score, overwriting any earlier score for the same
// program, registration and judge. On overwrite score.ID is replaced with the
// existing row's id.
func (r *ScoreRepository) Upsert(ctx context.Context, score *models.Score) error {
	criteria, err := json.Marshal(score.Criteria)
	if err != nil {
		return fmt.Errorf("failed to encode criteria: %w", err)
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO scores (id, program_id, registration_id, judge_id, criteria, total_points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (program_id, registration_id, judge_id)
		DO UPDATE SET
			criteria = EXCLUDED.criteria,
			total_points = EXCLUDED.total_points,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`, score.ID, score.ProgramID, score.RegistrationID, score.JudgeID, criteria, score.TotalPoints, now,
	).Scan(&score.ID, &score.CreatedAt, &score.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert score: %w", err)
	}
	return nil
}

func (r *ScoreRepository) queryScores(ctx context.Context, query string, args ...any) ([]models.Score, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer closeRows(rows)

	var scores []models.Score
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, *s)
	}
	return scores, rows.Err()
}

// ListByProgram returns every score of the program
func (r *ScoreRepository) ListByProgram(ctx context.Context, programID string) ([]models.Score, error) {
	return r.queryScores(ctx,
		`SELECT `+scoreColumns+` FROM scores WHERE program_id = $1 ORDER BY registration_id, judge_id`, programID)
}

// ListByRegistration returns the scores given to one registration
func (r *ScoreRepository) ListByRegistration(ctx context.Context, registrationID string) ([]models.Score, error) {
	return r.queryScores(ctx,
		`SELECT `+scoreColumns+` FROM scores WHERE registration_id = $1 ORDER BY judge_id`, registrationID)
}

// DeleteByRegistration removes all scores of a registration and reports how many went
func (r *ScoreRepository) DeleteByRegistration(ctx context.Context, registrationID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scores WHERE registration_id = $1`, registrationID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete scores: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
