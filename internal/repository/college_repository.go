package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pwannenmacher/campus-fest/internal/database"
	"github.com/pwannenmacher/campus-fest/internal/models"
)

// CollegeRepository handles college database operations
type CollegeRepository struct {
	db *sql.DB
}

// NewCollegeRepository creates a new college repository
func NewCollegeRepository(db *sql.DB) *CollegeRepository {
	return &CollegeRepository{db: db}
}

const collegeColumns = `id, name, code, location, logo_url, created_at, updated_at`

func scanCollege(row scanner) (*models.College, error) {
	var c models.College
	if err := row.Scan(&c.ID, &c.Name, &c.Code, &c.Location, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new college
func (r *CollegeRepository) Create(ctx context.Context, college *models.College) error {
	now := time.Now()
	college.CreatedAt, college.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO colleges (id, name, code, location, logo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, college.ID, college.Name, college.Code, college.Location, college.LogoURL, now)
	if database.IsUniqueViolation(err, "") {
		return fmt.Errorf("college code %q: %w", college.Code, ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("failed to create college: %w", err)
	}
	return nil
}

// GetByID returns the college or nil when it does not exist
func (r *CollegeRepository) GetByID(ctx context.Context, id string) (*models.College, error) {
	college, err := scanCollege(r.db.QueryRowContext(ctx,
		`SELECT `+collegeColumns+` FROM colleges WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get college: %w", err)
	}
	return college, nil
}

// List returns all colleges ordered by name
func (r *CollegeRepository) List(ctx context.Context) ([]models.College, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+collegeColumns+` FROM colleges ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list colleges: %w", err)
	}
	defer closeRows(rows)

	var colleges []models.College
	for rows.Next() {
		c, err := scanCollege(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan college: %w", err)
		}
		colleges = append(colleges, *c)
	}
	return colleges, rows.Err()
}

// Count returns the number of colleges
func (r *CollegeRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM colleges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count colleges: %w", err)
	}
	return n, nil
}
