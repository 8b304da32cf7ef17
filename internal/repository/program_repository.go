package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pwannenmacher/campus-fest/internal/database"
	"github.com/pwannenmacher/campus-fest/internal/models"
)

const programNameConstraint = "programs_event_name_active_key"

// ProgramRepository handles program database operations
type ProgramRepository struct {
	db *sql.DB
}

// NewProgramRepository creates a new program repository
func NewProgramRepository(db *sql.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// rows written before cancellation existed carry NULL is_cancelled
const programColumns = `id, event_id, name, type, category, venue, start_time, max_participants,
	gender_restriction, last_chest_number, COALESCE(is_cancelled, FALSE), cancellation_reason,
	is_result_published, created_by, last_updated_by, created_at, updated_at`

func scanProgram(row scanner) (*models.Program, error) {
	var p models.Program
	var start sql.NullTime
	var maxParticipants sql.NullInt64
	if err := row.Scan(&p.ID, &p.EventID, &p.Name, &p.Type, &p.Category, &p.Venue, &start,
		&maxParticipants, &p.GenderRestriction, &p.LastChestNumber, &p.IsCancelled,
		&p.CancellationReason, &p.IsResultPublished, &p.CreatedBy, &p.LastUpdatedBy,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.StartTime = timePtr(start)
	if maxParticipants.Valid {
		v := int(maxParticipants.Int64)
		p.MaxParticipants = &v
	}
	return &p, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func (r *ProgramRepository) queryPrograms(ctx context.Context, query string, args ...any) ([]models.Program, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer closeRows(rows)

	var programs []models.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, *p)
	}
	return programs, rows.Err()
}

// Create inserts a new program
func (r *ProgramRepository) Create(ctx context.Context, p *models.Program) error {
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.LastChestNumber == 0 {
		p.LastChestNumber = models.FirstChestNumber
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO programs (
			id, event_id, name, name_key, type, category, venue, start_time, max_participants,
			gender_restriction, last_chest_number, is_cancelled, cancellation_reason,
			is_result_published, created_by, last_updated_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
	`, p.ID, p.EventID, p.Name, NameKey(p.Name), p.Type, p.Category, p.Venue, nullTimeOf(p.StartTime),
		nullInt(p.MaxParticipants), p.GenderRestriction, p.LastChestNumber, p.IsCancelled,
		p.CancellationReason, p.IsResultPublished, p.CreatedBy, p.LastUpdatedBy, now)
	if database.IsUniqueViolation(err, programNameConstraint) {
		return ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create program: %w", err)
	}
	return nil
}

// GetByID returns the program or nil when it does not exist
func (r *ProgramRepository) GetByID(ctx context.Context, id string) (*models.Program, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return p, nil
}

// Update writes every mutable column; the chest counter is only moved by NextChestNumber
func (r *ProgramRepository) Update(ctx context.Context, p *models.Program) error {
	p.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE programs
		SET name = $2, name_key = $13, category = $3, venue = $4, start_time = $5, max_participants = $6,
			gender_restriction = $7, is_cancelled = $8, cancellation_reason = $9,
			is_result_published = $10, last_updated_by = $11, updated_at = $12
		WHERE id = $1
	`, p.ID, p.Name, p.Category, p.Venue, nullTimeOf(p.StartTime), nullInt(p.MaxParticipants),
		p.GenderRestriction, p.IsCancelled, p.CancellationReason, p.IsResultPublished,
		p.LastUpdatedBy, p.UpdatedAt, NameKey(p.Name))
	if database.IsUniqueViolation(err, programNameConstraint) {
		return ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update program: %w", err)
	}
	return expectAffected(res)
}

// List returns programs matching filter ordered by start time
func (r *ProgramRepository) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, error) {
	var where []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.EventID != "" {
		add("event_id = $%d", filter.EventID)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.StartsAfter != nil {
		add("start_time > $%d", *filter.StartsAfter)
	}
	if filter.StartsBefore != nil {
		add("start_time <= $%d", *filter.StartsBefore)
	}
	if !filter.IncludeCancelled {
		where = append(where, "is_cancelled IS NOT TRUE")
	}
	if filter.PublishedOnly {
		where = append(where, "is_result_published = TRUE")
	}

	query := `SELECT ` + programColumns + ` FROM programs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_time NULLS LAST, name`

	return r.queryPrograms(ctx, query, args...)
}

// NameInUse reports whether another non-cancelled program of the event has the name
func (r *ProgramRepository) NameInUse(ctx context.Context, eventID, name, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM programs
			WHERE event_id = $1 AND name_key = $2 AND is_cancelled IS NOT TRUE AND id <> $3
		)
	`, eventID, NameKey(name), excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check program name: %w", err)
	}
	return exists, nil
}

// NextChestNumber increments the program's counter in a single statement
func (r *ProgramRepository) NextChestNumber(ctx context.Context, programID string) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx, `
		UPDATE programs SET last_chest_number = last_chest_number + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING last_chest_number
	`, programID).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to allocate chest number: %w", err)
	}
	return next, nil
}

// ListByCollege returns programs in which students of the college are registered
func (r *ProgramRepository) ListByCollege(ctx context.Context, collegeID string) ([]models.Program, error) {
	return r.queryPrograms(ctx, `
		SELECT `+programColumns+` FROM programs
		WHERE id IN (
			SELECT rp.program_id FROM registration_participants rp
			JOIN students s ON s.id = rp.student_id
			WHERE s.college_id = $1
		)
		ORDER BY start_time NULLS LAST, name
	`, collegeID)
}

// CountActive returns the number of non-cancelled programs
func (r *ProgramRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM programs WHERE is_cancelled IS NOT TRUE`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count programs: %w", err)
	}
	return n, nil
}
