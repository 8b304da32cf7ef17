package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/pwannenmacher/campus-fest/internal/database"
	"github.com/pwannenmacher/campus-fest/internal/models"
)

const (
	chestNumberConstraint = "registrations_program_chest_key"
	participantConstraint = "registration_participants_program_student_key"
)

// RegistrationRepository handles registration database operations
type RegistrationRepository struct {
	db *sql.DB
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `r.id, r.program_id,
	ARRAY(SELECT rp.student_id FROM registration_participants rp WHERE rp.registration_id = r.id ORDER BY rp.position),
	r.chest_number, r.status, r.points_obtained, r.cancellation_reason, r.created_by, r.last_updated_by,
	r.created_at, r.updated_at`

func scanRegistration(row scanner) (*models.Registration, error) {
	var reg models.Registration
	var chest sql.NullString
	var participants []string
	if err := row.Scan(&reg.ID, &reg.ProgramID, pq.Array(&participants), &chest, &reg.Status,
		&reg.PointsObtained, &reg.CancellationReason, &reg.CreatedBy, &reg.LastUpdatedBy,
		&reg.CreatedAt, &reg.UpdatedAt); err != nil {
		return nil, err
	}
	reg.ParticipantIDs = participants
	if chest.Valid {
		reg.ChestNumber = &chest.String
	}
	return &reg, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// mapWriteError translates unique violations on registration keys
func mapWriteError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err, chestNumberConstraint):
		return ErrChestNumberTaken
	case database.IsUniqueViolation(err, participantConstraint):
		return ErrParticipantTaken
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func (r *RegistrationRepository) queryRegistrations(ctx context.Context, query string, args ...any) ([]models.Registration, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer closeRows(rows)

	var regs []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

func (r *RegistrationRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func insertParticipants(ctx context.Context, tx *sql.Tx, reg *models.Registration) error {
	for i, studentID := range reg.ParticipantIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO registration_participants (registration_id, program_id, student_id, position)
			VALUES ($1, $2, $3, $4)
		`, reg.ID, reg.ProgramID, studentID, i); err != nil {
			return mapWriteError(err, "add participant")
		}
	}
	return nil
}

// Create inserts the registration and its participants in one transaction
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	now := time.Now()
	reg.CreatedAt, reg.UpdatedAt = now, now

	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO registrations (
				id, program_id, chest_number, status, points_obtained, cancellation_reason,
				created_by, last_updated_by, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		`, reg.ID, reg.ProgramID, nullString(reg.ChestNumber), reg.Status, reg.PointsObtained,
			reg.CancellationReason, reg.CreatedBy, reg.LastUpdatedBy, now)
		if err != nil {
			return mapWriteError(err, "create registration")
		}
		return insertParticipants(ctx, tx, reg)
	})
}

// GetByID returns the registration or nil when it does not exist
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations r WHERE r.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

// Update writes the mutable registration columns
func (r *RegistrationRepository) Update(ctx context.Context, reg *models.Registration) error {
	reg.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE registrations
		SET chest_number = $2, status = $3, points_obtained = $4, cancellation_reason = $5,
			last_updated_by = $6, updated_at = $7
		WHERE id = $1
	`, reg.ID, nullString(reg.ChestNumber), reg.Status, reg.PointsObtained, reg.CancellationReason,
		reg.LastUpdatedBy, reg.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "update registration")
	}
	return expectAffected(res)
}

// ReplaceParticipants swaps the participant set in one transaction
func (r *RegistrationRepository) ReplaceParticipants(ctx context.Context, reg *models.Registration) error {
	reg.UpdatedAt = time.Now()
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE registrations SET last_updated_by = $2, updated_at = $3 WHERE id = $1`,
			reg.ID, reg.LastUpdatedBy, reg.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update registration: %w", err)
		}
		if err := expectAffected(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM registration_participants WHERE registration_id = $1`, reg.ID); err != nil {
			return fmt.Errorf("failed to clear participants: %w", err)
		}
		return insertParticipants(ctx, tx, reg)
	})
}

// Delete removes the registration; participant rows cascade
func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return expectAffected(res)
}

func statusStrings(statuses []models.RegistrationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// ListByProgram returns the program's registrations, optionally restricted to statuses
func (r *RegistrationRepository) ListByProgram(ctx context.Context, programID string, statuses ...models.RegistrationStatus) ([]models.Registration, error) {
	return r.ListByPrograms(ctx, []string{programID}, statuses...)
}

// ListByPrograms returns registrations of several programs in one round trip
func (r *RegistrationRepository) ListByPrograms(ctx context.Context, programIDs []string, statuses ...models.RegistrationStatus) ([]models.Registration, error) {
	if len(programIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + registrationColumns + ` FROM registrations r WHERE r.program_id = ANY($1)`
	args := []any{pq.Array(programIDs)}
	if len(statuses) > 0 {
		query += ` AND r.status = ANY($2)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	query += ` ORDER BY r.created_at, r.id`
	return r.queryRegistrations(ctx, query, args...)
}

// ListByStudent returns every registration the student takes part in, newest first
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error) {
	return r.queryRegistrations(ctx, `
		SELECT `+registrationColumns+` FROM registrations r
		WHERE r.id IN (SELECT registration_id FROM registration_participants WHERE student_id = $1)
		ORDER BY r.created_at DESC, r.id
	`, studentID)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Search filters a program's registrations by status, college and free text over
// participant name, code, phone and the chest number
func (r *RegistrationRepository) Search(ctx context.Context, programID string, q models.RegistrationQuery) ([]models.Registration, int, error) {
	where := []string{"r.program_id = $1"}
	args := []any{programID}

	if len(q.Statuses) > 0 {
		args = append(args, pq.Array(statusStrings(q.Statuses)))
		where = append(where, fmt.Sprintf("r.status = ANY($%d)", len(args)))
	}
	if q.CollegeID != "" {
		args = append(args, q.CollegeID)
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM registration_participants rp JOIN students s ON s.id = rp.student_id
			WHERE rp.registration_id = r.id AND s.college_id = $%d)`, len(args)))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(`(r.chest_number ILIKE $%d OR EXISTS (
			SELECT 1 FROM registration_participants rp JOIN students s ON s.id = rp.student_id
			WHERE rp.registration_id = r.id AND (s.name ILIKE $%d OR s.code ILIKE $%d OR s.phone ILIKE $%d)))`,
			n, n, n, n))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations r WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	query := `SELECT ` + registrationColumns + ` FROM registrations r WHERE ` + cond + ` ORDER BY r.created_at, r.id`
	if q.Limit > 0 {
		page := max(q.Page, 1)
		args = append(args, q.Limit, (page-1)*q.Limit)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	regs, err := r.queryRegistrations(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return regs, total, nil
}

// RegisteredParticipants returns the subset of studentIDs already registered for the program
func (r *RegistrationRepository) RegisteredParticipants(ctx context.Context, programID string, studentIDs []string, excludeID string) ([]string, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id FROM registration_participants
		WHERE program_id = $1 AND student_id = ANY($2) AND registration_id <> $3
		ORDER BY student_id
	`, programID, pq.Array(studentIDs), excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participants: %w", err)
	}
	defer closeRows(rows)

	var taken []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		taken = append(taken, id)
	}
	return taken, rows.Err()
}

// ChestNumberInUse reports whether another registration of the program holds chestNumber
func (r *RegistrationRepository) ChestNumberInUse(ctx context.Context, programID, chestNumber, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM registrations WHERE program_id = $1 AND chest_number = $2 AND id <> $3
		)
	`, programID, chestNumber, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check chest number: %w", err)
	}
	return exists, nil
}

// ApplyAggregates writes averaged points and marks the registrations COMPLETED.
// Cancelled and rejected registrations keep their state.
func (r *RegistrationRepository) ApplyAggregates(ctx context.Context, programID string, points map[string]float64, actorID string) error {
	if len(points) == 0 {
		return nil
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE registrations
			SET points_obtained = $3, status = 'COMPLETED', last_updated_by = $4, updated_at = NOW()
			WHERE id = $1 AND program_id = $2 AND status NOT IN ('CANCELLED', 'REJECTED')
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare aggregate update: %w", err)
		}
		defer stmt.Close()

		for id, p := range points {
			if _, err := stmt.ExecContext(ctx, id, programID, p, actorID); err != nil {
				return fmt.Errorf("failed to write aggregate for %s: %w", id, err)
			}
		}
		return nil
	})
}

// Count returns the number of live (not cancelled or rejected) registrations
func (r *RegistrationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE status NOT IN ('CANCELLED', 'REJECTED')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return n, nil
}
