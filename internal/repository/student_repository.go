package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/pwannenmacher/campus-fest/internal/database"
	"github.com/pwannenmacher/campus-fest/internal/models"
)

// StudentRepository handles student database operations
type StudentRepository struct {
	db *sql.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, name, code, phone, gender, college_id, created_at, updated_at`

func scanStudent(row scanner) (*models.Student, error) {
	var s models.Student
	if err := row.Scan(&s.ID, &s.Name, &s.Code, &s.Phone, &s.Gender, &s.CollegeID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepository) queryStudents(ctx context.Context, query string, args ...any) ([]models.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer closeRows(rows)

	var students []models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// Create inserts a new student
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now()
	student.CreatedAt, student.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, name, code, phone, gender, college_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, student.ID, student.Name, student.Code, student.Phone, student.Gender, student.CollegeID, now)
	if database.IsUniqueViolation(err, "") {
		return fmt.Errorf("student code %q: %w", student.Code, ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// GetByID returns the student or nil when it does not exist
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	s, err := scanStudent(r.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return s, nil
}

// GetByIDs returns the existing students among ids
func (r *StudentRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryStudents(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = ANY($1) ORDER BY name`, pq.Array(ids))
}

// ListByCollege returns the students of a college ordered by name
func (r *StudentRepository) ListByCollege(ctx context.Context, collegeID string) ([]models.Student, error) {
	return r.queryStudents(ctx,
		`SELECT `+studentColumns+` FROM students WHERE college_id = $1 ORDER BY name`, collegeID)
}

// Count returns the number of students
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return n, nil
}
