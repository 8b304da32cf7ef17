package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/pwannenmacher/campus-fest/internal/models"
)

var (
	// ErrNotFound is returned by updates and deletes that matched no row
	ErrNotFound = errors.New("record not found")
	// ErrNameTaken means a non-cancelled program with the same name exists in the event
	ErrNameTaken = errors.New("program name already in use")
	// ErrChestNumberTaken means the chest number is held by another registration of the program
	ErrChestNumberTaken = errors.New("chest number already in use")
	// ErrParticipantTaken means a student is already registered for the program
	ErrParticipantTaken = errors.New("student already registered for program")
	// ErrDuplicateKey covers the remaining unique keys (user email, college and student codes)
	ErrDuplicateKey = errors.New("duplicate key")
)

// NameKey is the comparison form of a program name. Every store matches
// names on it, so "Straße" and "STRASSE" clash everywhere. A Caser is
// stateful, so each call gets its own.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Events persists events
type Events interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, activeOnly bool) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
}

// Colleges persists colleges
type Colleges interface {
	Create(ctx context.Context, college *models.College) error
	GetByID(ctx context.Context, id string) (*models.College, error)
	List(ctx context.Context) ([]models.College, error)
	Count(ctx context.Context) (int, error)
}

// Students persists students
type Students interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id string) (*models.Student, error)
	// GetByIDs returns the students that exist; missing ids are silently skipped
	GetByIDs(ctx context.Context, ids []string) ([]models.Student, error)
	ListByCollege(ctx context.Context, collegeID string) ([]models.Student, error)
	Count(ctx context.Context) (int, error)
}

// Programs persists programs
type Programs interface {
	Create(ctx context.Context, program *models.Program) error
	GetByID(ctx context.Context, id string) (*models.Program, error)
	Update(ctx context.Context, program *models.Program) error
	List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, error)
	// NameInUse reports whether a non-cancelled program of the event already
	// uses name, compared case-insensitively, ignoring excludeID
	NameInUse(ctx context.Context, eventID, name, excludeID string) (bool, error)
	// NextChestNumber atomically increments the program's counter and returns the new value
	NextChestNumber(ctx context.Context, programID string) (int, error)
	ListByCollege(ctx context.Context, collegeID string) ([]models.Program, error)
	CountActive(ctx context.Context) (int, error)
}

// Registrations persists registrations and their participant sets
type Registrations interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id string) (*models.Registration, error)
	// Update writes status, chest number, cancellation reason, points and audit fields
	Update(ctx context.Context, reg *models.Registration) error
	ReplaceParticipants(ctx context.Context, reg *models.Registration) error
	Delete(ctx context.Context, id string) error
	ListByProgram(ctx context.Context, programID string, statuses ...models.RegistrationStatus) ([]models.Registration, error)
	ListByPrograms(ctx context.Context, programIDs []string, statuses ...models.RegistrationStatus) ([]models.Registration, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error)
	// Search returns one page of a program's registrations and the total match count
	Search(ctx context.Context, programID string, query models.RegistrationQuery) ([]models.Registration, int, error)
	// RegisteredParticipants returns which of studentIDs already appear in
	// a registration of the program other than excludeID
	RegisteredParticipants(ctx context.Context, programID string, studentIDs []string, excludeID string) ([]string, error)
	ChestNumberInUse(ctx context.Context, programID, chestNumber, excludeID string) (bool, error)
	// ApplyAggregates sets points_obtained and marks each registration COMPLETED
	ApplyAggregates(ctx context.Context, programID string, points map[string]float64, actorID string) error
	Count(ctx context.Context) (int, error)
}

// Scores persists judge scores
type Scores interface {
	// Upsert inserts or overwrites the score of (program, registration, judge)
	Upsert(ctx context.Context, score *models.Score) error
	ListByProgram(ctx context.Context, programID string) ([]models.Score, error)
	ListByRegistration(ctx context.Context, registrationID string) ([]models.Score, error)
	DeleteByRegistration(ctx context.Context, registrationID string) (int64, error)
}

// Users persists staff accounts
type Users interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.User, error)
}

// Repositories bundles every store the services need
type Repositories struct {
	Events        Events
	Colleges      Colleges
	Students      Students
	Programs      Programs
	Registrations Registrations
	Scores        Scores
	Users         Users
}

// NewPostgres wires the Postgres implementations onto one connection pool
func NewPostgres(db *sql.DB) *Repositories {
	return &Repositories{
		Events:        NewEventRepository(db),
		Colleges:      NewCollegeRepository(db),
		Students:      NewStudentRepository(db),
		Programs:      NewProgramRepository(db),
		Registrations: NewRegistrationRepository(db),
		Scores:        NewScoreRepository(db),
		Users:         NewUserRepository(db),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("Failed to close rows", "error", err)
	}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTimeOf(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// expectAffected turns a zero-row update or delete into ErrNotFound
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
