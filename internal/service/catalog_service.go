package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/repository"
	"github.com/pwannenmacher/campus-fest/pkg/validator"
)

// EventInput carries the editable fields of an event
type EventInput struct {
	Name        string     `json:"name" validate:"required,notblank,max=120"`
	Description string     `json:"description"`
	Venue       string     `json:"venue"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    *bool      `json:"is_active"`
}

// CollegeInput carries the fields of a new college
type CollegeInput struct {
	Name     string `json:"name" validate:"required,notblank,max=160"`
	Code     string `json:"code" validate:"required,code"`
	Location string `json:"location"`
	LogoURL  string `json:"logo_url"`
}

// StudentInput carries the fields of a new student
type StudentInput struct {
	Name      string `json:"name" validate:"required,notblank,max=120"`
	Code      string `json:"code" validate:"required,code"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	Gender    string `json:"gender"`
	CollegeID string `json:"college_id" validate:"required"`
}

// CatalogService manages the reference data programs are built on:
// events, colleges and students
type CatalogService struct {
	events   repository.Events
	colleges repository.Colleges
	students repository.Students
	programs repository.Programs
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repos *repository.Repositories) *CatalogService {
	return &CatalogService{
		events:   repos.Events,
		colleges: repos.Colleges,
		students: repos.Students,
		programs: repos.Programs,
	}
}

func validateInput(in any) error {
	if err := validator.ValidateStruct(in); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalidInput)
	}
	return nil
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return invalidInput("end_date must not be before start_date")
	}
	return nil
}

// CreateEvent creates a new event, active unless stated otherwise
func (s *CatalogService) CreateEvent(ctx context.Context, in EventInput, actorID string) (*models.Event, error) {
	in.Name = validator.SanitizeString(in.Name)
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	event := &models.Event{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: validator.SanitizeString(in.Description),
		Venue:       validator.SanitizeString(in.Venue),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedBy:   actorID,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	slog.Info("Event created", "event_id", event.ID, "name", event.Name)
	return event, nil
}

// GetEvent returns an event by id
func (s *CatalogService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, notFound("event", id)
	}
	return event, nil
}

// ListEvents returns all events, or only active ones
func (s *CatalogService) ListEvents(ctx context.Context, activeOnly bool) ([]models.Event, error) {
	events, err := s.events.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// UpdateEvent replaces the editable fields of an event
func (s *CatalogService) UpdateEvent(ctx context.Context, id string, in EventInput) (*models.Event, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Name = validator.SanitizeString(in.Name)
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	event.Name = in.Name
	event.Description = validator.SanitizeString(in.Description)
	event.Venue = validator.SanitizeString(in.Venue)
	event.StartDate = in.StartDate
	event.EndDate = in.EndDate
	if in.IsActive != nil {
		event.IsActive = *in.IsActive
	}
	if err := s.events.Update(ctx, event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("event", id)
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

// CreateCollege registers a participating college
func (s *CatalogService) CreateCollege(ctx context.Context, in CollegeInput) (*models.College, error) {
	in.Name = validator.SanitizeString(in.Name)
	in.Code = validator.SanitizeCode(in.Code)
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	college := &models.College{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Code:     in.Code,
		Location: validator.SanitizeString(in.Location),
		LogoURL:  validator.SanitizeString(in.LogoURL),
	}
	if err := s.colleges.Create(ctx, college); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, invalidInput("college code %s already exists", college.Code)
		}
		return nil, fmt.Errorf("failed to create college: %w", err)
	}

	slog.Info("College created", "college_id", college.ID, "code", college.Code)
	return college, nil
}

// GetCollege returns a college by id
func (s *CatalogService) GetCollege(ctx context.Context, id string) (*models.College, error) {
	college, err := s.colleges.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get college: %w", err)
	}
	if college == nil {
		return nil, notFound("college", id)
	}
	return college, nil
}

// ListColleges returns all colleges by name
func (s *CatalogService) ListColleges(ctx context.Context) ([]models.College, error) {
	colleges, err := s.colleges.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list colleges: %w", err)
	}
	return colleges, nil
}

// CreateStudent adds a student to an existing college
func (s *CatalogService) CreateStudent(ctx context.Context, in StudentInput) (*models.Student, error) {
	in.Name = validator.SanitizeString(in.Name)
	in.Code = validator.SanitizeCode(in.Code)
	in.Phone = validator.SanitizeString(in.Phone)
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	gender := strings.ToUpper(validator.SanitizeString(in.Gender))
	if gender != "" && gender != models.GenderMale && gender != models.GenderFemale {
		return nil, invalidInput("gender must be MALE or FEMALE")
	}
	if _, err := s.GetCollege(ctx, in.CollegeID); err != nil {
		return nil, err
	}

	student := &models.Student{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Code:      in.Code,
		Phone:     in.Phone,
		Gender:    gender,
		CollegeID: in.CollegeID,
	}
	if err := s.students.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, invalidInput("student code %s already exists", student.Code)
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	slog.Info("Student created", "student_id", student.ID, "college_id", student.CollegeID)
	return student, nil
}

// GetStudent returns a student by id
func (s *CatalogService) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if student == nil {
		return nil, notFound("student", id)
	}
	return student, nil
}

// ListStudents returns the students of a college
func (s *CatalogService) ListStudents(ctx context.Context, collegeID string) ([]models.Student, error) {
	if _, err := s.GetCollege(ctx, collegeID); err != nil {
		return nil, err
	}
	students, err := s.students.ListByCollege(ctx, collegeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// ProgramsByCollege returns the programs a college has registrations in
func (s *CatalogService) ProgramsByCollege(ctx context.Context, collegeID string) ([]models.Program, error) {
	if _, err := s.GetCollege(ctx, collegeID); err != nil {
		return nil, err
	}
	programs, err := s.programs.ListByCollege(ctx, collegeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}
