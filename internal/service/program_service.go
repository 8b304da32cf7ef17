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
	"github.com/pwannenmacher/campus-fest/internal/notify"
	"github.com/pwannenmacher/campus-fest/internal/repository"
	"github.com/pwannenmacher/campus-fest/pkg/validator"
)

// Recomputer refreshes the cached aggregate points of a program's registrations
type Recomputer interface {
	Recompute(ctx context.Context, programID, actorID string) error
}

// CreateProgramInput carries the fields of a new program
type CreateProgramInput struct {
	EventID           string             `json:"event_id" validate:"required"`
	Name              string             `json:"name" validate:"required,notblank,max=120"`
	Type              models.ProgramType `json:"type" validate:"required,oneof=SINGLE GROUP"`
	Category          string             `json:"category"`
	Venue             string             `json:"venue"`
	StartTime         *time.Time         `json:"start_time"`
	MaxParticipants   *int               `json:"max_participants"`
	GenderRestriction string             `json:"gender_restriction"`
}

// ProgramService handles the program lifecycle
type ProgramService struct {
	programs      repository.Programs
	events        repository.Events
	registrations repository.Registrations
	views         viewBuilder
	recompute     Recomputer
	notifier      notify.Notifier
}

// NewProgramService creates a new program service
func NewProgramService(repos *repository.Repositories, recompute Recomputer, notifier notify.Notifier) *ProgramService {
	return &ProgramService{
		programs:      repos.Programs,
		events:        repos.Events,
		registrations: repos.Registrations,
		views:         viewBuilder{students: repos.Students, colleges: repos.Colleges},
		recompute:     recompute,
		notifier:      notifier,
	}
}

func normalizeGender(g string) (string, error) {
	switch g = strings.ToUpper(strings.TrimSpace(g)); g {
	case "", models.GenderAny:
		return models.GenderAny, nil
	case models.GenderMale, models.GenderFemale:
		return g, nil
	}
	return "", invalidInput("unknown gender restriction %q", g)
}

func checkMaxParticipants(pt models.ProgramType, max *int) error {
	if max == nil {
		return nil
	}
	if pt != models.ProgramTypeGroup {
		return invalidInput("max_participants only applies to GROUP programs")
	}
	if *max < 1 {
		return invalidInput("max_participants must be at least 1")
	}
	return nil
}

// Create creates a new program in the given event
func (s *ProgramService) Create(ctx context.Context, in CreateProgramInput, actorID string) (*models.Program, error) {
	in.Name = validator.SanitizeString(in.Name)
	if err := validator.ValidateStruct(&in); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrInvalidInput)
	}
	if err := checkMaxParticipants(in.Type, in.MaxParticipants); err != nil {
		return nil, err
	}
	gender, err := normalizeGender(in.GenderRestriction)
	if err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, in.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, notFound("event", in.EventID)
	}

	taken, err := s.programs.NameInUse(ctx, in.EventID, in.Name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check program name: %w", err)
	}
	if taken {
		return nil, ErrDuplicateName
	}

	program := &models.Program{
		ID:                uuid.NewString(),
		EventID:           in.EventID,
		Name:              in.Name,
		Type:              in.Type,
		Category:          validator.SanitizeString(in.Category),
		Venue:             validator.SanitizeString(in.Venue),
		StartTime:         in.StartTime,
		MaxParticipants:   in.MaxParticipants,
		GenderRestriction: gender,
		LastChestNumber:   models.FirstChestNumber,
		CreatedBy:         actorID,
		LastUpdatedBy:     actorID,
	}
	if err := s.programs.Create(ctx, program); err != nil {
		if errors.Is(err, repository.ErrNameTaken) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create program: %w", err)
	}

	slog.Info("Program created", "program_id", program.ID, "event_id", program.EventID, "type", program.Type)
	return program, nil
}

// Get returns a program by id
func (s *ProgramService) Get(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.programs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	if program == nil {
		return nil, notFound("program", id)
	}
	return program, nil
}

// List returns programs matching the filter
func (s *ProgramService) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, error) {
	programs, err := s.programs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}

// ListByEvent returns the programs of one event
func (s *ProgramService) ListByEvent(ctx context.Context, eventID string, includeCancelled bool) ([]models.Program, error) {
	return s.List(ctx, models.ProgramFilter{EventID: eventID, IncludeCancelled: includeCancelled})
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Update applies a patch to a program. The boolean result reports whether
// the start time or venue changed, in which case participants are notified.
func (s *ProgramService) Update(ctx context.Context, id string, patch models.ProgramPatch, actorID string) (*models.Program, bool, error) {
	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if program.IsCancelled {
		return nil, false, ErrProgramLocked
	}

	prevStart, prevVenue := program.StartTime, program.Venue

	if patch.Name != nil {
		name := validator.SanitizeString(*patch.Name)
		if name == "" {
			return nil, false, invalidInput("name is required")
		}
		if !strings.EqualFold(name, program.Name) {
			taken, err := s.programs.NameInUse(ctx, program.EventID, name, program.ID)
			if err != nil {
				return nil, false, fmt.Errorf("failed to check program name: %w", err)
			}
			if taken {
				return nil, false, ErrDuplicateName
			}
		}
		program.Name = name
	}
	if patch.Category != nil {
		program.Category = validator.SanitizeString(*patch.Category)
	}
	if patch.Venue != nil {
		program.Venue = validator.SanitizeString(*patch.Venue)
	}
	if patch.StartTime != nil {
		program.StartTime = patch.StartTime
	}
	if patch.MaxParticipants != nil {
		if err := checkMaxParticipants(program.Type, patch.MaxParticipants); err != nil {
			return nil, false, err
		}
		program.MaxParticipants = patch.MaxParticipants
	}
	if patch.GenderRestriction != nil {
		gender, err := normalizeGender(*patch.GenderRestriction)
		if err != nil {
			return nil, false, err
		}
		program.GenderRestriction = gender
	}
	program.LastUpdatedBy = actorID

	if err := s.programs.Update(ctx, program); err != nil {
		switch {
		case errors.Is(err, repository.ErrNameTaken):
			return nil, false, ErrDuplicateName
		case errors.Is(err, repository.ErrNotFound):
			return nil, false, notFound("program", id)
		}
		return nil, false, fmt.Errorf("failed to update program: %w", err)
	}

	changed := !sameTime(prevStart, program.StartTime) || prevVenue != program.Venue
	if changed {
		s.notifyRegistrations(ctx, notify.KindScheduleChanged, program, activeStatuses...)
	}

	slog.Info("Program updated", "program_id", program.ID, "schedule_changed", changed)
	return program, changed, nil
}

// Cancel cancels a program. Its registrations stay but can no longer change.
func (s *ProgramService) Cancel(ctx context.Context, id, reason, actorID string) (*models.Program, error) {
	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	reason = validator.SanitizeString(reason)
	if reason == "" {
		return nil, ErrMissingReason
	}
	if program.IsResultPublished {
		return nil, ErrResultsPublished
	}
	if program.IsCancelled {
		return nil, ErrProgramLocked
	}

	program.IsCancelled = true
	program.CancellationReason = reason
	program.LastUpdatedBy = actorID
	if err := s.programs.Update(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to cancel program: %w", err)
	}

	s.notifyRegistrations(ctx, notify.KindProgramCancelled, program, activeStatuses...)

	slog.Info("Program cancelled", "program_id", program.ID, "reason", reason)
	return program, nil
}

// PublishResults freezes scores and statuses and refreshes the aggregates one last time
func (s *ProgramService) PublishResults(ctx context.Context, id, actorID string) (*models.Program, error) {
	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if program.IsCancelled {
		return nil, ErrProgramLocked
	}

	program.IsResultPublished = true
	program.LastUpdatedBy = actorID
	if err := s.programs.Update(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to publish results: %w", err)
	}

	if err := s.recompute.Recompute(ctx, program.ID, actorID); err != nil {
		return nil, fmt.Errorf("failed to recompute results: %w", err)
	}

	s.notifyRegistrations(ctx, notify.KindResultsPublished, program, models.StatusCompleted)

	slog.Info("Program results published", "program_id", program.ID)
	return program, nil
}

// notifyRegistrations hands one event per matching registration to the notifier.
// Failures to build the events are logged; the state change already happened.
func (s *ProgramService) notifyRegistrations(ctx context.Context, kind notify.Kind, program *models.Program, statuses ...models.RegistrationStatus) {
	regs, err := s.registrations.ListByProgram(ctx, program.ID, statuses...)
	if err != nil {
		slog.Error("Failed to load registrations for notification", "program_id", program.ID, "kind", kind, "error", err)
		return
	}
	events, err := s.views.registrationEvents(ctx, kind, program, regs)
	if err != nil {
		slog.Error("Failed to build notifications", "program_id", program.ID, "kind", kind, "error", err)
		return
	}
	for _, ev := range events {
		s.notifier.Notify(ctx, ev)
	}
}
