package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pwannenmacher/campus-fest/internal/metrics"
	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/notify"
	"github.com/pwannenmacher/campus-fest/internal/ranking"
	"github.com/pwannenmacher/campus-fest/internal/repository"
	"github.com/pwannenmacher/campus-fest/pkg/validator"
)

// Chest number strategies
const (
	ChestNumberEager  = "eager"
	ChestNumberReport = "report"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// RegistrationOptions tunes chest number assignment
type RegistrationOptions struct {
	ChestNumberStrategy string
	ChestNumberPrefix   string
}

// RegistrationService handles the registration lifecycle
type RegistrationService struct {
	programs      repository.Programs
	registrations repository.Registrations
	students      repository.Students
	scores        repository.Scores
	views         viewBuilder
	recompute     Recomputer
	notifier      notify.Notifier
	opts          RegistrationOptions
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(repos *repository.Repositories, recompute Recomputer, notifier notify.Notifier, opts RegistrationOptions) *RegistrationService {
	if opts.ChestNumberStrategy == "" {
		opts.ChestNumberStrategy = ChestNumberEager
	}
	// reported chest numbers are upper-cased, allocated ones must match
	opts.ChestNumberPrefix = strings.ToUpper(strings.TrimSpace(opts.ChestNumberPrefix))
	return &RegistrationService{
		programs:      repos.Programs,
		registrations: repos.Registrations,
		students:      repos.Students,
		scores:        repos.Scores,
		views:         viewBuilder{students: repos.Students, colleges: repos.Colleges},
		recompute:     recompute,
		notifier:      notifier,
		opts:          opts,
	}
}

func (s *RegistrationService) loadProgram(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.programs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	if program == nil {
		return nil, notFound("program", id)
	}
	return program, nil
}

func (s *RegistrationService) load(ctx context.Context, id string) (*models.Registration, *models.Program, error) {
	reg, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if reg == nil {
		return nil, nil, notFound("registration", id)
	}
	program, err := s.loadProgram(ctx, reg.ProgramID)
	if err != nil {
		return nil, nil, err
	}
	return reg, program, nil
}

// checkMutable is the guard every mutation shares: program lock first, then terminal status
func checkMutable(reg *models.Registration, program *models.Program) error {
	if program.IsCancelled || program.IsResultPublished {
		return ErrProgramLocked
	}
	if reg.Status.IsTerminal() {
		return ErrTerminalState
	}
	return nil
}

func (s *RegistrationService) loadForMutation(ctx context.Context, id string) (*models.Registration, *models.Program, error) {
	reg, program, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := checkMutable(reg, program); err != nil {
		return nil, nil, err
	}
	return reg, program, nil
}

// checkParticipants enforces the participant-set rules of the program type
// and returns the ids in their submitted order
func (s *RegistrationService) checkParticipants(ctx context.Context, program *models.Program, ids []string) ([]string, error) {
	clean := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, invalidParticipants("participant id must not be blank")
		}
		if seen[id] {
			return nil, invalidParticipants("student %s listed twice", id)
		}
		seen[id] = true
		clean = append(clean, id)
	}

	switch {
	case len(clean) == 0:
		return nil, invalidParticipants("at least one participant is required")
	case program.Type == models.ProgramTypeSingle && len(clean) != 1:
		return nil, invalidParticipants("SINGLE programs take exactly one participant")
	case program.Type == models.ProgramTypeGroup && program.MaxParticipants != nil && len(clean) > *program.MaxParticipants:
		return nil, invalidParticipants("at most %d participants allowed", *program.MaxParticipants)
	}

	students, err := s.students.GetByIDs(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	found := make(map[string]models.Student, len(students))
	for _, st := range students {
		found[st.ID] = st
	}
	for _, id := range clean {
		if _, ok := found[id]; !ok {
			return nil, notFound("student", id)
		}
	}

	college := found[clean[0]].CollegeID
	restriction := program.GenderRestriction
	for _, id := range clean {
		st := found[id]
		if st.CollegeID != college {
			return nil, invalidParticipants("all participants must belong to the same college")
		}
		if restriction != "" && restriction != models.GenderAny && !strings.EqualFold(st.Gender, restriction) {
			return nil, invalidParticipants("program is restricted to %s participants", strings.ToLower(restriction))
		}
	}
	return clean, nil
}

func (s *RegistrationService) checkNotRegistered(ctx context.Context, programID string, ids []string, excludeID string) error {
	taken, err := s.registrations.RegisteredParticipants(ctx, programID, ids, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check existing registrations: %w", err)
	}
	if len(taken) > 0 {
		return fmt.Errorf("student %s: %w", strings.Join(taken, ", "), ErrAlreadyRegistered)
	}
	return nil
}

func (s *RegistrationService) nextChestNumber(ctx context.Context, programID string) (string, error) {
	n, err := s.programs.NextChestNumber(ctx, programID)
	if err != nil {
		return "", fmt.Errorf("failed to allocate chest number: %w", err)
	}
	return s.opts.ChestNumberPrefix + strconv.Itoa(n), nil
}

func mapRegistrationWrite(err error, action string) error {
	switch {
	case errors.Is(err, repository.ErrParticipantTaken):
		return ErrAlreadyRegistered
	case errors.Is(err, repository.ErrChestNumberTaken):
		return ErrDuplicateChestNumber
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", action, ErrNotFound)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// Register creates an OPEN registration of the given students for a program
func (s *RegistrationService) Register(ctx context.Context, participantIDs []string, programID, actorID string) (*models.Registration, error) {
	program, err := s.loadProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if program.IsCancelled || program.IsResultPublished {
		return nil, ErrProgramLocked
	}

	ids, err := s.checkParticipants(ctx, program, participantIDs)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotRegistered(ctx, programID, ids, ""); err != nil {
		return nil, err
	}

	reg := &models.Registration{
		ID:             uuid.NewString(),
		ProgramID:      programID,
		ParticipantIDs: ids,
		Status:         models.StatusOpen,
		CreatedBy:      actorID,
		LastUpdatedBy:  actorID,
	}
	if s.opts.ChestNumberStrategy == ChestNumberEager {
		chest, err := s.nextChestNumber(ctx, programID)
		if err != nil {
			return nil, err
		}
		reg.ChestNumber = &chest
	}

	if err := s.registrations.Create(ctx, reg); err != nil {
		return nil, mapRegistrationWrite(err, "create registration")
	}
	metrics.RegistrationsTotal.WithLabelValues(string(program.Type)).Inc()

	slog.Info("Registration created", "registration_id", reg.ID, "program_id", programID, "participants", len(ids))
	return reg, nil
}

// UpdateStatus moves a non-terminal registration to another status.
// REJECTED is the only terminal status reachable here; cancelling needs a
// reason and goes through Cancel.
func (s *RegistrationService) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, actorID string) (*models.Registration, error) {
	if !status.Valid() {
		return nil, invalidInput("unknown status %q", status)
	}
	if status == models.StatusCancelled {
		return nil, invalidInput("use the cancel operation to cancel a registration")
	}
	reg, program, err := s.loadForMutation(ctx, id)
	if err != nil {
		return nil, err
	}

	reg.Status = status
	reg.LastUpdatedBy = actorID
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, mapRegistrationWrite(err, "update registration status")
	}
	metrics.RegistrationTransitionsTotal.WithLabelValues(string(status)).Inc()

	if status == models.StatusConfirmed {
		s.notify(ctx, notify.KindRegistrationConfirmed, program, *reg)
	}

	slog.Info("Registration status updated", "registration_id", id, "status", status)
	return reg, nil
}

// Report marks a registration as REPORTED at the desk and fixes its chest number.
// A blank chestNumber keeps the assigned one or allocates the next from the program counter.
func (s *RegistrationService) Report(ctx context.Context, id, chestNumber, actorID string) (*models.Registration, error) {
	reg, _, err := s.loadForMutation(ctx, id)
	if err != nil {
		return nil, err
	}

	chest := strings.ToUpper(validator.SanitizeString(chestNumber))
	switch {
	case chest != "":
		if err := validator.ValidateChestNumber(chest); err != nil {
			return nil, fmt.Errorf("%s: %w", err.Error(), ErrInvalidInput)
		}
		inUse, err := s.registrations.ChestNumberInUse(ctx, reg.ProgramID, chest, reg.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check chest number: %w", err)
		}
		if inUse {
			return nil, ErrDuplicateChestNumber
		}
	case reg.ChestNumber != nil:
		chest = *reg.ChestNumber
	default:
		if chest, err = s.nextChestNumber(ctx, reg.ProgramID); err != nil {
			return nil, err
		}
	}

	reg.ChestNumber = &chest
	reg.Status = models.StatusReported
	reg.LastUpdatedBy = actorID
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, mapRegistrationWrite(err, "report registration")
	}
	metrics.RegistrationTransitionsTotal.WithLabelValues(string(models.StatusReported)).Inc()

	slog.Info("Registration reported", "registration_id", id, "chest_number", chest)
	return reg, nil
}

// Cancel cancels a registration. The cancellation is terminal.
func (s *RegistrationService) Cancel(ctx context.Context, id, reason, actorID string) (*models.Registration, error) {
	reg, program, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	reason = validator.SanitizeString(reason)
	if reason == "" {
		return nil, ErrMissingReason
	}
	if err := checkMutable(reg, program); err != nil {
		return nil, err
	}

	reg.Status = models.StatusCancelled
	reg.CancellationReason = reason
	reg.LastUpdatedBy = actorID
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, mapRegistrationWrite(err, "cancel registration")
	}
	metrics.RegistrationTransitionsTotal.WithLabelValues(string(models.StatusCancelled)).Inc()

	slog.Info("Registration cancelled", "registration_id", id, "reason", reason)
	return reg, nil
}

// UpdateParticipants replaces the participant set until the registration reports
func (s *RegistrationService) UpdateParticipants(ctx context.Context, id string, participantIDs []string, actorID string) (*models.Registration, error) {
	reg, program, err := s.loadForMutation(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.Status == models.StatusReported || reg.Status == models.StatusParticipated {
		return nil, ErrLockedStatus
	}

	ids, err := s.checkParticipants(ctx, program, participantIDs)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotRegistered(ctx, program.ID, ids, reg.ID); err != nil {
		return nil, err
	}

	reg.ParticipantIDs = ids
	reg.LastUpdatedBy = actorID
	if err := s.registrations.ReplaceParticipants(ctx, reg); err != nil {
		return nil, mapRegistrationWrite(err, "update participants")
	}

	slog.Info("Registration participants updated", "registration_id", id, "participants", len(ids))
	return reg, nil
}

// Remove deletes a registration with its scores and re-ranks the program.
// The steps are not atomic; running Remove again after a partial failure
// finishes the job.
func (s *RegistrationService) Remove(ctx context.Context, id, actorID string) error {
	reg, _, err := s.loadForMutation(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.scores.DeleteByRegistration(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete scores: %w", err)
	}
	if err := s.registrations.Delete(ctx, id); err != nil {
		return mapRegistrationWrite(err, "delete registration")
	}

	// the next score submission recomputes again, so a failure here only delays the refresh
	if err := s.recompute.Recompute(ctx, reg.ProgramID, actorID); err != nil {
		slog.Error("Failed to recompute program after removal", "program_id", reg.ProgramID, "error", err)
	}

	slog.Info("Registration removed", "registration_id", id, "program_id", reg.ProgramID, "scores_deleted", deleted)
	return nil
}

// Get returns one registration with participants and rank
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.RegistrationView, error) {
	reg, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if reg == nil {
		return nil, notFound("registration", id)
	}
	ranks, err := s.rankIndex(ctx, reg.ProgramID)
	if err != nil {
		return nil, err
	}
	views, err := s.views.build(ctx, []models.Registration{*reg}, ranks)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *RegistrationService) rankIndex(ctx context.Context, programID string) (map[string]int, error) {
	completed, err := s.registrations.ListByProgram(ctx, programID, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed registrations: %w", err)
	}
	return ranking.RankIndex(completed), nil
}

// NormalizePage clamps page and limit to sane bounds
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// ParseStatuses accepts a single status or a comma separated list
func ParseStatuses(raw string) ([]models.RegistrationStatus, error) {
	var statuses []models.RegistrationStatus
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		status := models.RegistrationStatus(part)
		if !status.Valid() {
			return nil, invalidInput("unknown status %q", part)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ListByProgram returns one page of a program's registrations. Ranks are
// computed over all COMPLETED registrations of the program, not just the page.
func (s *RegistrationService) ListByProgram(ctx context.Context, programID string, query models.RegistrationQuery) (*models.RegistrationPage, error) {
	if _, err := s.loadProgram(ctx, programID); err != nil {
		return nil, err
	}
	query.Page, query.Limit = NormalizePage(query.Page, query.Limit)
	query.Search = validator.SanitizeString(query.Search)

	regs, total, err := s.registrations.Search(ctx, programID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search registrations: %w", err)
	}
	ranks, err := s.rankIndex(ctx, programID)
	if err != nil {
		return nil, err
	}
	views, err := s.views.build(ctx, regs, ranks)
	if err != nil {
		return nil, err
	}

	return &models.RegistrationPage{
		Registrations: views,
		Pagination: models.Pagination{
			Total: total,
			Page:  query.Page,
			Limit: query.Limit,
			Pages: (total + query.Limit - 1) / query.Limit,
		},
	}, nil
}

// ListByStudent returns every registration a student appears in
func (s *RegistrationService) ListByStudent(ctx context.Context, studentID string) ([]models.RegistrationView, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if student == nil {
		return nil, notFound("student", studentID)
	}

	regs, err := s.registrations.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	ranks := make(map[string]int)
	seen := make(map[string]bool)
	for _, reg := range regs {
		if seen[reg.ProgramID] {
			continue
		}
		seen[reg.ProgramID] = true
		programRanks, err := s.rankIndex(ctx, reg.ProgramID)
		if err != nil {
			return nil, err
		}
		for id, rank := range programRanks {
			ranks[id] = rank
		}
	}
	return s.views.build(ctx, regs, ranks)
}

func (s *RegistrationService) notify(ctx context.Context, kind notify.Kind, program *models.Program, reg models.Registration) {
	events, err := s.views.registrationEvents(ctx, kind, program, []models.Registration{reg})
	if err != nil {
		slog.Error("Failed to build notification", "registration_id", reg.ID, "kind", kind, "error", err)
		return
	}
	for _, ev := range events {
		s.notifier.Notify(ctx, ev)
	}
}
