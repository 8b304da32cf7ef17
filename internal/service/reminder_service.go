package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/notify"
	"github.com/pwannenmacher/campus-fest/internal/repository"
)

// ReminderService tells participants about programs that are about to start
type ReminderService struct {
	programs      repository.Programs
	registrations repository.Registrations
	views         viewBuilder
	notifier      notify.Notifier
	now           func() time.Time

	mu sync.Mutex
	// start time each program was last reminded for by TriggerWindow
	reminded map[string]time.Time
}

// NewReminderService creates a new reminder service
func NewReminderService(repos *repository.Repositories, notifier notify.Notifier) *ReminderService {
	return &ReminderService{
		programs:      repos.Programs,
		registrations: repos.Registrations,
		views:         viewBuilder{students: repos.Students, colleges: repos.Colleges},
		notifier:      notifier,
		now:           time.Now,
		reminded:      make(map[string]time.Time),
	}
}

// TriggerAll reminds the participants of every non-cancelled program that has not started yet
func (s *ReminderService) TriggerAll(ctx context.Context) (*models.ReminderResult, error) {
	now := s.now()
	programs, err := s.programs.List(ctx, models.ProgramFilter{StartsAfter: &now})
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming programs: %w", err)
	}
	return s.remindAll(ctx, programs)
}

// TriggerProgram reminds the participants of one program and returns how many
// registrations were notified
func (s *ReminderService) TriggerProgram(ctx context.Context, programID string) (int, error) {
	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return 0, fmt.Errorf("failed to get program: %w", err)
	}
	if program == nil {
		return 0, notFound("program", programID)
	}
	if program.IsCancelled {
		return 0, ErrProgramLocked
	}
	return s.remind(ctx, program)
}

// TriggerWindow reminds programs starting within lead from now. A program is
// reminded once per start time, so repeated runs over the same window do not
// send duplicates.
func (s *ReminderService) TriggerWindow(ctx context.Context, lead time.Duration) (*models.ReminderResult, error) {
	now := s.now()
	until := now.Add(lead)
	programs, err := s.programs.List(ctx, models.ProgramFilter{StartsAfter: &now, StartsBefore: &until})
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming programs: %w", err)
	}

	s.mu.Lock()
	due := programs[:0:0]
	for _, p := range programs {
		if at, ok := s.reminded[p.ID]; ok && p.StartTime != nil && at.Equal(*p.StartTime) {
			continue
		}
		due = append(due, p)
	}
	s.mu.Unlock()

	result, err := s.remindAll(ctx, due)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, p := range due {
		if p.StartTime != nil {
			s.reminded[p.ID] = *p.StartTime
		}
	}
	for id, at := range s.reminded {
		if at.Before(now) {
			delete(s.reminded, id)
		}
	}
	s.mu.Unlock()

	return result, nil
}

func (s *ReminderService) remindAll(ctx context.Context, programs []models.Program) (*models.ReminderResult, error) {
	result := &models.ReminderResult{ProgramCount: len(programs)}
	for i := range programs {
		sent, err := s.remind(ctx, &programs[i])
		if err != nil {
			return nil, err
		}
		result.SentCount += sent
	}
	slog.Info("Reminders sent", "programs", result.ProgramCount, "sent", result.SentCount)
	return result, nil
}

func (s *ReminderService) remind(ctx context.Context, program *models.Program) (int, error) {
	regs, err := s.registrations.ListByProgram(ctx, program.ID, activeStatuses...)
	if err != nil {
		return 0, fmt.Errorf("failed to list registrations: %w", err)
	}
	events, err := s.views.registrationEvents(ctx, notify.KindUpcomingReminder, program, regs)
	if err != nil {
		return 0, err
	}
	for _, ev := range events {
		s.notifier.Notify(ctx, ev)
	}
	return len(events), nil
}
