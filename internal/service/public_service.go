package service

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/repository"
)

// PublicService serves the unauthenticated read side: schedule and headline stats
type PublicService struct {
	events        repository.Events
	programs      repository.Programs
	colleges      repository.Colleges
	students      repository.Students
	registrations repository.Registrations
}

// NewPublicService creates a new public service
func NewPublicService(repos *repository.Repositories) *PublicService {
	return &PublicService{
		events:        repos.Events,
		programs:      repos.Programs,
		colleges:      repos.Colleges,
		students:      repos.Students,
		registrations: repos.Registrations,
	}
}

// Schedule returns the non-cancelled programs of all active events by start time
func (s *PublicService) Schedule(ctx context.Context) ([]models.Program, error) {
	events, err := s.events.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	schedule := []models.Program{}
	for _, event := range events {
		programs, err := s.programs.List(ctx, models.ProgramFilter{EventID: event.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to list programs: %w", err)
		}
		schedule = append(schedule, programs...)
	}
	slices.SortStableFunc(schedule, func(a, b models.Program) int {
		switch {
		case a.StartTime == nil && b.StartTime == nil:
			return 0
		case a.StartTime == nil:
			return 1
		case b.StartTime == nil:
			return -1
		}
		return a.StartTime.Compare(*b.StartTime)
	})
	return schedule, nil
}

// Stats counts colleges, students, active programs and registrations concurrently
func (s *PublicService) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, what string, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", what, err)
			}
			*dst = n
			return nil
		})
	}
	count(&stats.Colleges, "colleges", s.colleges.Count)
	count(&stats.Students, "students", s.students.Count)
	count(&stats.Programs, "programs", s.programs.CountActive)
	count(&stats.Registrations, "registrations", s.registrations.Count)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
