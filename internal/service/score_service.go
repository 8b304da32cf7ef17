package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pwannenmacher/campus-fest/internal/metrics"
	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/repository"
)

// ScoreService records judge scores and keeps registration aggregates current
type ScoreService struct {
	programs      repository.Programs
	registrations repository.Registrations
	scores        repository.Scores
}

// NewScoreService creates a new score service
func NewScoreService(repos *repository.Repositories) *ScoreService {
	return &ScoreService{
		programs:      repos.Programs,
		registrations: repos.Registrations,
		scores:        repos.Scores,
	}
}

// AggregateScores averages the judges' totals per registration
func AggregateScores(scores []models.Score) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, sc := range scores {
		sums[sc.RegistrationID] += sc.TotalPoints
		counts[sc.RegistrationID]++
	}
	means := make(map[string]float64, len(sums))
	for id, sum := range sums {
		means[id] = sum / float64(counts[id])
	}
	return means
}

func totalOf(criteria map[string]float64) (float64, error) {
	if len(criteria) == 0 {
		return 0, invalidInput("at least one criterion is required")
	}
	total := 0.0
	for name, v := range criteria {
		if strings.TrimSpace(name) == "" {
			return 0, invalidInput("criterion names must not be blank")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0, invalidInput("criterion %q must be a non-negative number", name)
		}
		total += v
	}
	return total, nil
}

// SubmitScore records or overwrites one judge's score for a registration and
// refreshes the program's aggregates. Resubmitting replaces the earlier score.
func (s *ScoreService) SubmitScore(ctx context.Context, programID, registrationID, judgeID string, criteria map[string]float64) (*models.Score, error) {
	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	if program == nil {
		return nil, notFound("program", programID)
	}
	if program.IsResultPublished {
		return nil, ErrResultsPublished
	}
	if program.IsCancelled {
		return nil, ErrProgramLocked
	}

	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if reg == nil || reg.ProgramID != programID {
		return nil, notFound("registration", registrationID)
	}
	if reg.Status.IsTerminal() {
		return nil, ErrTerminalState
	}

	total, err := totalOf(criteria)
	if err != nil {
		return nil, err
	}

	score := &models.Score{
		ID:             uuid.NewString(),
		ProgramID:      programID,
		RegistrationID: registrationID,
		JudgeID:        judgeID,
		Criteria:       criteria,
		TotalPoints:    total,
	}
	if err := s.scores.Upsert(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to save score: %w", err)
	}
	metrics.ScoresSubmittedTotal.Inc()

	if err := s.Recompute(ctx, programID, judgeID); err != nil {
		return nil, err
	}

	slog.Info("Score submitted", "program_id", programID, "registration_id", registrationID, "judge_id", judgeID, "total", total)
	return score, nil
}

// Recompute rewrites every scored registration of the program with the mean
// of its judges' totals and marks it COMPLETED. A program without scores is
// left untouched.
func (s *ScoreService) Recompute(ctx context.Context, programID, actorID string) error {
	start := time.Now()
	defer func() { metrics.RecomputeDuration.Observe(time.Since(start).Seconds()) }()

	scores, err := s.scores.ListByProgram(ctx, programID)
	if err != nil {
		return fmt.Errorf("failed to list scores: %w", err)
	}
	if len(scores) == 0 {
		return nil
	}

	if err := s.registrations.ApplyAggregates(ctx, programID, AggregateScores(scores), actorID); err != nil {
		return fmt.Errorf("failed to apply aggregates: %w", err)
	}
	return nil
}

// RecomputeAll recomputes every non-cancelled program and returns how many were processed
func (s *ScoreService) RecomputeAll(ctx context.Context, actorID string) (int, error) {
	programs, err := s.programs.List(ctx, models.ProgramFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list programs: %w", err)
	}
	for _, p := range programs {
		if err := s.Recompute(ctx, p.ID, actorID); err != nil {
			return 0, fmt.Errorf("program %s: %w", p.ID, err)
		}
	}
	return len(programs), nil
}

// ListByRegistration returns the judges' scores of one registration
func (s *ScoreService) ListByRegistration(ctx context.Context, registrationID string) ([]models.Score, error) {
	scores, err := s.scores.ListByRegistration(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return scores, nil
}
