package service_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/service"
)

func TestAggregateScores(t *testing.T) {
	got := service.AggregateScores([]models.Score{
		{RegistrationID: "r1", JudgeID: "j1", TotalPoints: 10},
		{RegistrationID: "r1", JudgeID: "j2", TotalPoints: 16},
		{RegistrationID: "r2", JudgeID: "j1", TotalPoints: 7.5},
	})
	assert.Equal(t, map[string]float64{"r1": 13, "r2": 7.5}, got)
	assert.Empty(t, service.AggregateScores(nil))
}

func TestSubmitScore_AveragesJudges(t *testing.T) {
	f := newFixture(t)
	c := f.college(t, "KLE")
	p := f.program(t, "Solo Song", models.ProgramTypeSingle)
	reg := f.register(t, p, f.student(t, c, "Asha", ""))

	score, err := f.scores.SubmitScore(f.ctx, p.ID, reg.ID, "judge-1", map[string]float64{"voice": 6, "rhythm": 4})
	require.NoError(t, err)
	assert.Equal(t, 10.0, score.TotalPoints)

	_, err = f.scores.SubmitScore(f.ctx, p.ID, reg.ID, "judge-2", map[string]float64{"voice": 9, "rhythm": 7})
	require.NoError(t, err)

	got := f.reload(t, reg.ID)
	assert.Equal(t, 13.0, got.PointsObtained)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "judge-2", got.LastUpdatedBy)
}

func TestSubmitScore_ResubmitOverwrites(t *testing.T) {
	f := newFixture(t)
	c := f.college(t, "KLE")
	p := f.program(t, "Solo Song", models.ProgramTypeSingle)
	reg := f.register(t, p, f.student(t, c, "Asha", ""))

	f.score(t, p, reg, "judge-1", 10)
	f.score(t, p, reg, "judge-1", 10)
	f.score(t, p, reg, "judge-2", 20)
	f.score(t, p, reg, "judge-2", 14)

	scores, err := f.scores.ListByRegistration(f.ctx, reg.ID)
	require.NoError(t, err)
	assert.Len(t, scores, 2)
	assert.Equal(t, 12.0, f.reload(t, reg.ID).PointsObtained)
}

func TestSubmitScore_Guards(t *testing.T) {
	f := newFixture(t)
	f.ignoreNotifications()
	c := f.college(t, "KLE")
	p := f.program(t, "Solo Song", models.ProgramTypeSingle)
	other := f.program(t, "Essay", models.ProgramTypeSingle)
	reg := f.register(t, p, f.student(t, c, "Asha", ""))
	cancelledReg := f.register(t, p, f.student(t, c, "Ravi", ""))
	_, err := f.registrations.Cancel(f.ctx, cancelledReg.ID, "withdrew", actor)
	require.NoError(t, err)

	criteria := map[string]float64{"overall": 8}
	tests := []struct {
		name      string
		programID string
		regID     string
		criteria  map[string]float64
		wantErr   error
	}{
		{"unknown program", "missing", reg.ID, criteria, service.ErrNotFound},
		{"unknown registration", p.ID, "missing", criteria, service.ErrNotFound},
		{"registration of another program", other.ID, reg.ID, criteria, service.ErrNotFound},
		{"terminal registration", p.ID, cancelledReg.ID, criteria, service.ErrTerminalState},
		{"no criteria", p.ID, reg.ID, map[string]float64{}, service.ErrInvalidInput},
		{"negative criterion", p.ID, reg.ID, map[string]float64{"overall": -1}, service.ErrInvalidInput},
		{"NaN criterion", p.ID, reg.ID, map[string]float64{"overall": math.NaN()}, service.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.scores.SubmitScore(f.ctx, tt.programID, tt.regID, "judge-1", tt.criteria)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = f.programs.PublishResults(f.ctx, p.ID, actor)
	require.NoError(t, err)
	_, err = f.scores.SubmitScore(f.ctx, p.ID, reg.ID, "judge-1", criteria)
	assert.ErrorIs(t, err, service.ErrResultsPublished)

	_, err = f.programs.Cancel(f.ctx, other.ID, "no entries", actor)
	require.NoError(t, err)
	_, err = f.scores.SubmitScore(f.ctx, other.ID, reg.ID, "judge-1", criteria)
	assert.ErrorIs(t, err, service.ErrProgramLocked)
}

func TestRecompute_NoScoresIsNoop(t *testing.T) {
	f := newFixture(t)
	c := f.college(t, "KLE")
	p := f.program(t, "Solo Song", models.ProgramTypeSingle)
	reg := f.register(t, p, f.student(t, c, "Asha", ""))

	require.NoError(t, f.scores.Recompute(f.ctx, p.ID, actor))

	got := f.reload(t, reg.ID)
	assert.Equal(t, models.StatusOpen, got.Status)
	assert.Zero(t, got.PointsObtained)
}

func TestRecompute_SkipsTerminalRegistrations(t *testing.T) {
	f := newFixture(t)
	c := f.college(t, "KLE")
	p := f.program(t, "Solo Song", models.ProgramTypeSingle)
	reg := f.register(t, p, f.student(t, c, "Asha", ""))
	f.score(t, p, reg, "judge-1", 40)

	_, err := f.registrations.Cancel(f.ctx, reg.ID, "disqualified", actor)
	require.NoError(t, err)
	require.NoError(t, f.scores.Recompute(f.ctx, p.ID, actor))

	assert.Equal(t, models.StatusCancelled, f.reload(t, reg.ID).Status)
}

func TestRecomputeAll(t *testing.T) {
	f := newFixture(t)
	c := f.college(t, "KLE")
	p := f.program(t, "Solo Song", models.ProgramTypeSingle)
	f.program(t, "Essay", models.ProgramTypeSingle)
	reg := f.register(t, p, f.student(t, c, "Asha", ""))
	f.score(t, p, reg, "judge-1", 40)

	n, err := f.scores.RecomputeAll(f.ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 40.0, f.reload(t, reg.ID).PointsObtained)
}
