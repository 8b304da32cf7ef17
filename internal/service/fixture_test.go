package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/notify/mocks"
	"github.com/pwannenmacher/campus-fest/internal/ranking"
	"github.com/pwannenmacher/campus-fest/internal/repository"
	"github.com/pwannenmacher/campus-fest/internal/repository/memory"
	"github.com/pwannenmacher/campus-fest/internal/service"
)

const actor = "admin-1"

type fixture struct {
	ctx      context.Context
	repos    *repository.Repositories
	notifier *mocks.MockNotifier

	catalog       *service.CatalogService
	programs      *service.ProgramService
	registrations *service.RegistrationService
	scores        *service.ScoreService
	leaderboard   *service.LeaderboardService
	reminders     *service.ReminderService
	public        *service.PublicService

	event *models.Event
	seq   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		ctx:      context.Background(),
		repos:    memory.New(),
		notifier: mocks.NewMockNotifier(ctrl),
	}
	f.catalog = service.NewCatalogService(f.repos)
	f.scores = service.NewScoreService(f.repos)
	f.programs = service.NewProgramService(f.repos, f.scores, f.notifier)
	f.registrations = service.NewRegistrationService(f.repos, f.scores, f.notifier, service.RegistrationOptions{
		ChestNumberStrategy: service.ChestNumberEager,
		ChestNumberPrefix:   "C",
	})
	f.leaderboard = service.NewLeaderboardService(f.repos, ranking.DefaultPointTable())
	f.reminders = service.NewReminderService(f.repos, f.notifier)
	f.public = service.NewPublicService(f.repos)

	event, err := f.catalog.CreateEvent(f.ctx, service.EventInput{Name: "Campus Fest 2026"}, actor)
	require.NoError(t, err)
	f.event = event
	return f
}

// ignoreNotifications accepts any number of notifications
func (f *fixture) ignoreNotifications() {
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).AnyTimes()
}

func (f *fixture) college(t *testing.T, code string) *models.College {
	t.Helper()
	c, err := f.catalog.CreateCollege(f.ctx, service.CollegeInput{Name: "College " + code, Code: code})
	require.NoError(t, err)
	return c
}

func (f *fixture) student(t *testing.T, college *models.College, name, gender string) *models.Student {
	t.Helper()
	f.seq++
	st, err := f.catalog.CreateStudent(f.ctx, service.StudentInput{
		Name:      name,
		Code:      fmt.Sprintf("S%03d", f.seq),
		Phone:     fmt.Sprintf("98765%05d", f.seq),
		Gender:    gender,
		CollegeID: college.ID,
	})
	require.NoError(t, err)
	return st
}

func (f *fixture) program(t *testing.T, name string, pt models.ProgramType, mutate ...func(*service.CreateProgramInput)) *models.Program {
	t.Helper()
	in := service.CreateProgramInput{EventID: f.event.ID, Name: name, Type: pt, Venue: "Main Stage"}
	for _, m := range mutate {
		m(&in)
	}
	p, err := f.programs.Create(f.ctx, in, actor)
	require.NoError(t, err)
	return p
}

func startingIn(d time.Duration) func(*service.CreateProgramInput) {
	return func(in *service.CreateProgramInput) {
		at := time.Now().Add(d)
		in.StartTime = &at
	}
}

func maxParticipants(n int) func(*service.CreateProgramInput) {
	return func(in *service.CreateProgramInput) { in.MaxParticipants = &n }
}

func (f *fixture) register(t *testing.T, program *models.Program, students ...*models.Student) *models.Registration {
	t.Helper()
	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}
	reg, err := f.registrations.Register(f.ctx, ids, program.ID, actor)
	require.NoError(t, err)
	return reg
}

func (f *fixture) score(t *testing.T, program *models.Program, reg *models.Registration, judge string, points float64) {
	t.Helper()
	_, err := f.scores.SubmitScore(f.ctx, program.ID, reg.ID, judge, map[string]float64{"overall": points})
	require.NoError(t, err)
}

func (f *fixture) reload(t *testing.T, id string) *models.Registration {
	t.Helper()
	reg, err := f.repos.Registrations.GetByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, reg)
	return reg
}
