package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwannenmacher/campus-fest/internal/auth"
	"github.com/pwannenmacher/campus-fest/internal/config"
	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/service"
)

func TestCatalog_Students(t *testing.T) {
	f := newFixture(t)
	c := f.college(t, "kle")
	assert.Equal(t, "KLE", c.Code)

	_, err := f.catalog.CreateCollege(f.ctx, service.CollegeInput{Name: "Another", Code: "KLE"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	st, err := f.catalog.CreateStudent(f.ctx, service.StudentInput{Name: "Asha", Code: "s-1", Gender: "female", CollegeID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, "S-1", st.Code)
	assert.Equal(t, models.GenderFemale, st.Gender)

	tests := []struct {
		name    string
		in      service.StudentInput
		wantErr error
	}{
		{"duplicate code", service.StudentInput{Name: "Ravi", Code: "S-1", CollegeID: c.ID}, service.ErrInvalidInput},
		{"bad phone", service.StudentInput{Name: "Ravi", Code: "S-2", Phone: "call me", CollegeID: c.ID}, service.ErrInvalidInput},
		{"bad gender", service.StudentInput{Name: "Ravi", Code: "S-2", Gender: "robot", CollegeID: c.ID}, service.ErrInvalidInput},
		{"unknown college", service.StudentInput{Name: "Ravi", Code: "S-2", CollegeID: "missing"}, service.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.CreateStudent(f.ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	students, err := f.catalog.ListStudents(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, students, 1)
	_, err = f.catalog.GetStudent(f.ctx, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCatalog_Events(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := f.catalog.CreateEvent(f.ctx, service.EventInput{Name: "Bad", StartDate: &start, EndDate: &end}, actor)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	inactive := false
	_, err = f.catalog.UpdateEvent(f.ctx, f.event.ID, service.EventInput{Name: "Campus Fest 2026 (archived)", IsActive: &inactive})
	require.NoError(t, err)

	active, err := f.catalog.ListEvents(f.ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := f.catalog.ListEvents(f.ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Campus Fest 2026 (archived)", all[0].Name)
}

func TestCatalog_ProgramsByCollege(t *testing.T) {
	f := newFixture(t)
	kle := f.college(t, "KLE")
	sjc := f.college(t, "SJC")
	song := f.program(t, "Solo Song", models.ProgramTypeSingle)
	f.program(t, "Quiz", models.ProgramTypeGroup)
	f.register(t, song, f.student(t, kle, "Asha", ""))

	programs, err := f.catalog.ProgramsByCollege(f.ctx, kle.ID)
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, song.ID, programs[0].ID)

	programs, err = f.catalog.ProgramsByCollege(f.ctx, sjc.ID)
	require.NoError(t, err)
	assert.Empty(t, programs)
}

func TestPublic_ScheduleAndStats(t *testing.T) {
	f := newFixture(t)
	f.ignoreNotifications()
	c := f.college(t, "KLE")
	late := f.program(t, "Quiz", models.ProgramTypeGroup, startingIn(3*time.Hour))
	early := f.program(t, "Solo Song", models.ProgramTypeSingle, startingIn(time.Hour))
	gone := f.program(t, "Mime", models.ProgramTypeGroup, startingIn(2*time.Hour))
	f.register(t, early, f.student(t, c, "Asha", ""))
	f.student(t, c, "Ravi", "")
	_, err := f.programs.Cancel(f.ctx, gone.ID, "no entries", actor)
	require.NoError(t, err)

	inactive, err := f.catalog.CreateEvent(f.ctx, service.EventInput{Name: "Old Fest", IsActive: new(bool)}, actor)
	require.NoError(t, err)
	_, err = f.programs.Create(f.ctx, service.CreateProgramInput{EventID: inactive.ID, Name: "Old Quiz", Type: models.ProgramTypeGroup}, actor)
	require.NoError(t, err)

	schedule, err := f.public.Schedule(f.ctx)
	require.NoError(t, err)
	require.Len(t, schedule, 2)
	assert.Equal(t, early.ID, schedule[0].ID)
	assert.Equal(t, late.ID, schedule[1].ID)

	stats, err := f.public.Stats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.Stats{Colleges: 1, Students: 2, Programs: 3, Registrations: 1}, stats)
}

func TestAuth_SeedAdminAndLogin(t *testing.T) {
	f := newFixture(t)
	authSvc := auth.NewService(&config.JWTConfig{Secret: "test", Expiration: time.Hour, Issuer: "campus-fest"})
	svc := service.NewAuthService(f.repos.Users, authSvc)

	created, err := svc.SeedAdmin(f.ctx, "Admin@Fest.test", "s3cret-pass", "")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = svc.SeedAdmin(f.ctx, "admin@fest.test", "other-pass", "")
	require.NoError(t, err)
	assert.False(t, created)

	result, err := svc.Login(f.ctx, "ADMIN@fest.test", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, result.User.Role)
	claims, err := authSvc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)

	user, err := svc.GetUser(f.ctx, result.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)

	_, err = svc.Login(f.ctx, "admin@fest.test", "wrong-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.Login(f.ctx, "nobody@fest.test", "s3cret-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuth_CreateUserValidation(t *testing.T) {
	f := newFixture(t)
	svc := service.NewAuthService(f.repos.Users, auth.NewService(&config.JWTConfig{Secret: "test", Expiration: time.Hour}))

	_, err := svc.CreateUser(f.ctx, service.UserInput{Email: "judge@fest.test", Password: "short", Name: "Judge", Role: models.RoleScoring})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = svc.CreateUser(f.ctx, service.UserInput{Email: "judge@fest.test", Password: "long-enough", Name: "Judge", Role: "janitor"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.CreateUser(f.ctx, service.UserInput{Email: "judge@fest.test", Password: "long-enough", Name: "Judge", Role: models.RoleScoring})
	require.NoError(t, err)
	_, err = svc.CreateUser(f.ctx, service.UserInput{Email: "JUDGE@fest.test", Password: "long-enough", Name: "Judge", Role: models.RoleScoring})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	users, err := svc.ListUsers(f.ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
