package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/repository"
	"github.com/pwannenmacher/campus-fest/internal/repository/memory"
	"github.com/pwannenmacher/campus-fest/internal/testutil"
)

func TestPostgresRepositories(t *testing.T) {
	tc := testutil.SetupPostgres(t)
	repos := repository.NewPostgres(tc.DB)
	ctx := context.Background()

	t.Run("program names are unique per event ignoring case and cancelled programs", func(t *testing.T) {
		f := testutil.SetupFixtures(t, repos)

		dup := testutil.NewProgram(f.Event.ID, "SOLO song", models.ProgramTypeSingle, nil)
		assert.ErrorIs(t, repos.Programs.Create(ctx, dup), repository.ErrNameTaken)

		inUse, err := repos.Programs.NameInUse(ctx, f.Event.ID, "solo SONG", f.Solo.ID)
		require.NoError(t, err)
		assert.False(t, inUse)

		f.Solo.IsCancelled = true
		f.Solo.CancellationReason = "venue unavailable"
		require.NoError(t, repos.Programs.Update(ctx, f.Solo))
		assert.NoError(t, repos.Programs.Create(ctx, dup))

		got, err := repos.Programs.GetByID(ctx, f.Solo.ID)
		require.NoError(t, err)
		assert.True(t, got.IsCancelled)
		assert.Equal(t, "venue unavailable", got.CancellationReason)
	})

	t.Run("program names fold like the memory store", func(t *testing.T) {
		f := testutil.SetupFixtures(t, repos)
		mem := memory.New()

		quiz := testutil.NewProgram(f.Event.ID, "Straße Quiz", models.ProgramTypeSingle, nil)
		require.NoError(t, repos.Programs.Create(ctx, quiz))
		require.NoError(t, mem.Programs.Create(ctx, testutil.NewProgram(f.Event.ID, "Straße Quiz", models.ProgramTypeSingle, nil)))

		for _, name := range []string{"STRASSE QUIZ", "strasse quiz", " Straße quiz ", "Strase Quiz"} {
			inDB, err := repos.Programs.NameInUse(ctx, f.Event.ID, name, "")
			require.NoError(t, err)
			inMem, err := mem.Programs.NameInUse(ctx, f.Event.ID, name, "")
			require.NoError(t, err)
			assert.Equal(t, inMem, inDB, name)
		}

		dup := testutil.NewProgram(f.Event.ID, "STRASSE QUIZ", models.ProgramTypeSingle, nil)
		assert.ErrorIs(t, repos.Programs.Create(ctx, dup), repository.ErrNameTaken)
	})

	t.Run("missing rows", func(t *testing.T) {
		p, err := repos.Programs.GetByID(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Nil(t, p)

		reg, err := repos.Registrations.GetByID(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Nil(t, reg)

		assert.ErrorIs(t, repos.Registrations.Delete(ctx, uuid.NewString()), repository.ErrNotFound)
		_, err = repos.Programs.NextChestNumber(ctx, uuid.NewString())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("chest numbers are handed out once", func(t *testing.T) {
		f := testutil.SetupFixtures(t, repos)

		const n = 20
		got := make(chan int, n)
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := repos.Programs.NextChestNumber(ctx, f.Group.ID)
				assert.NoError(t, err)
				got <- v
			}()
		}
		wg.Wait()
		close(got)

		seen := make(map[int]bool)
		for v := range got {
			assert.False(t, seen[v], "chest number %d handed out twice", v)
			seen[v] = true
		}
		assert.Len(t, seen, n)

		p, err := repos.Programs.GetByID(ctx, f.Group.ID)
		require.NoError(t, err)
		assert.Equal(t, models.FirstChestNumber+n, p.LastChestNumber)
	})

	t.Run("registration unique keys", func(t *testing.T) {
		f := testutil.SetupFixtures(t, repos)

		chest := "C101"
		first := testutil.NewRegistration(f.Group.ID, f.Students[0].ID, f.Students[1].ID)
		first.ChestNumber = &chest
		require.NoError(t, repos.Registrations.Create(ctx, first))

		clash := testutil.NewRegistration(f.Group.ID, f.Students[1].ID)
		assert.ErrorIs(t, repos.Registrations.Create(ctx, clash), repository.ErrParticipantTaken)

		other := testutil.NewRegistration(f.Group.ID, f.Students[2].ID)
		other.ChestNumber = &chest
		assert.ErrorIs(t, repos.Registrations.Create(ctx, other), repository.ErrChestNumberTaken)

		// the failed insert left nothing behind
		taken, err := repos.Registrations.RegisteredParticipants(ctx, f.Group.ID,
			[]string{f.Students[1].ID, f.Students[2].ID}, "")
		require.NoError(t, err)
		assert.Equal(t, []string{f.Students[1].ID}, taken)

		inUse, err := repos.Registrations.ChestNumberInUse(ctx, f.Group.ID, chest, first.ID)
		require.NoError(t, err)
		assert.False(t, inUse)

		// the same student may enter a different program
		solo := testutil.NewRegistration(f.Solo.ID, f.Students[1].ID)
		solo.ChestNumber = &chest
		assert.NoError(t, repos.Registrations.Create(ctx, solo))
	})

	t.Run("participants keep their order and can be replaced", func(t *testing.T) {
		f := testutil.SetupFixtures(t, repos)

		reg := testutil.NewRegistration(f.Group.ID, f.Students[1].ID, f.Students[0].ID)
		require.NoError(t, repos.Registrations.Create(ctx, reg))

		got, err := repos.Registrations.GetByID(ctx, reg.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{f.Students[1].ID, f.Students[0].ID}, got.ParticipantIDs)
		assert.Nil(t, got.ChestNumber)

		reg.ParticipantIDs = []string{f.Students[0].ID}
		reg.LastUpdatedBy = "coordinator"
		require.NoError(t, repos.Registrations.ReplaceParticipants(ctx, reg))

		got, err = repos.Registrations.GetByID(ctx, reg.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{f.Students[0].ID}, got.ParticipantIDs)
		assert.Equal(t, "coordinator", got.LastUpdatedBy)

		regs, err := repos.Registrations.ListByStudent(ctx, f.Students[1].ID)
		require.NoError(t, err)
		assert.Empty(t, regs)

		require.NoError(t, repos.Registrations.Delete(ctx, reg.ID))
		taken, err := repos.Registrations.RegisteredParticipants(ctx, f.Group.ID, []string{f.Students[0].ID}, "")
		require.NoError(t, err)
		assert.Empty(t, taken)
	})

	t.Run("search filters and pages", func(t *testing.T) {
		f := testutil.SetupFixtures(t, repos)

		var ids []string
		for i, s := range f.Students {
			reg := testutil.NewRegistration(f.Solo.ID, s.ID)
			if i == 3 {
				reg.Status = models.StatusCancelled
			}
			require.NoError(t, repos.Registrations.Create(ctx, reg))
			ids = append(ids, reg.ID)
		}

		regs, total, err := repos.Registrations.Search(ctx, f.Solo.ID, models.RegistrationQuery{Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Len(t, regs, 1)

		regs, total, err = repos.Registrations.Search(ctx, f.Solo.ID, models.RegistrationQuery{CollegeID: f.Colleges[1].ID})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.ElementsMatch(t, ids[2:], []string{regs[0].ID, regs[1].ID})

		regs, total, err = repos.Registrations.Search(ctx, f.Solo.ID, models.RegistrationQuery{
			Search:   f.Students[2].Code,
			Statuses: []models.RegistrationStatus{models.StatusOpen},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, ids[2], regs[0].ID)

		_, total, err = repos.Registrations.Search(ctx, f.Solo.ID, models.RegistrationQuery{Search: "%"})
		require.NoError(t, err)
		assert.Zero(t, total, "LIKE wildcards are matched literally")
	})

	t.Run("scores upsert per judge and aggregates skip terminal registrations", func(t *testing.T) {
		f := testutil.SetupFixtures(t, repos)

		live := testutil.NewRegistration(f.Solo.ID, f.Students[0].ID)
		require.NoError(t, repos.Registrations.Create(ctx, live))
		cancelled := testutil.NewRegistration(f.Solo.ID, f.Students[1].ID)
		cancelled.Status = models.StatusCancelled
		require.NoError(t, repos.Registrations.Create(ctx, cancelled))

		score := &models.Score{
			ID:             uuid.NewString(),
			ProgramID:      f.Solo.ID,
			RegistrationID: live.ID,
			JudgeID:        "judge-1",
			Criteria:       map[string]float64{"voice": 6, "rhythm": 4},
			TotalPoints:    10,
		}
		require.NoError(t, repos.Scores.Upsert(ctx, score))
		firstID := score.ID

		again := &models.Score{
			ID:             uuid.NewString(),
			ProgramID:      f.Solo.ID,
			RegistrationID: live.ID,
			JudgeID:        "judge-1",
			Criteria:       map[string]float64{"voice": 8, "rhythm": 4},
			TotalPoints:    12,
		}
		require.NoError(t, repos.Scores.Upsert(ctx, again))
		assert.Equal(t, firstID, again.ID)

		scores, err := repos.Scores.ListByProgram(ctx, f.Solo.ID)
		require.NoError(t, err)
		require.Len(t, scores, 1)
		assert.InDelta(t, 12, scores[0].TotalPoints, 1e-9)
		assert.Equal(t, map[string]float64{"voice": 8, "rhythm": 4}, scores[0].Criteria)

		require.NoError(t, repos.Registrations.ApplyAggregates(ctx, f.Solo.ID,
			map[string]float64{live.ID: 12, cancelled.ID: 3}, "scorer"))

		got, err := repos.Registrations.GetByID(ctx, live.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, got.Status)
		assert.InDelta(t, 12, got.PointsObtained, 1e-9)

		got, err = repos.Registrations.GetByID(ctx, cancelled.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
		assert.Zero(t, got.PointsObtained)

		n, err := repos.Scores.DeleteByRegistration(ctx, live.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("program listing filters", func(t *testing.T) {
		f := testutil.SetupFixtures(t, repos)
		later := time.Now().Add(48 * time.Hour)

		published := testutil.NewProgram(f.Event.ID, "Quiz", models.ProgramTypeGroup, &later)
		published.IsResultPublished = true
		require.NoError(t, repos.Programs.Create(ctx, published))

		programs, err := repos.Programs.List(ctx, models.ProgramFilter{EventID: f.Event.ID})
		require.NoError(t, err)
		require.Len(t, programs, 3)
		assert.Equal(t, "Quiz", programs[2].Name, "ordered by start time")

		programs, err = repos.Programs.List(ctx, models.ProgramFilter{EventID: f.Event.ID, PublishedOnly: true})
		require.NoError(t, err)
		require.Len(t, programs, 1)
		assert.Equal(t, published.ID, programs[0].ID)

		before := time.Now().Add(3 * time.Hour)
		programs, err = repos.Programs.List(ctx, models.ProgramFilter{
			EventID:      f.Event.ID,
			Type:         models.ProgramTypeSingle,
			StartsBefore: &before,
		})
		require.NoError(t, err)
		require.Len(t, programs, 1)
		assert.Equal(t, f.Solo.ID, programs[0].ID)
	})

	t.Run("college and user keys", func(t *testing.T) {
		f := testutil.SetupFixtures(t, repos)

		dup := &models.College{ID: uuid.NewString(), Name: "Copy", Code: f.Colleges[0].Code}
		assert.ErrorIs(t, repos.Colleges.Create(ctx, dup), repository.ErrDuplicateKey)

		email := uuid.NewString() + "@fest.test"
		user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: "x", Name: "Judge", Role: models.RoleScoring, IsActive: true}
		require.NoError(t, repos.Users.Create(ctx, user))
		assert.ErrorIs(t, repos.Users.Create(ctx, &models.User{
			ID: uuid.NewString(), Email: email, PasswordHash: "x", Name: "Other", Role: models.RoleScoring,
		}), repository.ErrDuplicateKey)

		require.NoError(t, repos.Users.UpdateLastLogin(ctx, user.ID))
		got, err := repos.Users.GetByEmail(ctx, email)
		require.NoError(t, err)
		require.NotNil(t, got.LastLoginAt)
		assert.Equal(t, models.RoleScoring, got.Role)
	})
}
