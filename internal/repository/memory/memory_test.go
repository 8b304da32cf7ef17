package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/repository"
)

// compile-time interface checks
var (
	_ repository.Events        = (*Events)(nil)
	_ repository.Colleges      = (*Colleges)(nil)
	_ repository.Students      = (*Students)(nil)
	_ repository.Programs      = (*Programs)(nil)
	_ repository.Registrations = (*Registrations)(nil)
	_ repository.Scores        = (*Scores)(nil)
	_ repository.Users         = (*Users)(nil)
)

func TestPrograms_NameInUseFoldsCase(t *testing.T) {
	ctx := context.Background()
	repos := New()

	require.NoError(t, repos.Programs.Create(ctx, &models.Program{ID: "p1", EventID: "e1", Name: "Straße Quiz", Type: models.ProgramTypeSingle}))

	inUse, err := repos.Programs.NameInUse(ctx, "e1", "STRASSE quiz", "")
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = repos.Programs.NameInUse(ctx, "e1", "straße quiz", "p1")
	require.NoError(t, err)
	assert.False(t, inUse, "self is excluded")

	inUse, err = repos.Programs.NameInUse(ctx, "e2", "Straße Quiz", "")
	require.NoError(t, err)
	assert.False(t, inUse, "other events do not clash")

	err = repos.Programs.Create(ctx, &models.Program{ID: "p2", EventID: "e1", Name: "straße QUIZ", Type: models.ProgramTypeSingle})
	assert.ErrorIs(t, err, repository.ErrNameTaken)
}

func TestPrograms_NextChestNumberIsAtomic(t *testing.T) {
	ctx := context.Background()
	repos := New()
	require.NoError(t, repos.Programs.Create(ctx, &models.Program{ID: "p1", EventID: "e1", Name: "Mime", Type: models.ProgramTypeGroup}))

	const n = 50
	got := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repos.Programs.NextChestNumber(ctx, "p1")
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
		assert.Greater(t, v, models.FirstChestNumber)
	}
	assert.Len(t, seen, n)

	_, err := repos.Programs.NextChestNumber(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegistrations_UniqueKeys(t *testing.T) {
	ctx := context.Background()
	repos := New()
	chest := "C101"

	require.NoError(t, repos.Registrations.Create(ctx, &models.Registration{
		ID: "r1", ProgramID: "p1", ParticipantIDs: []string{"s1"}, ChestNumber: &chest, Status: models.StatusOpen,
	}))

	err := repos.Registrations.Create(ctx, &models.Registration{ID: "r2", ProgramID: "p1", ParticipantIDs: []string{"s1"}})
	assert.ErrorIs(t, err, repository.ErrParticipantTaken)

	err = repos.Registrations.Create(ctx, &models.Registration{ID: "r3", ProgramID: "p1", ParticipantIDs: []string{"s2"}, ChestNumber: &chest})
	assert.ErrorIs(t, err, repository.ErrChestNumberTaken)

	// same student and chest number in another program is fine
	require.NoError(t, repos.Registrations.Create(ctx, &models.Registration{
		ID: "r4", ProgramID: "p2", ParticipantIDs: []string{"s1"}, ChestNumber: &chest,
	}))
}

func TestRegistrations_SearchPaging(t *testing.T) {
	ctx := context.Background()
	repos := New()

	require.NoError(t, repos.Colleges.Create(ctx, &models.College{ID: "c1", Name: "North", Code: "N"}))
	require.NoError(t, repos.Colleges.Create(ctx, &models.College{ID: "c2", Name: "South", Code: "S"}))
	students := []models.Student{
		{ID: "s1", Name: "Anu Joseph", Code: "N-001", Phone: "9000000001", CollegeID: "c1"},
		{ID: "s2", Name: "Bala Krishnan", Code: "N-002", Phone: "9000000002", CollegeID: "c1"},
		{ID: "s3", Name: "Chitra Menon", Code: "S-001", Phone: "9000000003", CollegeID: "c2"},
	}
	for i := range students {
		require.NoError(t, repos.Students.Create(ctx, &students[i]))
	}
	for i, sid := range []string{"s1", "s2", "s3"} {
		chest := []string{"C101", "C102", "C103"}[i]
		status := []models.RegistrationStatus{models.StatusOpen, models.StatusConfirmed, models.StatusConfirmed}[i]
		require.NoError(t, repos.Registrations.Create(ctx, &models.Registration{
			ID: "r" + sid, ProgramID: "p1", ParticipantIDs: []string{sid}, ChestNumber: &chest, Status: status,
		}))
	}

	got, total, err := repos.Registrations.Search(ctx, "p1", models.RegistrationQuery{Search: "menon"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "rs3", got[0].ID)

	_, total, err = repos.Registrations.Search(ctx, "p1", models.RegistrationQuery{Search: "c10"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, total, err = repos.Registrations.Search(ctx, "p1", models.RegistrationQuery{CollegeID: "c1", Statuses: []models.RegistrationStatus{models.StatusConfirmed}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	page, total, err := repos.Registrations.Search(ctx, "p1", models.RegistrationQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 1)

	page, _, err = repos.Registrations.Search(ctx, "p1", models.RegistrationQuery{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestRegistrations_ApplyAggregatesSkipsTerminal(t *testing.T) {
	ctx := context.Background()
	repos := New()

	require.NoError(t, repos.Registrations.Create(ctx, &models.Registration{ID: "r1", ProgramID: "p1", ParticipantIDs: []string{"s1"}, Status: models.StatusReported}))
	require.NoError(t, repos.Registrations.Create(ctx, &models.Registration{ID: "r2", ProgramID: "p1", ParticipantIDs: []string{"s2"}, Status: models.StatusCancelled}))

	require.NoError(t, repos.Registrations.ApplyAggregates(ctx, "p1", map[string]float64{"r1": 13, "r2": 9}, "judge"))

	r1, _ := repos.Registrations.GetByID(ctx, "r1")
	r2, _ := repos.Registrations.GetByID(ctx, "r2")
	assert.Equal(t, models.StatusCompleted, r1.Status)
	assert.Equal(t, 13.0, r1.PointsObtained)
	assert.Equal(t, models.StatusCancelled, r2.Status)
	assert.Zero(t, r2.PointsObtained)
}

func TestScores_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	repos := New()

	first := &models.Score{ID: "sc1", ProgramID: "p1", RegistrationID: "r1", JudgeID: "j1", Criteria: map[string]float64{"a": 5}, TotalPoints: 5}
	require.NoError(t, repos.Scores.Upsert(ctx, first))

	second := &models.Score{ID: "sc2", ProgramID: "p1", RegistrationID: "r1", JudgeID: "j1", Criteria: map[string]float64{"a": 7}, TotalPoints: 7}
	require.NoError(t, repos.Scores.Upsert(ctx, second))
	assert.Equal(t, "sc1", second.ID)

	scores, err := repos.Scores.ListByProgram(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 7.0, scores[0].TotalPoints)

	n, err := repos.Scores.DeleteByRegistration(ctx, "r1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
