package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/service"
)

// leaderboardFixture publishes one GROUP and one SINGLE program and leaves a
// third program unpublished:
//
//	GROUP   Group Dance: AAA 90, BBB 90, CCC 70  -> ranks 1,1,3 -> 30,30,10
//	SINGLE  Solo Song:   a1 50, b1 40, c1 40, a2 10 -> ranks 1,2,2,4 -> 15,10,10,0
//	SINGLE  Essay (unpublished): c1 100
func leaderboardFixture(t *testing.T) (*fixture, map[string]*models.College, map[string]*models.Student, *models.Program) {
	f := newFixture(t)
	f.ignoreNotifications()

	colleges := map[string]*models.College{}
	for _, code := range []string{"AAA", "BBB", "CCC", "DDD"} {
		colleges[code] = f.college(t, code)
	}
	students := map[string]*models.Student{
		"a1": f.student(t, colleges["AAA"], "Asha", ""),
		"a2": f.student(t, colleges["AAA"], "Anil", ""),
		"b1": f.student(t, colleges["BBB"], "Bina", ""),
		"b2": f.student(t, colleges["BBB"], "Bala", ""),
		"c1": f.student(t, colleges["CCC"], "Chitra", ""),
	}

	dance := f.program(t, "Group Dance", models.ProgramTypeGroup)
	f.score(t, dance, f.register(t, dance, students["a1"], students["a2"]), "j1", 90)
	f.score(t, dance, f.register(t, dance, students["b1"], students["b2"]), "j1", 90)
	f.score(t, dance, f.register(t, dance, students["c1"]), "j1", 70)

	song := f.program(t, "Solo Song", models.ProgramTypeSingle)
	f.score(t, song, f.register(t, song, students["a1"]), "j1", 50)
	f.score(t, song, f.register(t, song, students["b1"]), "j1", 40)
	f.score(t, song, f.register(t, song, students["c1"]), "j1", 40)
	f.score(t, song, f.register(t, song, students["a2"]), "j1", 10)

	essay := f.program(t, "Essay", models.ProgramTypeSingle)
	f.score(t, essay, f.register(t, essay, students["c1"]), "j1", 100)

	for _, p := range []*models.Program{dance, song} {
		_, err := f.programs.PublishResults(f.ctx, p.ID, actor)
		require.NoError(t, err)
	}
	return f, colleges, students, essay
}

func TestCollegeStandings(t *testing.T) {
	f, colleges, _, _ := leaderboardFixture(t)

	standings, err := f.leaderboard.CollegeStandings(f.ctx, "")
	require.NoError(t, err)
	require.Len(t, standings, 4)

	got := map[string][2]float64{}
	for _, s := range standings {
		got[s.Code] = [2]float64{s.Points, float64(s.Rank)}
	}
	assert.Equal(t, map[string][2]float64{
		"AAA": {45, 1},
		"BBB": {40, 2},
		"CCC": {20, 3},
		"DDD": {0, 4},
	}, got)
	assert.Equal(t, colleges["AAA"].ID, standings[0].CollegeID)
	assert.Equal(t, "DDD", standings[3].Code)
}

func TestCollegeStandings_UnknownEventIsAllZero(t *testing.T) {
	f, _, _, _ := leaderboardFixture(t)

	standings, err := f.leaderboard.CollegeStandings(f.ctx, "other-event")
	require.NoError(t, err)
	require.Len(t, standings, 4)
	for _, s := range standings {
		assert.Zero(t, s.Points)
		assert.Equal(t, 1, s.Rank)
	}
}

func TestStudentStandings(t *testing.T) {
	f, _, students, _ := leaderboardFixture(t)

	standings, err := f.leaderboard.StudentStandings(f.ctx, f.event.ID)
	require.NoError(t, err)
	require.Len(t, standings, 3, "only podium finishers of published SINGLE programs")

	assert.Equal(t, students["a1"].ID, standings[0].StudentID)
	assert.Equal(t, 5.0, standings[0].Points)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, "College AAA", standings[0].CollegeName)
	require.Len(t, standings[0].Breakdown, 1)
	assert.Equal(t, models.PlacementAward{ProgramID: standings[0].Breakdown[0].ProgramID, ProgramName: "Solo Song", Rank: 1, Points: 5}, standings[0].Breakdown[0])

	for _, s := range standings[1:] {
		assert.Equal(t, 3.0, s.Points)
		assert.Equal(t, 2, s.Rank)
	}
	// tied rows are ordered by name
	assert.Equal(t, "Bina", standings[1].Name)
	assert.Equal(t, "Chitra", standings[2].Name)
}

func TestProgramResults(t *testing.T) {
	f, _, students, essay := leaderboardFixture(t)

	_, err := f.leaderboard.ProgramResults(f.ctx, essay.ID)
	assert.ErrorIs(t, err, service.ErrNotFound, "unpublished results stay hidden")
	_, err = f.leaderboard.ProgramResults(f.ctx, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)

	songs, err := f.programs.List(f.ctx, models.ProgramFilter{PublishedOnly: true, Type: models.ProgramTypeSingle})
	require.NoError(t, err)
	require.Len(t, songs, 1)

	result, err := f.leaderboard.ProgramResults(f.ctx, songs[0].ID)
	require.NoError(t, err)
	require.Len(t, result.Winners, 3)
	assert.Equal(t, students["a1"].ID, result.Winners[0].Participants[0].ID)
	for i, want := range []int{1, 2, 2} {
		require.NotNil(t, result.Winners[i].Rank)
		assert.Equal(t, want, *result.Winners[i].Rank)
	}
	assert.Equal(t, "AAA", result.Winners[0].College.Code)
}
