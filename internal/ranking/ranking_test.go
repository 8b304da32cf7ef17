package ranking

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwannenmacher/campus-fest/internal/models"
)

func regs(points map[string]float64) []models.Registration {
	out := make([]models.Registration, 0, len(points))
	for id, p := range points {
		out = append(out, models.Registration{ID: id, PointsObtained: p})
	}
	return out
}

func TestCalculateRanks(t *testing.T) {
	tests := []struct {
		name   string
		points []float64
		want   []int
	}{
		{"empty", nil, []int{}},
		{"single item", []float64{42}, []int{1}},
		{"tie at top", []float64{100, 100, 90, 80}, []int{1, 1, 3, 4}},
		{"unsorted input", []float64{80, 100, 90, 100}, []int{1, 1, 3, 4}},
		{"tie in middle", []float64{95, 90, 90, 90, 70}, []int{1, 2, 2, 2, 5}},
		{"all equal", []float64{5, 5, 5}, []int{1, 1, 1}},
		{"rounding hides float noise", []float64{13.00000001, 12.99999999, 10}, []int{1, 1, 3}},
		{"fifth decimal still ties", []float64{1.23454, 1.23451}, []int{1, 1}},
		{"fourth decimal breaks tie", []float64{1.2346, 1.2345}, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := CalculateRanks(tt.points, func(p float64) float64 { return p })
			got := make([]int, len(ranked))
			for i, r := range ranked {
				got[i] = r.Rank
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateRanks_DoesNotMutateInput(t *testing.T) {
	in := []float64{1, 3, 2}
	CalculateRanks(in, func(p float64) float64 { return p })
	assert.Equal(t, []float64{1, 3, 2}, in)
}

func TestRankRegistrations_Scenario(t *testing.T) {
	index := RankIndex(regs(map[string]float64{"A": 90, "B": 90, "C": 70}))

	assert.Equal(t, 1, index["A"])
	assert.Equal(t, 1, index["B"])
	assert.Equal(t, 3, index["C"])
}

func TestRankRegistrations_StableUnderPermutation(t *testing.T) {
	base := []models.Registration{
		{ID: "r1", PointsObtained: 40},
		{ID: "r2", PointsObtained: 55.5},
		{ID: "r3", PointsObtained: 40},
		{ID: "r4", PointsObtained: 12},
		{ID: "r5", PointsObtained: 55.5},
		{ID: "r6", PointsObtained: 70},
		{ID: "r7", PointsObtained: 39.99999},
	}
	want := RankIndex(base)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := append([]models.Registration(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, RankIndex(shuffled))
	}

	// re-ranking already ranked rows keeps every rank
	ranked := RankRegistrations(base)
	again := make([]models.Registration, len(ranked))
	for i, r := range ranked {
		again[i] = r.Item
	}
	assert.Equal(t, want, RankIndex(again))
}

func TestPointTable(t *testing.T) {
	table := DefaultPointTable()

	assert.Equal(t, 30.0, table.CollegePoints(models.ProgramTypeGroup, 1))
	assert.Equal(t, 10.0, table.CollegePoints(models.ProgramTypeGroup, 3))
	assert.Equal(t, 15.0, table.CollegePoints(models.ProgramTypeSingle, 1))
	assert.Equal(t, 5.0, table.CollegePoints(models.ProgramTypeSingle, 3))
	assert.Zero(t, table.CollegePoints(models.ProgramTypeGroup, 4))
	assert.Zero(t, table.CollegePoints(models.ProgramTypeSingle, 0))
	assert.Equal(t, 3.0, table.StudentPoints(2))
	assert.Zero(t, table.StudentPoints(4))
}

func TestNewPointTable(t *testing.T) {
	table, err := NewPointTable([]float64{10, 6, 2}, []float64{5, 3, 1}, []float64{5, 3, 1})
	require.NoError(t, err)
	assert.Equal(t, 6.0, table.CollegePoints(models.ProgramTypeGroup, 2))

	_, err = NewPointTable([]float64{10, 6}, []float64{5, 3, 1}, []float64{5, 3, 1})
	assert.ErrorContains(t, err, "group point table needs 3 values")

	_, err = NewPointTable([]float64{10, 6, 2}, []float64{5, -3, 1}, []float64{5, 3, 1})
	assert.ErrorContains(t, err, "negative")
}
