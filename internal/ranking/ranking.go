// Package ranking turns aggregated points into competition ranks and
// podium points. Everything here is pure and safe for concurrent use.
package ranking

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/pwannenmacher/campus-fest/internal/models"
)

// Podium is the number of ranks that earn leaderboard points
const Podium = 3

// Ranked pairs an item with its competition rank
type Ranked[T any] struct {
	Item T
	Rank int
}

// Round4 rounds to four decimal places so averaging noise cannot split a tie
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// CalculateRanks sorts items by points, highest first, and assigns standard
// competition ranks: equal rounded points share a rank and the next lower
// score takes its 1-based position (100,100,90,80 -> 1,1,3,4).
// The input slice is not modified.
func CalculateRanks[T any](items []T, points func(T) float64) []Ranked[T] {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return cmp.Compare(Round4(points(b)), Round4(points(a)))
	})

	ranked := make([]Ranked[T], len(sorted))
	for i, item := range sorted {
		rank := i + 1
		if i > 0 && Round4(points(item)) >= Round4(points(sorted[i-1])) {
			rank = ranked[i-1].Rank
		}
		ranked[i] = Ranked[T]{Item: item, Rank: rank}
	}
	return ranked
}

// RankRegistrations ranks registrations by their cached points
func RankRegistrations(regs []models.Registration) []Ranked[models.Registration] {
	return CalculateRanks(regs, func(r models.Registration) float64 { return r.PointsObtained })
}

// RankIndex maps registration id to rank
func RankIndex(regs []models.Registration) map[string]int {
	index := make(map[string]int, len(regs))
	for _, r := range RankRegistrations(regs) {
		index[r.Item.ID] = r.Rank
	}
	return index
}

// PointTable is the single source of podium points for the leaderboards
type PointTable struct {
	Group   [Podium]float64
	Single  [Podium]float64
	Student [Podium]float64
}

// DefaultPointTable awards GROUP 30/20/10, SINGLE 15/10/5 and students 5/3/1
func DefaultPointTable() PointTable {
	return PointTable{
		Group:   [Podium]float64{30, 20, 10},
		Single:  [Podium]float64{15, 10, 5},
		Student: [Podium]float64{5, 3, 1},
	}
}

// NewPointTable builds a table from configured values, each exactly Podium long
func NewPointTable(group, single, student []float64) (PointTable, error) {
	var t PointTable
	for _, src := range []struct {
		name string
		in   []float64
		out  *[Podium]float64
	}{
		{"group", group, &t.Group},
		{"single", single, &t.Single},
		{"student", student, &t.Student},
	} {
		if len(src.in) != Podium {
			return PointTable{}, fmt.Errorf("%s point table needs %d values, got %d", src.name, Podium, len(src.in))
		}
		for i, v := range src.in {
			if v < 0 {
				return PointTable{}, fmt.Errorf("%s point table has negative value %v", src.name, v)
			}
			src.out[i] = v
		}
	}
	return t, nil
}

// CollegePoints returns the points a college earns for a placement, or 0
// outside the podium
func (t PointTable) CollegePoints(pt models.ProgramType, rank int) float64 {
	if rank < 1 || rank > Podium {
		return 0
	}
	if pt == models.ProgramTypeGroup {
		return t.Group[rank-1]
	}
	return t.Single[rank-1]
}

// StudentPoints returns the points a student earns for a SINGLE placement
func (t PointTable) StudentPoints(rank int) float64 {
	if rank < 1 || rank > Podium {
		return 0
	}
	return t.Student[rank-1]
}
