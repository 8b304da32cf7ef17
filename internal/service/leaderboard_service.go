package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/ranking"
	"github.com/pwannenmacher/campus-fest/internal/repository"
)

// LeaderboardService aggregates published results into college and student standings
type LeaderboardService struct {
	programs      repository.Programs
	registrations repository.Registrations
	colleges      repository.Colleges
	students      repository.Students
	views         viewBuilder
	points        ranking.PointTable
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(repos *repository.Repositories, points ranking.PointTable) *LeaderboardService {
	return &LeaderboardService{
		programs:      repos.Programs,
		registrations: repos.Registrations,
		colleges:      repos.Colleges,
		students:      repos.Students,
		views:         viewBuilder{students: repos.Students, colleges: repos.Colleges},
		points:        points,
	}
}

// snapshot is a consistent-enough read of everything a leaderboard needs
type snapshot struct {
	colleges []models.College
	programs []models.Program
	// completed registrations by program id
	completed map[string][]models.Registration
	students  map[string]models.Student
}

func (s *LeaderboardService) loadSnapshot(ctx context.Context, filter models.ProgramFilter) (*snapshot, error) {
	snap := &snapshot{completed: make(map[string][]models.Registration)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		colleges, err := s.colleges.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to list colleges: %w", err)
		}
		snap.colleges = colleges
		return nil
	})
	g.Go(func() error {
		programs, err := s.programs.List(gctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list programs: %w", err)
		}
		snap.programs = programs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]string, len(snap.programs))
	for i, p := range snap.programs {
		ids[i] = p.ID
	}
	if len(ids) == 0 {
		snap.students = map[string]models.Student{}
		return snap, nil
	}

	regs, err := s.registrations.ListByPrograms(ctx, ids, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed registrations: %w", err)
	}
	for _, reg := range regs {
		snap.completed[reg.ProgramID] = append(snap.completed[reg.ProgramID], reg)
	}
	if snap.students, err = s.views.studentIndex(ctx, regs); err != nil {
		return nil, err
	}
	return snap, nil
}

// podium yields the top-3 placements of each program
func (snap *snapshot) podium(yield func(program models.Program, reg models.Registration, rank int)) {
	for _, program := range snap.programs {
		for _, r := range ranking.RankRegistrations(snap.completed[program.ID]) {
			if r.Rank > ranking.Podium {
				break
			}
			yield(program, r.Item, r.Rank)
		}
	}
}

func publishedFilter(eventID string, pt models.ProgramType) models.ProgramFilter {
	return models.ProgramFilter{EventID: eventID, PublishedOnly: true, Type: pt}
}

// CollegeStandings ranks every college by podium points earned in published
// programs. Colleges without placements appear with zero points.
// An empty eventID covers all events.
func (s *LeaderboardService) CollegeStandings(ctx context.Context, eventID string) ([]models.CollegeStanding, error) {
	snap, err := s.loadSnapshot(ctx, publishedFilter(eventID, ""))
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64, len(snap.colleges))
	snap.podium(func(program models.Program, reg models.Registration, rank int) {
		if len(reg.ParticipantIDs) == 0 {
			return
		}
		st, ok := snap.students[reg.ParticipantIDs[0]]
		if !ok {
			return
		}
		totals[st.CollegeID] += s.points.CollegePoints(program.Type, rank)
	})

	standings := make([]models.CollegeStanding, len(snap.colleges))
	for i, c := range snap.colleges {
		standings[i] = models.CollegeStanding{
			CollegeID: c.ID,
			Name:      c.Name,
			Code:      c.Code,
			LogoURL:   c.LogoURL,
			Points:    totals[c.ID],
		}
	}
	slices.SortFunc(standings, func(a, b models.CollegeStanding) int { return cmp.Compare(a.Name, b.Name) })

	ranked := ranking.CalculateRanks(standings, func(c models.CollegeStanding) float64 { return c.Points })
	out := make([]models.CollegeStanding, len(ranked))
	for i, r := range ranked {
		out[i] = r.Item
		out[i].Rank = r.Rank
	}
	return out, nil
}

// StudentStandings ranks students by podium points earned in published
// SINGLE programs. Only students with at least one placement are listed.
func (s *LeaderboardService) StudentStandings(ctx context.Context, eventID string) ([]models.StudentStanding, error) {
	snap, err := s.loadSnapshot(ctx, publishedFilter(eventID, models.ProgramTypeSingle))
	if err != nil {
		return nil, err
	}

	collegeNames := make(map[string]string, len(snap.colleges))
	for _, c := range snap.colleges {
		collegeNames[c.ID] = c.Name
	}

	byStudent := make(map[string]*models.StudentStanding)
	snap.podium(func(program models.Program, reg models.Registration, rank int) {
		points := s.points.StudentPoints(rank)
		for _, id := range reg.ParticipantIDs {
			st, ok := snap.students[id]
			if !ok {
				continue
			}
			row, ok := byStudent[id]
			if !ok {
				row = &models.StudentStanding{
					StudentID:   st.ID,
					Name:        st.Name,
					Code:        st.Code,
					CollegeID:   st.CollegeID,
					CollegeName: collegeNames[st.CollegeID],
				}
				byStudent[id] = row
			}
			row.Points += points
			row.Breakdown = append(row.Breakdown, models.PlacementAward{
				ProgramID:   program.ID,
				ProgramName: program.Name,
				Rank:        rank,
				Points:      points,
			})
		}
	})

	standings := make([]models.StudentStanding, 0, len(byStudent))
	for _, row := range byStudent {
		standings = append(standings, *row)
	}
	slices.SortFunc(standings, func(a, b models.StudentStanding) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.StudentID, b.StudentID))
	})

	ranked := ranking.CalculateRanks(standings, func(st models.StudentStanding) float64 { return st.Points })
	out := make([]models.StudentStanding, len(ranked))
	for i, r := range ranked {
		out[i] = r.Item
		out[i].Rank = r.Rank
	}
	return out, nil
}

// ProgramResults returns the podium of a published program
func (s *LeaderboardService) ProgramResults(ctx context.Context, programID string) (*models.ProgramResult, error) {
	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	if program == nil || !program.IsResultPublished {
		return nil, notFound("published results for program", programID)
	}

	completed, err := s.registrations.ListByProgram(ctx, programID, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed registrations: %w", err)
	}

	var winners []models.Registration
	ranks := make(map[string]int)
	for _, r := range ranking.RankRegistrations(completed) {
		if r.Rank > ranking.Podium {
			break
		}
		winners = append(winners, r.Item)
		ranks[r.Item.ID] = r.Rank
	}

	views, err := s.views.build(ctx, winners, ranks)
	if err != nil {
		return nil, err
	}
	return &models.ProgramResult{Program: *program, Winners: views}, nil
}
