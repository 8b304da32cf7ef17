package memory

import (
	"cmp"
	"context"
	"time"

	"github.com/pwannenmacher/campus-fest/internal/models"
)

// Scores implements repository.Scores
type Scores struct{ s *Store }

func (r *Scores) Upsert(_ context.Context, score *models.Score) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for id, existing := range r.s.scores {
		if existing.ProgramID == score.ProgramID && existing.RegistrationID == score.RegistrationID && existing.JudgeID == score.JudgeID {
			score.ID = id
			score.CreatedAt = existing.CreatedAt
			score.UpdatedAt = now
			r.s.scores[id] = cloneScore(*score)
			return nil
		}
	}
	score.CreatedAt, score.UpdatedAt = now, now
	r.s.scores[score.ID] = cloneScore(*score)
	return nil
}

func byRegistrationJudge(a, b models.Score) int {
	if c := cmp.Compare(a.RegistrationID, b.RegistrationID); c != 0 {
		return c
	}
	return cmp.Compare(a.JudgeID, b.JudgeID)
}

func (r *Scores) list(keep func(models.Score) bool) []models.Score {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Score
	for _, sc := range sortedValues(r.s.scores, byRegistrationJudge) {
		if keep(sc) {
			out = append(out, cloneScore(sc))
		}
	}
	return out
}

func (r *Scores) ListByProgram(_ context.Context, programID string) ([]models.Score, error) {
	return r.list(func(sc models.Score) bool { return sc.ProgramID == programID }), nil
}

func (r *Scores) ListByRegistration(_ context.Context, registrationID string) ([]models.Score, error) {
	return r.list(func(sc models.Score) bool { return sc.RegistrationID == registrationID }), nil
}

func (r *Scores) DeleteByRegistration(_ context.Context, registrationID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, sc := range r.s.scores {
		if sc.RegistrationID == registrationID {
			delete(r.s.scores, id)
			n++
		}
	}
	return n, nil
}
