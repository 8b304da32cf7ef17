package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/repository"
)

// Registrations implements repository.Registrations
type Registrations struct{ s *Store }

func byCreated(a, b models.Registration) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// checkUnique enforces the per-program chest number and participant keys
func (r *Registrations) checkUnique(reg *models.Registration) error {
	for _, other := range r.s.registrations {
		if other.ID == reg.ID || other.ProgramID != reg.ProgramID {
			continue
		}
		if reg.ChestNumber != nil && other.ChestNumber != nil && *other.ChestNumber == *reg.ChestNumber {
			return repository.ErrChestNumberTaken
		}
		for _, sid := range reg.ParticipantIDs {
			if slices.Contains(other.ParticipantIDs, sid) {
				return repository.ErrParticipantTaken
			}
		}
	}
	return nil
}

func (r *Registrations) Create(_ context.Context, reg *models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkUnique(reg); err != nil {
		return err
	}
	now := time.Now()
	reg.CreatedAt, reg.UpdatedAt = now, now
	r.s.registrations[reg.ID] = cloneRegistration(*reg)
	return nil
}

func (r *Registrations) GetByID(_ context.Context, id string) (*models.Registration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reg, ok := r.s.registrations[id]
	if !ok {
		return nil, nil
	}
	reg = cloneRegistration(reg)
	return &reg, nil
}

func (r *Registrations) Update(_ context.Context, reg *models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.registrations[reg.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := cloneRegistration(*reg)
	next.ProgramID = prev.ProgramID
	next.ParticipantIDs = prev.ParticipantIDs
	next.CreatedBy = prev.CreatedBy
	next.CreatedAt = prev.CreatedAt
	if err := r.checkUnique(&models.Registration{ID: next.ID, ProgramID: next.ProgramID, ChestNumber: next.ChestNumber}); err != nil {
		return err
	}
	next.UpdatedAt = time.Now()
	reg.UpdatedAt = next.UpdatedAt
	r.s.registrations[reg.ID] = next
	return nil
}

func (r *Registrations) ReplaceParticipants(_ context.Context, reg *models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.registrations[reg.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkUnique(&models.Registration{ID: prev.ID, ProgramID: prev.ProgramID, ParticipantIDs: reg.ParticipantIDs}); err != nil {
		return err
	}
	prev.ParticipantIDs = slices.Clone(reg.ParticipantIDs)
	prev.LastUpdatedBy = reg.LastUpdatedBy
	prev.UpdatedAt = time.Now()
	reg.UpdatedAt = prev.UpdatedAt
	r.s.registrations[reg.ID] = prev
	return nil
}

func (r *Registrations) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.registrations[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.registrations, id)
	return nil
}

func (r *Registrations) filter(keep func(models.Registration) bool) []models.Registration {
	var out []models.Registration
	for _, reg := range sortedValues(r.s.registrations, byCreated) {
		if keep(reg) {
			out = append(out, cloneRegistration(reg))
		}
	}
	return out
}

func (r *Registrations) ListByProgram(ctx context.Context, programID string, statuses ...models.RegistrationStatus) ([]models.Registration, error) {
	return r.ListByPrograms(ctx, []string{programID}, statuses...)
}

func (r *Registrations) ListByPrograms(_ context.Context, programIDs []string, statuses ...models.RegistrationStatus) ([]models.Registration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.filter(func(reg models.Registration) bool {
		return slices.Contains(programIDs, reg.ProgramID) &&
			(len(statuses) == 0 || slices.Contains(statuses, reg.Status))
	}), nil
}

func (r *Registrations) ListByStudent(_ context.Context, studentID string) ([]models.Registration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := r.filter(func(reg models.Registration) bool {
		return slices.Contains(reg.ParticipantIDs, studentID)
	})
	slices.Reverse(out)
	return out, nil
}

func (r *Registrations) matchesSearch(reg models.Registration, needle string) bool {
	if reg.ChestNumber != nil && strings.Contains(strings.ToLower(*reg.ChestNumber), needle) {
		return true
	}
	for _, sid := range reg.ParticipantIDs {
		st, ok := r.s.students[sid]
		if !ok {
			continue
		}
		for _, field := range []string{st.Name, st.Code, st.Phone} {
			if strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
	}
	return false
}

func (r *Registrations) inCollege(reg models.Registration, collegeID string) bool {
	for _, sid := range reg.ParticipantIDs {
		if st, ok := r.s.students[sid]; ok && st.CollegeID == collegeID {
			return true
		}
	}
	return false
}

func (r *Registrations) Search(_ context.Context, programID string, q models.RegistrationQuery) ([]models.Registration, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	matched := r.filter(func(reg models.Registration) bool {
		switch {
		case reg.ProgramID != programID:
			return false
		case len(q.Statuses) > 0 && !slices.Contains(q.Statuses, reg.Status):
			return false
		case q.CollegeID != "" && !r.inCollege(reg, q.CollegeID):
			return false
		case needle != "" && !r.matchesSearch(reg, needle):
			return false
		}
		return true
	})

	total := len(matched)
	if q.Limit <= 0 {
		return matched, total, nil
	}
	start := (max(q.Page, 1) - 1) * q.Limit
	if start >= total {
		return nil, total, nil
	}
	return matched[start:min(start+q.Limit, total)], total, nil
}

func (r *Registrations) RegisteredParticipants(_ context.Context, programID string, studentIDs []string, excludeID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var taken []string
	for _, reg := range r.s.registrations {
		if reg.ProgramID != programID || reg.ID == excludeID {
			continue
		}
		for _, sid := range reg.ParticipantIDs {
			if slices.Contains(studentIDs, sid) {
				taken = append(taken, sid)
			}
		}
	}
	slices.Sort(taken)
	return slices.Compact(taken), nil
}

func (r *Registrations) ChestNumberInUse(_ context.Context, programID, chestNumber, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, reg := range r.s.registrations {
		if reg.ProgramID == programID && reg.ID != excludeID && reg.ChestNumber != nil && *reg.ChestNumber == chestNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *Registrations) ApplyAggregates(_ context.Context, programID string, points map[string]float64, actorID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for id, p := range points {
		reg, ok := r.s.registrations[id]
		if !ok || reg.ProgramID != programID || reg.Status.IsTerminal() {
			continue
		}
		reg.PointsObtained = p
		reg.Status = models.StatusCompleted
		reg.LastUpdatedBy = actorID
		reg.UpdatedAt = now
		r.s.registrations[id] = reg
	}
	return nil
}

func (r *Registrations) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, reg := range r.s.registrations {
		if !reg.Status.IsTerminal() {
			n++
		}
	}
	return n, nil
}
