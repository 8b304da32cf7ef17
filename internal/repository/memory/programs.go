package memory

import (
	"cmp"
	"context"
	"time"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/repository"
)

// Programs implements repository.Programs
type Programs struct{ s *Store }

func (r *Programs) nameTaken(p *models.Program) bool {
	if p.IsCancelled {
		return false
	}
	key := repository.NameKey(p.Name)
	for _, other := range r.s.programs {
		if other.ID != p.ID && other.EventID == p.EventID && !other.IsCancelled && repository.NameKey(other.Name) == key {
			return true
		}
	}
	return false
}

func (r *Programs) Create(_ context.Context, p *models.Program) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(p) {
		return repository.ErrNameTaken
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.LastChestNumber == 0 {
		p.LastChestNumber = models.FirstChestNumber
	}
	r.s.programs[p.ID] = cloneProgram(*p)
	return nil
}

func (r *Programs) GetByID(_ context.Context, id string) (*models.Program, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.programs[id]
	if !ok {
		return nil, nil
	}
	p = cloneProgram(p)
	return &p, nil
}

func (r *Programs) Update(_ context.Context, p *models.Program) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.programs[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(p) {
		return repository.ErrNameTaken
	}
	p.UpdatedAt = time.Now()
	next := cloneProgram(*p)
	next.EventID = prev.EventID
	next.Type = prev.Type
	next.LastChestNumber = prev.LastChestNumber
	next.CreatedBy = prev.CreatedBy
	next.CreatedAt = prev.CreatedAt
	r.s.programs[p.ID] = next
	return nil
}

func compareStart(a, b models.Program) int {
	switch {
	case a.StartTime == nil && b.StartTime == nil:
	case a.StartTime == nil:
		return 1
	case b.StartTime == nil:
		return -1
	default:
		if c := a.StartTime.Compare(*b.StartTime); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Name, b.Name)
}

func (r *Programs) List(_ context.Context, f models.ProgramFilter) ([]models.Program, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Program
	for _, p := range sortedValues(r.s.programs, compareStart) {
		switch {
		case f.EventID != "" && p.EventID != f.EventID:
		case f.Type != "" && p.Type != f.Type:
		case !f.IncludeCancelled && p.IsCancelled:
		case f.PublishedOnly && !p.IsResultPublished:
		case f.StartsAfter != nil && (p.StartTime == nil || !p.StartTime.After(*f.StartsAfter)):
		case f.StartsBefore != nil && (p.StartTime == nil || p.StartTime.After(*f.StartsBefore)):
		default:
			out = append(out, cloneProgram(p))
		}
	}
	return out, nil
}

func (r *Programs) NameInUse(_ context.Context, eventID, name, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.nameTaken(&models.Program{ID: excludeID, EventID: eventID, Name: name}), nil
}

func (r *Programs) NextChestNumber(_ context.Context, programID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.programs[programID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	p.LastChestNumber++
	p.UpdatedAt = time.Now()
	r.s.programs[programID] = p
	return p.LastChestNumber, nil
}

func (r *Programs) ListByCollege(_ context.Context, collegeID string) ([]models.Program, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make(map[string]bool)
	for _, reg := range r.s.registrations {
		for _, sid := range reg.ParticipantIDs {
			if st, ok := r.s.students[sid]; ok && st.CollegeID == collegeID {
				ids[reg.ProgramID] = true
			}
		}
	}

	var out []models.Program
	for _, p := range sortedValues(r.s.programs, compareStart) {
		if ids[p.ID] {
			out = append(out, cloneProgram(p))
		}
	}
	return out, nil
}

func (r *Programs) CountActive(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, p := range r.s.programs {
		if !p.IsCancelled {
			n++
		}
	}
	return n, nil
}
