package memory

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/repository"
)

// Events implements repository.Events
type Events struct{ s *Store }

func (r *Events) Create(_ context.Context, event *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	event.CreatedAt, event.UpdatedAt = now, now
	r.s.events[event.ID] = *event
	return nil
}

func (r *Events) GetByID(_ context.Context, id string) (*models.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *Events) List(_ context.Context, activeOnly bool) ([]models.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Event
	for _, e := range sortedValues(r.s.events, func(a, b models.Event) int { return cmp.Compare(a.Name, b.Name) }) {
		if activeOnly && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Events) Update(_ context.Context, event *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.events[event.ID]
	if !ok {
		return repository.ErrNotFound
	}
	event.CreatedAt = prev.CreatedAt
	event.UpdatedAt = time.Now()
	r.s.events[event.ID] = *event
	return nil
}

// Colleges implements repository.Colleges
type Colleges struct{ s *Store }

func (r *Colleges) Create(_ context.Context, college *models.College) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.colleges {
		if strings.EqualFold(c.Code, college.Code) {
			return fmt.Errorf("college code %q: %w", college.Code, repository.ErrDuplicateKey)
		}
	}
	now := time.Now()
	college.CreatedAt, college.UpdatedAt = now, now
	r.s.colleges[college.ID] = *college
	return nil
}

func (r *Colleges) GetByID(_ context.Context, id string) (*models.College, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.colleges[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *Colleges) List(_ context.Context) ([]models.College, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return sortedValues(r.s.colleges, func(a, b models.College) int { return cmp.Compare(a.Name, b.Name) }), nil
}

func (r *Colleges) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.colleges), nil
}

// Students implements repository.Students
type Students struct{ s *Store }

func (r *Students) Create(_ context.Context, student *models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, st := range r.s.students {
		if strings.EqualFold(st.Code, student.Code) {
			return fmt.Errorf("student code %q: %w", student.Code, repository.ErrDuplicateKey)
		}
	}
	now := time.Now()
	student.CreatedAt, student.UpdatedAt = now, now
	r.s.students[student.ID] = *student
	return nil
}

func (r *Students) GetByID(_ context.Context, id string) (*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.students[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r *Students) GetByIDs(_ context.Context, ids []string) ([]models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Student
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if st, ok := r.s.students[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, st)
		}
	}
	return out, nil
}

func (r *Students) ListByCollege(_ context.Context, collegeID string) ([]models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Student
	for _, st := range sortedValues(r.s.students, func(a, b models.Student) int { return cmp.Compare(a.Name, b.Name) }) {
		if st.CollegeID == collegeID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r *Students) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.students), nil
}

// Users implements repository.Users
type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("user email %q: %w", user.Email, repository.ErrDuplicateKey)
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *Users) UpdateLastLogin(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	r.s.users[id] = u
	return nil
}

func (r *Users) List(_ context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return sortedValues(r.s.users, func(a, b models.User) int { return cmp.Compare(a.Name, b.Name) }), nil
}
