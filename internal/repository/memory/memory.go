// Package memory implements the repository interfaces on process memory.
// It backs DB_DRIVER=memory and the service tests.
package memory

import (
	"slices"
	"sync"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/repository"
)

// Store holds every entity behind one lock so multi-entity checks see a consistent view
type Store struct {
	mu            sync.RWMutex
	events        map[string]models.Event
	colleges      map[string]models.College
	students      map[string]models.Student
	programs      map[string]models.Program
	registrations map[string]models.Registration
	scores        map[string]models.Score
	users         map[string]models.User
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		events:        make(map[string]models.Event),
		colleges:      make(map[string]models.College),
		students:      make(map[string]models.Student),
		programs:      make(map[string]models.Program),
		registrations: make(map[string]models.Registration),
		scores:        make(map[string]models.Score),
		users:         make(map[string]models.User),
	}
}

// New returns the repository bundle backed by a fresh store
func New() *repository.Repositories {
	return NewStore().Repositories()
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Events:        &Events{s},
		Colleges:      &Colleges{s},
		Students:      &Students{s},
		Programs:      &Programs{s},
		Registrations: &Registrations{s},
		Scores:        &Scores{s},
		Users:         &Users{s},
	}
}

func cloneRegistration(r models.Registration) models.Registration {
	r.ParticipantIDs = slices.Clone(r.ParticipantIDs)
	if r.ChestNumber != nil {
		v := *r.ChestNumber
		r.ChestNumber = &v
	}
	return r
}

func cloneScore(sc models.Score) models.Score {
	if sc.Criteria != nil {
		c := make(map[string]float64, len(sc.Criteria))
		for k, v := range sc.Criteria {
			c[k] = v
		}
		sc.Criteria = c
	}
	return sc
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneProgram(p models.Program) models.Program {
	p.StartTime = clonePtr(p.StartTime)
	p.MaxParticipants = clonePtr(p.MaxParticipants)
	return p
}

func sortedValues[T any](m map[string]T, less func(a, b T) int) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, less)
	return out
}
