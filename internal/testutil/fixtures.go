package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/repository"
)

// Fixtures holds test data
type Fixtures struct {
	Event    *models.Event
	Colleges []*models.College
	// Students[i] belongs to Colleges[i/2]
	Students []*models.Student
	Solo     *models.Program
	Group    *models.Program
}

// SetupFixtures creates one event, two colleges with two students each,
// a SINGLE and a GROUP program
func SetupFixtures(t *testing.T, repos *repository.Repositories) *Fixtures {
	t.Helper()
	ctx := context.Background()
	start := time.Now().Add(2 * time.Hour).Truncate(time.Second)

	// codes are unique per database, so every fixture set gets its own prefix
	prefix := strings.ToUpper(uuid.NewString()[:4])

	f := &Fixtures{}
	f.Event = &models.Event{ID: uuid.NewString(), Name: "Campus Fest", Venue: "Main Ground", IsActive: true}
	must(t, repos.Events.Create(ctx, f.Event))

	for _, code := range []string{"KLE", "SDM"} {
		college := &models.College{ID: uuid.NewString(), Name: code + " College", Code: prefix + code}
		must(t, repos.Colleges.Create(ctx, college))
		f.Colleges = append(f.Colleges, college)

		for _, suffix := range []string{"01", "02"} {
			student := &models.Student{
				ID:        uuid.NewString(),
				Name:      "Student " + code + suffix,
				Code:      prefix + code + suffix,
				Phone:     "98450" + suffix,
				Gender:    models.GenderFemale,
				CollegeID: college.ID,
			}
			must(t, repos.Students.Create(ctx, student))
			f.Students = append(f.Students, student)
		}
	}

	f.Solo = NewProgram(f.Event.ID, "Solo Song", models.ProgramTypeSingle, &start)
	must(t, repos.Programs.Create(ctx, f.Solo))
	f.Group = NewProgram(f.Event.ID, "Group Dance", models.ProgramTypeGroup, &start)
	must(t, repos.Programs.Create(ctx, f.Group))

	return f
}

// NewProgram builds an unsaved program
func NewProgram(eventID, name string, typ models.ProgramType, start *time.Time) *models.Program {
	return &models.Program{
		ID:                uuid.NewString(),
		EventID:           eventID,
		Name:              name,
		Type:              typ,
		Category:          "Music",
		Venue:             "Hall A",
		StartTime:         start,
		GenderRestriction: models.GenderAny,
		LastChestNumber:   models.FirstChestNumber,
		CreatedBy:         "fixture",
		LastUpdatedBy:     "fixture",
	}
}

// NewRegistration builds an unsaved OPEN registration
func NewRegistration(programID string, participantIDs ...string) *models.Registration {
	return &models.Registration{
		ID:             uuid.NewString(),
		ProgramID:      programID,
		ParticipantIDs: participantIDs,
		Status:         models.StatusOpen,
		CreatedBy:      "fixture",
		LastUpdatedBy:  "fixture",
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
}
