package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/notify"
	"github.com/pwannenmacher/campus-fest/internal/repository"
)

// viewBuilder joins registrations with their students, college and rank
type viewBuilder struct {
	students repository.Students
	colleges repository.Colleges
}

func participantIDs(regs []models.Registration) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, reg := range regs {
		for _, id := range reg.ParticipantIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (b viewBuilder) studentIndex(ctx context.Context, regs []models.Registration) (map[string]models.Student, error) {
	index := make(map[string]models.Student)
	ids := participantIDs(regs)
	if len(ids) == 0 {
		return index, nil
	}
	students, err := b.students.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	for _, st := range students {
		index[st.ID] = st
	}
	return index, nil
}

func (b viewBuilder) build(ctx context.Context, regs []models.Registration, ranks map[string]int) ([]models.RegistrationView, error) {
	students, err := b.studentIndex(ctx, regs)
	if err != nil {
		return nil, err
	}

	colleges := make(map[string]*models.College)
	views := make([]models.RegistrationView, 0, len(regs))
	for _, reg := range regs {
		view := models.RegistrationView{Registration: reg, Participants: make([]models.Student, 0, len(reg.ParticipantIDs))}
		for _, id := range reg.ParticipantIDs {
			if st, ok := students[id]; ok {
				view.Participants = append(view.Participants, st)
			}
		}
		if len(view.Participants) > 0 {
			collegeID := view.Participants[0].CollegeID
			college, ok := colleges[collegeID]
			if !ok {
				college, err = b.colleges.GetByID(ctx, collegeID)
				if err != nil {
					return nil, fmt.Errorf("failed to load college: %w", err)
				}
				colleges[collegeID] = college
			}
			view.College = college
		}
		if rank, ok := ranks[reg.ID]; ok {
			view.Rank = &rank
		}
		views = append(views, view)
	}
	return views, nil
}

// registrationEvents builds one notification per registration, addressed to its participants
func (b viewBuilder) registrationEvents(ctx context.Context, kind notify.Kind, program *models.Program, regs []models.Registration) ([]notify.Event, error) {
	students, err := b.studentIndex(ctx, regs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	events := make([]notify.Event, 0, len(regs))
	for _, reg := range regs {
		ev := notify.Event{
			Kind:           kind,
			ProgramID:      program.ID,
			ProgramName:    program.Name,
			RegistrationID: reg.ID,
			Venue:          program.Venue,
			StartTime:      program.StartTime,
			Reason:         program.CancellationReason,
			OccurredAt:     now,
		}
		if reg.ChestNumber != nil {
			ev.ChestNumber = *reg.ChestNumber
		}
		for _, id := range reg.ParticipantIDs {
			if st, ok := students[id]; ok {
				ev.Recipients = append(ev.Recipients, notify.Recipient{StudentID: st.ID, Name: st.Name, Phone: st.Phone})
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// activeStatuses are every non-terminal registration status
var activeStatuses = []models.RegistrationStatus{
	models.StatusOpen,
	models.StatusConfirmed,
	models.StatusReported,
	models.StatusParticipated,
	models.StatusAbsent,
	models.StatusCompleted,
}
