// Package notify delivers lifecycle notifications asynchronously. Callers hand
// events to a Notifier and never wait for delivery.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"
)

//go:generate mockgen -destination=mocks/mock_notify.go -package=mocks -source=event.go Notifier,Sender

// Kind tags the event payload
type Kind string

const (
	KindRegistrationConfirmed Kind = "registration_confirmed"
	KindScheduleChanged       Kind = "schedule_changed"
	KindProgramCancelled      Kind = "program_cancelled"
	KindResultsPublished      Kind = "results_published"
	KindUpcomingReminder      Kind = "upcoming_reminder"
)

// Recipient is a student who should hear about the event
type Recipient struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
}

// Event is the one payload shape for every notification kind
type Event struct {
	Kind           Kind        `json:"kind"`
	ProgramID      string      `json:"program_id"`
	ProgramName    string      `json:"program_name"`
	RegistrationID string      `json:"registration_id,omitempty"`
	ChestNumber    string      `json:"chest_number,omitempty"`
	Venue          string      `json:"venue,omitempty"`
	StartTime      *time.Time  `json:"start_time,omitempty"`
	Reason         string      `json:"reason,omitempty"`
	Recipients     []Recipient `json:"recipients,omitempty"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// Notifier accepts events for delivery. Notify must return without waiting
// for any channel.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Sender delivers one event over one channel
type Sender interface {
	Name() string
	Send(ctx context.Context, event Event) error
}

// Nop discards every event
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Subject is a one-line summary of the event
func (e Event) Subject() string {
	switch e.Kind {
	case KindRegistrationConfirmed:
		return fmt.Sprintf("Registration confirmed: %s", e.ProgramName)
	case KindScheduleChanged:
		return fmt.Sprintf("Schedule changed: %s", e.ProgramName)
	case KindProgramCancelled:
		return fmt.Sprintf("Program cancelled: %s", e.ProgramName)
	case KindResultsPublished:
		return fmt.Sprintf("Results published: %s", e.ProgramName)
	case KindUpcomingReminder:
		return fmt.Sprintf("Starting soon: %s", e.ProgramName)
	default:
		return e.ProgramName
	}
}

// Text renders a plain message body shared by the text channels
func (e Event) Text() string {
	var b strings.Builder
	b.WriteString(e.Subject())
	if e.ChestNumber != "" {
		fmt.Fprintf(&b, "\nChest number: %s", e.ChestNumber)
	}
	if e.Venue != "" {
		fmt.Fprintf(&b, "\nVenue: %s", e.Venue)
	}
	if e.StartTime != nil {
		fmt.Fprintf(&b, "\nStarts: %s", e.StartTime.Format("Mon 02 Jan 15:04"))
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s", e.Reason)
	}
	if len(e.Recipients) > 0 {
		names := make([]string, len(e.Recipients))
		for i, r := range e.Recipients {
			names[i] = r.Name
		}
		fmt.Fprintf(&b, "\nParticipants: %s", strings.Join(names, ", "))
	}
	return b.String()
}
