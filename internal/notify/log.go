package notify

import (
	"context"
	"log/slog"
)

// LogSender writes events to the structured log; useful in development and as an audit trail
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(ctx context.Context, event Event) error {
	slog.InfoContext(ctx, "Notification",
		"kind", event.Kind,
		"program_id", event.ProgramID,
		"registration_id", event.RegistrationID,
		"recipients", len(event.Recipients),
		"subject", event.Subject(),
	)
	return nil
}
