package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/pwannenmacher/campus-fest/internal/config"
)

var emailTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #c0392b;">{{.Subject}}</h2>
        <table style="border-collapse: collapse;">
            {{- if .ChestNumber}}<tr><td><strong>Chest number</strong></td><td>{{.ChestNumber}}</td></tr>{{end}}
            {{- if .Venue}}<tr><td><strong>Venue</strong></td><td>{{.Venue}}</td></tr>{{end}}
            {{- if .StartTime}}<tr><td><strong>Starts</strong></td><td>{{.StartTime.Format "Mon 02 Jan 2006 15:04"}}</td></tr>{{end}}
            {{- if .Reason}}<tr><td><strong>Reason</strong></td><td>{{.Reason}}</td></tr>{{end}}
        </table>
        {{- if .Recipients}}
        <p>Participants:</p>
        <ul>{{range .Recipients}}<li>{{.Name}}{{if .Phone}} ({{.Phone}}){{end}}</li>{{end}}</ul>
        {{- end}}
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated message. Please do not reply.</p>
    </div>
</body>
</html>
`))

type emailView struct {
	Event
	Subject string
}

// EmailSender mails every event to the configured organiser addresses
type EmailSender struct {
	config *config.EmailConfig
	dialer net.Dialer
}

// NewEmailSender creates an SMTP sender
func NewEmailSender(cfg *config.EmailConfig) *EmailSender {
	return &EmailSender{config: cfg}
}

func (s *EmailSender) Name() string { return "email" }

// Send delivers one HTML mail per configured recipient
func (s *EmailSender) Send(ctx context.Context, event Event) error {
	if len(s.config.Recipients) == 0 {
		return &PermanentError{Err: fmt.Errorf("no email recipients configured")}
	}

	body, err := renderEmail(event)
	if err != nil {
		return &PermanentError{Err: err}
	}

	for _, to := range s.config.Recipients {
		if err := s.sendEmail(ctx, to, event.Subject(), body); err != nil {
			return err
		}
	}
	return nil
}

func renderEmail(event Event) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, emailView{Event: event, Subject: event.Subject()}); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

func buildMessage(from, to, subject, body string) []byte {
	var message bytes.Buffer
	for _, h := range [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	} {
		fmt.Fprintf(&message, "%s: %s\r\n", h[0], strings.NewReplacer("\r", "", "\n", "").Replace(h[1]))
	}
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.Bytes()
}

func (s *EmailSender) sendEmail(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(s.config.SMTPHost, s.config.SMTPPort)
	slog.Debug("Connecting to SMTP server", "address", addr)

	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func(conn net.Conn) {
		if err := conn.Close(); err != nil && !isClosedConn(err) {
			slog.Error("Failed to close SMTP connection", "error", err)
		}
	}(conn)
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	// Mail catchers used in development do not offer AUTH
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
			if err := client.Auth(auth); err != nil {
				return &PermanentError{Err: fmt.Errorf("SMTP authentication failed: %w", err)}
			}
		}
	}

	if err := client.Mail(s.config.SMTPFrom); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(buildMessage(s.config.SMTPFrom, to, subject, body)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		slog.Warn("SMTP QUIT failed", "error", err)
	}

	slog.Info("Notification email sent", "to", to, "subject", subject)
	return nil
}

func isClosedConn(err error) bool {
	return strings.Contains(err.Error(), "use of closed network connection")
}
