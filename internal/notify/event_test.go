package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwannenmacher/campus-fest/internal/config"
)

func sampleEvent() Event {
	start := time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC)
	return Event{
		Kind:        KindScheduleChanged,
		ProgramID:   "p1",
		ProgramName: "Group Song <Finals>",
		Venue:       "Stage 2",
		StartTime:   &start,
		Recipients: []Recipient{
			{StudentID: "s1", Name: "Anu", Phone: "9000000001"},
			{StudentID: "s2", Name: "Bala"},
		},
	}
}

func TestEvent_Subject(t *testing.T) {
	tests := map[Kind]string{
		KindRegistrationConfirmed: "Registration confirmed: Mime",
		KindScheduleChanged:       "Schedule changed: Mime",
		KindProgramCancelled:      "Program cancelled: Mime",
		KindResultsPublished:      "Results published: Mime",
		KindUpcomingReminder:      "Starting soon: Mime",
	}
	for kind, want := range tests {
		t.Run(string(kind), func(t *testing.T) {
			assert.Equal(t, want, Event{Kind: kind, ProgramName: "Mime"}.Subject())
		})
	}
}

func TestEvent_Text(t *testing.T) {
	text := sampleEvent().Text()

	assert.True(t, strings.HasPrefix(text, "Schedule changed: Group Song <Finals>"))
	assert.Contains(t, text, "Venue: Stage 2")
	assert.Contains(t, text, "Starts: Sat 14 Feb 10:30")
	assert.Contains(t, text, "Participants: Anu, Bala")
	assert.NotContains(t, text, "Chest number")
}

func TestRenderEmail_EscapesContent(t *testing.T) {
	body, err := renderEmail(sampleEvent())
	require.NoError(t, err)

	assert.Contains(t, body, "Group Song &lt;Finals&gt;")
	assert.Contains(t, body, "Stage 2")
	assert.Contains(t, body, "Anu (9000000001)")
	assert.NotContains(t, body, "<Finals>")
}

func TestBuildMessage_StripsHeaderInjection(t *testing.T) {
	msg := string(buildMessage("noreply@example.com", "ops@example.com", "Hi\r\nBcc: evil@example.com", "<p>x</p>"))

	assert.Contains(t, msg, "Subject: HiBcc: evil@example.com\r\n")
	assert.NotContains(t, msg, "\r\nBcc:")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>x</p>"))
}

func TestEmailSender_NoRecipientsIsPermanent(t *testing.T) {
	s := NewEmailSender(&config.EmailConfig{SMTPHost: "localhost", SMTPPort: "1025"})

	err := s.Send(context.Background(), sampleEvent())
	var permanent *PermanentError
	assert.ErrorAs(t, err, &permanent)
}

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func TestTelegramSender_Send(t *testing.T) {
	bot := &fakeBot{}
	s := newTelegramSender(bot, -100123)

	require.NoError(t, s.Send(context.Background(), sampleEvent()))
	require.Len(t, bot.sent, 1)

	msg := bot.sent[0]
	assert.Equal(t, int64(-100123), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.True(t, strings.HasPrefix(msg.Text, "<b>Schedule changed: Group Song &lt;Finals&gt;</b>\n"))
}

func TestTelegramSender_Errors(t *testing.T) {
	err := newTelegramSender(&fakeBot{}, 0).Send(context.Background(), sampleEvent())
	var permanent *PermanentError
	assert.ErrorAs(t, err, &permanent)

	err = newTelegramSender(&fakeBot{err: errors.New("429 Too Many Requests")}, 1).Send(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "429")
	assert.False(t, errors.As(err, &permanent))
}
