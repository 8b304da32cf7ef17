package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/notify"
	"github.com/pwannenmacher/campus-fest/internal/service"
)

func expectReminders(t *testing.T, f *fixture, n int) {
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Do(func(_ any, ev notify.Event) {
		assert.Equal(t, notify.KindUpcomingReminder, ev.Kind)
	}).Times(n)
}

func TestReminders_TriggerAll(t *testing.T) {
	f := newFixture(t)
	c := f.college(t, "KLE")

	soon := f.program(t, "Solo Song", models.ProgramTypeSingle, startingIn(30*time.Minute))
	later := f.program(t, "Quiz", models.ProgramTypeGroup, startingIn(5*time.Hour))
	past := f.program(t, "Essay", models.ProgramTypeSingle, startingIn(-time.Hour))
	f.program(t, "Mime", models.ProgramTypeGroup)

	f.register(t, soon, f.student(t, c, "Asha", ""))
	f.register(t, soon, f.student(t, c, "Ravi", ""))
	f.register(t, later, f.student(t, c, "Meera", ""), f.student(t, c, "Kiran", ""))
	f.register(t, past, f.student(t, c, "Divya", ""))
	withdrawn := f.register(t, later, f.student(t, c, "Arun", ""))
	_, err := f.registrations.Cancel(f.ctx, withdrawn.ID, "withdrew", actor)
	require.NoError(t, err)

	expectReminders(t, f, 3)

	result, err := f.reminders.TriggerAll(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.ReminderResult{SentCount: 3, ProgramCount: 2}, result)
}

func TestReminders_TriggerProgram(t *testing.T) {
	f := newFixture(t)
	c := f.college(t, "KLE")
	p := f.program(t, "Solo Song", models.ProgramTypeSingle, startingIn(time.Hour))
	f.register(t, p, f.student(t, c, "Asha", ""))

	expectReminders(t, f, 1)
	sent, err := f.reminders.TriggerProgram(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	_, err = f.reminders.TriggerProgram(f.ctx, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestReminders_TriggerProgramCancelled(t *testing.T) {
	f := newFixture(t)
	f.ignoreNotifications()
	p := f.program(t, "Solo Song", models.ProgramTypeSingle, startingIn(time.Hour))
	_, err := f.programs.Cancel(f.ctx, p.ID, "rain", actor)
	require.NoError(t, err)

	_, err = f.reminders.TriggerProgram(f.ctx, p.ID)
	assert.ErrorIs(t, err, service.ErrProgramLocked)
}

func TestReminders_TriggerWindowSendsOnce(t *testing.T) {
	f := newFixture(t)
	c := f.college(t, "KLE")
	inWindow := f.program(t, "Solo Song", models.ProgramTypeSingle, startingIn(20*time.Minute))
	outside := f.program(t, "Quiz", models.ProgramTypeSingle, startingIn(3*time.Hour))
	f.register(t, inWindow, f.student(t, c, "Asha", ""))
	f.register(t, outside, f.student(t, c, "Ravi", ""))

	expectReminders(t, f, 1)

	result, err := f.reminders.TriggerWindow(f.ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, &models.ReminderResult{SentCount: 1, ProgramCount: 1}, result)

	result, err = f.reminders.TriggerWindow(f.ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, &models.ReminderResult{}, result)
}

func TestReminders_TriggerWindowAfterReschedule(t *testing.T) {
	f := newFixture(t)
	c := f.college(t, "KLE")
	p := f.program(t, "Solo Song", models.ProgramTypeSingle, startingIn(20*time.Minute))
	f.register(t, p, f.student(t, c, "Asha", ""))

	// reminder, then schedule change, then a fresh reminder for the new time
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(3)

	_, err := f.reminders.TriggerWindow(f.ctx, time.Hour)
	require.NoError(t, err)

	later := time.Now().Add(40 * time.Minute)
	_, changed, err := f.programs.Update(f.ctx, p.ID, models.ProgramPatch{StartTime: &later}, actor)
	require.NoError(t, err)
	require.True(t, changed)

	result, err := f.reminders.TriggerWindow(f.ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SentCount)
}
