// Package scheduler runs the periodic jobs of the server process.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pwannenmacher/campus-fest/internal/config"
	"github.com/pwannenmacher/campus-fest/internal/models"
)

// WindowReminder sends reminders for programs starting within a lead time
type WindowReminder interface {
	TriggerWindow(ctx context.Context, lead time.Duration) (*models.ReminderResult, error)
}

type task struct {
	name     string
	schedule cron.Schedule
	run      func(ctx context.Context) error
}

// Scheduler handles periodic tasks
type Scheduler struct {
	config    *config.SchedulerConfig
	reminders WindowReminder
	now       func() time.Time

	cron   *cron.Cron
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.SchedulerConfig, reminders WindowReminder) *Scheduler {
	return &Scheduler{
		config:    cfg,
		reminders: reminders,
		now:       time.Now,
	}
}

func (s *Scheduler) tasks() ([]task, error) {
	var tasks []task
	if s.config.EnableReminders {
		schedule, err := ParseCron(s.config.ReminderCron)
		if err != nil {
			return nil, fmt.Errorf("failed to parse reminder schedule: %w", err)
		}
		tasks = append(tasks, task{name: "upcoming_reminders", schedule: schedule, run: s.sendReminders})
	}
	return tasks, nil
}

// Start registers every enabled task with the cron runner. Tasks firing more
// often than hourly also run once immediately. Running tasks see ctx
// cancelled when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	tasks, err := s.tasks()
	if err != nil {
		return err
	}

	logger := cronLogger{}
	s.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range tasks {
		s.cron.Schedule(t.schedule, cron.FuncJob(func() { s.execute(ctx, t) }))

		if frequent(t.schedule, s.now()) {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.execute(ctx, t)
			}()
		}
		slog.Debug("Task scheduled", "task", t.name, "next_run", t.schedule.Next(s.now()).Format(time.RFC3339))
	}
	s.cron.Start()

	slog.Info("Scheduler started", "reminders_enabled", s.config.EnableReminders, "tasks", len(tasks))
	return nil
}

// Stop cancels all tasks and waits for running ones to return
func (s *Scheduler) Stop() {
	slog.Info("Stopping scheduler")
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.wg.Wait()
}

func (s *Scheduler) execute(ctx context.Context, t task) {
	if ctx.Err() != nil {
		return
	}
	start := s.now()
	if err := t.run(ctx); err != nil {
		slog.Error("Scheduled task failed", "task", t.name, "error", err)
		return
	}
	slog.Debug("Scheduled task finished", "task", t.name, "duration_ms", s.now().Sub(start).Milliseconds())
}

func (s *Scheduler) sendReminders(ctx context.Context) error {
	result, err := s.reminders.TriggerWindow(ctx, s.config.ReminderLead)
	if err != nil {
		return err
	}
	if result.SentCount > 0 {
		slog.Info("Upcoming reminders sent", "programs", result.ProgramCount, "notifications", result.SentCount)
	}
	return nil
}
