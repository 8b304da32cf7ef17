package scheduler

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ParseCron parses a standard five-field cron expression or a descriptor
// such as @hourly or @every 10m. A leading TZ=Area/City pins the time zone.
func ParseCron(expr string) (cron.Schedule, error) {
	return cron.ParseStandard(expr)
}

// frequent reports whether consecutive runs are less than an hour apart
func frequent(schedule cron.Schedule, now time.Time) bool {
	first := schedule.Next(now)
	return schedule.Next(first).Sub(first) < time.Hour
}

// cronLogger routes the cron runner's own messages to slog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
