package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/pwannenmacher/campus-fest/internal/metrics"
)

// DispatcherConfig sizes the queue and the retry policy
type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	MaxAttempts uint
	// InitialInterval of the exponential backoff; zero keeps the library default
	InitialInterval time.Duration
	// SendTimeout bounds one event's delivery across all retries
	SendTimeout time.Duration
}

// Dispatcher queues events on a buffered channel and fans them out to the
// senders from a fixed worker pool. A full queue drops the event.
type Dispatcher struct {
	cfg     DispatcherConfig
	senders []Sender
	queue   chan Event

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher; call Start before events are delivered
func NewDispatcher(cfg DispatcherConfig, senders ...Sender) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 2 * time.Minute
	}
	return &Dispatcher{
		cfg:     cfg,
		senders: senders,
		queue:   make(chan Event, cfg.QueueSize),
	}
}

// Start launches the worker goroutines
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	slog.Info("Notification dispatcher started", "workers", d.cfg.Workers, "channels", len(d.senders))
}

// Notify enqueues the event without blocking
func (d *Dispatcher) Notify(_ context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.NotificationsDropped.WithLabelValues(string(event.Kind)).Inc()
		slog.Warn("Notification dropped after shutdown", "kind", event.Kind, "program_id", event.ProgramID)
		return
	}

	select {
	case d.queue <- event:
	default:
		metrics.NotificationsDropped.WithLabelValues(string(event.Kind)).Inc()
		slog.Warn("Notification queue full, dropping event", "kind", event.Kind, "program_id", event.ProgramID)
	}
}

// Stop closes the queue and waits for queued events to drain or ctx to end
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	for _, sender := range d.senders {
		err := d.sendWithRetry(ctx, sender, event)
		outcome := "sent"
		if err != nil {
			outcome = "failed"
			slog.Error("Failed to deliver notification",
				"channel", sender.Name(),
				"kind", event.Kind,
				"program_id", event.ProgramID,
				"error", err,
			)
		}
		metrics.NotificationsTotal.WithLabelValues(sender.Name(), string(event.Kind), outcome).Inc()
	}
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, sender Sender, event Event) error {
	b := backoff.NewExponentialBackOff()
	if d.cfg.InitialInterval > 0 {
		b.InitialInterval = d.cfg.InitialInterval
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := sender.Send(ctx, event)
		var permanent *PermanentError
		if errors.As(err, &permanent) {
			return struct{}{}, backoff.Permanent(err)
		}
		if err != nil {
			slog.Debug("Notification attempt failed", "channel", sender.Name(), "attempt", attempt, "error", err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(d.cfg.MaxAttempts))
	return err
}

// PermanentError marks a delivery failure that retrying cannot fix
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
