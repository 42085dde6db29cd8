package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/efreitasn/simmatch/internal/domain"
)

// event is one unit of work for the worker. It always runs to completion.
type event struct {
	kind  string
	apply func(*Venue) error
}

// Manager serialises every mutation of a Venue onto a single worker
// goroutine fed by a bounded queue. Producers only enqueue.
type Manager struct {
	venue       *Venue
	events      chan event
	pollTimeout time.Duration
	logger      *slog.Logger
	metrics     Instrumentation

	alive    atomic.Bool
	closed   atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a Manager with a queue of queueSize events. The worker
// re-checks its liveness flag at least every pollTimeout.
func NewManager(v *Venue, queueSize int, pollTimeout time.Duration, logger *slog.Logger, metrics Instrumentation) *Manager {
	if metrics == nil {
		metrics = nopInstrumentation{}
	}
	m := &Manager{
		venue:       v,
		events:      make(chan event, queueSize),
		pollTimeout: pollTimeout,
		logger:      logger,
		metrics:     metrics,
		done:        make(chan struct{}),
	}
	m.alive.Store(true)
	return m
}

// Run drains the queue until ctx is cancelled or Stop is called, returning
// nil. A configuration fault stops the worker and is returned.
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.done)
	defer m.closed.Store(true)

	ticker := time.NewTicker(m.pollTimeout)
	defer ticker.Stop()

	m.logger.Info("matching worker started", "mode", m.venue.Mode())
	for m.alive.Load() {
		select {
		case <-ctx.Done():
			m.logger.Info("matching worker stopped")
			return nil
		case ev := <-m.events:
			if err := m.process(ev); err != nil {
				m.alive.Store(false)
				m.logger.Error("matching worker halted on configuration fault", "event", ev.kind, "error", err)
				return err
			}
		case <-ticker.C:
		}
	}
	m.logger.Info("matching worker stopped")
	return nil
}

func (m *Manager) process(ev event) error {
	start := time.Now()
	err := ev.apply(m.venue)
	m.metrics.ObserveEvent(ev.kind, time.Since(start))
	m.metrics.SetQueueDepth(len(m.events))
	return err
}

// Stop clears the liveness flag. The worker exits after the event in flight,
// within one poll timeout.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.alive.Store(false)
		m.closed.Store(true)
	})
}

// Done is closed when the worker has exited.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Alive reports whether the worker accepts events.
func (m *Manager) Alive() bool {
	return m.alive.Load() && !m.closed.Load()
}

func (m *Manager) enqueue(ev event) error {
	if m.closed.Load() {
		return domain.ErrManagerStopped
	}
	select {
	case m.events <- ev:
		m.metrics.SetQueueDepth(len(m.events))
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// SubmitOrder queues a new order.
func (m *Manager) SubmitOrder(req domain.OrderRequest) error {
	return m.enqueue(event{kind: "order", apply: func(v *Venue) error {
		return v.SubmitOrder(req)
	}})
}

// CancelOrder queues a cancellation.
func (m *Manager) CancelOrder(req domain.CancelRequest) error {
	return m.enqueue(event{kind: "cancel", apply: func(v *Venue) error {
		v.CancelOrder(req)
		return nil
	}})
}

// PushTick queues a tick.
func (m *Manager) PushTick(tick domain.Tick) error {
	return m.enqueue(event{kind: "tick", apply: func(v *Venue) error {
		return v.OnTick(tick)
	}})
}

// PushBar queues a bar.
func (m *Manager) PushBar(bar domain.Bar) error {
	return m.enqueue(event{kind: "bar", apply: func(v *Venue) error {
		return v.OnBar(bar)
	}})
}

// SetTradingDay queues a trading-day change.
func (m *Manager) SetTradingDay(day string) error {
	return m.enqueue(event{kind: "trading_day", apply: func(v *Venue) error {
		v.SetTradingDay(day)
		return nil
	}})
}

// Query runs fn on the worker after every event queued before it and waits
// for it to finish. fn must only read.
func (m *Manager) Query(ctx context.Context, fn func(*Venue)) error {
	finished := make(chan struct{})
	err := m.enqueue(event{kind: "query", apply: func(v *Venue) error {
		defer close(finished)
		fn(v)
		return nil
	}})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-m.done:
		select {
		case <-finished:
			return nil
		default:
			return domain.ErrManagerStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
