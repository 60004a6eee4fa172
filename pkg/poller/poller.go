package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"lnswap/pkg/types"
)

// Interval is the fixed delay between two status queries
const Interval = 15 * time.Second

// StatusFetcher returns the current status literal of an order
type StatusFetcher interface {
	OrderStatus(ctx context.Context, ref types.OrderRef) (string, error)
}

// Handle controls a running poll
type Handle interface {
	// Cancel stops polling. Safe to call more than once and after polling ended.
	Cancel()
	// Done is closed once polling has stopped for any reason
	Done() <-chan struct{}
	// Completed reports whether polling stopped on a completed status
	Completed() bool
	// LastStatus is the most recent status observed, empty before the first answer
	LastStatus() string
}

// Poller queries order status on a fixed schedule
type Poller struct {
	fetcher     StatusFetcher
	interval    time.Duration
	maxDuration time.Duration
	log         logrus.FieldLogger
}

// Option configures a Poller
type Option func(*Poller)

// WithMaxDuration cancels polling after d. Zero means no ceiling.
func WithMaxDuration(d time.Duration) Option {
	return func(p *Poller) { p.maxDuration = d }
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Poller) { p.log = log }
}

// New creates a new poller
func New(fetcher StatusFetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: Interval,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type handle struct {
	sched     gocron.Scheduler
	cancelCtx context.CancelFunc
	done      chan struct{}
	once      sync.Once
	stopped   atomic.Bool
	completed atomic.Bool
	mu        sync.RWMutex
	last      string
	log       logrus.FieldLogger
}

// Start begins polling ref. The first query runs one interval after Start.
// onUpdate receives every status the backend reports and may be nil.
func (p *Poller) Start(ctx context.Context, ref types.OrderRef, onUpdate func(status string)) (Handle, error) {
	if ref.ID == "" {
		return nil, errors.New("order id is required")
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	pollCtx, cancel := context.WithCancel(ctx)
	h := &handle{
		sched:     sched,
		cancelCtx: cancel,
		done:      make(chan struct{}),
		log:       p.log.WithField("order_id", ref.ID),
	}

	tick := func() {
		if h.stopped.Load() {
			return
		}

		// cancelling the poll aborts an in-flight query so Shutdown does not wait on it
		status, err := p.fetcher.OrderStatus(pollCtx, ref)
		if err != nil {
			h.log.Warnf("Status check failed: %v", err)
			return
		}
		if h.stopped.Load() {
			return
		}

		h.mu.Lock()
		h.last = status
		h.mu.Unlock()
		if onUpdate != nil {
			onUpdate(status)
		}

		if status == types.StatusCompleted {
			h.completed.Store(true)
			h.stopped.Store(true)
			h.log.Info("Order completed")
			// Shutdown waits for running jobs, so it cannot run on this goroutine
			go h.Cancel()
		}
	}

	_, err = sched.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(tick),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule status job: %w", err)
	}

	sched.Start()
	h.log.WithField("interval", p.interval).Debug("Status polling started")

	go func() {
		var ceiling <-chan time.Time
		if p.maxDuration > 0 {
			timer := time.NewTimer(p.maxDuration)
			defer timer.Stop()
			ceiling = timer.C
		}
		select {
		case <-pollCtx.Done():
			h.Cancel()
		case <-ceiling:
			h.log.Warnf("Polling stopped after %s without completion", p.maxDuration)
			h.Cancel()
		case <-h.done:
		}
	}()

	return h, nil
}

func (h *handle) Cancel() {
	h.once.Do(func() {
		h.stopped.Store(true)
		h.cancelCtx()
		if err := h.sched.Shutdown(); err != nil {
			h.log.Errorf("Scheduler shutdown error: %v", err)
		}
		close(h.done)
	})
}

func (h *handle) Done() <-chan struct{} { return h.done }

func (h *handle) Completed() bool { return h.completed.Load() }

func (h *handle) LastStatus() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}
