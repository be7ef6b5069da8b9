package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	sharedlogger "fleetsync/internal/shared/logger"
	"fleetsync/internal/simulation/domain"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultJitter   = 0.2
)

// Ticker is the subset of time.Ticker the scheduler needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Options tunes a Scheduler. Zero values select the defaults.
type Options struct {
	Interval  time.Duration
	Jitter    float64
	NewTicker func(time.Duration) Ticker
}

// Scheduler fires MoveAll on a fixed interval while Running. A tick that is
// due while the previous one is still executing is skipped, not queued.
type Scheduler struct {
	logger    sharedlogger.Logger
	mover     domain.Mover
	interval  time.Duration
	jitter    float64
	newTicker func(time.Duration) Ticker

	mu       sync.Mutex
	state    domain.State
	closed   bool
	stopLoop chan struct{}
	loopDone chan struct{}

	// ctx outlives Stop so an in-flight tick can finish; only Shutdown
	// cancels it.
	ctx      context.Context
	cancel   context.CancelFunc
	busy     atomic.Bool
	inflight sync.WaitGroup

	ticks   atomic.Uint64
	skipped atomic.Uint64
	failed  atomic.Uint64
}

// NewScheduler creates a stopped scheduler
func NewScheduler(logger sharedlogger.Logger, mover domain.Mover, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Jitter <= 0 {
		opts.Jitter = DefaultJitter
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:    logger,
		mover:     mover,
		interval:  opts.Interval,
		jitter:    opts.Jitter,
		newTicker: opts.NewTicker,
		state:     domain.Stopped,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// State returns the current lifecycle state
func (s *Scheduler) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns tick counters
func (s *Scheduler) Stats() domain.Stats {
	return domain.Stats{
		Ticks:   s.ticks.Load(),
		Skipped: s.skipped.Load(),
		Failed:  s.failed.Load(),
	}
}

// Start begins ticking. It fails with ErrAlreadyRunning if a timer exists.
func (s *Scheduler) Start() (domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state, domain.ErrShutdown
	}
	if s.state == domain.Running {
		s.logger.Debug("Simulation start ignored, already running")
		return s.state, domain.ErrAlreadyRunning
	}

	ticker := s.newTicker(s.interval)
	s.stopLoop = make(chan struct{})
	s.loopDone = make(chan struct{})
	s.state = domain.Running

	go s.loop(ticker, s.stopLoop, s.loopDone)

	s.logger.Info("Simulation started", "interval", s.interval, "jitter", s.jitter)
	return s.state, nil
}

// Stop cancels future ticks. A tick already executing runs to completion.
func (s *Scheduler) Stop() (domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.Stopped {
		s.logger.Debug("Simulation stop ignored, not running")
		return s.state, domain.ErrNotRunning
	}

	s.stopLoopLocked()
	s.logger.Info("Simulation stopped", "ticks", s.ticks.Load(), "skipped", s.skipped.Load())
	return s.state, nil
}

// Shutdown stops the timer and waits for an in-flight tick. If ctx expires
// first the tick's context is canceled.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.state == domain.Running {
		s.stopLoopLocked()
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	defer s.cancel()

	select {
	case <-ctx.Done():
		s.logger.Warn("Simulation shutdown timeout exceeded, abandoning tick", "err", ctx.Err())
		return ctx.Err()
	case <-done:
		s.logger.Debug("Simulation scheduler shut down")
		return nil
	}
}

// stopLoopLocked ends the timer goroutine and waits for it to exit so that
// at most one timer ever exists. The loop never takes s.mu.
func (s *Scheduler) stopLoopLocked() {
	close(s.stopLoop)
	<-s.loopDone
	s.state = domain.Stopped
}

func (s *Scheduler) loop(ticker Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			select {
			case <-stop:
				return
			default:
			}
			s.fire()
		}
	}
}

func (s *Scheduler) fire() {
	if !s.busy.CompareAndSwap(false, true) {
		n := s.skipped.Add(1)
		s.logger.Warn("Skipping simulation tick, previous tick still running", "skipped_total", n)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer s.busy.Store(false)
		s.tick()
	}()
}

func (s *Scheduler) tick() {
	n := s.ticks.Add(1)
	start := time.Now()

	moved, err := s.mover.MoveAll(s.ctx, s.jitter)
	if err != nil {
		s.failed.Add(1)
		s.logger.Error("Simulation tick failed", "tick", n, "err", err)
		return
	}

	s.logger.Debug("Simulation tick", "tick", n, "moved", len(moved), "duration", time.Since(start))
}
