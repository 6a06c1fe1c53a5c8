package syncer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultInterval = 15 * time.Minute

// Status is a point-in-time view of the scheduler.
type Status struct {
	Running   bool         `json:"running"`
	Interval  string       `json:"interval"`
	Sweeps    int          `json:"sweeps"`
	LastSweep *SweepResult `json:"lastSweep,omitempty"`
	LastError string       `json:"lastError,omitempty"`
}

// Scheduler owns the single sweep ticker. Sweeps never overlap.
type Scheduler struct {
	sweeper  *Sweeper
	clock    Clock
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	ticker  Ticker
	stop    chan struct{}

	sweepMu sync.Mutex

	statusMu  sync.RWMutex
	sweeps    int
	last      *SweepResult
	lastError string
}

func NewScheduler(sweeper *Sweeper, clock Clock, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{sweeper: sweeper, clock: clock, interval: interval, logger: logger}
}

// Start runs a sweep immediately and then on every tick until Stop is
// called or ctx is done. Starting a running scheduler replaces its ticker.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.halt()
		s.logger.Info("sync: scheduler restarted")
	}
	ticker := s.clock.NewTicker(s.interval)
	stop := make(chan struct{})
	s.ticker, s.stop, s.running = ticker, stop, true
	s.mu.Unlock()

	s.logger.Info("sync: scheduler started", zap.Duration("interval", s.interval))
	go s.loop(ctx, ticker, stop)
}

// Stop prevents future ticks. An in-flight sweep runs to completion.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.halt()
	s.logger.Info("sync: scheduler stopped")
}

// halt requires s.mu.
func (s *Scheduler) halt() {
	close(s.stop)
	s.ticker.Stop()
	s.ticker, s.stop, s.running = nil, nil, false
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker, stop chan struct{}) {
	s.runSweep(ctx)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			s.mu.Lock()
			if s.stop == stop {
				s.halt()
			}
			s.mu.Unlock()
			return
		case <-ticker.C():
			s.runSweep(ctx)
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("sync: sweep failed", zap.Error(err))
	}
}

// RunOnce runs a single sweep now, waiting for any sweep in progress.
func (s *Scheduler) RunOnce(ctx context.Context) (SweepResult, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	res, err := s.sweeper.Sweep(ctx)

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.sweeps++
	if err != nil {
		s.lastError = err.Error()
		return res, err
	}
	s.lastError = ""
	s.last = &res
	return res, nil
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return Status{
		Running:   running,
		Interval:  s.interval.String(),
		Sweeps:    s.sweeps,
		LastSweep: s.last,
		LastError: s.lastError,
	}
}
