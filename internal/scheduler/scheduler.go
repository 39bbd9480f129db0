// Package scheduler runs the sampling pipeline on a fixed period without the TUI.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TickFunc is one unit of scheduled work
type TickFunc func(ctx context.Context)

// Scheduler invokes a TickFunc every N seconds. A tick that is still running
// when the next one is due causes that next one to be skipped.
type Scheduler struct {
	mu        sync.Mutex
	cron      *cron.Cron
	entryID   cron.EntryID
	scheduled bool
	interval  int
	tick      TickFunc
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a Scheduler that calls tick
func New(tick TickFunc, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		tick:   tick,
		logger: logger,
	}
}

// Start runs one tick immediately and then every intervalSeconds
func (s *Scheduler) Start(ctx context.Context, intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.scheduleLocked(intervalSeconds); err != nil {
		s.cancel()
		return err
	}

	s.logger.Info("scheduler started", zap.Int("interval", s.interval))
	s.cron.Start()

	// First sample without waiting a full period
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()
	return nil
}

// Reconfigure replaces the period. The next tick happens one new period from now.
func (s *Scheduler) Reconfigure(intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduled && intervalSeconds == s.interval {
		return nil
	}
	return s.scheduleLocked(intervalSeconds)
}

// Interval returns the current period in seconds
func (s *Scheduler) Interval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Stop stops scheduling and waits for a running tick to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()

	s.logger.Info("scheduler stopped")
}

// scheduleLocked removes any existing entry and adds a new one. Caller holds s.mu.
func (s *Scheduler) scheduleLocked(intervalSeconds int) error {
	if intervalSeconds <= 0 {
		return fmt.Errorf("invalid interval %ds", intervalSeconds)
	}

	if s.scheduled {
		s.cron.Remove(s.entryID)
		s.scheduled = false
	}

	spec := fmt.Sprintf("@every %ds", intervalSeconds)
	id, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return fmt.Errorf("add cron entry: %w", err)
	}

	s.entryID = id
	s.scheduled = true
	s.interval = intervalSeconds

	s.logger.Debug("tick scheduled", zap.String("spec", spec))
	return nil
}

func (s *Scheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}
	s.tick(ctx)
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
