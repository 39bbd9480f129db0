// internal/collector/source.go
package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rusenback/hostmon/internal/model"
)

// SystemSource reads host-wide metrics through gopsutil
type SystemSource struct {
	cfg    Config
	logger *zap.Logger

	// Overridable for tests
	now          func() time.Time
	cpuPercent   func(ctx context.Context) (float64, error)
	memPercent   func(ctx context.Context) (float64, error)
	netCounters  func(ctx context.Context) (uint64, uint64, error)
	pids         func(ctx context.Context) ([]int32, error)
	processCount func(ctx context.Context) (int, error)
}

// NewSource creates a SystemSource and primes the CPU counter.
//
// gopsutil reports system CPU usage as a delta since the previous call,
// so the first reading after start is meaningless. The warm-up call here
// makes the first TakeSnapshot return a real delta.
func NewSource(cfg Config, logger *zap.Logger) *SystemSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	s := &SystemSource{
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		cpuPercent:   systemCPUPercent,
		memPercent:   systemMemPercent,
		netCounters:  systemNetCounters,
		pids:         systemPids,
		processCount: systemProcessCount,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if _, err := s.cpuPercent(ctx); err != nil {
		logger.Debug("cpu warm-up failed", zap.Error(err))
	}

	return s
}

// TakeSnapshot samples CPU, memory, network counters and process count.
// Any failure is reported as ErrSourceUnavailable.
func (s *SystemSource) TakeSnapshot(ctx context.Context) (model.Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	// Wall clock, microsecond precision so the stored REAL round-trips
	ts := time.UnixMicro(s.now().UnixMicro())

	cpuPct, err := s.cpuPercent(ctx)
	if err != nil {
		return model.Sample{}, unavailable("cpu", err)
	}

	memPct, err := s.memPercent(ctx)
	if err != nil {
		return model.Sample{}, unavailable("memory", err)
	}

	sent, recv, err := s.netCounters(ctx)
	if err != nil {
		return model.Sample{}, unavailable("network", err)
	}

	procs, err := s.countProcesses(ctx)
	if err != nil {
		return model.Sample{}, unavailable("processes", err)
	}

	return model.Sample{
		Timestamp:  ts,
		CPUPercent: cpuPct,
		MemPercent: memPct,
		NetSent:    sent,
		NetRecv:    recv,
		Processes:  procs,
	}, nil
}

// countProcesses uses the pid list and falls back to full enumeration
func (s *SystemSource) countProcesses(ctx context.Context) (int, error) {
	pids, err := s.pids(ctx)
	if err == nil {
		return len(pids), nil
	}

	s.logger.Debug("pid listing failed, enumerating processes", zap.Error(err))
	return s.processCount(ctx)
}

func unavailable(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, what, err)
}
