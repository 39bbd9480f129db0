package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/rusenback/hostmon/internal/model"
)

// ProcessTable enumerates processes and keeps one gopsutil handle per pid
// so per-process CPU percentages are deltas between refreshes
type ProcessTable struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	handles map[int32]Proc

	// Overridable for tests
	pids func(ctx context.Context) ([]int32, error)
	open func(ctx context.Context, pid int32) (Proc, error)
}

// NewProcessTable creates a ProcessTable backed by gopsutil
func NewProcessTable(cfg Config, logger *zap.Logger) *ProcessTable {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.TerminateTimeout <= 0 {
		cfg.TerminateTimeout = def.TerminateTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}

	return &ProcessTable{
		cfg:     cfg,
		logger:  logger,
		handles: make(map[int32]Proc),
		pids:    systemPids,
		open:    openProc,
	}
}

type tracked struct {
	pid  int32
	proc Proc
}

// List returns up to limit processes sorted by CPU usage, highest first.
// Processes that exit or deny access while being read are left out.
func (t *ProcessTable) List(ctx context.Context, limit int) ([]model.ProcessInfo, error) {
	if limit <= 0 {
		return []model.ProcessInfo{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	pids, err := t.pids(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list pids: %w", ErrSourceUnavailable, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	procs := t.refreshHandles(ctx, pids)

	mapper := iter.Mapper[tracked, *model.ProcessInfo]{MaxGoroutines: t.cfg.Workers}
	infos := mapper.Map(procs, func(tp *tracked) *model.ProcessInfo {
		info, err := readInfo(ctx, tp)
		if err != nil {
			if isTransient(err) {
				t.logger.Debug("skipping process", zap.Int32("pid", tp.pid), zap.Error(err))
			} else {
				t.logger.Warn("reading process failed", zap.Int32("pid", tp.pid), zap.Error(err))
			}
			return nil
		}
		return info
	})

	result := make([]model.ProcessInfo, 0, len(infos))
	for _, info := range infos {
		if info != nil {
			result = append(result, *info)
		}
	}

	sortByCPU(result)
	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// refreshHandles opens handles for new pids and drops handles of exited ones.
// Caller holds t.mu.
func (t *ProcessTable) refreshHandles(ctx context.Context, pids []int32) []tracked {
	live := make(map[int32]struct{}, len(pids))
	procs := make([]tracked, 0, len(pids))

	for _, pid := range pids {
		if _, seen := live[pid]; seen {
			continue
		}
		live[pid] = struct{}{}

		proc, ok := t.handles[pid]
		if !ok {
			var err error
			proc, err = t.open(ctx, pid)
			if err != nil {
				continue
			}
			t.handles[pid] = proc
		}
		procs = append(procs, tracked{pid: pid, proc: proc})
	}

	for pid := range t.handles {
		if _, ok := live[pid]; !ok {
			delete(t.handles, pid)
		}
	}

	return procs
}

// readInfo reads the list columns for one process.
// A name that cannot be read is shown empty.
func readInfo(ctx context.Context, tp *tracked) (*model.ProcessInfo, error) {
	name, err := tp.proc.Name(ctx)
	if err != nil {
		if err = classify(err); errors.Is(err, ErrNoSuchProcess) {
			return nil, err
		}
		name = ""
	}

	cpuPct, err := tp.proc.CPUPercent(ctx)
	if err != nil {
		return nil, classify(err)
	}

	memPct, err := tp.proc.MemPercent(ctx)
	if err != nil {
		return nil, classify(err)
	}

	return &model.ProcessInfo{
		PID:        tp.pid,
		Name:       name,
		CPUPercent: cpuPct,
		MemPercent: memPct,
	}, nil
}

// sortByCPU orders by CPU descending, then pid for a stable view
func sortByCPU(procs []model.ProcessInfo) {
	sort.SliceStable(procs, func(i, j int) bool {
		if procs[i].CPUPercent != procs[j].CPUPercent {
			return procs[i].CPUPercent > procs[j].CPUPercent
		}
		return procs[i].PID < procs[j].PID
	})
}

// Terminate asks the process to exit and waits up to TerminateTimeout.
// It never escalates to a kill.
func (t *ProcessTable) Terminate(ctx context.Context, pid int32) error {
	proc, err := t.open(ctx, pid)
	if err != nil {
		return &TerminationError{PID: pid, Err: classify(err)}
	}

	if err := proc.Terminate(ctx); err != nil {
		return &TerminationError{PID: pid, Err: classify(err)}
	}

	if err := t.waitExit(ctx, proc); err != nil {
		return &TerminationError{PID: pid, Err: err}
	}

	t.forget(pid)
	t.logger.Info("process terminated", zap.Int32("pid", pid))
	return nil
}

// waitExit polls until the process is gone, backing off between checks
func (t *ProcessTable) waitExit(ctx context.Context, proc Proc) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.TerminateTimeout)
	defer cancel()

	b := &backoff.Backoff{
		Min:    10 * time.Millisecond,
		Max:    250 * time.Millisecond,
		Factor: 2,
	}

	for {
		running, err := proc.IsRunning(ctx)
		if err != nil && isTransient(err) {
			return nil
		}
		if err == nil && !running {
			return nil
		}

		timer := time.NewTimer(b.Duration())
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (%s)", ErrTerminateTimeout, t.cfg.TerminateTimeout)
		case <-timer.C:
		}
	}
}

// Inspect returns the extended field set for one process.
// It holds t.mu so a cached handle is never read by List at the same time.
func (t *ProcessTable) Inspect(ctx context.Context, pid int32) (model.ProcessDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Reuse the listing handle so the CPU figure is a real delta
	proc, ok := t.handles[pid]
	if !ok {
		var err error
		proc, err = t.open(ctx, pid)
		if err != nil {
			return model.ProcessDetail{}, &InspectionError{PID: pid, Err: classify(err)}
		}
	}

	detail, err := proc.Detail(ctx)
	if err != nil {
		return model.ProcessDetail{}, &InspectionError{PID: pid, Err: classify(err)}
	}
	return detail, nil
}

func (t *ProcessTable) forget(pid int32) {
	t.mu.Lock()
	delete(t.handles, pid)
	t.mu.Unlock()
}
