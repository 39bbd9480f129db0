package collector

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/rusenback/hostmon/internal/model"
)

// Config holds collector tuning
type Config struct {
	// Timeout bounds a single snapshot or process listing
	Timeout time.Duration
	// TerminateTimeout is how long Terminate waits for the process to exit
	TerminateTimeout time.Duration
	// Workers caps concurrent per-process reads in List
	Workers int
}

func DefaultConfig() Config {
	return Config{
		Timeout:          5 * time.Second,
		TerminateTimeout: 3 * time.Second,
		Workers:          runtime.GOMAXPROCS(0),
	}
}

// Proc is the part of a gopsutil process the ProcessTable uses.
// CPUPercent is a delta since the previous call on the same Proc.
type Proc interface {
	Name(ctx context.Context) (string, error)
	CPUPercent(ctx context.Context) (float64, error)
	MemPercent(ctx context.Context) (float64, error)
	Terminate(ctx context.Context) error
	IsRunning(ctx context.Context) (bool, error)
	Detail(ctx context.Context) (model.ProcessDetail, error)
}

// psProc wraps *process.Process
type psProc struct {
	p *process.Process
}

func openProc(ctx context.Context, pid int32) (Proc, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, err
	}
	return &psProc{p: p}, nil
}

func (w *psProc) Name(ctx context.Context) (string, error) {
	return w.p.NameWithContext(ctx)
}

func (w *psProc) CPUPercent(ctx context.Context) (float64, error) {
	// interval 0: gopsutil keeps the previous cpu times on the Process
	return w.p.PercentWithContext(ctx, 0)
}

func (w *psProc) MemPercent(ctx context.Context) (float64, error) {
	pct, err := w.p.MemoryPercentWithContext(ctx)
	return float64(pct), err
}

func (w *psProc) Terminate(ctx context.Context) error {
	return w.p.TerminateWithContext(ctx)
}

func (w *psProc) IsRunning(ctx context.Context) (bool, error) {
	return w.p.IsRunningWithContext(ctx)
}

// Detail reads the extended field set. Only the name is required;
// the other fields stay empty when the OS refuses them.
func (w *psProc) Detail(ctx context.Context) (model.ProcessDetail, error) {
	name, err := w.p.NameWithContext(ctx)
	if err != nil {
		return model.ProcessDetail{}, err
	}

	d := model.ProcessDetail{PID: w.p.Pid, Name: name}

	if exe, err := w.p.ExeWithContext(ctx); err == nil {
		d.Exe = exe
	}
	if cmdline, err := w.p.CmdlineSliceWithContext(ctx); err == nil {
		d.Cmdline = cmdline
	}
	if status, err := w.p.StatusWithContext(ctx); err == nil {
		d.Status = strings.Join(status, ",")
	}
	if user, err := w.p.UsernameWithContext(ctx); err == nil {
		d.Username = user
	}
	if created, err := w.p.CreateTimeWithContext(ctx); err == nil {
		d.CreateTime = time.UnixMilli(created)
	}
	if cpuPct, err := w.CPUPercent(ctx); err == nil {
		d.CPUPercent = cpuPct
	}
	if memPct, err := w.MemPercent(ctx); err == nil {
		d.MemPercent = memPct
	}

	return d, nil
}

func systemCPUPercent(ctx context.Context) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, errors.New("cpu: empty result")
	}
	return pcts[0], nil
}

func systemMemPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// systemNetCounters sums all interfaces
func systemNetCounters(ctx context.Context) (sent, recv uint64, err error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return 0, 0, err
	}
	if len(counters) == 0 {
		return 0, 0, errors.New("net: no counters")
	}
	return counters[0].BytesSent, counters[0].BytesRecv, nil
}

func systemPids(ctx context.Context) ([]int32, error) {
	return process.PidsWithContext(ctx)
}

func systemProcessCount(ctx context.Context) (int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return len(procs), nil
}
