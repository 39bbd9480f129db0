package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/rusenback/hostmon/internal/collector"
	"github.com/rusenback/hostmon/internal/config"
	"github.com/rusenback/hostmon/internal/storage"
)

// queryTimeout bounds store reads issued from the UI
const queryTimeout = 5 * time.Second

// tickCmd schedules the next sampling tick for generation gen
func tickCmd(gen int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg{gen: gen, at: t}
	})
}

// sampleCmd runs one pipeline tick
func sampleCmd(ctx context.Context, s Sampler) tea.Cmd {
	return func() tea.Msg {
		res, err := s.Tick(ctx)
		return sampleMsg{res: res, err: err}
	}
}

// fetchHistoryCmd loads the most recent persisted samples
func fetchHistoryCmd(ctx context.Context, store HistoryReader) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()
		records, err := store.FetchRecent(ctx, historyRows)
		return historyMsg{records: records, err: err}
	}
}

// queryRangeCmd loads the stored series for a graph range
func queryRangeCmd(ctx context.Context, store HistoryReader, rangeIdx int) tea.Cmd {
	if store == nil || rangeIdx <= 0 || rangeIdx > len(storage.TimeRanges) {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()
		points, err := store.Query(ctx, storage.TimeRanges[rangeIdx-1])
		return rangeMsg{rangeIdx: rangeIdx, points: points, err: err}
	}
}

// processTickCmd schedules the next process list refresh
func processTickCmd(gen int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return processTickMsg{gen: gen}
	})
}

func listProcessesCmd(ctx context.Context, pm collector.ProcessManager, limit int) tea.Cmd {
	return func() tea.Msg {
		procs, err := pm.List(ctx, limit)
		return processesMsg{procs: procs, err: err}
	}
}

func terminateCmd(ctx context.Context, pm collector.ProcessManager, pid int32, name string) tea.Cmd {
	return func() tea.Msg {
		return terminatedMsg{pid: pid, name: name, err: pm.Terminate(ctx, pid)}
	}
}

func inspectCmd(ctx context.Context, pm collector.ProcessManager, pid int32) tea.Cmd {
	return func() tea.Msg {
		detail, err := pm.Inspect(ctx, pid)
		return inspectMsg{detail: detail, err: err}
	}
}

// waitForConfig waits for the next reloaded config from the watcher
func waitForConfig(ch <-chan config.Config) tea.Cmd {
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configMsg{cfg: cfg}
	}
}

func saveConfigCmd(fs afero.Fs, path string, cfg config.Config) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		return configSavedMsg{cfg: cfg, err: config.Save(fs, path, cfg)}
	}
}
