package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rusenback/hostmon/internal/collector"
	"github.com/rusenback/hostmon/internal/config"
	"github.com/rusenback/hostmon/internal/storage"
)

// Update handles messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeProcessTable()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		// Ticks from before the last interval change are dropped
		if msg.gen != m.gen {
			return m, nil
		}
		return m, tea.Batch(sampleCmd(m.ctx, m.opts.Sampler), tickCmd(m.gen, m.cfg.Interval()))

	case sampleMsg:
		return m.handleSample(msg)

	case historyMsg:
		if msg.err != nil {
			m.logger.Warn("loading history failed", zap.Error(msg.err))
			m.addEvent(levelWarn, fmt.Sprintf("History unavailable: %v", msg.err))
			return m, nil
		}
		m.records = msg.records
		return m, nil

	case rangeMsg:
		if msg.rangeIdx != m.rangeIdx {
			return m, nil
		}
		if msg.err != nil {
			m.addEvent(levelWarn, fmt.Sprintf("Range query failed: %v", msg.err))
			return m, nil
		}
		m.rangePoints = msg.points
		return m, nil

	case processTickMsg:
		if msg.gen != m.procGen || m.mode != viewProcesses {
			return m, nil
		}
		return m, tea.Batch(
			listProcessesCmd(m.ctx, m.opts.Processes, m.cfg.ProcessLimit),
			processTickCmd(m.procGen, m.cfg.ProcessRefresh()),
		)

	case processesMsg:
		m.procsLoading = false
		if msg.err != nil {
			m.addEvent(levelError, fmt.Sprintf("Process list failed: %v", msg.err))
			return m, nil
		}
		m.setProcesses(msg.procs)
		return m, nil

	case terminatedMsg:
		var termErr *collector.TerminationError
		switch {
		case msg.err == nil:
			m.addEvent(levelInfo, fmt.Sprintf("Terminated %s (pid %d)", msg.name, msg.pid))
		case errors.As(msg.err, &termErr):
			m.addEvent(levelError, fmt.Sprintf("Could not terminate %s: %v", msg.name, termErr))
		default:
			m.addEvent(levelError, fmt.Sprintf("Could not terminate %s: %v", msg.name, msg.err))
		}
		if m.mode != viewProcesses {
			return m, nil
		}
		return m, listProcessesCmd(m.ctx, m.opts.Processes, m.cfg.ProcessLimit)

	case inspectMsg:
		if msg.err != nil {
			m.detail = nil
			m.addEvent(levelWarn, fmt.Sprintf("Inspect failed: %v", msg.err))
			return m, nil
		}
		d := msg.detail
		m.detail = &d
		m.resizeProcessTable()
		return m, nil

	case configMsg:
		var cmd tea.Cmd
		if msg.cfg != m.cfg {
			m.addEvent(levelInfo, fmt.Sprintf("Config reloaded (interval %ds)", msg.cfg.IntervalSeconds))
			cmd = m.applyConfig(msg.cfg)
		}
		return m, tea.Batch(cmd, waitForConfig(m.opts.ConfigUpdates))

	case configSavedMsg:
		if msg.err != nil {
			m.logger.Error("saving config failed", zap.Error(msg.err))
			m.addEvent(levelError, fmt.Sprintf("Saving config failed: %v", msg.err))
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleSample(msg sampleMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil && errors.Is(msg.err, collector.ErrSourceUnavailable) {
		// Keep the previous values on screen
		m.addEvent(levelWarn, fmt.Sprintf("Sample skipped: %v", msg.err))
		return m, nil
	}

	p := msg.res.Point
	m.latest = &p
	m.history = msg.res.History

	var perr *storage.PersistenceError
	if errors.As(msg.err, &perr) {
		m.addEvent(levelError, fmt.Sprintf("Sample not saved: %v", perr))
		return m, nil
	} else if msg.err != nil {
		m.addEvent(levelError, msg.err.Error())
		return m, nil
	}

	cmds := []tea.Cmd{fetchHistoryCmd(m.ctx, m.opts.Store)}
	if m.rangeIdx > 0 {
		cmds = append(cmds, queryRangeCmd(m.ctx, m.opts.Store, m.rangeIdx))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// A pending terminate confirmation captures y/n
	if m.confirmPID != 0 {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			pid, name := m.confirmPID, m.confirmName
			m.confirmPID, m.confirmName = 0, ""
			m.addEvent(levelInfo, fmt.Sprintf("Terminating %s (pid %d)...", name, pid))
			return m, terminateCmd(m.ctx, m.opts.Processes, pid, name)
		case key.Matches(msg, m.keys.Cancel):
			m.confirmPID, m.confirmName = 0, ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Shorter):
		cmd := m.changeInterval(-1)
		return m, cmd

	case key.Matches(msg, m.keys.Longer):
		cmd := m.changeInterval(1)
		return m, cmd
	}

	if m.mode == viewProcesses {
		return m.handleProcessKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Processes):
		m.mode = viewProcesses
		m.procGen++
		m.procsLoading = true
		m.detail = nil
		return m, tea.Batch(
			listProcessesCmd(m.ctx, m.opts.Processes, m.cfg.ProcessLimit),
			processTickCmd(m.procGen, m.cfg.ProcessRefresh()),
		)

	case key.Matches(msg, m.keys.Live):
		m.rangeIdx = 0
		m.rangePoints = nil

	case key.Matches(msg, m.keys.Range):
		idx, _ := strconv.Atoi(msg.String())
		m.rangeIdx = idx
		m.rangePoints = nil
		return m, queryRangeCmd(m.ctx, m.opts.Store, idx)

	case key.Matches(msg, m.keys.EventsUp):
		m.scrollEvents(m.visibleEventLines() / 2)

	case key.Matches(msg, m.keys.EventsDn):
		m.scrollEvents(-m.visibleEventLines() / 2)
	}

	return m, nil
}

func (m Model) handleProcessKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.detail != nil {
			m.detail = nil
			m.resizeProcessTable()
			return m, nil
		}
		m.mode = viewMain
		// Stops the refresh tick
		m.procGen++
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.procsLoading = true
		return m, listProcessesCmd(m.ctx, m.opts.Processes, m.cfg.ProcessLimit)

	case key.Matches(msg, m.keys.Inspect):
		if p, ok := m.selectedProcess(); ok {
			return m, inspectCmd(m.ctx, m.opts.Processes, p.PID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Terminate):
		if p, ok := m.selectedProcess(); ok {
			m.confirmPID = p.PID
			m.confirmName = p.Name
			if m.confirmName == "" {
				m.confirmName = "?"
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.procTable, cmd = m.procTable.Update(msg)
	return m, cmd
}

// changeInterval moves the sampling interval one step and persists it
func (m *Model) changeInterval(dir int) tea.Cmd {
	cur := m.cfg.IntervalSeconds
	next := m.cfg.WithInterval(cur + dir*intervalStep(cur, dir))
	if next == m.cfg {
		return nil
	}
	m.addEvent(levelInfo, fmt.Sprintf("Interval %ds", next.IntervalSeconds))
	return tea.Batch(m.applyConfig(next), saveConfigCmd(m.opts.ConfigFS, m.opts.ConfigPath, next))
}

// applyConfig replaces the live config and restarts the timers it affects
func (m *Model) applyConfig(cfg config.Config) tea.Cmd {
	old := m.cfg
	m.cfg = cfg

	var cmds []tea.Cmd
	if cfg.IntervalSeconds != old.IntervalSeconds {
		m.gen++
		cmds = append(cmds, tickCmd(m.gen, cfg.Interval()))
	}
	if cfg.ProcessRefreshSeconds != old.ProcessRefreshSeconds && m.mode == viewProcesses {
		m.procGen++
		cmds = append(cmds, processTickCmd(m.procGen, cfg.ProcessRefresh()))
	}
	m.resizeProcessTable()
	return tea.Batch(cmds...)
}

// intervalStep grows with the interval so +/- stays useful from 1s to an hour
func intervalStep(cur, dir int) int {
	switch {
	case cur > 300 || (cur == 300 && dir > 0):
		return 60
	case cur > 60 || (cur == 60 && dir > 0):
		return 15
	case cur > 10 || (cur == 10 && dir > 0):
		return 5
	default:
		return 1
	}
}
