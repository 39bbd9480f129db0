package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/rusenback/hostmon/internal/collector"
	"github.com/rusenback/hostmon/internal/config"
	"github.com/rusenback/hostmon/internal/model"
	"github.com/rusenback/hostmon/internal/pipeline"
	"github.com/rusenback/hostmon/internal/storage"
)

// Sampler runs one pipeline tick
type Sampler interface {
	Tick(ctx context.Context) (pipeline.Result, error)
}

// HistoryReader reads persisted samples
type HistoryReader interface {
	FetchRecent(ctx context.Context, limit int) ([]model.Record, error)
	Query(ctx context.Context, timeRange storage.TimeRange) ([]storage.DataPoint, error)
}

// Options wires the TUI to the core
type Options struct {
	Sampler    Sampler
	Store      HistoryReader
	Processes  collector.ProcessManager
	Config     config.Config
	ConfigFS   afero.Fs
	ConfigPath string
	// ConfigUpdates delivers reloaded configs from a file watcher; may be nil
	ConfigUpdates <-chan config.Config
	Logger        *zap.Logger
}

type viewMode int

const (
	viewMain viewMode = iota
	viewProcesses
)

// historyRows is how many persisted samples the history panel requests
const historyRows = 50

// maxEvents caps the events panel backlog
const maxEvents = 200

// Model represents the TUI application state
type Model struct {
	ctx    context.Context
	opts   Options
	logger *zap.Logger
	cfg    config.Config

	width  int
	height int
	mode   viewMode
	keys   keyMap
	help   help.Model

	// gen invalidates sampling ticks scheduled under an older interval
	gen int
	// procGen does the same for the process refresh tick
	procGen int

	latest  *pipeline.Point
	history []pipeline.Point
	records []model.Record

	// rangeIdx 0 is live; 1..5 select storage.TimeRanges
	rangeIdx    int
	rangePoints []storage.DataPoint

	events       []event
	eventsScroll int

	procs        []model.ProcessInfo
	procTable    table.Model
	detail       *model.ProcessDetail
	confirmPID   int32
	confirmName  string
	procsLoading bool
}

// Message types for Bubbletea update loop
type tickMsg struct {
	gen int
	at  time.Time
}

type sampleMsg struct {
	res pipeline.Result
	err error
}

type historyMsg struct {
	records []model.Record
	err     error
}

type rangeMsg struct {
	rangeIdx int
	points   []storage.DataPoint
	err      error
}

type processTickMsg struct {
	gen int
}

type processesMsg struct {
	procs []model.ProcessInfo
	err   error
}

type terminatedMsg struct {
	pid  int32
	name string
	err  error
}

type inspectMsg struct {
	detail model.ProcessDetail
	err    error
}

type configMsg struct {
	cfg config.Config
}

type configSavedMsg struct {
	cfg config.Config
	err error
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ConfigFS == nil {
		opts.ConfigFS = afero.NewOsFs()
	}

	return Model{
		ctx:       ctx,
		opts:      opts,
		logger:    logger,
		cfg:       opts.Config,
		keys:      keys,
		help:      help.New(),
		procTable: newProcessTable(),
	}
}

// Init takes the first sample right away and starts the tick loop
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		sampleCmd(m.ctx, m.opts.Sampler),
		tickCmd(m.gen, m.cfg.Interval()),
		fetchHistoryCmd(m.ctx, m.opts.Store),
	}
	if m.opts.ConfigUpdates != nil {
		cmds = append(cmds, waitForConfig(m.opts.ConfigUpdates))
	}
	return tea.Batch(cmds...)
}
