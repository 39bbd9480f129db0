package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/rusenback/hostmon/internal/collector"
	"github.com/rusenback/hostmon/internal/config"
	"github.com/rusenback/hostmon/internal/model"
	"github.com/rusenback/hostmon/internal/pipeline"
	"github.com/rusenback/hostmon/internal/storage"
)

type fakeSampler struct{}

func (fakeSampler) Tick(context.Context) (pipeline.Result, error) {
	return pipeline.Result{}, nil
}

type fakeStore struct{}

func (fakeStore) FetchRecent(context.Context, int) ([]model.Record, error) { return nil, nil }

func (fakeStore) Query(context.Context, storage.TimeRange) ([]storage.DataPoint, error) {
	return nil, nil
}

type fakeProcesses struct {
	terminated []int32
	termErr    error
}

func (f *fakeProcesses) List(context.Context, int) ([]model.ProcessInfo, error) {
	return []model.ProcessInfo{{PID: 1, Name: "init"}}, nil
}

func (f *fakeProcesses) Terminate(_ context.Context, pid int32) error {
	f.terminated = append(f.terminated, pid)
	return f.termErr
}

func (f *fakeProcesses) Inspect(_ context.Context, pid int32) (model.ProcessDetail, error) {
	return model.ProcessDetail{PID: pid, Name: "proc"}, nil
}

func newTestModel(procs *fakeProcesses) Model {
	m := NewModel(context.Background(), Options{
		Sampler:    fakeSampler{},
		Store:      fakeStore{},
		Processes:  procs,
		Config:     config.Default(),
		ConfigFS:   afero.NewMemMapFs(),
		ConfigPath: "/data/config.json",
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 45})
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func point(sec int, cpu float64) pipeline.Point {
	return pipeline.Point{
		Sample: model.Sample{
			Timestamp:  time.Date(2024, 1, 1, 0, 0, sec, 0, time.UTC),
			CPUPercent: cpu,
			MemPercent: 50,
			NetSent:    1 << 20,
			NetRecv:    2 << 20,
			Processes:  123,
		},
		RateKBps: 1.5,
	}
}

func lastEvent(m Model) event {
	if len(m.events) == 0 {
		return event{}
	}
	return m.events[len(m.events)-1]
}

func TestSampleMessages(t *testing.T) {
	m := newTestModel(&fakeProcesses{})

	first := point(0, 10)
	next, cmd := m.Update(sampleMsg{res: pipeline.Result{Point: first, ID: 1, History: []pipeline.Point{first}}})
	m = next.(Model)
	if m.latest == nil || m.latest.Sample.CPUPercent != 10 {
		t.Fatalf("latest = %+v", m.latest)
	}
	if cmd == nil {
		t.Error("successful sample did not refresh history")
	}

	t.Run("source unavailable keeps values", func(t *testing.T) {
		err := fmt.Errorf("%w: cpu: gone", collector.ErrSourceUnavailable)
		next, _ := m.Update(sampleMsg{err: err})
		got := next.(Model)
		if got.latest == nil || got.latest.Sample.CPUPercent != 10 {
			t.Errorf("latest changed to %+v", got.latest)
		}
		if len(got.history) != 1 {
			t.Errorf("history len = %d, want 1", len(got.history))
		}
		if e := lastEvent(got); e.level != levelWarn {
			t.Errorf("event = %+v, want warning", e)
		}
	})

	t.Run("persistence failure still shows sample", func(t *testing.T) {
		second := point(5, 20)
		err := &storage.PersistenceError{Op: "insert", Err: errors.New("disk full")}
		next, _ := m.Update(sampleMsg{
			res: pipeline.Result{Point: second, History: []pipeline.Point{first, second}},
			err: err,
		})
		got := next.(Model)
		if got.latest.Sample.CPUPercent != 20 || len(got.history) != 2 {
			t.Errorf("latest = %+v, history = %d", got.latest, len(got.history))
		}
		e := lastEvent(got)
		if e.level != levelError || !strings.Contains(e.text, "disk full") {
			t.Errorf("event = %+v", e)
		}
	})
}

func TestStaleTickDropped(t *testing.T) {
	m := newTestModel(&fakeProcesses{})
	m.gen = 3

	if _, cmd := m.Update(tickMsg{gen: 2}); cmd != nil {
		t.Error("stale tick produced a command")
	}
	if _, cmd := m.Update(tickMsg{gen: 3}); cmd == nil {
		t.Error("current tick produced no command")
	}
}

func TestIntervalKeys(t *testing.T) {
	m := newTestModel(&fakeProcesses{})

	next, cmd := m.Update(runes("+"))
	m = next.(Model)
	if m.cfg.IntervalSeconds != 6 {
		t.Errorf("interval = %d, want 6", m.cfg.IntervalSeconds)
	}
	if m.gen != 1 {
		t.Errorf("gen = %d, want 1", m.gen)
	}
	if cmd == nil {
		t.Error("interval change produced no command")
	}

	m.cfg = m.cfg.WithInterval(1)
	if _, cmd := m.Update(runes("-")); cmd != nil {
		t.Error("decrement below 1s produced a command")
	}
}

func TestSaveConfigCmd(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := config.Default().WithInterval(30)

	msg := saveConfigCmd(fs, "/data/config.json", cfg)()
	saved, ok := msg.(configSavedMsg)
	if !ok || saved.err != nil {
		t.Fatalf("msg = %#v", msg)
	}
	if got := config.Load(fs, "/data/config.json", nil); got != cfg {
		t.Errorf("saved config = %+v, want %+v", got, cfg)
	}
}

func TestConfigReload(t *testing.T) {
	m := newTestModel(&fakeProcesses{})
	m.opts.ConfigUpdates = make(chan config.Config)

	cfg := config.Default()
	cfg.IntervalSeconds = 60
	cfg.Tray = false

	next, _ := m.Update(configMsg{cfg: cfg})
	m = next.(Model)
	if m.cfg != cfg {
		t.Errorf("cfg = %+v, want %+v", m.cfg, cfg)
	}
	if m.gen != 1 {
		t.Errorf("gen = %d, want 1", m.gen)
	}

	// Same config again is a no-op
	next, _ = m.Update(configMsg{cfg: cfg})
	if next.(Model).gen != 1 {
		t.Error("identical config restarted the timer")
	}
}

func TestProcessViewTerminate(t *testing.T) {
	procs := &fakeProcesses{}
	m := newTestModel(procs)

	next, _ := m.Update(runes("p"))
	m = next.(Model)
	if m.mode != viewProcesses {
		t.Fatalf("mode = %v, want processes", m.mode)
	}

	next, _ = m.Update(processesMsg{procs: []model.ProcessInfo{
		{PID: 42, Name: "busy", CPUPercent: 90},
		{PID: 7, Name: "idle"},
	}})
	m = next.(Model)
	if len(m.procTable.Rows()) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.procTable.Rows()))
	}

	next, cmd := m.Update(runes("x"))
	m = next.(Model)
	if m.confirmPID != 42 || cmd != nil {
		t.Fatalf("confirmPID = %d, cmd = %v", m.confirmPID, cmd)
	}

	next, cmd = m.Update(runes("y"))
	m = next.(Model)
	if m.confirmPID != 0 || cmd == nil {
		t.Fatalf("confirm did not issue terminate")
	}

	msg := cmd()
	if len(procs.terminated) != 1 || procs.terminated[0] != 42 {
		t.Errorf("terminated = %v, want [42]", procs.terminated)
	}

	next, _ = m.Update(msg)
	m = next.(Model)
	if e := lastEvent(m); e.level != levelInfo || !strings.Contains(e.text, "pid 42") {
		t.Errorf("event = %+v", e)
	}
}

func TestProcessViewTerminateFailure(t *testing.T) {
	m := newTestModel(&fakeProcesses{})
	m.mode = viewProcesses

	err := &collector.TerminationError{PID: 9, Err: collector.ErrAccessDenied}
	next, _ := m.Update(terminatedMsg{pid: 9, name: "sshd", err: err})
	m = next.(Model)

	e := lastEvent(m)
	if e.level != levelError || !strings.Contains(e.text, "access denied") {
		t.Errorf("event = %+v", e)
	}
}

func TestProcessViewCancelAndBack(t *testing.T) {
	m := newTestModel(&fakeProcesses{})
	next, _ := m.Update(runes("p"))
	next, _ = next.(Model).Update(processesMsg{procs: []model.ProcessInfo{{PID: 5, Name: "cron"}}})
	m = next.(Model)

	next, _ = m.Update(runes("x"))
	next, _ = next.(Model).Update(runes("n"))
	m = next.(Model)
	if m.confirmPID != 0 {
		t.Error("cancel left confirmation pending")
	}

	gen := m.procGen
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.mode != viewMain || m.procGen == gen {
		t.Errorf("mode = %v, procGen = %d", m.mode, m.procGen)
	}
	if _, cmd := m.Update(processTickMsg{gen: gen}); cmd != nil {
		t.Error("process tick still running after leaving the view")
	}
}

func TestRangeSelection(t *testing.T) {
	m := newTestModel(&fakeProcesses{})

	next, cmd := m.Update(runes("3"))
	m = next.(Model)
	if m.rangeIdx != 3 || cmd == nil {
		t.Fatalf("rangeIdx = %d, cmd = %v", m.rangeIdx, cmd)
	}

	// A late answer for another range is ignored
	next, _ = m.Update(rangeMsg{rangeIdx: 2, points: []storage.DataPoint{{CPUPercent: 1}}})
	if len(next.(Model).rangePoints) != 0 {
		t.Error("stale range result applied")
	}

	next, _ = m.Update(rangeMsg{rangeIdx: 3, points: []storage.DataPoint{{CPUPercent: 1}, {CPUPercent: 2}}})
	m = next.(Model)
	if sr := m.graphSeries(); sr.label != "6hours" || len(sr.cpu) != 2 || sr.rates != nil {
		t.Errorf("series = %+v", sr)
	}

	next, _ = m.Update(runes("0"))
	if sr := next.(Model).graphSeries(); sr.label != "live" {
		t.Errorf("label = %q, want live", sr.label)
	}
}

func TestViewRenders(t *testing.T) {
	m := newTestModel(&fakeProcesses{})
	history := []pipeline.Point{point(0, 10), point(5, 30), point(10, 70)}
	next, _ := m.Update(sampleMsg{res: pipeline.Result{Point: history[2], History: history}})
	m = next.(Model)
	m.addEvent(levelError, "Could not terminate sshd (pid 9): access denied")

	out := m.View()
	for _, want := range []string{"hostmon ▸ CPU 70.0%", "Resource Usage - live", "Events", "pid 9"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m.cfg.Tray = false
	if strings.Contains(m.View(), "hostmon ▸") {
		t.Error("tray bar shown with tray off")
	}
}

func TestViewNarrowWindows(t *testing.T) {
	sizes := []struct{ w, h int }{
		{12, 40},
		{1, 1},
		{5, 3},
		{30, 10},
		{80, 2},
	}

	history := []pipeline.Point{point(0, 10), point(5, 30)}
	records := []model.Record{{ID: 1, Sample: history[1].Sample}}
	procs := []model.ProcessInfo{{PID: 1, Name: "init", CPUPercent: 1}}

	for _, size := range sizes {
		t.Run(fmt.Sprintf("%dx%d", size.w, size.h), func(t *testing.T) {
			m := newTestModel(&fakeProcesses{})
			next, _ := m.Update(sampleMsg{res: pipeline.Result{Point: history[1], History: history}})
			next, _ = next.Update(historyMsg{records: records})
			m = next.(Model)
			m.addEvent(levelWarn, "Sample skipped: source unavailable")

			next, _ = m.Update(tea.WindowSizeMsg{Width: size.w, Height: size.h})
			m = next.(Model)
			if out := m.View(); out == "" {
				t.Error("empty main view")
			}

			m.mode = viewProcesses
			m.setProcesses(procs)
			m.resizeProcessTable()
			if out := m.View(); out == "" {
				t.Error("empty process view")
			}
		})
	}
}
