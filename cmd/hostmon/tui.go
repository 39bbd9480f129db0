package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rusenback/hostmon/internal/collector"
	"github.com/rusenback/hostmon/internal/config"
	"github.com/rusenback/hostmon/internal/tui"
)

func runTUI(ctx context.Context, opts *rootOptions) error {
	e, err := opts.setup(true)
	if err != nil {
		return err
	}
	defer e.close()

	store, err := e.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := watchConfig(ctx, e)

	m := tui.NewModel(ctx, tui.Options{
		Sampler:       e.newPipeline(store),
		Store:         store,
		Processes:     collector.NewProcessTable(collector.DefaultConfig(), e.logger),
		Config:        e.cfg,
		ConfigFS:      e.fs,
		ConfigPath:    e.configPath,
		ConfigUpdates: updates,
		Logger:        e.logger,
	})

	e.logger.Info("interactive view started")

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		// Interrupted by a signal
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// watchConfig forwards reloaded configs until ctx is done.
// It returns nil when the file cannot be watched.
func watchConfig(ctx context.Context, e *env) <-chan config.Config {
	w, err := config.NewWatcher(e.fs, e.configPath, e.logger)
	if err != nil {
		e.logger.Warn("config changes will not be picked up", zap.Error(err))
		return nil
	}

	ch := make(chan config.Config, 1)
	go w.Run(ctx, func(cfg config.Config) {
		select {
		case ch <- cfg:
		case <-ctx.Done():
		}
	})
	return ch
}
