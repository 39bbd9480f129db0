package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rusenback/hostmon/internal/config"
	"github.com/rusenback/hostmon/internal/scheduler"
)

func newRecordCmd(opts *rootOptions) *cobra.Command {
	var interval int

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record samples to the database without the interactive view",
		Long: `record runs the sampling pipeline on the configured interval until
interrupted. Edits to the config file change the interval on the fly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecord(cmd.Context(), opts, interval)
		},
	}

	cmd.Flags().IntVar(&interval, "interval", 0, "sampling interval in seconds, overrides the config file")
	return cmd
}

func runRecord(ctx context.Context, opts *rootOptions, interval int) error {
	e, err := opts.setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	if interval != 0 {
		cfg := e.cfg.WithInterval(interval)
		if cfg.IntervalSeconds != interval {
			e.logger.Warn("interval out of range, clamped",
				zap.Int("requested", interval), zap.Int("using", cfg.IntervalSeconds))
		}
		e.cfg = cfg
	}

	store, err := e.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	pipe := e.newPipeline(store)

	sched := scheduler.New(func(ctx context.Context) {
		res, err := pipe.Tick(ctx)
		if err != nil {
			// Already logged by the pipeline
			return
		}
		e.logger.Info("sample recorded",
			zap.Int64("id", res.ID),
			zap.Float64("cpu", res.Point.Sample.CPUPercent),
			zap.Float64("mem", res.Point.Sample.MemPercent),
			zap.Float64("net_kbps", res.Point.RateKBps),
			zap.Int("processes", res.Point.Sample.Processes))
	}, e.logger)

	if err := sched.Start(ctx, e.cfg.IntervalSeconds); err != nil {
		return err
	}
	defer sched.Stop()

	// An explicit --interval pins the period
	if interval == 0 {
		if updates := watchConfig(ctx, e); updates != nil {
			go followConfig(ctx, updates, sched, e.logger)
		}
	}

	<-ctx.Done()
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	e.logger.Info("recording stopped")
	return nil
}

func followConfig(ctx context.Context, updates <-chan config.Config, sched *scheduler.Scheduler, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-updates:
			if err := sched.Reconfigure(cfg.IntervalSeconds); err != nil {
				logger.Error("applying new interval failed", zap.Error(err))
			}
		}
	}
}
