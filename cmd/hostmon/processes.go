package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rusenback/hostmon/internal/collector"
	"github.com/rusenback/hostmon/internal/model"
)

// cliTimeout bounds one-shot queries
const cliTimeout = 10 * time.Second

func newPsCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		wait   time.Duration
		output string
	)

	cmd := &cobra.Command{
		Use:   "ps",
		Short: "List the busiest processes by CPU",
		Long: `ps takes two readings --wait apart so per-process CPU figures
cover that window, then prints the top --limit processes.`,
		Args: cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			return checkFormat(output)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer e.close()

			if limit <= 0 {
				limit = e.cfg.ProcessLimit
			}

			table := collector.NewProcessTable(collector.DefaultConfig(), e.logger)
			ctx := cmd.Context()

			// First pass only primes the CPU counters
			if _, err := table.List(ctx, limit); err != nil {
				return err
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}

			procs, err := table.List(ctx, limit)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), output, procs, func(tw *tabwriter.Writer) {
				writeProcesses(tw, procs)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of processes to show; 0 uses process_limit from the config file")
	cmd.Flags().DurationVar(&wait, "wait", time.Second, "time between the two CPU readings")
	addOutputFlag(cmd, &output)
	return cmd
}

func writeProcesses(tw *tabwriter.Writer, procs []model.ProcessInfo) {
	fmt.Fprintln(tw, "PID\tNAME\tCPU%\tMEM%")
	for _, p := range procs {
		name := p.Name
		if name == "" {
			name = "?"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\n", p.PID, name, p.CPUPercent, p.MemPercent)
	}
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "inspect PID",
		Short: "Show details of one process",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(*cobra.Command, []string) error {
			return checkFormat(output)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}

			e, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer e.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()

			table := collector.NewProcessTable(collector.DefaultConfig(), e.logger)
			detail, err := table.Inspect(ctx, pid)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), output, detail, func(tw *tabwriter.Writer) {
				writeDetail(tw, detail)
			})
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}

func writeDetail(tw *tabwriter.Writer, d model.ProcessDetail) {
	started := "-"
	if !d.CreateTime.IsZero() {
		started = fmt.Sprintf("%s (%s)", d.CreateTime.Format(time.DateTime), humanize.Time(d.CreateTime))
	}
	rows := [][2]string{
		{"PID", strconv.Itoa(int(d.PID))},
		{"Name", d.Name},
		{"Status", d.Status},
		{"User", d.Username},
		{"Exe", d.Exe},
		{"Cmdline", strings.Join(d.Cmdline, " ")},
		{"Started", started},
		{"CPU%", fmt.Sprintf("%.1f", d.CPUPercent)},
		{"MEM%", fmt.Sprintf("%.1f", d.MemPercent)},
	}
	for _, r := range rows {
		v := r[1]
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], v)
	}
}

func newKillCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "kill PID",
		Short: "Ask a process to exit and wait for it",
		Long: `kill sends a termination request and waits up to --timeout for the
process to exit. It never escalates to a forced kill.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}

			e, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer e.close()

			cfg := collector.DefaultConfig()
			cfg.TerminateTimeout = timeout
			table := collector.NewProcessTable(cfg, e.logger)

			if err := table.Terminate(cmd.Context(), pid); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "terminated pid %d\n", pid)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "how long to wait for the process to exit")
	return cmd
}

func parsePID(s string) (int32, error) {
	pid, err := strconv.ParseInt(s, 10, 32)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid %q", s)
	}
	return int32(pid), nil
}
