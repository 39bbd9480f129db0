package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rusenback/hostmon/internal/model"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent stored samples, newest first",
		Args:  cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			return checkFormat(output)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer e.close()

			store, err := e.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()

			records, err := store.FetchRecent(ctx, limit)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), output, records, func(tw *tabwriter.Writer) {
				writeRecords(tw, records)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of samples to show")
	addOutputFlag(cmd, &output)
	return cmd
}

func writeRecords(tw *tabwriter.Writer, records []model.Record) {
	fmt.Fprintln(tw, "ID\tTIME\tCPU%\tMEM%\tSENT\tRECV\tPROCS")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%s\t%s\t%d\n",
			r.ID,
			r.Timestamp.Format("2006-01-02 15:04:05.000"),
			r.CPUPercent,
			r.MemPercent,
			humanize.IBytes(r.NetSent),
			humanize.IBytes(r.NetRecv),
			r.Processes)
	}
}
