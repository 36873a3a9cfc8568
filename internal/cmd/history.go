package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/fscore/internal/config"
	"github.com/quantmind-br/fscore/internal/history"
	"github.com/quantmind-br/fscore/internal/ui"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scoring runs",
		Long:  `List past scoring runs recorded with --save or history.enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := history.New(cmd.Context(), cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("failed to open history database: %v", err)
				return fmt.Errorf("open history: %w", err)
			}
			defer db.Close()

			runs, err := db.ListRuns(cmd.Context(), limit)
			if err != nil {
				ui.PrintError("failed to list runs: %v", err)
				return fmt.Errorf("list runs: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			if len(runs) == 0 {
				ui.PrintInfo("No recorded runs")
				return nil
			}

			table := tablewriter.NewTable(cmd.OutOrStdout(),
				tablewriter.WithHeader([]string{"Run", "Algorithm", "Started", "Scored"}),
				tablewriter.WithAlignment(tw.MakeAlign(4, tw.AlignLeft)),
				tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
			)

			for _, run := range runs {
				table.Append(
					fmt.Sprintf("%d", run.RunID),
					run.Algorithm,
					run.StartedAt.Format("2006-01-02 15:04"),
					fmt.Sprintf("%d/%d", run.Scored, run.Requested),
				)
			}

			return table.Render()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to show (0 = all)")

	cmd.AddCommand(newHistoryShowCmd(cfg, log))
	cmd.AddCommand(newHistoryClearCmd(cfg, log))

	return cmd
}

// newHistoryShowCmd lists the per-file scores of one recorded run
func newHistoryShowCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show the per-file scores of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}

			db, err := history.New(cmd.Context(), cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("failed to open history database: %v", err)
				return fmt.Errorf("open history: %w", err)
			}
			defer db.Close()

			entries, err := db.Entries(cmd.Context(), runID)
			if err != nil {
				ui.PrintError("failed to load run %d: %v", runID, err)
				return fmt.Errorf("load entries: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				ui.PrintInfo("No entries for run %d", runID)
				return nil
			}

			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %.3f\n", entry.Path, entry.Score)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}

// newHistoryClearCmd empties the history database
func newHistoryClearCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := history.New(cmd.Context(), cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("failed to open history database: %v", err)
				return fmt.Errorf("open history: %w", err)
			}
			defer db.Close()

			if err := db.Clear(cmd.Context()); err != nil {
				ui.PrintError("failed to clear history: %v", err)
				return fmt.Errorf("clear history: %w", err)
			}

			log.Info().Msg("history cleared")
			ui.PrintSuccess("History cleared")
			return nil
		},
	}
}
