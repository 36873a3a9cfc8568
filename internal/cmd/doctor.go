package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/fscore/internal/config"
	"github.com/quantmind-br/fscore/internal/fsops"
	"github.com/quantmind-br/fscore/internal/history"
	"github.com/quantmind-br/fscore/internal/ui"
)

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and data directory health",
		Long:  `Check that the data directory, log file location and history database are usable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			var issues []string

			ui.PrintHeader("System Diagnostics")
			fmt.Println()

			// 1. Directory structure
			ui.PrintSubheader("Directories")
			dirs := []struct {
				path string
				name string
			}{
				{cfg.Paths.DataDir, "Data directory"},
				{filepath.Dir(cfg.Paths.DBFile), "History database directory"},
				{filepath.Dir(cfg.Paths.LogFile), "Log directory"},
			}

			for _, dir := range dirs {
				if err := fsops.EnsureDir(fs, dir.path, 0755); err != nil {
					ui.PrintError("%s: cannot create (%v)", dir.name, err)
					issues = append(issues, fmt.Sprintf("%s is not creatable: %s", dir.name, dir.path))
					continue
				}
				if err := fsops.CheckWritable(fs, dir.path); err != nil {
					ui.PrintError("%s: not writable", dir.name)
					issues = append(issues, fmt.Sprintf("%s is not writable: %s", dir.name, dir.path))
					continue
				}
				ui.PrintSuccess("%s: %s", dir.name, dir.path)
			}

			fmt.Println()

			// 2. History database
			ui.PrintSubheader("History Database")
			db, err := history.New(cmd.Context(), cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("history database: cannot open (%v)", err)
				issues = append(issues, fmt.Sprintf("history database unusable: %s", cfg.Paths.DBFile))
			} else {
				runs, listErr := db.ListRuns(cmd.Context(), 1)
				db.Close()
				if listErr != nil {
					ui.PrintError("history database: cannot query (%v)", listErr)
					issues = append(issues, "history database is not queryable")
				} else if len(runs) == 0 {
					ui.PrintSuccess("history database: ok (empty)")
				} else {
					ui.PrintSuccess("history database: ok")
				}
			}

			fmt.Println()

			// 3. Summary
			if len(issues) == 0 {
				ui.PrintSuccess("All checks passed")
				return nil
			}

			ui.PrintWarning("%d issue(s) found:", len(issues))
			for _, issue := range issues {
				fmt.Printf("  %s %s\n", ui.CrossMark, issue)
			}

			log.Warn().Int("issues", len(issues)).Msg("doctor found problems")
			return fmt.Errorf("%d issue(s) found", len(issues))
		},
	}

	return cmd
}
