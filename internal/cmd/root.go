package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/fscore/internal/config"
	"github.com/quantmind-br/fscore/internal/history"
	"github.com/quantmind-br/fscore/internal/runner"
	"github.com/quantmind-br/fscore/internal/score"
	"github.com/quantmind-br/fscore/internal/ui"
)

// Sentinel errors main uses to pick the process exit code. They carry
// no message for the user: by the time they surface, every notice the
// run should emit has already been printed.
var (
	ErrNoFiles     = errors.New("no files to process")
	ErrIncomplete  = errors.New("not all files were scored")
	ErrInterrupted = errors.New("interrupted")
)

type rootOptions struct {
	quiet     bool
	verbose   bool
	algorithm string
	output    string
	progress  bool
	save      bool
}

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "fscore [files...]",
		Short: "Score files by size, line count or word count",
		Long: `fscore reads file paths from its arguments (or stdin when piped),
computes a normalized 0.0-1.0 score per file under the chosen algorithm,
and prints one "path: score" line per file.

Algorithms:
  size   bytes / 1024, capped at 1.0
  lines  text lines / 100, capped at 1.0 (binary files fall back to size)
  words  whitespace tokens / 500, capped at 1.0 (binary files fall back to size)`,
		Example: `  fscore notes.txt
  fscore -a lines src/*.go
  find . -name "*.md" | fscore -a words
  fscore -q large.bin && echo "scored"`,
		Args:          cobra.ArbitraryArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, args, cfg, log, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output, report through the exit code only")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print a progress notice per file to stderr")
	cmd.Flags().StringVarP(&opts.algorithm, "algorithm", "a", cfg.Scoring.Algorithm, "scoring algorithm: size, lines or words")
	cmd.Flags().StringVarP(&opts.output, "output", "o", cfg.Output.Format, "output format: plain, json or table")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "show a progress bar on stderr")
	cmd.Flags().BoolVar(&opts.save, "save", false, "record this run in the history database")

	// Add subcommands
	cmd.AddCommand(NewVersionCmd(version))
	cmd.AddCommand(NewHistoryCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, log))
	cmd.AddCommand(NewCompletionCmd(cfg, log))

	return cmd
}

// runScore implements the root command: resolve the file list, score
// it, and translate the outcome into one of the exit-code sentinels.
func runScore(cmd *cobra.Command, args []string, cfg *config.Config, log *zerolog.Logger, opts rootOptions) error {
	algo, err := score.ParseAlgorithm(opts.algorithm)
	if err != nil {
		if !opts.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}

	format, err := runner.ParseFormat(opts.output)
	if err != nil {
		if !opts.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}

	paths := resolvePaths(args, cmd.InOrStdin(), stdinIsTerminal())
	if len(paths) == 0 {
		if !opts.quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "No files to process")
		}
		return ErrNoFiles
	}

	log.Debug().
		Int("files", len(paths)).
		Str("algorithm", algo.String()).
		Bool("quiet", opts.quiet).
		Msg("starting batch")

	scorer := score.NewScorer(afero.NewOsFs(), log)
	batch := runner.New(scorer, cmd.OutOrStdout(), cmd.ErrOrStderr(), log)

	results, runErr := batch.Run(cmd.Context(), paths, runner.Options{
		Algorithm: algo,
		Quiet:     opts.quiet,
		Verbose:   opts.verbose,
		Format:    format,
		Progress:  opts.progress,
	})
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			if !opts.quiet {
				fmt.Fprintln(cmd.ErrOrStderr(), "Interrupted")
			}
			return ErrInterrupted
		}
		// Rendering failed, e.g. a closed output pipe.
		return fmt.Errorf("write results: %w", runErr)
	}

	if opts.save || cfg.History.Enabled {
		recordRun(cmd.Context(), cfg, log, opts.quiet, algo, len(paths), results)
	}

	// Quiet mode succeeds on any result; normal mode requires the
	// whole batch.
	if opts.quiet {
		if len(results) > 0 {
			return nil
		}
		return ErrIncomplete
	}
	if len(results) == len(paths) {
		return nil
	}
	return ErrIncomplete
}

// resolvePaths returns the explicit arguments, or one path per
// non-empty stdin line when no arguments were given and stdin is piped.
func resolvePaths(args []string, stdin io.Reader, stdinTTY bool) []string {
	if len(args) > 0 {
		return args
	}
	if stdinTTY {
		return nil
	}

	var paths []string
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// recordRun persists a finished batch. History is best-effort: a
// failure here must never change the scoring outcome.
func recordRun(ctx context.Context, cfg *config.Config, log *zerolog.Logger, quiet bool, algo score.Algorithm, requested int, results []score.Result) {
	db, err := history.New(ctx, cfg.Paths.DBFile)
	if err != nil {
		log.Debug().Err(err).Msg("open history database failed")
		if !quiet {
			ui.PrintWarning("could not record run: %v", err)
		}
		return
	}
	defer db.Close()

	if _, err := db.Record(ctx, algo.String(), requested, results); err != nil {
		log.Debug().Err(err).Msg("record run failed")
		if !quiet {
			ui.PrintWarning("could not record run: %v", err)
		}
	}
}
