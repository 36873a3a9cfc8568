package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog"

	"github.com/quantmind-br/fscore/internal/score"
	"github.com/quantmind-br/fscore/internal/ui"
)

// Format selects how successful results are rendered.
type Format string

const (
	FormatPlain Format = "plain"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat validates an output format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatPlain, FormatJSON, FormatTable:
		return Format(name), nil
	}
	return "", fmt.Errorf("%w: unknown output format %q (expected plain, json or table)", score.ErrInvalidInput, name)
}

// Options controls a single batch run.
type Options struct {
	Algorithm score.Algorithm
	Quiet     bool
	Verbose   bool
	Format    Format
	Progress  bool
}

// Runner scores batches of files sequentially, in input order.
type Runner struct {
	scorer score.Scorer
	out    io.Writer
	errOut io.Writer
	logger *zerolog.Logger
}

// New creates a Runner writing results to out and notices to errOut.
func New(scorer score.Scorer, out, errOut io.Writer, logger *zerolog.Logger) *Runner {
	return &Runner{
		scorer: scorer,
		out:    out,
		errOut: errOut,
		logger: logger,
	}
}

// Run scores every path and returns the successful results in input
// order. Per-file failures are reported to the diagnostic stream and
// skipped; Run itself only fails when the context is cancelled.
func (r *Runner) Run(ctx context.Context, paths []string, opts Options) ([]score.Result, error) {
	if opts.Format == "" {
		opts.Format = FormatPlain
	}

	var bar *ui.ProgressBar
	if opts.Progress && !opts.Quiet {
		bar = ui.NewCountBar(len(paths), "scoring files")
	}

	results := make([]score.Result, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			if bar != nil {
				bar.Clear()
			}
			return results, err
		}

		if opts.Verbose && !opts.Quiet {
			fmt.Fprintf(r.errOut, "Processing: %s\n", path)
		}

		value, err := r.scorer.Score(path, opts.Algorithm)
		if err != nil {
			if r.logger != nil {
				r.logger.Debug().Err(err).Str("file", path).Msg("scoring failed")
			}
			if !opts.Quiet {
				fmt.Fprintf(r.errOut, "Error processing %s: %v\n", path, err)
			}
			if bar != nil {
				bar.Add(1)
			}
			continue
		}

		results = append(results, score.Result{Path: path, Score: value})
		if r.logger != nil {
			r.logger.Debug().Str("file", path).Float64("score", value).Msg("scored file")
		}

		if !opts.Quiet && opts.Format == FormatPlain {
			fmt.Fprintf(r.out, "%s: %.3f\n", path, value)
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	if bar != nil {
		bar.Finish()
	}

	if !opts.Quiet && opts.Format != FormatPlain {
		if err := r.render(results, opts.Format); err != nil {
			return results, err
		}
	}

	return results, nil
}

// render writes the collected results in a non-plain format.
func (r *Runner) render(results []score.Result, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case FormatTable:
		table := tablewriter.NewTable(r.out,
			tablewriter.WithHeader([]string{"File", "Score"}),
			tablewriter.WithAlignment(tw.MakeAlign(2, tw.AlignLeft)),
			tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
		)
		for _, result := range results {
			table.Append(result.Path, fmt.Sprintf("%.3f", result.Score))
		}
		return table.Render()
	}
	return nil
}
