// Package runner drives a batch: extract every sampled archive, then analyze
// every extracted report, isolating failures per unit.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bgricker/wmstats/internal/archive"
	"github.com/bgricker/wmstats/internal/output"
	"github.com/bgricker/wmstats/internal/report"
	"github.com/bgricker/wmstats/internal/stats"
	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/stat"
)

// Options configure how the runner processes archives.
type Options struct {
	// WorkDir receives extracted reports.
	WorkDir   string
	Member    string
	Extractor *stats.Extractor
	Renderer  output.Renderer
	Logger    *slog.Logger
	// Progress, when set, receives a progress bar for the extraction phase.
	Progress io.Writer
	Now      func() time.Time
}

// Runner processes archives sequentially.
type Runner struct {
	opts Options
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.Extractor == nil {
		opts.Extractor = stats.New(stats.Options{})
	}
	if opts.Renderer == nil {
		opts.Renderer = output.NewPretty(io.Discard)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{opts: opts}
}

// Run extracts and analyzes archives. Per-archive and per-report failures
// are rendered and counted; only renderer errors and cancellation abort.
func (r *Runner) Run(ctx context.Context, archives []string) (report.Summary, error) {
	start := r.opts.Now()
	summary := report.Summary{Candidates: len(archives)}

	extractions, err := r.extractAll(ctx, archives)
	if err != nil {
		return summary, err
	}
	summary.Extracted = len(extractions)
	summary.Skipped = len(archives) - len(extractions)

	var efficiencies []float64
	for _, ex := range extractions {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res := r.analyze(ex)
		if res.Status == report.StatusAnalyzed {
			summary.Analyzed++
			if res.Stats.StepsEfficiency.Valid {
				efficiencies = append(efficiencies, res.Stats.StepsEfficiency.Value)
			}
		} else {
			summary.Failed++
		}
		if err := r.opts.Renderer.Result(res); err != nil {
			return summary, err
		}
	}

	summary.StepsEfficiencyMean, summary.StepsEfficiencyStdDev = spread(efficiencies)
	summary.Duration = r.opts.Now().Sub(start)
	summary.DurationMS = summary.Duration.Milliseconds()

	if err := r.opts.Renderer.Finish(summary); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) extractAll(ctx context.Context, archives []string) ([]report.Extraction, error) {
	var bar *progressbar.ProgressBar
	if r.opts.Progress != nil && len(archives) > 0 {
		bar = progressbar.NewOptions(len(archives),
			progressbar.OptionSetWriter(r.opts.Progress),
			progressbar.OptionSetDescription("Extracting"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(r.opts.Progress)
			}),
		)
	}

	extractions := make([]report.Extraction, 0, len(archives))
	for _, path := range archives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.opts.Renderer.Extracting(path); err != nil {
			return nil, err
		}

		local, err := archive.Extract(path, r.opts.Member, r.opts.WorkDir)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil {
			r.opts.Logger.Info("skipping archive", "archive", path, "error", err)
			if rerr := r.opts.Renderer.ExtractFailed(path, err); rerr != nil {
				return nil, rerr
			}
			continue
		}
		r.opts.Logger.Debug("extracted report", "archive", path, "report", local)
		extractions = append(extractions, report.Extraction{Archive: path, Report: local})
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return extractions, nil
}

func (r *Runner) analyze(ex report.Extraction) (res report.Result) {
	res = report.Result{Archive: ex.Archive, Report: ex.Report}
	defer func() {
		if p := recover(); p != nil {
			res.Status = report.StatusFailed
			res.Stats = nil
			res.Error = fmt.Sprintf("panic: %v", p)
		}
	}()

	sum, err := r.opts.Extractor.AnalyzeFile(ex.Report)
	if err != nil {
		r.opts.Logger.Info("report analysis failed", "report", ex.Report, "error", err)
		res.Status = report.StatusFailed
		res.Error = err.Error()
		return res
	}
	if warnings := sum.Warnings(); len(warnings) > 0 {
		r.opts.Logger.Debug("low subprocess efficiency", "report", ex.Report, "steps", len(warnings))
	}
	res.Status = report.StatusAnalyzed
	res.Stats = sum
	return res
}

func spread(values []float64) (mean, stddev float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}
