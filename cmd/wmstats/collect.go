package main

import (
	"fmt"

	"github.com/bgricker/wmstats/internal/config"
	"github.com/bgricker/wmstats/internal/output"
	"github.com/bgricker/wmstats/internal/runner"
	"github.com/bgricker/wmstats/internal/stats"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, gatherCollectFlags)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg)

	sampled, err := sampleArchives(args[0], cfg, log)
	if err != nil {
		return err
	}

	var renderer output.Renderer
	switch cfg.Format {
	case config.FormatPretty:
		renderer = output.NewPretty(cmd.OutOrStdout())
	case config.FormatJSON:
		renderer = output.NewJSON(cmd.OutOrStdout())
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}

	opts := runner.Options{
		WorkDir: cfg.OutputDir,
		Member:  cfg.Member,
		Extractor: stats.New(stats.Options{
			Marker:    cfg.Marker,
			Threshold: lo.ToPtr(cfg.WarnThreshold),
		}),
		Renderer: renderer,
		Logger:   log,
	}
	if cfg.Progress {
		opts.Progress = cmd.ErrOrStderr()
	}

	summary, err := runner.New(opts).Run(cmd.Context(), sampled.paths())
	if err != nil {
		return err
	}
	log.Debug("batch complete", "analyzed", summary.Analyzed, "failed", summary.Failed, "skipped", summary.Skipped)
	return nil
}
