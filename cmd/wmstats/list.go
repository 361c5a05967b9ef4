package main

import (
	"fmt"

	"github.com/bgricker/wmstats/internal/config"
	"github.com/bgricker/wmstats/internal/output"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>",
		Short: "List the archives a run would sample, without extracting them",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, gatherFlags)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg)

	sampled, err := sampleArchives(args[0], cfg, log)
	if err != nil {
		return err
	}

	var renderer output.CandidateRenderer
	switch cfg.Format {
	case config.FormatPretty:
		renderer = output.NewPretty(cmd.OutOrStdout())
	case config.FormatJSON:
		renderer = output.NewJSON(cmd.OutOrStdout())
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
	return renderer.RenderCandidates(sampled.candidates, sampled.warnings)
}
