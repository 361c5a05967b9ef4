package main

import (
	"fmt"

	"github.com/bgricker/wmstats/internal/config"
	"github.com/spf13/cobra"
)

// gatherFlags reads the persistent flags shared by every command.
func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	if flags.Changed("sample-size") {
		v, err := flags.GetInt("sample-size")
		if err != nil {
			return values, fmt.Errorf("parse --sample-size: %w", err)
		}
		values.SampleSize = config.IntFlag{Value: v, Set: true}
	}

	if flags.Changed("seed") {
		v, err := flags.GetUint64("seed")
		if err != nil {
			return values, fmt.Errorf("parse --seed: %w", err)
		}
		values.Seed = config.Uint64Flag{Value: v, Set: true}
	}

	if flags.Changed("member") {
		v, err := flags.GetString("member")
		if err != nil {
			return values, fmt.Errorf("parse --member: %w", err)
		}
		values.Member = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("subdir") {
		v, err := flags.GetStringArray("subdir")
		if err != nil {
			return values, fmt.Errorf("parse --subdir: %w", err)
		}
		values.Subdirs = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("skip-subdir") {
		v, err := flags.GetStringArray("skip-subdir")
		if err != nil {
			return values, fmt.Errorf("parse --skip-subdir: %w", err)
		}
		values.SkipSubdirs = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("format") {
		v, err := flags.GetString("format")
		if err != nil {
			return values, fmt.Errorf("parse --format: %w", err)
		}
		values.Format = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}

// gatherCollectFlags adds the flags local to the collect command.
func gatherCollectFlags(cmd *cobra.Command) (config.FlagValues, error) {
	values, err := gatherFlags(cmd)
	if err != nil {
		return values, err
	}
	flags := cmd.Flags()

	if flags.Changed("output-dir") {
		v, err := flags.GetString("output-dir")
		if err != nil {
			return values, fmt.Errorf("parse --output-dir: %w", err)
		}
		values.OutputDir = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("warn-threshold") {
		v, err := flags.GetFloat64("warn-threshold")
		if err != nil {
			return values, fmt.Errorf("parse --warn-threshold: %w", err)
		}
		values.WarnThreshold = config.FloatFlag{Value: v, Set: true}
	}

	if flags.Changed("marker") {
		v, err := flags.GetString("marker")
		if err != nil {
			return values, fmt.Errorf("parse --marker: %w", err)
		}
		values.Marker = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("progress") {
		v, err := flags.GetBool("progress")
		if err != nil {
			return values, fmt.Errorf("parse --progress: %w", err)
		}
		values.Progress = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
