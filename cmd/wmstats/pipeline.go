package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/bgricker/wmstats/internal/config"
	"github.com/bgricker/wmstats/internal/discovery"
	"github.com/bgricker/wmstats/internal/filter"
	"github.com/spf13/cobra"
)

// sampling bundles the archives chosen for a run with scan warnings.
type sampling struct {
	candidates []discovery.Candidate
	warnings   []discovery.Warning
}

func (s sampling) paths() []string {
	paths := make([]string, 0, len(s.candidates))
	for _, c := range s.candidates {
		paths = append(paths, c.Path)
	}
	return paths
}

// flagGatherer reads the flags a command registers into config overrides.
type flagGatherer func(*cobra.Command) (config.FlagValues, error)

func loadConfig(cmd *cobra.Command, gather flagGatherer) (config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("determine working directory: %w", err)
	}

	cfg, err := config.Load(wd)
	if err != nil {
		return config.Config{}, err
	}

	flags, err := gather(cmd)
	if err != nil {
		return config.Config{}, err
	}
	config.ApplyFlags(&cfg, flags)

	if cfg.OutputDir == "" {
		cfg.OutputDir = wd
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func sampleArchives(root string, cfg config.Config, log *slog.Logger) (sampling, error) {
	set, err := filter.NewSet(cfg.Subdirs, cfg.SkipSubdirs)
	if err != nil {
		return sampling{}, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	log.Debug("sampling archives", "root", root, "sample_size", cfg.SampleSize, "seed", seed)

	candidates, warnings, err := discovery.Archives(root, discovery.Options{
		SampleSize: cfg.SampleSize,
		Rand:       rand.New(rand.NewPCG(seed, seed)),
		Filter:     set,
	})
	if err != nil {
		if errors.Is(err, discovery.ErrRootNotFound) {
			return sampling{}, fmt.Errorf("path %s does not exist", root)
		}
		return sampling{}, err
	}
	for _, w := range warnings {
		log.Warn("skipping subdirectory", "path", w.Path, "error", w.Message)
	}
	return sampling{candidates: candidates, warnings: warnings}, nil
}
