package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the optional configuration file looked up in the working directory.
const FileName = ".wmstats.yml"

// Config captures CLI options sourced from config files or flags.
type Config struct {
	SampleSize int    `yaml:"sample_size"`
	Seed       uint64 `yaml:"seed"`
	Member     string `yaml:"member"`
	OutputDir  string `yaml:"output_dir"`

	Marker        string  `yaml:"cmsrun_marker"`
	WarnThreshold float64 `yaml:"warn_threshold"`

	Subdirs     []string `yaml:"subdirs"`
	SkipSubdirs []string `yaml:"skip_subdirs"`

	Format   string `yaml:"format"`
	Progress bool   `yaml:"progress"`
	Verbose  bool   `yaml:"verbose"`
}

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		SampleSize:    10,
		Member:        DefaultMember,
		Marker:        "cmsRun",
		WarnThreshold: 90.0,
		Format:        FormatPretty,
	}
}

const (
	// DefaultMember is the report file stored under <job>/ in each archive.
	DefaultMember = "Report.0.json"

	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"
)

// Load reads .wmstats.yml from dir when present. Missing files are ignored.
func Load(dir string) (Config, error) {
	cfg := Default()
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	// Zero is a valid threshold, so presence is tracked separately.
	var threshold struct {
		WarnThreshold *float64 `yaml:"warn_threshold"`
	}
	if err := yaml.Unmarshal(data, &threshold); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	if threshold.WarnThreshold != nil {
		cfg.WarnThreshold = *threshold.WarnThreshold
	}
	return cfg, nil
}

// Validate rejects settings the collector cannot work with.
func (c Config) Validate() error {
	if c.SampleSize <= 0 {
		return fmt.Errorf("sample size must be positive, got %d", c.SampleSize)
	}
	if c.Member == "" {
		return fmt.Errorf("report member name must not be empty")
	}
	if c.Marker == "" {
		return fmt.Errorf("cmsRun marker must not be empty")
	}
	switch c.Format {
	case FormatPretty, FormatJSON:
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	return nil
}

func merge(base, override Config) Config {
	out := base

	if override.SampleSize != 0 {
		out.SampleSize = override.SampleSize
	}
	if override.Seed != 0 {
		out.Seed = override.Seed
	}
	if override.Member != "" {
		out.Member = override.Member
	}
	if override.OutputDir != "" {
		out.OutputDir = override.OutputDir
	}
	if override.Marker != "" {
		out.Marker = override.Marker
	}
	if len(override.Subdirs) > 0 {
		out.Subdirs = append([]string{}, override.Subdirs...)
	}
	if len(override.SkipSubdirs) > 0 {
		out.SkipSubdirs = append([]string{}, override.SkipSubdirs...)
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.Progress {
		out.Progress = true
	}
	if override.Verbose {
		out.Verbose = true
	}

	return out
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.SampleSize.Set {
		cfg.SampleSize = flags.SampleSize.Value
	}
	if flags.Seed.Set {
		cfg.Seed = flags.Seed.Value
	}
	if flags.Member.Set {
		cfg.Member = flags.Member.Value
	}
	if flags.OutputDir.Set {
		cfg.OutputDir = flags.OutputDir.Value
	}
	if flags.Marker.Set {
		cfg.Marker = flags.Marker.Value
	}
	if flags.WarnThreshold.Set {
		cfg.WarnThreshold = flags.WarnThreshold.Value
	}
	if len(flags.Subdirs.Values) > 0 {
		cfg.Subdirs = append([]string{}, flags.Subdirs.Values...)
	}
	if len(flags.SkipSubdirs.Values) > 0 {
		cfg.SkipSubdirs = append([]string{}, flags.SkipSubdirs.Values...)
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.Progress.Set {
		cfg.Progress = flags.Progress.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	SampleSize    IntFlag
	Seed          Uint64Flag
	Member        StringFlag
	OutputDir     StringFlag
	Marker        StringFlag
	WarnThreshold FloatFlag
	Subdirs       SliceFlag
	SkipSubdirs   SliceFlag
	Format        StringFlag
	Progress      BoolFlag
	Verbose       BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// IntFlag represents an int flag and whether it was set.
type IntFlag struct {
	Value int
	Set   bool
}

// Uint64Flag represents a uint64 flag and whether it was set.
type Uint64Flag struct {
	Value uint64
	Set   bool
}

// FloatFlag represents a float64 flag and whether it was set.
type FloatFlag struct {
	Value float64
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
