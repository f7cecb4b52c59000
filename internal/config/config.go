// Package config loads the optional YAML configuration file that supplies
// default dissection and reporting settings for the CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"capdiff/internal/dissect"
)

// DissectSection holds the default dissection settings.
type DissectSection struct {
	Level       string `yaml:"level"`        // count-only, through-ip, detailed
	BinSize     int64  `yaml:"bin_size"`     // seconds, 0 disables binning
	PacketCount int    `yaml:"packet_count"` // 0 is unbounded
	Filter      string `yaml:"filter"`       // BPF filter expression
	Cache       bool   `yaml:"cache"`
	CacheSuffix string `yaml:"cache_suffix"`
}

// ReportSection holds the default output filtering settings.
type ReportSection struct {
	PrintThreshold float64 `yaml:"print_threshold"` // percent, as on the command line
	MinimumCount   int64   `yaml:"minimum_count"`
	MatchString    string  `yaml:"match_string"`
	MatchValue     string  `yaml:"match_value"`
}

// Config is the full configuration file.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Dissect  DissectSection `yaml:"dissect"`
	Report   ReportSection  `yaml:"report"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Dissect: DissectSection{
			Level:       dissect.ThroughIP.String(),
			CacheSuffix: ".taffy",
		},
	}
}

// Load reads and validates a configuration file.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors before any work starts.
func (c Config) Validate() error {
	if _, err := dissect.ParseLevel(c.Dissect.Level); err != nil {
		return err
	}
	if c.Dissect.BinSize < 0 {
		return fmt.Errorf("dissect.bin_size must be >= 0, got %d", c.Dissect.BinSize)
	}
	if c.Dissect.PacketCount < 0 {
		return fmt.Errorf("dissect.packet_count must be >= 0, got %d", c.Dissect.PacketCount)
	}
	if c.Report.PrintThreshold < 0 || c.Report.PrintThreshold > 100 {
		return fmt.Errorf("report.print_threshold must be in [0, 100], got %g", c.Report.PrintThreshold)
	}
	return nil
}

// Options converts the dissect section into engine options.
func (c Config) Options() (dissect.Options, error) {
	level, err := dissect.ParseLevel(c.Dissect.Level)
	if err != nil {
		return dissect.Options{}, err
	}
	opts := dissect.Options{
		Level:        level,
		BinSize:      c.Dissect.BinSize,
		MaximumCount: c.Dissect.PacketCount,
		Filter:       c.Dissect.Filter,
		CacheResults: c.Dissect.Cache,
		CacheSuffix:  c.Dissect.CacheSuffix,
	}
	return opts, opts.Validate()
}
