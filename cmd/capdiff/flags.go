package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"capdiff/internal/config"
	"capdiff/internal/dissect"
	"capdiff/internal/errors"
	"capdiff/internal/logging"
	"capdiff/internal/report"
)

// dissectFlags is the flag group shared by every command that reads captures.
type dissectFlags struct {
	configPath  string
	logLevel    string
	level       string
	packetCount int
	binSize     int64
	filter      string
	cache       bool
	cacheSuffix string
}

func addDissectFlags(cmd *cobra.Command, f *dissectFlags) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML config file with default settings")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log verbosity: silent, error, info, verbose, debug")
	cmd.Flags().StringVarP(&f.level, "level", "d", "", "Dissection level: count-only, through-ip, detailed")
	cmd.Flags().IntVarP(&f.packetCount, "packet-count", "n", 0, "Maximum number of packets to analyze (0 = unbounded)")
	cmd.Flags().Int64VarP(&f.binSize, "bin-size", "b", 0, "Bin results into this many seconds (0 = no binning)")
	cmd.Flags().StringVar(&f.filter, "filter", "", "BPF filter applied while reading the capture")
	cmd.Flags().BoolVarP(&f.cache, "cache", "C", false, "Cache and reuse dissection results")
	cmd.Flags().StringVar(&f.cacheSuffix, "cache-suffix", "", "Suffix for cache files")
}

// limitFlags is the flag group filtering what gets printed.
type limitFlags struct {
	matchString  string
	matchValue   string
	minimumCount int64
}

func addLimitFlags(cmd *cobra.Command, f *limitFlags) {
	cmd.Flags().StringVarP(&f.matchString, "match-string", "m", "", "Only report field paths containing this substring")
	cmd.Flags().StringVarP(&f.matchValue, "match-value", "M", "", "Only report values containing this substring")
	cmd.Flags().Int64VarP(&f.minimumCount, "minimum-count", "c", 0, "Only report entries with at least this count")
}

// resolve merges the config file (if any) with explicit flag overrides and
// builds the shared pipeline inputs.
func (f *dissectFlags) resolve(cmd *cobra.Command) (config.Config, dissect.Options, *logging.Logger, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return cfg, dissect.Options{}, nil, errors.WrapConfigError(err, f.configPath)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("level") {
		cfg.Dissect.Level = f.level
	}
	if cmd.Flags().Changed("packet-count") {
		cfg.Dissect.PacketCount = f.packetCount
	}
	if cmd.Flags().Changed("bin-size") {
		cfg.Dissect.BinSize = f.binSize
	}
	if cmd.Flags().Changed("filter") {
		cfg.Dissect.Filter = f.filter
	}
	if cmd.Flags().Changed("cache") {
		cfg.Dissect.Cache = f.cache
	}
	if cmd.Flags().Changed("cache-suffix") {
		cfg.Dissect.CacheSuffix = f.cacheSuffix
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	opts, err := cfg.Options()
	if err != nil {
		return cfg, dissect.Options{}, nil, err
	}

	logLevel, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, dissect.Options{}, nil, err
	}
	log, err := logging.NewLogger(logLevel, "")
	if err != nil {
		return cfg, dissect.Options{}, nil, fmt.Errorf("init logging: %w", err)
	}

	return cfg, opts, log, nil
}

// filters builds the report filters from config defaults plus flag overrides.
func (f *limitFlags) filters(cmd *cobra.Command, cfg config.Config, printThreshold float64, onlyPositive, onlyNegative bool) report.Filters {
	filters := report.Filters{
		PrintThreshold: cfg.Report.PrintThreshold / 100.0,
		MinimumCount:   cfg.Report.MinimumCount,
		MatchString:    cfg.Report.MatchString,
		OnlyPositive:   onlyPositive,
		OnlyNegative:   onlyNegative,
	}
	if cmd.Flags().Changed("print-threshold") {
		filters.PrintThreshold = printThreshold / 100.0
	}
	if cmd.Flags().Changed("minimum-count") {
		filters.MinimumCount = f.minimumCount
	}
	if cmd.Flags().Changed("match-string") {
		filters.MatchString = f.matchString
	}
	return filters
}
