package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"capdiff/internal/compare"
	"capdiff/internal/pipeline"
	"capdiff/internal/report"
)

func newCompareCmd() *cobra.Command {
	var dFlags dissectFlags
	var lFlags limitFlags
	var flags struct {
		printThreshold float64
		onlyPositive   bool
		onlyNegative   bool
		betweenTimes   []int64
		outputFormat   string
		outputFile     string
	}

	cmd := &cobra.Command{
		Use:   "compare <pcap>...",
		Short: "Compare captures by field value frequency",
		Long: `Compare two or more captures: the first is the reference and every
remaining capture is compared against it. With a single capture and a
bin size, consecutive time buckets are compared instead.

Examples:
  capdiff compare before.pcap after.pcap
  capdiff compare -d detailed -t 5 before.pcap after.pcap
  capdiff compare -b 60 single.pcap
  capdiff compare before.pcap after.pcap -f json -o report.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, opts, log, err := dFlags.resolve(cmd)
			if err != nil {
				return err
			}
			defer log.Close()

			var window *compare.TimeWindow
			if len(flags.betweenTimes) > 0 {
				if len(flags.betweenTimes) != 2 {
					return fmt.Errorf("--between-times takes exactly two timestamps, got %d", len(flags.betweenTimes))
				}
				window = &compare.TimeWindow{Start: flags.betweenTimes[0], End: flags.betweenTimes[1]}
			}

			loader, err := pipeline.NewLoader(opts, log)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				loader.EnableProgress()
			}
			log.Info("reading %d capture file(s) at level %s", len(args), opts.Level)
			dissections, err := loader.LoadAll(args)
			if err != nil {
				return err
			}

			reports, err := compare.All(dissections, window)
			if err != nil {
				return err
			}

			if flags.outputFormat == "json" {
				data, err := json.MarshalIndent(reports, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal json: %w", err)
				}
				return writeOutput(flags.outputFile, append(data, '\n'))
			}

			out := os.Stdout
			if flags.outputFile != "" {
				f, err := os.Create(flags.outputFile)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}
			filters := lFlags.filters(cmd, cfg, flags.printThreshold, flags.onlyPositive, flags.onlyNegative)

			switch flags.outputFormat {
			case "csv":
				exporter := report.NewCSV(out, filters)
				for _, r := range reports {
					if err := exporter.Comparison(r); err != nil {
						return err
					}
				}
				return exporter.Flush()
			case "text":
				console := report.NewConsole(out, filters)
				for _, r := range reports {
					console.Comparison(r)
				}
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want text, json, or csv)", flags.outputFormat)
			}
		},
	}

	addDissectFlags(cmd, &dFlags)
	addLimitFlags(cmd, &lFlags)
	cmd.Flags().Float64VarP(&flags.printThreshold, "print-threshold", "t", 0, "Drop entries with |delta| below this percentage")
	cmd.Flags().BoolVarP(&flags.onlyPositive, "only-positive", "P", false, "Only show entries that increased")
	cmd.Flags().BoolVarP(&flags.onlyNegative, "only-negative", "N", false, "Only show entries that decreased")
	cmd.Flags().Int64SliceVarP(&flags.betweenTimes, "between-times", "T", nil, "For a single capture, only compare buckets in this window (two timestamps)")
	cmd.Flags().StringVarP(&flags.outputFormat, "format", "f", "text", "Output format: text, json, csv")
	cmd.Flags().StringVarP(&flags.outputFile, "output", "o", "", "Write output to file instead of stdout")

	return cmd
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Comparison report written to: %s\n", path)
	return nil
}
