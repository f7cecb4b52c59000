package main

import (
	"os"

	"github.com/spf13/cobra"

	"capdiff/internal/dissect"
	"capdiff/internal/pipeline"
	"capdiff/internal/report"
)

func newDissectCmd() *cobra.Command {
	var dFlags dissectFlags
	var lFlags limitFlags
	var buckets []int64

	cmd := &cobra.Command{
		Use:   "dissect <pcap>...",
		Short: "Dissect captures and print per-field value counts",
		Long: `Dissect one or more capture files into a hierarchical taxonomy of
per-field value counts and print them.

Examples:
  capdiff dissect traffic.pcap
  capdiff dissect -d detailed -b 60 traffic.pcap
  capdiff dissect -m TCP -c 10 traffic.pcap`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, opts, log, err := dFlags.resolve(cmd)
			if err != nil {
				return err
			}
			defer log.Close()

			loader, err := pipeline.NewLoader(opts, log)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				loader.EnableProgress()
			}
			dissections, err := loader.LoadAll(args)
			if err != nil {
				return err
			}

			filters := lFlags.filters(cmd, cfg, 0, false, false)
			console := report.NewConsole(os.Stdout, filters)
			matchValue := lFlags.matchValue
			if !cmd.Flags().Changed("match-value") {
				matchValue = cfg.Report.MatchValue
			}

			requested := buckets
			if len(requested) == 0 {
				requested = []int64{dissect.AggregateBucket}
			}
			for _, dis := range dissections {
				console.Dissection(dis, requested, filters.MatchString, matchValue, filters.MinimumCount)
			}
			return nil
		},
	}

	addDissectFlags(cmd, &dFlags)
	addLimitFlags(cmd, &lFlags)
	cmd.Flags().Int64SliceVar(&buckets, "buckets", nil, "Time buckets to print (default: the aggregate bucket)")

	return cmd
}
