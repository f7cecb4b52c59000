package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"capdiff/internal/cache"
	"capdiff/internal/errors"
)

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache-info <cache-file>...",
		Short: "Show metadata about cached dissection files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				info, err := cache.Inspect(path)
				if err != nil {
					return errors.WrapCacheError(err, path)
				}

				fmt.Fprintf(os.Stdout, "===== %s =====\n", path)
				fmt.Fprintf(os.Stdout, "%-20s %d\n", "format version:", info.FormatVersion)
				fmt.Fprintf(os.Stdout, "parameters:\n")
				fmt.Fprintf(os.Stdout, "    %-16s %s\n", "source:", info.Fingerprint.SourceFile)
				fmt.Fprintf(os.Stdout, "    %-16s %s\n", "level:", info.Fingerprint.Level)
				fmt.Fprintf(os.Stdout, "    %-16s %d\n", "bin size:", info.Fingerprint.BinSize)
				fmt.Fprintf(os.Stdout, "    %-16s %d\n", "packet count:", info.Fingerprint.MaximumCount)
				fmt.Fprintf(os.Stdout, "    %-16s %q\n", "filter:", info.Fingerprint.Filter)
				fmt.Fprintf(os.Stdout, "data info:\n")
				fmt.Fprintf(os.Stdout, "    %-16s %d\n", "packets:", info.Meta.TotalPackets)
				fmt.Fprintf(os.Stdout, "    %-16s %d\n", "buckets:", info.Meta.BucketCount)
				fmt.Fprintf(os.Stdout, "    %-16s %d\n", "first:", info.Meta.FirstBucket)
				fmt.Fprintf(os.Stdout, "    %-16s %d\n", "last:", info.Meta.LastBucket)
			}
			return nil
		},
	}
}
