package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "capdiff",
		Short: "Dissect and compare pcap captures by field value frequency",
		Long: `capdiff dissects captured packets into a hierarchical taxonomy of
per-field value counts and statistically compares those counts across
captures to surface structural and behavioral differences.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newDissectCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newCacheInfoCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
