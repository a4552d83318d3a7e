package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mealdex",
	Short: "Mealdex - food search aggregation engine",
	Long:  `Mealdex aggregates, deduplicates, and ranks food search results from multiple upstream nutrition providers under a strict latency budget.`,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
}

func Execute() error {
	return rootCmd.Execute()
}
