package cmd

import (
	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mealdex version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("mealdex " + Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
