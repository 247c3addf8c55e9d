package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of projection-tools",
	Long: `Version prints the binary's version string. Release builds stamp it at
link time with -ldflags "-X main.version=<tag>"; unstamped builds report dev.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("projection-tools %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
