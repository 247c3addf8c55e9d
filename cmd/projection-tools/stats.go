// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsojr22/projection-tools/internal/stats"
	"github.com/matsojr22/projection-tools/pkg/types"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run the compositional proportion analysis",
	Long: `Stats runs the target-type proportion analysis over developmental ages:
a chi-square test of independence on pseudo-counts, standardized residuals
with a heat map, a centered log-ratio transform, and a PCA of the
transformed composition. Results are written as CSVs and PNG figures.

Without --input the built-in developmental proportions table is used.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	inputFile, _ := cmd.Flags().GetString("input")
	outputDir, _ := cmd.Flags().GetString("output_dir")
	sampleSize, _ := cmd.Flags().GetInt("sample-size")

	cfg := types.StatsConfig{
		InputFile:  inputFile,
		OutputDir:  outputDir,
		SampleSize: sampleSize,
	}
	_, err := stats.Run(cfg, os.Stdout)
	return err
}

func init() {
	statsCmd.Flags().String("input", "", "proportions CSV (default: built-in dataset)")
	statsCmd.Flags().String("output_dir", ".", "directory for output CSVs and figures")
	statsCmd.Flags().Int("sample-size", 1000, "pseudo-count total per age column")

	rootCmd.AddCommand(statsCmd)
}
