// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsojr22/projection-tools/internal/figure"
	"github.com/matsojr22/projection-tools/pkg/types"
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Generate bar plots from extractor output CSVs",
	Long: `Plot reads every output_hemisphere_<h>_<field>.csv in the input
directory and renders mean ± SEM bar charts with per-sample scatter
overlays, plus one hemisphere comparison chart per field. Each chart is
also repeated without the VISp column, whose magnitude usually dwarfs
the other regions. Figures are written next to the CSVs as PNG and SVG.`,
	RunE: runPlot,
}

func runPlot(cmd *cobra.Command, args []string) error {
	inputDir, _ := cmd.Flags().GetString("input_dir")
	return figure.Run(types.PlotConfig{InputDir: inputDir}, os.Stdout)
}

var scalebarCmd = &cobra.Command{
	Use:   "scalebar",
	Short: "Render a standalone viridis scale bar",
	Long: `Scalebar writes a horizontal viridis colorbar from 0 to 1, for use
alongside normalized heat maps in figure assembly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		return figure.ScaleBar(out)
	},
}

func init() {
	plotCmd.Flags().String("input_dir", "", "directory containing extractor output CSVs (required)")
	plotCmd.MarkFlagRequired("input_dir")
	rootCmd.AddCommand(plotCmd)

	scalebarCmd.Flags().String("out", "viridis_scale_bar.svg", "output path (.svg or .png)")
	rootCmd.AddCommand(scalebarCmd)
}
