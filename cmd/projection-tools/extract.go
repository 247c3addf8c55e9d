// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matsojr22/projection-tools/internal/catalog"
	"github.com/matsojr22/projection-tools/internal/extract"
	"github.com/matsojr22/projection-tools/internal/store"
	"github.com/matsojr22/projection-tools/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Parse unionize XML files into per-hemisphere CSV tables",
	Long: `Extract reads every .xml file in the input directory, builds one
fully-populated table per file (hemisphere x field x area, defaults to "0"),
and accumulates one row per file into output_hemisphere_<h>_<field>.csv.
Injection sites are recorded in output_injection_sites.csv: explicit
is-injection records where present, otherwise a single inferred record
scored from summed projection volume.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := extractionConfig(cmd)

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		var err error
		cat, err = catalog.Load(cfg.CatalogFile)
		if err != nil {
			return err
		}
	}

	ctx := context.Background()

	var sink extract.Sink
	if dbPath, _ := cmd.Flags().GetString("store"); dbPath != "" {
		s, err := store.Open(types.StoreConfig{DBPath: dbPath, MaxResults: viper.GetInt("store.max_results")})
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.BeginRun(ctx, cfg.InputDir); err != nil {
			return err
		}
		sink = s
	}

	return extract.Run(ctx, cfg, cat, sink, os.Stdout)
}

func extractionConfig(cmd *cobra.Command) types.ExtractionConfig {
	inputDir, _ := cmd.Flags().GetString("input_dir")
	outputDir, _ := cmd.Flags().GetString("output_dir")
	catalogFile, _ := cmd.Flags().GetString("areas")
	if catalogFile == "" {
		catalogFile = viper.GetString("extraction.catalog_file")
	}

	return types.ExtractionConfig{
		InputDir:    inputDir,
		OutputDir:   outputDir,
		CatalogFile: catalogFile,
	}
}

func init() {
	extractCmd.Flags().String("input_dir", "", "directory containing XML files (required)")
	extractCmd.Flags().String("output_dir", "", "directory for output CSVs (default: input directory)")
	extractCmd.Flags().String("areas", "", "YAML file replacing the built-in area catalog")
	extractCmd.Flags().String("store", "", "also ingest results into this SQLite database")
	extractCmd.MarkFlagRequired("input_dir")

	rootCmd.AddCommand(extractCmd)
}
