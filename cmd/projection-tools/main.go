// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the projection-tools CLI, a
// batch pipeline for Allen-style axonal projection datasets: XML
// extraction to CSV, accumulation into a SQLite store, bar plots, and
// compositional proportion statistics.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the projection-tools CLI.
var rootCmd = &cobra.Command{
	Use:   "projection-tools",
	Short: "Analysis pipeline for axonal projection datasets",
	Long: `projection-tools processes Allen-style axonal projection data. The extract
stage parses unionize XML documents into per-hemisphere CSV tables and infers
injection hemispheres; plot renders regional bar charts from those tables;
stats runs the compositional proportion analysis; store manages a SQLite
database of accumulated measurements.

Each stage is a subcommand and runs as a single sequential batch job.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./projection-tools.yaml or ~/.config/projection-tools/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("projection-tools")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "projection-tools"))
		}
	}

	viper.SetEnvPrefix("PROJECTION_TOOLS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
