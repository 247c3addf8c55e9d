// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matsojr22/projection-tools/internal/catalog"
	"github.com/matsojr22/projection-tools/internal/store"
	"github.com/matsojr22/projection-tools/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Query the accumulated measurement database",
	Long: `Store queries the SQLite database populated by "extract --store".
Use subcommands to list measurements, list injection sites, or export a
wide-format CSV for one hemisphere and field.`,
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List stored measurements with optional filters",
	RunE:  runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd)
	if opts.IsEmpty() {
		return fmt.Errorf("filter required: provide --file, --hemisphere, --field, or --area")
	}

	results, err := s.Query(context.Background(), opts)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-24s  %-10s  %-30s  %-8s  %s\n",
		"File", "Hemisphere", "Field", "Area", "Value")
	for _, m := range results {
		fmt.Fprintf(os.Stdout, "%-24s  %-10s  %-30s  %-8s  %s\n",
			m.Filename, m.HemisphereID, m.Field, m.Area, m.Value)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- sites subcommand ---

var storeSitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List stored injection sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sites, err := s.InjectionSites(context.Background())
		if err != nil {
			return err
		}
		for _, site := range sites {
			fmt.Fprintf(os.Stdout, "%s,%s,%s\n", site.Filename, site.HemisphereID, site.StructureID)
		}
		return nil
	},
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one (hemisphere, field) table as wide-format CSV",
	RunE:  runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	hemisphere, _ := cmd.Flags().GetString("hemisphere")
	field, _ := cmd.Flags().GetString("field")
	if hemisphere == "" || field == "" {
		return fmt.Errorf("--hemisphere and --field are required")
	}

	cat := catalog.Default()
	if areasFile, _ := cmd.Flags().GetString("areas"); areasFile != "" {
		var err error
		cat, err = catalog.Load(areasFile)
		if err != nil {
			return err
		}
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.ExportCSV(context.Background(), os.Stdout, hemisphere, field, cat.Names())
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = viper.GetString("store.db_path")
	}
	if dbPath == "" {
		dbPath = "projections.db"
	}
	return store.Open(types.StoreConfig{
		DBPath:     dbPath,
		MaxResults: viper.GetInt("store.max_results"),
	})
}

func queryOptsFromFlags(cmd *cobra.Command) store.QueryOptions {
	filename, _ := cmd.Flags().GetString("file")
	hemisphere, _ := cmd.Flags().GetString("hemisphere")
	field, _ := cmd.Flags().GetString("field")
	area, _ := cmd.Flags().GetString("area")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Filename:     filename,
		HemisphereID: hemisphere,
		Field:        field,
		Area:         area,
		MaxResults:   limit,
	}
}

func init() {
	for _, c := range []*cobra.Command{storeQueryCmd, storeSitesCmd, storeExportCmd} {
		c.Flags().String("db", "", "SQLite database path (default: projections.db)")
	}

	storeQueryCmd.Flags().String("file", "", "filter by source filename")
	storeQueryCmd.Flags().String("hemisphere", "", "filter by hemisphere id (1, 2, or 3)")
	storeQueryCmd.Flags().String("field", "", "filter by measured field")
	storeQueryCmd.Flags().String("area", "", "filter by area name")
	storeQueryCmd.Flags().Int("limit", 0, "maximum number of results")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	storeExportCmd.Flags().String("hemisphere", "", "hemisphere id to export")
	storeExportCmd.Flags().String("field", "", "measured field to export")
	storeExportCmd.Flags().String("areas", "", "YAML file replacing the built-in area catalog")

	storeCmd.AddCommand(storeQueryCmd, storeSitesCmd, storeExportCmd)
	rootCmd.AddCommand(storeCmd)
}
