// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ExtractionConfig holds settings for the XML extraction stage.
type ExtractionConfig struct {
	// InputDir is the directory of unionize XML files to process.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir receives the CSV tables. Empty means InputDir.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// CatalogFile optionally replaces the built-in area catalog with
	// a YAML file of {area, structure_id} entries.
	CatalogFile string `json:"catalog_file,omitempty" yaml:"catalog_file,omitempty"`
}

// StoreConfig holds settings for the measurement store.
type StoreConfig struct {
	// DBPath is the SQLite database file (e.g. "projections.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default maximum number of query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// StatsConfig holds settings for the proportion statistics stage.
type StatsConfig struct {
	// InputFile optionally replaces the built-in proportions dataset
	// with a CSV of the same shape. Empty means the built-in table.
	InputFile string `json:"input_file,omitempty" yaml:"input_file,omitempty"`

	// OutputDir receives the CSV and figure outputs (default ".").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// SampleSize is the pseudo-count total used to turn percentages
	// into a contingency table (default 1000).
	SampleSize int `json:"sample_size" yaml:"sample_size"`
}

// PlotConfig holds settings for the bar-plot stage.
type PlotConfig struct {
	// InputDir is the directory of extractor output CSVs; figures are
	// written alongside them.
	InputDir string `json:"input_dir" yaml:"input_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Stats      StatsConfig      `json:"stats" yaml:"stats"`
	Plot       PlotConfig       `json:"plot" yaml:"plot"`
}
