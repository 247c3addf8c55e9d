// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Hemisphere codes used by the Allen unionize schema.
const (
	HemisphereLeft    = "1"
	HemisphereRight   = "2"
	HemisphereMidline = "3"

	// HemisphereUnknown is the sentinel returned when injection-site
	// inference cannot distinguish the two lateral hemispheres.
	HemisphereUnknown = "unknown"
)

// Hemispheres lists the recognized hemisphere codes in output order.
var Hemispheres = []string{HemisphereLeft, HemisphereRight, HemisphereMidline}

// LateralHemispheres lists the two hemispheres an injection can target.
// Midline is excluded: injections are assumed lateralized.
var LateralHemispheres = []string{HemisphereLeft, HemisphereRight}

// Measured field names from the unionize record schema.
const (
	FieldProjectionDensity   = "projection-density"
	FieldProjectionVolume    = "projection-volume"
	FieldProjectionIntensity = "projection-intensity"
)

// AdditionalFields are the measured fields extracted alongside
// projection density.
var AdditionalFields = []string{
	"normalized-projection-volume",
	FieldProjectionIntensity,
	FieldProjectionVolume,
	"sum-pixel-intensity",
	"sum-pixels",
	"sum-projection-pixel-intensity",
	"sum-projection-pixels",
	"volume",
}

// MeasuredFields returns the full extraction field list: projection
// density first, then the additional fields in their fixed order.
func MeasuredFields() []string {
	fields := make([]string, 0, len(AdditionalFields)+1)
	fields = append(fields, FieldProjectionDensity)
	return append(fields, AdditionalFields...)
}

// InferredStructureID marks an injection site produced by the scoring
// heuristic rather than an explicit is-injection record.
const InferredStructureID = "inferred"

// InjectionSite records one injection location for one source file.
type InjectionSite struct {
	Filename     string `json:"filename" yaml:"filename"`
	HemisphereID string `json:"hemisphere_id" yaml:"hemisphere_id"`
	StructureID  string `json:"structure_id" yaml:"structure_id"`
}

// HemisphereTable holds one file's extracted values, keyed
// hemisphere → field → area. Cells are fixed-precision strings;
// anything not found in the source stays at the default "0".
type HemisphereTable map[string]map[string]map[string]string

// NewHemisphereTable returns a table with every
// (hemisphere, field, area) cell initialized to "0".
func NewHemisphereTable(fields, areas []string) HemisphereTable {
	table := make(HemisphereTable, len(Hemispheres))
	for _, h := range Hemispheres {
		table[h] = make(map[string]map[string]string, len(fields))
		for _, field := range fields {
			cells := make(map[string]string, len(areas))
			for _, area := range areas {
				cells[area] = "0"
			}
			table[h][field] = cells
		}
	}
	return table
}

// Row returns the cell values for one (hemisphere, field) pair in the
// given area order.
func (t HemisphereTable) Row(hemisphere, field string, areas []string) []string {
	row := make([]string, len(areas))
	for i, area := range areas {
		row[i] = t[hemisphere][field][area]
	}
	return row
}

// ExtractionResult is the outcome of extracting one XML document.
type ExtractionResult struct {
	Filename string
	Table    HemisphereTable
	Sites    []InjectionSite
}
