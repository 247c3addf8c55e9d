// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract converts Allen projection-unionize XML documents
// into fixed-schema per-hemisphere tables and determines the likely
// injection hemisphere for each document.
package extract

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matsojr22/projection-tools/internal/catalog"
	"github.com/matsojr22/projection-tools/pkg/types"
)

// intensityTieBreakWeight scales summed projection intensity when
// scoring hemispheres. Intensity only perturbs exact volume ties; it
// is not a primary signal.
const intensityTieBreakWeight = 1e-9

// unionizeRecord is one projection-structure-unionize element.
// Measured fields are pointers so an absent child element can be told
// apart from an empty one.
type unionizeRecord struct {
	HemisphereID string `xml:"hemisphere-id"`
	StructureID  string `xml:"structure-id"`
	IsInjection  string `xml:"is-injection"`

	ProjectionDensity           *string `xml:"projection-density"`
	NormalizedProjectionVolume  *string `xml:"normalized-projection-volume"`
	ProjectionIntensity         *string `xml:"projection-intensity"`
	ProjectionVolume            *string `xml:"projection-volume"`
	SumPixelIntensity           *string `xml:"sum-pixel-intensity"`
	SumPixels                   *string `xml:"sum-pixels"`
	SumProjectionPixelIntensity *string `xml:"sum-projection-pixel-intensity"`
	SumProjectionPixels         *string `xml:"sum-projection-pixels"`
	Volume                      *string `xml:"volume"`
}

// fieldValue returns the child text for a measured field name, or nil
// if the element was absent from the record.
func (r *unionizeRecord) fieldValue(name string) *string {
	switch name {
	case types.FieldProjectionDensity:
		return r.ProjectionDensity
	case "normalized-projection-volume":
		return r.NormalizedProjectionVolume
	case types.FieldProjectionIntensity:
		return r.ProjectionIntensity
	case types.FieldProjectionVolume:
		return r.ProjectionVolume
	case "sum-pixel-intensity":
		return r.SumPixelIntensity
	case "sum-pixels":
		return r.SumPixels
	case "sum-projection-pixel-intensity":
		return r.SumProjectionPixelIntensity
	case "sum-projection-pixels":
		return r.SumProjectionPixels
	case "volume":
		return r.Volume
	}
	return nil
}

// decodeRecords streams every projection-structure-unionize element
// out of r, in document order. Namespaced documents are handled by
// matching on the local element name.
func decodeRecords(r io.Reader) ([]unionizeRecord, error) {
	dec := xml.NewDecoder(r)
	var records []unionizeRecord
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing XML: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "projection-structure-unionize" {
			continue
		}
		var rec unionizeRecord
		if err := dec.DecodeElement(&rec, &se); err != nil {
			return nil, fmt.Errorf("decoding unionize record: %w", err)
		}
		records = append(records, rec)
	}
}

// buildTable populates a fresh default-filled hemisphere table from
// the record list. Records with an unrecognized hemisphere or a
// structure id outside the catalog are skipped. If the same
// (hemisphere, area) pair appears more than once the last record in
// document order wins. A malformed field value leaves the cell alone.
func buildTable(records []unionizeRecord, cat *catalog.Catalog) types.HemisphereTable {
	fields := types.MeasuredFields()
	table := types.NewHemisphereTable(fields, cat.Names())

	for i := range records {
		rec := &records[i]
		if _, ok := table[rec.HemisphereID]; !ok {
			continue
		}
		area, ok := cat.AreaByStructureID(rec.StructureID)
		if !ok {
			continue
		}
		for _, field := range fields {
			raw := rec.fieldValue(field)
			if raw == nil {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
			if err != nil {
				continue
			}
			table[rec.HemisphereID][field][area] = fmt.Sprintf("%.2E", v)
		}
	}
	return table
}

// injectionFlags are the is-injection spellings treated as true.
var injectionFlags = map[string]bool{"true": true, "1": true, "yes": true}

// findInjectionSites returns every record explicitly flagged as an
// injection into the catalog's primary area on a lateral hemisphere.
// All matches are kept; nothing is deduplicated.
func findInjectionSites(records []unionizeRecord, filename string, cat *catalog.Catalog, w io.Writer) []types.InjectionSite {
	primaryID, ok := cat.PrimaryStructureID()
	if !ok {
		return nil
	}

	var sites []types.InjectionSite
	for i := range records {
		rec := &records[i]
		isInjection := strings.ToLower(strings.TrimSpace(rec.IsInjection))
		structureID := strings.TrimSpace(rec.StructureID)
		hemisphereID := strings.TrimSpace(rec.HemisphereID)

		if !injectionFlags[isInjection] || structureID != primaryID {
			continue
		}
		if hemisphereID != types.HemisphereLeft && hemisphereID != types.HemisphereRight {
			continue
		}

		fmt.Fprintf(w, "Injection site found: File=%s, Hemisphere=%s, Structure ID=%s\n",
			filename, hemisphereID, structureID)
		sites = append(sites, types.InjectionSite{
			Filename:     filename,
			HemisphereID: hemisphereID,
			StructureID:  structureID,
		})
	}
	return sites
}

// InferInjectionHemisphere scores the two lateral hemispheres by
// summed projection volume, with summed intensity as a negligible
// tie-break term, and returns the hemisphere with the strictly
// greater score. An exact tie (including all-zero tables) yields
// HemisphereUnknown. A parse failure while summing is logged to w and
// scores that hemisphere 0; it never aborts.
func InferInjectionHemisphere(table types.HemisphereTable, w io.Writer) string {
	scores := make(map[string]float64, len(types.LateralHemispheres))
	for _, h := range types.LateralHemispheres {
		score, err := hemisphereScore(table[h])
		if err != nil {
			fmt.Fprintf(w, "Error inferring hemisphere: %v\n", err)
			score = 0
		}
		scores[h] = score
	}

	switch {
	case scores[types.HemisphereLeft] > scores[types.HemisphereRight]:
		return types.HemisphereLeft
	case scores[types.HemisphereRight] > scores[types.HemisphereLeft]:
		return types.HemisphereRight
	default:
		return types.HemisphereUnknown
	}
}

func hemisphereScore(fields map[string]map[string]string) (float64, error) {
	volume, err := sumCells(fields[types.FieldProjectionVolume])
	if err != nil {
		return 0, err
	}
	intensity, err := sumCells(fields[types.FieldProjectionIntensity])
	if err != nil {
		return 0, err
	}
	return volume + intensityTieBreakWeight*intensity, nil
}

func sumCells(cells map[string]string) (float64, error) {
	var total float64
	for area, raw := range cells {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric cell for %s: %q", area, raw)
		}
		total += v
	}
	return total, nil
}

// ExtractFile extracts one XML document: the fully populated
// hemisphere table plus the document's injection records. When no
// explicit injection record exists, exactly one inferred record is
// emitted with the structure id set to the inferred marker. Progress
// and diagnostic lines go to w.
func ExtractFile(path string, cat *catalog.Catalog, w io.Writer) (types.ExtractionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := decodeRecords(f)
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("%s: %w", path, err)
	}

	filename := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	table := buildTable(records, cat)

	sites := findInjectionSites(records, filename, cat, w)
	if len(sites) == 0 {
		inferred := InferInjectionHemisphere(table, w)
		fmt.Fprintf(w, "Inferred injection hemisphere for %s: %s\n", filename, inferred)
		sites = append(sites, types.InjectionSite{
			Filename:     filename,
			HemisphereID: inferred,
			StructureID:  types.InferredStructureID,
		})
	}

	return types.ExtractionResult{Filename: filename, Table: table, Sites: sites}, nil
}
