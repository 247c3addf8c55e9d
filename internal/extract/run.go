// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsojr22/projection-tools/internal/catalog"
	"github.com/matsojr22/projection-tools/pkg/types"
)

const injectionFile = "output_injection_sites.csv"

// Sink receives each file's extraction result as it is produced. The
// measurement store implements it; a nil sink is allowed.
type Sink interface {
	IngestResult(ctx context.Context, res types.ExtractionResult) error
}

// outputSet holds the open CSV writers for one run: one per
// (hemisphere, field) pair plus the injection-site table. Files are
// truncated and given headers once at run start, then appended to.
type outputSet struct {
	tables    map[string]map[string]*csv.Writer
	injection *csv.Writer
	files     []*os.File
	paths     []string
}

func openOutputs(dir string, cat *catalog.Catalog) (*outputSet, error) {
	set := &outputSet{tables: make(map[string]map[string]*csv.Writer, len(types.Hemispheres))}
	header := append([]string{"filename"}, cat.Names()...)

	create := func(path string, header []string) (*csv.Writer, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", path, err)
		}
		set.files = append(set.files, f)
		set.paths = append(set.paths, path)
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return nil, fmt.Errorf("writing header to %s: %w", path, err)
		}
		return w, nil
	}

	for _, h := range types.Hemispheres {
		set.tables[h] = make(map[string]*csv.Writer)
		for _, field := range types.MeasuredFields() {
			path := filepath.Join(dir, fmt.Sprintf("output_hemisphere_%s_%s.csv", h, field))
			w, err := create(path, header)
			if err != nil {
				set.close()
				return nil, err
			}
			set.tables[h][field] = w
		}
	}

	w, err := create(filepath.Join(dir, injectionFile), []string{"filename", "hemisphere_id", "structure_id"})
	if err != nil {
		set.close()
		return nil, err
	}
	set.injection = w

	return set, nil
}

func (s *outputSet) writeResult(res types.ExtractionResult, areas []string) error {
	for _, h := range types.Hemispheres {
		for _, field := range types.MeasuredFields() {
			row := append([]string{res.Filename}, res.Table.Row(h, field, areas)...)
			if err := s.tables[h][field].Write(row); err != nil {
				return fmt.Errorf("writing row for hemisphere %s field %s: %w", h, field, err)
			}
		}
	}
	for _, site := range res.Sites {
		row := []string{site.Filename, site.HemisphereID, site.StructureID}
		if err := s.injection.Write(row); err != nil {
			return fmt.Errorf("writing injection row: %w", err)
		}
	}
	return nil
}

func (s *outputSet) flush() error {
	for _, h := range types.Hemispheres {
		for _, w := range s.tables[h] {
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
		}
	}
	s.injection.Flush()
	return s.injection.Error()
}

func (s *outputSet) close() {
	for _, f := range s.files {
		f.Close()
	}
}

// Run processes every .xml file in cfg.InputDir sequentially, each
// with a fresh default-filled table, and accumulates one row per file
// into the output CSV set. A missing input directory is reported to w
// and aborts the run before any output file is created; an unparsable
// document fails the whole batch. If sink is non-nil every result is
// also ingested into it.
func Run(ctx context.Context, cfg types.ExtractionConfig, cat *catalog.Catalog, sink Sink, w io.Writer) error {
	if _, err := os.Stat(cfg.InputDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(w, "Error: Directory does not exist: %s\n", cfg.InputDir)
			return nil
		}
		return fmt.Errorf("checking input directory: %w", err)
	}

	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = cfg.InputDir
	} else if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("reading input directory %s: %w", cfg.InputDir, err)
	}

	outputs, err := openOutputs(outputDir, cat)
	if err != nil {
		return err
	}
	defer outputs.close()

	areas := cat.Names()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xml") {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res, err := ExtractFile(filepath.Join(cfg.InputDir, entry.Name()), cat, w)
		if err != nil {
			return err
		}

		if err := outputs.writeResult(res, areas); err != nil {
			return err
		}
		if sink != nil {
			if err := sink.IngestResult(ctx, res); err != nil {
				return fmt.Errorf("storing %s: %w", res.Filename, err)
			}
		}
	}

	if err := outputs.flush(); err != nil {
		return fmt.Errorf("flushing outputs: %w", err)
	}

	fmt.Fprintln(w, "CSV files created:")
	for _, path := range outputs.paths {
		fmt.Fprintln(w, path)
	}
	return nil
}
