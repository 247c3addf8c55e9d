// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists extracted projection measurements in a
// SQLite database so repeated runs accumulate and can be queried
// without re-parsing the source XML.
package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/matsojr22/projection-tools/pkg/types"
)

const defaultMaxResults = 50

// Store manages the measurement SQLite database.
type Store struct {
	db         *sql.DB
	runID      int64
	maxResults int
}

// Open opens or creates the database at cfg.DBPath and creates the
// schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			input_dir TEXT NOT NULL,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS measurements (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			filename TEXT NOT NULL,
			hemisphere_id TEXT NOT NULL,
			field TEXT NOT NULL,
			area TEXT NOT NULL,
			value TEXT NOT NULL,
			UNIQUE(filename, hemisphere_id, field, area) ON CONFLICT REPLACE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_measurements_filename ON measurements(filename)`,
		`CREATE INDEX IF NOT EXISTS idx_measurements_field ON measurements(hemisphere_id, field)`,
		`CREATE TABLE IF NOT EXISTS injection_sites (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			filename TEXT NOT NULL,
			hemisphere_id TEXT NOT NULL,
			structure_id TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records a new extraction run; subsequent IngestResult
// calls are attributed to it.
func (s *Store) BeginRun(ctx context.Context, inputDir string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (input_dir, started_at) VALUES (?, ?)`,
		inputDir, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}
	s.runID = id
	return nil
}

// IngestResult stores one file's extraction result in a single
// transaction. Re-ingesting a filename replaces its previous
// measurements and injection sites.
func (s *Store) IngestResult(ctx context.Context, res types.ExtractionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM injection_sites WHERE filename = ?`, res.Filename); err != nil {
		return fmt.Errorf("deleting old injection sites: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO measurements (run_id, filename, hemisphere_id, field, area, value)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing measurement insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range types.Hemispheres {
		for _, field := range types.MeasuredFields() {
			for area, value := range res.Table[h][field] {
				if _, err := stmt.ExecContext(ctx, s.runID, res.Filename, h, field, area, value); err != nil {
					return fmt.Errorf("inserting measurement: %w", err)
				}
			}
		}
	}

	for _, site := range res.Sites {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO injection_sites (run_id, filename, hemisphere_id, structure_id)
			 VALUES (?, ?, ?, ?)`,
			s.runID, site.Filename, site.HemisphereID, site.StructureID); err != nil {
			return fmt.Errorf("inserting injection site: %w", err)
		}
	}

	return tx.Commit()
}

// QueryOptions filter measurement queries. Zero-value fields are not
// applied.
type QueryOptions struct {
	Filename     string
	HemisphereID string
	Field        string
	Area         string
	MaxResults   int
}

// IsEmpty reports whether no filter is set.
func (o QueryOptions) IsEmpty() bool {
	return o.Filename == "" && o.HemisphereID == "" && o.Field == "" && o.Area == ""
}

// Measurement is one stored (file, hemisphere, field, area) cell.
type Measurement struct {
	Filename     string `json:"filename"`
	HemisphereID string `json:"hemisphere_id"`
	Field        string `json:"field"`
	Area         string `json:"area"`
	Value        string `json:"value"`
}

// Query returns stored measurements matching opts, ordered by
// filename, hemisphere, field, and area.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]Measurement, error) {
	query := `SELECT filename, hemisphere_id, field, area, value FROM measurements WHERE 1=1`
	var args []any

	if opts.Filename != "" {
		query += ` AND filename = ?`
		args = append(args, opts.Filename)
	}
	if opts.HemisphereID != "" {
		query += ` AND hemisphere_id = ?`
		args = append(args, opts.HemisphereID)
	}
	if opts.Field != "" {
		query += ` AND field = ?`
		args = append(args, opts.Field)
	}
	if opts.Area != "" {
		query += ` AND area = ?`
		args = append(args, opts.Area)
	}

	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}
	query += ` ORDER BY filename, hemisphere_id, field, area LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying measurements: %w", err)
	}
	defer rows.Close()

	var results []Measurement
	for rows.Next() {
		var m Measurement
		if err := rows.Scan(&m.Filename, &m.HemisphereID, &m.Field, &m.Area, &m.Value); err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// InjectionSites returns all stored injection records ordered by
// filename.
func (s *Store) InjectionSites(ctx context.Context) ([]types.InjectionSite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, hemisphere_id, structure_id FROM injection_sites ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("querying injection sites: %w", err)
	}
	defer rows.Close()

	var sites []types.InjectionSite
	for rows.Next() {
		var site types.InjectionSite
		if err := rows.Scan(&site.Filename, &site.HemisphereID, &site.StructureID); err != nil {
			return nil, fmt.Errorf("scanning injection site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// ExportCSV writes the wide-format table for one (hemisphere, field)
// pair to w: header row of area names in the given order, one row per
// stored filename. Areas never stored for a file come out as "0",
// matching the extractor's defaults.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer, hemisphere, field string, areas []string) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, area, value FROM measurements
		 WHERE hemisphere_id = ? AND field = ? ORDER BY filename`,
		hemisphere, field)
	if err != nil {
		return fmt.Errorf("querying export rows: %w", err)
	}
	defer rows.Close()

	byFile := make(map[string]map[string]string)
	var order []string
	for rows.Next() {
		var filename, area, value string
		if err := rows.Scan(&filename, &area, &value); err != nil {
			return fmt.Errorf("scanning export row: %w", err)
		}
		cells, ok := byFile[filename]
		if !ok {
			cells = make(map[string]string, len(areas))
			byFile[filename] = cells
			order = append(order, filename)
		}
		cells[area] = value
	}
	if err := rows.Err(); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"filename"}, areas...)); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}
	for _, filename := range order {
		row := make([]string, 0, len(areas)+1)
		row = append(row, filename)
		for _, area := range areas {
			v, ok := byFile[filename][area]
			if !ok {
				v = "0"
			}
			row = append(row, v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
