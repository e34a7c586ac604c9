// Package statstore persists layer statistics and scaling-run records in a
// local SQLite database.
//
// Computing a layer's min/max is the one expensive step of scaling, so the
// store caches statistics keyed by (source, layer, modification time):
// a lookup with a stale modification time misses and the caller rescans.
// Each scaling run and its chosen per-layer factors are also recorded so
// the factor applied to any stored band can be audited later.
package statstore

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/geostk/teamlucc/internal/raster"
	"github.com/geostk/teamlucc/internal/raster/scale"
)

// Store wraps the SQLite database holding the caches.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and brings its
// schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("statstore: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// nullable maps NaN to NULL for storage; SQLite has no NaN representation.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// SaveStats upserts the statistics for one layer of one source.
// modUnixNanos should be the source file's modification time; it is the
// cache invalidation key.
func (s *Store) SaveStats(sourceID, layerName string, modUnixNanos int64, st raster.Stats) error {
	_, err := s.db.Exec(`
		INSERT INTO layer_stats
			(source_id, layer_name, mod_unix_nanos, min, max, mean, std_dev, cells, missing, updated_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_id, layer_name) DO UPDATE SET
			mod_unix_nanos = excluded.mod_unix_nanos,
			min = excluded.min,
			max = excluded.max,
			mean = excluded.mean,
			std_dev = excluded.std_dev,
			cells = excluded.cells,
			missing = excluded.missing,
			updated_unix_nanos = excluded.updated_unix_nanos`,
		sourceID, layerName, modUnixNanos,
		nullable(st.Min), nullable(st.Max), nullable(st.Mean), nullable(st.StdDev),
		st.Cells, st.Missing, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("statstore: save stats for %s/%s: %w", sourceID, layerName, err)
	}
	return nil
}

// LookupStats returns the cached statistics for the layer, if present and
// recorded against the same modification time. A changed modUnixNanos is a
// miss, not an error.
func (s *Store) LookupStats(sourceID, layerName string, modUnixNanos int64) (raster.Stats, bool, error) {
	var (
		storedMod              int64
		min, max, mean, stdDev sql.NullFloat64
		cells, missing         int
	)
	err := s.db.QueryRow(`
		SELECT mod_unix_nanos, min, max, mean, std_dev, cells, missing
		FROM layer_stats WHERE source_id = ? AND layer_name = ?`,
		sourceID, layerName).
		Scan(&storedMod, &min, &max, &mean, &stdDev, &cells, &missing)
	if err == sql.ErrNoRows {
		return raster.Stats{}, false, nil
	}
	if err != nil {
		return raster.Stats{}, false, fmt.Errorf("statstore: lookup %s/%s: %w", sourceID, layerName, err)
	}
	if storedMod != modUnixNanos {
		return raster.Stats{}, false, nil
	}
	return raster.Stats{
		Min:     fromNullable(min),
		Max:     fromNullable(max),
		Mean:    fromNullable(mean),
		StdDev:  fromNullable(stdDev),
		Cells:   cells,
		Missing: missing,
	}, true, nil
}

// RecordRun stores one scaling run and its per-layer factors, returning the
// generated run ID.
func (s *Store) RecordRun(powerOf int, maxOut float64, rounded bool, factors []scale.Factor) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("statstore: record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO scale_runs (run_id, started_unix_nanos, power_of, max_out, rounded, layer_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UnixNano(), powerOf, maxOut, rounded, len(factors))
	if err != nil {
		return "", fmt.Errorf("statstore: record run: %w", err)
	}

	for i, f := range factors {
		_, err = tx.Exec(`
			INSERT INTO run_factors (run_id, position, layer_name, factor, exponent, degenerate)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, i, f.LayerName, f.Value, f.Exponent, f.Degenerate)
		if err != nil {
			return "", fmt.Errorf("statstore: record factor for %s: %w", f.LayerName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("statstore: record run: %w", err)
	}
	return runID, nil
}

// RunFactors returns the factors recorded for a run, in layer order.
func (s *Store) RunFactors(runID string) ([]scale.Factor, error) {
	rows, err := s.db.Query(`
		SELECT layer_name, factor, exponent, degenerate
		FROM run_factors WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("statstore: factors for run %s: %w", runID, err)
	}
	defer rows.Close()

	var factors []scale.Factor
	for rows.Next() {
		var f scale.Factor
		if err := rows.Scan(&f.LayerName, &f.Value, &f.Exponent, &f.Degenerate); err != nil {
			return nil, fmt.Errorf("statstore: factors for run %s: %w", runID, err)
		}
		factors = append(factors, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("statstore: factors for run %s: %w", runID, err)
	}
	return factors, nil
}
