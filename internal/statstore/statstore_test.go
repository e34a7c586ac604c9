package statstore

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geostk/teamlucc/internal/raster"
	"github.com/geostk/teamlucc/internal/raster/scale"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestStats_SaveLookup(t *testing.T) {
	s := openTestStore(t)

	st := raster.Stats{Min: -150.2, Max: 98.7, Mean: -12.5, StdDev: 80.1, Cells: 1000, Missing: 12}
	require.NoError(t, s.SaveStats("scene42.asc", "red", 111, st))

	got, ok, err := s.LookupStats("scene42.asc", "red", 111)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st, got)
}

func TestStats_MissOnUnknownOrStale(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveStats("scene42.asc", "red", 111, raster.Stats{Min: 1, Max: 2, Cells: 4}))

	_, ok, err := s.LookupStats("scene42.asc", "nir", 111)
	require.NoError(t, err)
	assert.False(t, ok, "unknown layer should miss")

	// same layer, changed file modification time
	_, ok, err = s.LookupStats("scene42.asc", "red", 222)
	require.NoError(t, err)
	assert.False(t, ok, "stale modification time should miss")
}

func TestStats_UpsertReplaces(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveStats("a.asc", "b1", 1, raster.Stats{Min: 0, Max: 1, Cells: 4}))
	require.NoError(t, s.SaveStats("a.asc", "b1", 2, raster.Stats{Min: -9, Max: 9, Cells: 4}))

	got, ok, err := s.LookupStats("a.asc", "b1", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -9.0, got.Min)
}

func TestStats_NaNRoundTrip(t *testing.T) {
	s := openTestStore(t)

	// an all-missing layer has NaN statistics; they must survive storage
	st := raster.Stats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), StdDev: math.NaN(), Cells: 4, Missing: 4}
	require.NoError(t, s.SaveStats("void.asc", "b1", 5, st))

	got, ok, err := s.LookupStats("void.asc", "b1", 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, math.IsNaN(got.Min) && math.IsNaN(got.Max))
	assert.Equal(t, 4, got.Missing)
}

func TestRecordRun_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	factors := []scale.Factor{
		{LayerName: "red", Value: 100, Exponent: 2},
		{LayerName: "nir", Value: 10000, Exponent: 4},
		{LayerName: "flat", Value: 1, Exponent: 0, Degenerate: true},
	}
	runID, err := s.RecordRun(10, 32767, true, factors)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	got, err := s.RunFactors(runID)
	require.NoError(t, err)
	assert.Equal(t, factors, got)

	// runs get distinct IDs
	other, err := s.RecordRun(10, 32767, true, factors[:1])
	require.NoError(t, err)
	assert.NotEqual(t, runID, other)
}

func TestRunFactors_UnknownRun(t *testing.T) {
	s := openTestStore(t)
	got, err := s.RunFactors("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, got)
}
