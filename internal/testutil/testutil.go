// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"github.com/geostk/teamlucc/internal/raster"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertCellsEqual compares two cell slices, treating NaN as equal to NaN.
func AssertCellsEqual(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("cell count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		gn, wn := math.IsNaN(got[i]), math.IsNaN(want[i])
		if gn != wn || (!gn && got[i] != want[i]) {
			t.Errorf("cell %d = %v, want %v", i, got[i], want[i])
		}
	}
}

// AssertInDelta checks that got is within delta of want. A NaN got always
// fails, since NaN comparisons would otherwise slip past the threshold.
func AssertInDelta(t *testing.T, got, want, delta float64) {
	t.Helper()
	if !inDelta(got, want, delta) {
		t.Errorf("value = %v, want %v (±%v)", got, want, delta)
	}
}

func inDelta(got, want, delta float64) bool {
	return !math.IsNaN(got) && math.Abs(got-want) <= delta
}

// NewTestLayer builds a named 1xN layer from the given cells.
func NewTestLayer(t *testing.T, name string, cells ...float64) *raster.Layer {
	t.Helper()
	l, err := raster.NewLayer(name, 1, len(cells))
	if err != nil {
		t.Fatalf("NewTestLayer(%q): %v", name, err)
	}
	copy(l.Cells, cells)
	return l
}
