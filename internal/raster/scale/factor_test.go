package scale

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geostk/teamlucc/internal/monitoring"
	"github.com/geostk/teamlucc/internal/raster"
)

// captureWarnings mutes the package logger for the test and returns a
// pointer to the collected log lines. The logger may be called from several
// worker goroutines at once, so appends are guarded.
func captureWarnings(t *testing.T) *[]string {
	t.Helper()
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.Logf = original })

	var mu sync.Mutex
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func testLayer(t *testing.T, name string, cells ...float64) *raster.Layer {
	t.Helper()
	l, err := raster.NewLayer(name, 1, len(cells))
	require.NoError(t, err)
	copy(l.Cells, cells)
	return l
}

func TestComputeFactor_WorkedExample(t *testing.T) {
	captureWarnings(t)

	// layerMax = 150.2; 32767/150.2 ~ 218.2; floor(log10) = 2 -> factor 100.
	l := testLayer(t, "ndvi", -150.2, 98.7, 12.0, -3.5)
	f, err := ComputeFactor(l, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "ndvi", f.LayerName)
	assert.Equal(t, 2, f.Exponent)
	assert.Equal(t, 100.0, f.Value)
	assert.False(t, f.Degenerate)

	// factor 1000 would push the max to 150200, past the bound
	assert.LessOrEqual(t, 150.2*f.Value, 32767.0)
	assert.Greater(t, 150.2*f.Value*10, 32767.0)
}

func TestComputeFactor_Maximality(t *testing.T) {
	captureWarnings(t)

	tests := []struct {
		layerMax float64
		powerOf  int
		wantExp  int
	}{
		{150.2, 10, 2},
		{1.0, 10, 4},        // 10000 * 1 <= 32767
		{32767.0, 10, 0},    // exactly at the bound
		{32768.0, 10, -1},   // just past it
		{1000000.0, 10, -2}, // factors below one are legal for large-valued layers
		{0.5, 10, 4},        // 0.5 * 10000 = 5000
		{100.0, 2, 8},       // 100 * 256 = 25600 <= 32767 < 51200
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("max=%v base=%d", tt.layerMax, tt.powerOf), func(t *testing.T) {
			opts := DefaultOptions()
			opts.PowerOf = tt.powerOf
			l := testLayer(t, "b", tt.layerMax, -tt.layerMax/2)

			f, err := ComputeFactor(l, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantExp, f.Exponent)
			assert.Equal(t, math.Pow(float64(tt.powerOf), float64(tt.wantExp)), f.Value)

			// maximality: within the bound, and one more power would not be
			assert.LessOrEqual(t, tt.layerMax*f.Value, opts.MaxOut)
			assert.Greater(t, tt.layerMax*f.Value*float64(tt.powerOf), opts.MaxOut)
		})
	}
}

func TestComputeFactor_TinyMagnitudeLayer(t *testing.T) {
	captureWarnings(t)

	// With a subnormal layer max the ratio MaxOut/layerMax overflows
	// float64, so the exponent must be seeded from the log difference. The
	// mathematically maximal power (10^314 here) is itself not
	// representable, which caps the factor at the largest finite power.
	l := testLayer(t, "residual", 1e-310, -1e-312)
	f, err := ComputeFactor(l, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 308, f.Exponent)
	assert.Equal(t, math.Pow(10, 308), f.Value)
	assert.False(t, math.IsInf(f.Value, 1))
	assert.LessOrEqual(t, 1e-310*f.Value, 32767.0)
	assert.True(t, math.IsInf(math.Pow(10, float64(f.Exponent+1)), 1))
}

func TestComputeFactor_SmallNormalLayerMax(t *testing.T) {
	captureWarnings(t)

	// Small but normal magnitude where the ratio stays finite: the log
	// difference seed must agree with the direct computation.
	l := testLayer(t, "residual", 1e-300, -1e-301)
	f, err := ComputeFactor(l, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 304, f.Exponent)
	assert.LessOrEqual(t, 1e-300*f.Value, 32767.0)
	assert.Greater(t, 1e-300*f.Value*10, 32767.0)
}

func TestComputeFactor_InvalidParameters(t *testing.T) {
	captureWarnings(t)
	l := testLayer(t, "b", 1, 2, 3)

	tests := []struct {
		name string
		mod  func(*Options)
	}{
		{"power of one", func(o *Options) { o.PowerOf = 1 }},
		{"power of zero", func(o *Options) { o.PowerOf = 0 }},
		{"negative power", func(o *Options) { o.PowerOf = -2 }},
		{"zero max out", func(o *Options) { o.MaxOut = 0 }},
		{"negative max out", func(o *Options) { o.MaxOut = -10 }},
		{"NaN max out", func(o *Options) { o.MaxOut = math.NaN() }},
		{"infinite max out", func(o *Options) { o.MaxOut = math.Inf(1) }},
		{"bogus mode", func(o *Options) { o.Mode = ExecutionMode("bogus") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mod(&opts)
			_, err := ComputeFactor(l, opts)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}

	_, err := ComputeFactor(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestComputeFactor_DegeneratePolicy(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name  string
		cells []float64
	}{
		{"all zero", []float64{0, 0, 0}},
		{"all missing", []float64{nan, nan, nan}},
		{"zero and missing", []float64{0, nan, 0}},
		{"infinite cell", []float64{1, math.Inf(1), 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := captureWarnings(t)

			f, err := ComputeFactor(testLayer(t, "flat", tt.cells...), DefaultOptions())
			require.NoError(t, err)
			assert.True(t, f.Degenerate)
			assert.Equal(t, 1.0, f.Value)
			assert.Equal(t, 0, f.Exponent)

			found := false
			for _, w := range *warnings {
				if strings.Contains(w, "pinning scale factor to 1") {
					found = true
				}
			}
			assert.True(t, found, "expected a degenerate-layer warning, got %v", *warnings)

			// strict mode surfaces the error instead
			opts := DefaultOptions()
			opts.StrictDegenerate = true
			_, err = ComputeFactor(testLayer(t, "flat", tt.cells...), opts)
			assert.True(t, errors.Is(err, ErrDegenerateLayer), "err = %v", err)
		})
	}
}

func TestComputeFactor_MissingStatsScansOnce(t *testing.T) {
	warnings := captureWarnings(t)

	l := testLayer(t, "b", -5, 10)
	f1, err := ComputeFactor(l, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, *warnings, 1, "first call should warn about the stats scan")
	assert.Contains(t, (*warnings)[0], "no cached statistics")

	// stats are now cached on the layer; the second call is silent and
	// yields the identical factor
	f2, err := ComputeFactor(l, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
	assert.Len(t, *warnings, 1)
}

func TestComputeFactor_HonoursInstalledStats(t *testing.T) {
	captureWarnings(t)

	// cells say layerMax 2, installed stats say 20000; the computed factor
	// must follow the installed statistics, proving no rescan happened
	l := testLayer(t, "b", 1, 2)
	l.SetStats(raster.Stats{Min: -20000, Max: 15, Cells: 2})

	f, err := ComputeFactor(l, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, f.Exponent) // 20000 * 1 <= 32767 < 20000 * 10
}
