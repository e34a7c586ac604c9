// Package ascgrid reads and writes raster layers in the ESRI ASCII grid
// format: a short keyword header (ncols, nrows, xllcorner, yllcorner,
// cellsize, optional NODATA_value) followed by whitespace-separated cell
// values in row-major order, top row first. Center-registered headers
// (xllcenter/yllcenter) are converted to corner registration on read.
//
// On read, cells equal to the declared NODATA value become NaN. On write,
// NaN cells are emitted as the NODATA value and integral cells are printed
// without a fractional part, so rounded integer output stays integer-clean.
package ascgrid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/geostk/teamlucc/internal/raster"
)

// DefaultNoData is the NODATA value written when a layer contains missing
// cells. It is the conventional ESRI sentinel.
const DefaultNoData = -9999.0

// Read parses an ASCII grid from r into a layer with the given name.
func Read(rd io.Reader, name string) (*raster.Layer, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}

	var (
		cols, rows     int
		xll, yll, size float64
		noData         float64
		hasNoData      bool
		xCtr, yCtr     bool
		seen           = map[string]bool{}
		firstCell      string
		haveFirst      bool
	)

	for {
		tok, ok := next()
		if !ok {
			return nil, fmt.Errorf("ascgrid %q: unexpected end of header", name)
		}
		key := strings.ToLower(tok)
		switch key {
		case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
			val, ok := next()
			if !ok {
				return nil, fmt.Errorf("ascgrid %q: header key %s has no value", name, key)
			}
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("ascgrid %q: header %s: bad value %q", name, key, val)
			}
			if seen[key] {
				return nil, fmt.Errorf("ascgrid %q: duplicate header key %s", name, key)
			}
			seen[key] = true
			switch key {
			case "ncols":
				cols = int(f)
			case "nrows":
				rows = int(f)
			case "xllcorner":
				xll = f
			case "xllcenter":
				xll, xCtr = f, true
			case "yllcorner":
				yll = f
			case "yllcenter":
				yll, yCtr = f, true
			case "cellsize":
				size = f
			case "nodata_value":
				noData = f
				hasNoData = true
			}
			continue
		}
		// not a keyword: the header is over and this token is the first cell
		firstCell = tok
		haveFirst = true
		break
	}

	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("ascgrid %q: header declares %dx%d grid", name, rows, cols)
	}
	if !seen["cellsize"] {
		return nil, fmt.Errorf("ascgrid %q: header is missing cellsize", name)
	}
	// Center registration places the coordinate at the middle of the lower
	// left cell, half a cell inward from the corner the layer stores.
	if xCtr {
		xll -= size / 2
	}
	if yCtr {
		yll -= size / 2
	}

	l, err := raster.NewLayer(name, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("ascgrid %q: %w", name, err)
	}
	l.Geometry = raster.Geometry{XLLCorner: xll, YLLCorner: yll, CellSize: size}

	parse := func(i int, tok string) error {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("ascgrid %q: cell %d: bad value %q", name, i, tok)
		}
		if hasNoData && v == noData {
			v = math.NaN()
		}
		l.Cells[i] = v
		return nil
	}

	total := rows * cols
	i := 0
	if haveFirst {
		if err := parse(i, firstCell); err != nil {
			return nil, err
		}
		i++
	}
	for ; i < total; i++ {
		tok, ok := next()
		if !ok {
			return nil, fmt.Errorf("ascgrid %q: grid truncated at cell %d of %d", name, i, total)
		}
		if err := parse(i, tok); err != nil {
			return nil, err
		}
	}
	if tok, ok := next(); ok {
		return nil, fmt.Errorf("ascgrid %q: trailing data %q after %d cells", name, tok, total)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ascgrid %q: %w", name, err)
	}
	return l, nil
}

// ReadFile reads the grid at path. The layer is named after the file's base
// name without its extension.
func ReadFile(path string) (*raster.Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ascgrid: %w", err)
	}
	defer f.Close()

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return Read(f, name)
}

// Write emits the layer as an ASCII grid. NaN cells become DefaultNoData.
func Write(w io.Writer, l *raster.Layer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", l.Cols)
	fmt.Fprintf(bw, "nrows %d\n", l.Rows)
	fmt.Fprintf(bw, "xllcorner %s\n", formatCell(l.Geometry.XLLCorner))
	fmt.Fprintf(bw, "yllcorner %s\n", formatCell(l.Geometry.YLLCorner))
	fmt.Fprintf(bw, "cellsize %s\n", formatCell(l.Geometry.CellSize))
	fmt.Fprintf(bw, "NODATA_value %s\n", formatCell(DefaultNoData))

	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Cols; c++ {
			if c > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return fmt.Errorf("ascgrid %q: %w", l.Name, err)
				}
			}
			v := l.At(r, c)
			if math.IsNaN(v) {
				v = DefaultNoData
			}
			if _, err := bw.WriteString(formatCell(v)); err != nil {
				return fmt.Errorf("ascgrid %q: %w", l.Name, err)
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("ascgrid %q: %w", l.Name, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("ascgrid %q: %w", l.Name, err)
	}
	return nil
}

// WriteFile writes the layer to path, creating or truncating it.
func WriteFile(path string, l *raster.Layer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ascgrid: %w", err)
	}
	if err := Write(f, l); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatCell prints a value with the shortest representation that
// round-trips, which leaves integral values without a fractional part.
func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
