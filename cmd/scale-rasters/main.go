// Command scale-rasters rescales floating-point raster layers into an
// integer-safe range. Each input .asc file becomes one layer; the tool
// computes a per-layer power-of-base scale factor, optionally applies it,
// and writes the scaled layers (or just prints the factors).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/geostk/teamlucc/internal/config"
	"github.com/geostk/teamlucc/internal/histplot"
	"github.com/geostk/teamlucc/internal/raster"
	"github.com/geostk/teamlucc/internal/raster/ascgrid"
	"github.com/geostk/teamlucc/internal/raster/scale"
	"github.com/geostk/teamlucc/internal/statstore"
	"github.com/geostk/teamlucc/internal/version"
)

var (
	configPath  = flag.String("config", "", "optional JSON file with scaling defaults")
	powerOf     = flag.Int("power-of", 10, "base of the scale factor")
	maxOut      = flag.Float64("max-out", 32767, "bound on the absolute value of scaled cells")
	noRound     = flag.Bool("no-round", false, "do not round scaled cells to integers")
	factorsOnly = flag.Bool("factors-only", false, "print per-layer factors instead of writing scaled output")
	workers     = flag.Int("workers", 0, "parallel worker count (0 = one per CPU)")
	mode        = flag.String("mode", "auto", "execution mode: auto, sequential or parallel")
	outDir      = flag.String("out-dir", ".", "directory for scaled .asc output")
	statsDB     = flag.String("stats-db", "", "optional SQLite statistics cache")
	plotDir     = flag.String("plot-dir", "", "optional directory for before/after histograms")
	showVersion = flag.Bool("version", false, "print the version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println("scale-rasters", version.String())
		return
	}
	if flag.NArg() == 0 {
		log.Fatalf("usage: scale-rasters [flags] layer.asc [layer.asc ...]")
	}
	if err := run(flag.Args()); err != nil {
		log.Fatalf("scale-rasters: %v", err)
	}
}

func run(files []string) error {
	var cfg *config.ScalingConfig
	if *configPath != "" {
		loaded, err := config.LoadScalingConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	opts, err := buildOptions(cfg)
	if err != nil {
		return err
	}

	var store *statstore.Store
	if *statsDB != "" {
		store, err = statstore.Open(*statsDB)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	layers, mods, err := loadLayers(files, store)
	if err != nil {
		return err
	}

	var in scale.Input
	if len(layers) == 1 {
		in = scale.SingleLayer(layers[0])
	} else {
		r, err := raster.New(layers...)
		if err != nil {
			return err
		}
		in = scale.MultiLayer(r)
	}

	res, err := scale.Scale(in, opts)
	if err != nil {
		return err
	}

	if store != nil {
		// the scan, if one happened, cached stats on the inputs; keep them
		// for the next run, and record what was applied
		for i, l := range layers {
			if st, ok := l.Stats(); ok {
				if err := store.SaveStats(files[i], l.Name, mods[i], st); err != nil {
					return err
				}
			}
		}
		runID, err := store.RecordRun(opts.PowerOf, opts.MaxOut, opts.Round, res.Factors())
		if err != nil {
			return err
		}
		log.Printf("recorded run %s (%d layers)", runID, len(res.Factors()))
	}

	if !opts.DoScaling {
		for _, f := range res.Factors() {
			fmt.Printf("%s\t%g\t(%d^%d)\n", f.LayerName, f.Value, opts.PowerOf, f.Exponent)
		}
		return nil
	}

	outputs := make([]*raster.Layer, 0, len(layers))
	if res.IsSingle() {
		outputs = append(outputs, res.Layer())
	} else {
		for i := 0; i < res.Raster().Len(); i++ {
			outputs = append(outputs, res.Raster().Layer(i))
		}
	}

	for i, out := range outputs {
		path := outputPath(*outDir, out.Name)
		if err := ascgrid.WriteFile(path, out); err != nil {
			return err
		}
		log.Printf("wrote %s (factor %g)", path, res.Factors()[i].Value)

		if *plotDir != "" {
			bins := cfg.HistBins()
			before := filepath.Join(*plotDir, out.Name+"_before.png")
			after := filepath.Join(*plotDir, out.Name+"_after.png")
			if err := histplot.PlotLayer(layers[i], bins, before); err != nil {
				return err
			}
			if err := histplot.PlotLayer(out, bins, after); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildOptions layers the precedence: built-in defaults, then the config
// file, then any flag the user set explicitly.
func buildOptions(cfg *config.ScalingConfig) (scale.Options, error) {
	opts, err := cfg.Options()
	if err != nil {
		return scale.Options{}, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "power-of":
			opts.PowerOf = *powerOf
		case "max-out":
			opts.MaxOut = *maxOut
		case "no-round":
			opts.Round = !*noRound
		case "workers":
			if *workers > 0 {
				opts.Workers = *workers
			}
		case "mode":
			opts.Mode = scale.ExecutionMode(*mode)
		}
	})
	opts.DoScaling = !*factorsOnly
	if !opts.Mode.IsValid() {
		return scale.Options{}, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	return opts, nil
}

// loadLayers reads every input file and, when a statistics cache is
// available, installs cached stats so unchanged files skip the full scan.
func loadLayers(files []string, store *statstore.Store) ([]*raster.Layer, []int64, error) {
	layers := make([]*raster.Layer, 0, len(files))
	mods := make([]int64, 0, len(files))
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, fmt.Errorf("stat %s: %w", path, err)
		}
		mod := info.ModTime().UnixNano()

		l, err := ascgrid.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}

		if store != nil {
			st, ok, err := store.LookupStats(path, l.Name, mod)
			if err != nil {
				return nil, nil, err
			}
			if ok {
				l.SetStats(st)
			}
		}
		layers = append(layers, l)
		mods = append(mods, mod)
	}
	return layers, mods, nil
}

// outputPath names the scaled counterpart of a layer.
func outputPath(dir, layerName string) string {
	return filepath.Join(dir, layerName+"_scaled.asc")
}
