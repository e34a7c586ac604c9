// Package config loads site-wide scaling defaults from a JSON file so they
// do not have to be repeated on every command invocation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/geostk/teamlucc/internal/raster/scale"
)

// ScalingConfig holds the tunable scaling defaults. All fields are pointers
// so a partial file only overrides what it mentions; absent fields keep the
// built-in defaults from scale.DefaultOptions.
type ScalingConfig struct {
	PowerOf       *int     `json:"power_of,omitempty"`
	MaxOut        *float64 `json:"max_out,omitempty"`
	RoundOutput   *bool    `json:"round_output,omitempty"`
	Workers       *int     `json:"workers,omitempty"`
	ExecutionMode *string  `json:"execution_mode,omitempty"`
	HistogramBins *int     `json:"histogram_bins,omitempty"`
}

// DefaultHistogramBins is used when the config does not set histogram_bins.
const DefaultHistogramBins = 50

// LoadScalingConfig loads a ScalingConfig from a JSON file. The file must
// have a .json extension and stay under the size cap. Fields omitted from
// the file are left nil, so partial configs are safe.
func LoadScalingConfig(path string) (*ScalingConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg ScalingConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", cleanPath, err)
	}
	return &cfg, nil
}

// Options materialises the config over scale.DefaultOptions. An invalid
// execution_mode string is rejected here rather than surfacing later as an
// invalid-parameter error mid-run.
func (c *ScalingConfig) Options() (scale.Options, error) {
	opts := scale.DefaultOptions()
	if c == nil {
		return opts, nil
	}
	if c.PowerOf != nil {
		opts.PowerOf = *c.PowerOf
	}
	if c.MaxOut != nil {
		opts.MaxOut = *c.MaxOut
	}
	if c.RoundOutput != nil {
		opts.Round = *c.RoundOutput
	}
	if c.Workers != nil {
		opts.Workers = *c.Workers
	}
	if c.ExecutionMode != nil {
		mode := scale.ExecutionMode(*c.ExecutionMode)
		if !mode.IsValid() {
			return scale.Options{}, fmt.Errorf("unknown execution_mode %q", *c.ExecutionMode)
		}
		opts.Mode = mode
	}
	return opts, nil
}

// HistBins returns the configured histogram bin count, or the default.
func (c *ScalingConfig) HistBins() int {
	if c == nil || c.HistogramBins == nil || *c.HistogramBins <= 0 {
		return DefaultHistogramBins
	}
	return *c.HistogramBins
}
