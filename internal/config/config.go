// Package config holds the immutable per-run configuration.
//
// A Run value is built once before the batch starts and shared read-only
// across all workers; nothing mutates it afterwards.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

// PNG recompression effort levels.
const (
	PNGEffortFast = "fast"
	PNGEffortMax  = "max"
)

// Run is the configuration for one optimization batch.
type Run struct {
	InputRoot  string
	OutputRoot string
	Quality    int
	Lossless   bool
	Recursive  bool
	MaxEdge    int
	Backup     bool
	Workers    int
	PNGEffort  string
}

// InPlace reports whether optimized files overwrite their sources.
func (c Run) InPlace() bool {
	return c.OutputRoot == ""
}

// Default returns a Run with the documented defaults applied.
func Default() Run {
	return Run{
		Quality:   85,
		Workers:   runtime.NumCPU(),
		PNGEffort: PNGEffortMax,
	}
}

// Validate checks invariants that must hold before a batch starts.
func (c Run) Validate() error {
	if c.InputRoot == "" {
		return fmt.Errorf("input path is required")
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality)
	}
	if c.MaxEdge < 0 {
		return fmt.Errorf("max size must be a positive number of pixels, got %d", c.MaxEdge)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.PNGEffort != PNGEffortFast && c.PNGEffort != PNGEffortMax {
		return fmt.Errorf("png effort must be %q or %q, got %q", PNGEffortFast, PNGEffortMax, c.PNGEffort)
	}
	return nil
}

// File is the optional TOML defaults file. Explicit flags win over file
// values; zero values here mean "not set".
type File struct {
	Quality   int    `toml:"quality"`
	Lossless  bool   `toml:"lossless"`
	Recursive bool   `toml:"recursive"`
	MaxEdge   int    `toml:"max_size"`
	Backup    bool   `toml:"backup"`
	Workers   int    `toml:"workers"`
	PNGEffort string `toml:"png_effort"`
	Output    string `toml:"output"`
}

// LoadFile parses a TOML defaults file.
func LoadFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return f, nil
}
