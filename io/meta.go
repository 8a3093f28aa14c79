package io

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/microlens/deflect/defarr"
	"github.com/microlens/deflect/version"
)

// MapMeta records the parameters a deflection map was computed with.
type MapMeta struct {
	XRange    [2]float64    `yaml:"x_range"`
	YRange    [2]float64    `yaml:"y_range"`
	Nx        int           `yaml:"nx"`
	Ny        int           `yaml:"ny"`
	Bins      int           `yaml:"bins"`
	Workers   int           `yaml:"workers"`
	Scheme    int           `yaml:"scheme"`
	Timeout   time.Duration `yaml:"timeout"`
	Theta     float64       `yaml:"theta"`
	Softening float64       `yaml:"softening"`
	Stars     int           `yaml:"stars"`
	Cells     int           `yaml:"cells"`
}

// Meta is written next to every deflection map.
type Meta struct {
	RunID   string       `yaml:"run_id"`
	Version string       `yaml:"version"`
	Created time.Time    `yaml:"created"`
	Catalog string       `yaml:"catalog"`
	Output  string       `yaml:"output"`
	Map     MapMeta      `yaml:"map"`
	Stats   defarr.Stats `yaml:"stats"`
}

// NewMeta returns a Meta with a fresh run ID for a map computed from cfg.
func NewMeta(cfg defarr.Config) *Meta {
	return &Meta{
		RunID:   uuid.NewString(),
		Version: version.SourceVersion,
		Created: time.Now().UTC(),
		Map: MapMeta{
			XRange:  [2]float64{cfg.Range.X0, cfg.Range.X1},
			YRange:  [2]float64{cfg.Range.Y0, cfg.Range.Y1},
			Nx:      cfg.Nx,
			Ny:      cfg.Ny,
			Bins:    cfg.Bins,
			Workers: cfg.Workers,
			Scheme:  cfg.Scheme,
			Timeout: cfg.Timeout,
		},
	}
}

// MetaPath returns the name of the metadata file for the map at output.
func MetaPath(output string) string { return output + ".meta.yaml" }

// WriteMeta writes m to fname as YAML.
func WriteMeta(fname string, m *Meta) error {
	fname, err := ExpandPath(fname)
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("could not encode metadata for run %s: %w", m.RunID, err)
	}
	f, err := create(fname)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadMeta reads a metadata file written by WriteMeta.
func ReadMeta(fname string) (*Meta, error) {
	fname, err := ExpandPath(fname)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	m := &Meta{}
	if err := yaml.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("could not parse metadata file %s: %w", fname, err)
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		return nil, fmt.Errorf("metadata file %s has invalid run_id '%s': %w",
			fname, m.RunID, err)
	}
	return m, nil
}
