package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/microlens/deflect/defarr"
	"github.com/microlens/deflect/grid"
	"github.com/microlens/deflect/io"
	"github.com/microlens/deflect/lens"
	"github.com/microlens/deflect/logging"
	"github.com/microlens/deflect/parse"
)

// MapConfig contains the inputs to the map mode, which computes a
// deflection map from a star catalog.
type MapConfig struct {
	xRange, yRange []float64
	nx, ny         int64
	bins, workers  int64
	scheme         int64
	timeout        time.Duration

	theta, softening float64
	cellRadius       float64
	cellSize         float64
	cellOrder        int64

	catalog, output string
	writeMeta       bool
}

var _ Mode = &MapConfig{}

// ExampleConfig returns an example configuration file.
func (config *MapConfig) ExampleConfig() string {
	return `map:
  # The image-plane region covered by the map. Both ranges are half-open: the
  # last node of each axis sits one spacing below the upper bound.
  XRange: [-10, 10]
  YRange: [-10, 10]
  # The number of evaluated nodes along each axis.
  Nx: 256
  Ny: 256

  # Scheme selects how the map is filled:
  #   1 - Every node is evaluated directly. If Bins > 1, the map is then
  #       upsampled by a factor of Bins with bicubic splines.
  #   2 - Only the corners of Bins x Bins blocks are evaluated. Everything
  #       else is bilinearly interpolated.
  #   3 - Every Bins-th node is evaluated and the rest is filled in with
  #       bicubic splines.
  # Scheme defaults to 1. Bins defaults to 1 for scheme 1 and 64 otherwise.
  Scheme: 1
  Bins: 1
  # Workers is the number of goroutines used by scheme 1. Ny must be
  # divisible by Workers. Setting it to 0 runs everything on one goroutine.
  Workers: 4
  # Timeout bounds the evaluation. 0 means no limit.
  Timeout: 0s

  # Barnes-Hut opening angle for the stars. 0 sums every star directly.
  Theta: 0.5
  # Plummer softening length.
  Softening: 0

  # If CellSize is positive, stars farther than CellRadius from the center of
  # the map are binned onto a lattice with spacing CellSize and replaced by
  # multipole cells of order CellOrder.
  CellRadius: 0
  CellSize: 0
  CellOrder: 4

  # Catalog is a CSV file with the columns x, y and mass. Output is a CSV file
  # with the columns i, j, x, y, alpha_x and alpha_y. Unless WriteMeta is
  # false, a YAML description of the run is written to Output.meta.yaml.
  Catalog: path/to/stars.csv
  Output: path/to/map.csv
  WriteMeta: true
`
}

// ReadConfig reads a config file and applies flag overrides.
func (config *MapConfig) ReadConfig(fname string, flags []string) error {
	vars := parse.NewConfigVars("map")

	vars.Floats(&config.xRange, "XRange", []float64{})
	vars.Floats(&config.yRange, "YRange", []float64{})
	vars.Int(&config.nx, "Nx", -1)
	vars.Int(&config.ny, "Ny", -1)
	vars.Int(&config.bins, "Bins", 0)
	vars.Int(&config.workers, "Workers", int64(defarr.DefaultWorkers))
	vars.Int(&config.scheme, "Scheme", int64(defarr.SchemeDirect))
	vars.Duration(&config.timeout, "Timeout", 0)
	vars.Float(&config.theta, "Theta", 0.5)
	vars.Float(&config.softening, "Softening", 0)
	vars.Float(&config.cellRadius, "CellRadius", 0)
	vars.Float(&config.cellSize, "CellSize", 0)
	vars.Int(&config.cellOrder, "CellOrder", 4)
	vars.String(&config.catalog, "Catalog", "")
	vars.String(&config.output, "Output", "")
	vars.Bool(&config.writeMeta, "WriteMeta", true)

	if err := readVars(fname, flags, vars); err != nil {
		return err
	}
	return config.validate()
}

// validate checks the variables which can be checked without looking at the
// catalog.
func (config *MapConfig) validate() error {
	if len(config.xRange) != 2 {
		return fmt.Errorf("The 'XRange' variable must have two elements, "+
			"but has %d.", len(config.xRange))
	} else if len(config.yRange) != 2 {
		return fmt.Errorf("The 'YRange' variable must have two elements, "+
			"but has %d.", len(config.yRange))
	}

	if config.nx <= 0 {
		return fmt.Errorf("The 'Nx' variable is set to %d, but it must be "+
			"positive.", config.nx)
	} else if config.ny <= 0 {
		return fmt.Errorf("The 'Ny' variable is set to %d, but it must be "+
			"positive.", config.ny)
	}

	direct := config.scheme == 0 || config.scheme == defarr.SchemeDirect
	if direct && config.workers > 0 && config.ny%config.workers != 0 {
		return fmt.Errorf("The 'Ny' variable is set to %d, but it must be "+
			"divisible by 'Workers', which is set to %d.",
			config.ny, config.workers)
	}

	if config.cellSize < 0 {
		return fmt.Errorf("The 'CellSize' variable is set to %g, but it "+
			"can't be negative.", config.cellSize)
	} else if config.cellRadius < 0 {
		return fmt.Errorf("The 'CellRadius' variable is set to %g, but it "+
			"can't be negative.", config.cellRadius)
	} else if config.cellOrder < 0 {
		return fmt.Errorf("The 'CellOrder' variable is set to %d, but it "+
			"can't be negative.", config.cellOrder)
	}

	if err := (lens.Options{Theta: config.theta,
		Softening: config.softening}).Validate(); err != nil {
		return fmt.Errorf("The 'Theta' and 'Softening' variables are "+
			"invalid: %s.", err.Error())
	}

	if err := config.defarrConfig().Validate(); err != nil {
		return fmt.Errorf("The map variables describe an invalid map: %s.",
			err.Error())
	}

	if config.catalog == "" {
		return fmt.Errorf("The 'Catalog' variable isn't set.")
	}
	return nil
}

// defarrConfig converts the map variables to a defarr.Config.
func (config *MapConfig) defarrConfig() defarr.Config {
	r := grid.Range{}
	if len(config.xRange) == 2 && len(config.yRange) == 2 {
		r = grid.Range{X0: config.xRange[0], X1: config.xRange[1],
			Y0: config.yRange[0], Y1: config.yRange[1]}
	}
	return defarr.Config{
		Range:   r,
		Nx:      int(config.nx),
		Ny:      int(config.ny),
		Bins:    int(config.bins),
		Workers: int(config.workers),
		Scheme:  int(config.scheme),
		Timeout: config.timeout,
	}
}

// population reads the catalog and builds the lens model from it.
func (config *MapConfig) population() (*lens.Population, error) {
	stars, err := io.ReadCatalog(config.catalog)
	if err != nil {
		return nil, err
	}

	var cells []lens.Cell
	if config.cellSize > 0 {
		r := config.defarrConfig().Range
		x0, y0 := (r.X0+r.X1)/2, (r.Y0+r.Y1)/2
		stars, cells = lens.Group(stars, x0, y0, config.cellRadius,
			config.cellSize, int(config.cellOrder))
	}

	return lens.NewPopulation(stars, cells, lens.Options{
		Theta: config.theta, Softening: config.softening,
	})
}

// Run computes the map and writes it to disk. It returns the names of the
// files it wrote.
func (config *MapConfig) Run(
	ctx context.Context, gConfig *GlobalConfig,
) ([]string, error) {
	if config.output == "" {
		return nil, fmt.Errorf("The 'Output' variable isn't set.")
	}

	log := logging.Log()
	pop, err := config.population()
	if err != nil {
		return nil, err
	}
	log.Info("read star catalog", zap.String("catalog", config.catalog),
		zap.Int("stars", pop.Stars()), zap.Int("cells", pop.Cells()),
		zap.Float64("mass", pop.Mass()))

	cfg := config.defarrConfig()
	f, st, err := defarr.Compute(ctx, pop, cfg)
	if err != nil {
		return nil, err
	}

	out, err := io.ExpandPath(config.output)
	if err != nil {
		return nil, err
	}
	if err := io.WriteFieldCSV(out, f, cfg.Range); err != nil {
		return nil, err
	}
	lines := []string{out}

	if config.writeMeta {
		meta := io.NewMeta(cfg)
		meta.Catalog, meta.Output, meta.Stats = config.catalog, out, st
		meta.Map.Theta, meta.Map.Softening = config.theta, config.softening
		meta.Map.Stars, meta.Map.Cells = pop.Stars(), pop.Cells()

		metaName := io.MetaPath(out)
		if err := io.WriteMeta(metaName, meta); err != nil {
			return nil, err
		}
		log.Info("wrote map", zap.String("run_id", meta.RunID),
			zap.String("output", out), zap.String("meta", metaName))
		lines = append(lines, metaName)
	}

	return lines, nil
}
