package defarr

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/microlens/deflect/grid"
	"github.com/microlens/deflect/lens"
	"github.com/microlens/deflect/logging"
)

// Config describes a complete deflection map computation.
type Config struct {
	Range  grid.Range
	Nx, Ny int
	// Bins is the block size for schemes 2 and 3 and the upsampling factor
	// for scheme 1. Zero selects the scheme's default.
	Bins int
	// Workers is the number of goroutines used by scheme 1. Zero evaluates
	// the map on the calling goroutine.
	Workers int
	// Scheme is one of SchemeDirect, SchemeBilinear or SchemeSpline. Zero
	// selects SchemeDirect.
	Scheme  int
	Timeout time.Duration
}

// withDefaults fills in the zero-valued fields which have defaults.
func (c Config) withDefaults() Config {
	if c.Scheme == 0 {
		c.Scheme = SchemeDirect
	}
	if c.Bins == 0 {
		if c.Scheme == SchemeDirect {
			c.Bins = 1
		} else {
			c.Bins = DefaultBlockBins
		}
	}
	return c
}

// Validate returns an error if the config cannot describe a map.
func (c Config) Validate() error {
	c = c.withDefaults()
	if err := checkGrid(c.Range, c.Nx, c.Ny); err != nil {
		return err
	} else if c.Bins < 1 {
		return fmt.Errorf("%w: bins = %d is not positive", ErrInvalidGrid, c.Bins)
	} else if c.Workers < 0 {
		return fmt.Errorf("%w: workers = %d is negative",
			ErrInvalidPartition, c.Workers)
	} else if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout %s is negative", ErrInvalidGrid, c.Timeout)
	} else if c.Scheme == SchemeDirect && c.Bins > 1 &&
		(c.Nx < minSplineSamples || c.Ny < minSplineSamples) {
		return fmt.Errorf("%w: upsampling a %d x %d grid needs at least %d "+
			"samples along each axis", ErrInsufficientSamples,
			c.Nx, c.Ny, minSplineSamples)
	}
	_, err := SchemeFor(c.Scheme, c.Bins, DispatchOptions{})
	return err
}

// OutputShape returns the resolution of the field Compute will return.
func (c Config) OutputShape() (nx, ny int) {
	c = c.withDefaults()
	if c.Scheme == SchemeDirect && c.Bins > 1 {
		return c.Nx * c.Bins, c.Ny * c.Bins
	}
	return c.Nx, c.Ny
}

// Compute produces the deflection map described by cfg. With scheme 1 the
// Nx x Ny grid is evaluated directly and then upsampled by a factor of Bins
// if Bins > 1. With schemes 2 and 3 the Nx x Ny grid is filled in by
// interpolating between sparsely evaluated nodes.
func Compute(ctx context.Context, d lens.Deflector, cfg Config) (*grid.Field, Stats, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, Stats{}, err
	}

	opt := DispatchOptions{Workers: cfg.Workers, Timeout: cfg.Timeout}
	ref, err := SchemeFor(cfg.Scheme, cfg.Bins, opt)
	if err != nil {
		return nil, Stats{}, err
	}

	log := logging.Log()
	log.Info("looping through the image plane",
		zap.Stringer("range", cfg.Range),
		zap.Int("nx", cfg.Nx), zap.Int("ny", cfg.Ny),
		zap.Bool("multiprocessing", cfg.Scheme == SchemeDirect && cfg.Workers > 0),
		zap.Int("workers", cfg.Workers),
		zap.Bool("subgrid_interpolation", cfg.Scheme != SchemeDirect),
		zap.Int("scheme", cfg.Scheme), zap.Int("bins", cfg.Bins))

	start := time.Now()
	f := grid.NewField(cfg.Nx, cfg.Ny)
	st, err := ref.Refine(ctx, d, cfg.Range, f)
	if err != nil {
		return nil, st, err
	}

	if cfg.Scheme == SchemeDirect && cfg.Bins > 1 {
		if f, err = Upsample(f, cfg.Range, cfg.Bins); err != nil {
			return nil, st, err
		}
		st.Interpolated += int64(f.Nx*f.Ny) - st.Evaluations
	}
	st.Elapsed = time.Since(start)

	log.Info("deflection map complete", zap.Object("stats", st))
	if logging.Mode == logging.Performance {
		log.Info("memory", zap.String("usage", logging.MemString()))
	}
	return f, st, nil
}
