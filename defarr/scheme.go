package defarr

import (
	"context"
	"fmt"
	"time"

	"github.com/microlens/deflect/grid"
	"github.com/microlens/deflect/lens"
	"github.com/microlens/deflect/math/interpolate"
)

// Refinement schemes, as numbered in config files.
const (
	SchemeDirect   = 1
	SchemeBilinear = 2
	SchemeSpline   = 3
)

// DefaultBlockBins is the block size used by the interpolating schemes when
// none is given.
const DefaultBlockBins = 64

// Refiner fills in every node of a field covering r.
type Refiner interface {
	Refine(ctx context.Context, d lens.Deflector, r grid.Range, f *grid.Field) (Stats, error)
}

var (
	_ Refiner = Direct{}
	_ Refiner = BlockBilinear{}
	_ Refiner = SplineGrid{}
)

// Direct evaluates every node of the field. If Workers > 0 the evaluation is
// split across that many goroutines with Dispatch.
type Direct struct {
	Workers int
	Timeout time.Duration
}

// Refine evaluates every node of f, which covers r.
func (dr Direct) Refine(
	ctx context.Context, d lens.Deflector, r grid.Range, f *grid.Field,
) (Stats, error) {
	var (
		out *grid.Field
		st  Stats
		err error
	)

	if dr.Workers > 0 {
		opt := DispatchOptions{Workers: dr.Workers, Timeout: dr.Timeout}
		out, st, err = Dispatch(ctx, d, r, f.Nx, f.Ny, opt)
	} else {
		if dr.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, dr.Timeout)
			defer cancel()
		}
		out, st, err = Evaluate(ctx, d, r, f.Nx, f.Ny, EvalOptions{Verbose: true})
		st.Workers = 1
	}
	if err != nil {
		return st, err
	}

	f.CopyFrom(out)
	return st, nil
}

// SplineGrid evaluates the nodes at indices 0, Bins, 2*Bins, ... along each
// axis, plus the last node, and fills the rest of the field with a bicubic
// spline through them.
type SplineGrid struct {
	Bins int
}

// Refine evaluates the knot nodes of f and interpolates the rest.
func (s SplineGrid) Refine(
	ctx context.Context, d lens.Deflector, r grid.Range, f *grid.Field,
) (Stats, error) {
	if err := checkGrid(r, f.Nx, f.Ny); err != nil {
		return Stats{}, err
	} else if s.Bins < 1 {
		return Stats{}, fmt.Errorf("%w: block size %d is not positive",
			ErrInvalidGrid, s.Bins)
	}

	ix, iy := knotIndices(f.Nx, s.Bins), knotIndices(f.Ny, s.Bins)
	if len(ix) < minSplineSamples || len(iy) < minSplineSamples {
		return Stats{}, fmt.Errorf("%w: a block size of %d leaves %d x %d "+
			"spline knots on a %d x %d grid, but at least %d are needed "+
			"along each axis", ErrInsufficientSamples, s.Bins,
			len(ix), len(iy), f.Nx, f.Ny, minSplineSamples)
	}

	xs, ys := r.Xs(f.Nx), r.Ys(f.Ny)
	xk, yk := pick(xs, ix), pick(ys, iy)

	knots, st, err := EvaluateAt(ctx, d, xk, yk, EvalOptions{Verbose: true})
	if err != nil {
		return st, err
	}

	for c := 0; c < 2; c++ {
		sp := interpolate.NewRectSpline(xk, yk, knots.Channel(c))
		f.SetChannel(c, sp.Grid(xs, ys))
	}
	// Knot nodes keep their exact values.
	for a, i := range ix {
		for b, j := range iy {
			ax, ay := knots.At(a, b)
			f.Set(i, j, ax, ay)
		}
	}

	st.Interpolated = int64(f.Nx*f.Ny) - st.Evaluations
	return st, nil
}

// knotIndices returns 0, bins, 2*bins, ... < n, followed by n-1 if it isn't
// already included.
func knotIndices(n, bins int) []int {
	out := []int{}
	for i := 0; i < n; i += bins {
		out = append(out, i)
	}
	if out[len(out)-1] != n-1 {
		out = append(out, n-1)
	}
	return out
}

func pick(xs []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = xs[i]
	}
	return out
}

// SchemeFor returns the Refiner for a numbered scheme. bins is the block
// size used by schemes 2 and 3 and opt configures scheme 1.
func SchemeFor(scheme, bins int, opt DispatchOptions) (Refiner, error) {
	switch scheme {
	case SchemeDirect:
		return Direct{Workers: opt.Workers, Timeout: opt.Timeout}, nil
	case SchemeBilinear:
		return BlockBilinear{Bins: bins}, nil
	case SchemeSpline:
		return SplineGrid{Bins: bins}, nil
	}
	return nil, fmt.Errorf("%w: scheme %d; valid schemes are %d (direct), "+
		"%d (block bilinear) and %d (bicubic spline)", ErrUnsupportedScheme,
		scheme, SchemeDirect, SchemeBilinear, SchemeSpline)
}

// Refine fills f in place using the numbered scheme. f is not modified if
// the scheme is unsupported.
func Refine(
	ctx context.Context, scheme, bins int, opt DispatchOptions,
	d lens.Deflector, r grid.Range, f *grid.Field,
) (Stats, error) {
	ref, err := SchemeFor(scheme, bins, opt)
	if err != nil {
		return Stats{}, err
	}
	return ref.Refine(ctx, d, r, f)
}
