package defarr

import (
	"fmt"

	"github.com/microlens/deflect/grid"
	"github.com/microlens/deflect/math/interpolate"
)

// minSplineSamples is the smallest number of samples per axis which can
// support a not-a-knot cubic fit.
const minSplineSamples = 4

// Upsample fits a bicubic spline through each channel of a coarse field
// sampled over r and evaluates it on a grid which is bins times finer along
// each axis. Fine nodes that coincide with coarse nodes reproduce the coarse
// values. Fine nodes past the last coarse sample take the spline's value at
// the last coarse coordinate of that axis.
//
// If bins <= 1 the coarse field is returned unchanged.
func Upsample(coarse *grid.Field, r grid.Range, bins int) (*grid.Field, error) {
	if bins <= 1 {
		return coarse, nil
	}
	if err := checkGrid(r, coarse.Nx, coarse.Ny); err != nil {
		return nil, err
	}
	if coarse.Nx < minSplineSamples || coarse.Ny < minSplineSamples {
		return nil, fmt.Errorf("%w: the coarse grid is %d x %d, but at least "+
			"%d samples are needed along each axis", ErrInsufficientSamples,
			coarse.Nx, coarse.Ny, minSplineSamples)
	}

	xc, yc := r.Xs(coarse.Nx), r.Ys(coarse.Ny)
	xf, yf := r.Xs(coarse.Nx*bins), r.Ys(coarse.Ny*bins)

	fine := grid.NewField(len(xf), len(yf))
	xf, yf = clamp(xf, xc[0], xc[len(xc)-1]), clamp(yf, yc[0], yc[len(yc)-1])
	for c := 0; c < 2; c++ {
		sp := interpolate.NewRectSpline(xc, yc, coarse.Channel(c))
		fine.SetChannel(c, sp.Grid(xf, yf))
	}
	return fine, nil
}

// clamp limits xs to [lo, hi] in place and returns it.
func clamp(xs []float64, lo, hi float64) []float64 {
	for i := range xs {
		xs[i] = min(max(xs[i], lo), hi)
	}
	return xs
}
