package interpolate

import (
	"fmt"

	"github.com/gonum/matrix/mat64"
)

// RectSpline is a bicubic tensor-product spline through values on a
// rectangular grid. Both axes use not-a-knot end conditions and points
// outside the grid are extrapolated with the boundary cubic pieces.
//
// Eval builds the splines along y on its first call and caches the spline
// along x for the most recent y, so a RectSpline is not thread safe. Grid
// does not use the cache.
type RectSpline struct {
	xs, ys []float64
	vals   []float64
	ny     int

	lastY       float64
	ySplines    []*Spline
	xSplineVals []float64
	xSpline     *Spline
}

// NewRectSpline creates a spline through vals, where the value at (xs[i],
// ys[j]) is vals[i*len(ys) + j]. Both axes need at least four points.
func NewRectSpline(xs, ys, vals []float64) *RectSpline {
	if len(xs)*len(ys) != len(vals) {
		panic(fmt.Sprintf(
			"len(vals) = %d, but len(xs) = %d and len(ys) = %d",
			len(vals), len(xs), len(ys),
		))
	}

	return &RectSpline{xs: xs, ys: ys, vals: vals, ny: len(ys)}
}

func (rs *RectSpline) initSplines(y float64) {
	rs.ySplines = make([]*Spline, len(rs.xs))
	for xi := range rs.xs {
		rs.ySplines[xi] = NewNotAKnotSpline(
			rs.ys, rs.vals[xi*rs.ny:(xi+1)*rs.ny],
		)
	}

	rs.lastY = y
	rs.xSplineVals = make([]float64, len(rs.xs))
	for i := range rs.xSplineVals {
		rs.xSplineVals[i] = rs.ySplines[i].Extrapolate(rs.lastY)
	}
	rs.xSpline = NewNotAKnotSpline(rs.xs, rs.xSplineVals)
}

// Eval evaluates the spline at a single point.
func (rs *RectSpline) Eval(x, y float64) float64 {
	if rs.ySplines == nil {
		rs.initSplines(y)
	} else if y != rs.lastY {
		rs.lastY = y
		for i := range rs.xSplineVals {
			rs.xSplineVals[i] = rs.ySplines[i].Extrapolate(y)
		}
		rs.xSpline.Init(rs.xs, rs.xSplineVals)
	}

	return rs.xSpline.Extrapolate(x)
}

// Grid evaluates the spline at every point of the outer product of xs and
// ys. The result is indexed as out[i*len(ys) + j].
//
// A spline is linear in its knot values, so the grid is computed as
// Wx * Z * Wy^T, where Z holds the knot values and row p of Wx holds the
// weights each x knot contributes at xs[p].
func (rs *RectSpline) Grid(xs, ys []float64) []float64 {
	wx := splineWeights(rs.xs, xs)
	wy := splineWeights(rs.ys, ys)
	z := mat64.NewDense(len(rs.xs), rs.ny, rs.vals)

	tmp := mat64.NewDense(len(xs), rs.ny, nil)
	tmp.Mul(wx, z)
	grid := mat64.NewDense(len(xs), len(ys), nil)
	grid.Mul(tmp, wy.T())

	out := make([]float64, len(xs)*len(ys))
	for i := range xs {
		copy(out[i*len(ys):(i+1)*len(ys)], grid.RawRowView(i))
	}
	return out
}

// splineWeights returns the len(pts) x len(knots) matrix whose column k is
// the not-a-knot spline through the k-th unit vector evaluated at pts.
func splineWeights(knots, pts []float64) *mat64.Dense {
	w := mat64.NewDense(len(pts), len(knots), nil)
	unit := make([]float64, len(knots))
	sp := NewNotAKnotSpline(knots, unit)

	for k := range knots {
		for i := range unit {
			unit[i] = 0
		}
		unit[k] = 1
		sp.Init(knots, unit)

		for p, x := range pts {
			w.Set(p, k, sp.Extrapolate(x))
		}
	}
	return w
}
