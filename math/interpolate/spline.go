/*package interpolate provides the smooth and piecewise-linear interpolators
used to refine deflection maps: 1D cubic splines, tensor-product bicubic
splines over rectangular grids and bilinear block interpolation.
*/
package interpolate

import (
	"fmt"
)

// Boundary is the end condition used to close a cubic spline's system of
// equations.
type Boundary int

const (
	// Natural splines have zero second derivative at both end points.
	Natural Boundary = iota
	// NotAKnot splines have a continuous third derivative at the second and
	// second-to-last points, so the first two and last two pieces are each
	// a single cubic. A not-a-knot spline reproduces any cubic exactly.
	NotAKnot
)

func (bc Boundary) String() string {
	switch bc {
	case Natural:
		return "natural"
	case NotAKnot:
		return "not-a-knot"
	}
	return fmt.Sprintf("Boundary(%d)", int(bc))
}

// minPoints is the smallest table the boundary condition can close.
func (bc Boundary) minPoints() int {
	if bc == NotAKnot {
		return 4
	}
	return 2
}

type splineCoeff struct {
	a, b, c, d float64
}

// Spline represents a 1D cubic spline which can be used to interpolate between
// points.
type Spline struct {
	xs, ys, y2s []float64
	coeffs      []splineCoeff
	bc          Boundary

	incr bool
	// Usually the input data is uniform. This is our estimate of the point
	// spacing.
	dx float64
}

// NewSpline creates a natural spline based off a table of x and y values.
// The values must be sorted in increasing or decreasing order in x.
func NewSpline(xs, ys []float64) *Spline {
	return NewBoundarySpline(xs, ys, Natural)
}

// NewNotAKnotSpline creates a not-a-knot spline based off a table of x and y
// values. At least four points are required.
func NewNotAKnotSpline(xs, ys []float64) *Spline {
	return NewBoundarySpline(xs, ys, NotAKnot)
}

// NewBoundarySpline creates a spline with the given end condition.
func NewBoundarySpline(xs, ys []float64, bc Boundary) *Spline {
	if len(xs) != len(ys) {
		panic(fmt.Sprintf("Table given to NewSpline() has len(xs) = %d "+
			"but len(ys) = %d.", len(xs), len(ys)))
	} else if len(xs) < bc.minPoints() {
		panic(fmt.Sprintf("Table given to NewSpline() has length %d, but "+
			"a %s spline needs at least %d points.",
			len(xs), bc, bc.minPoints()))
	}

	sp := &Spline{bc: bc}

	sp.y2s = make([]float64, len(xs))
	sp.coeffs = make([]splineCoeff, len(xs)-1)
	sp.xs, sp.ys = xs, ys
	sp.Init(xs, ys)

	return sp
}

// Init reinitializes a spline to use a new sequence of points without doing
// any additional heap allocations. |xs| and |ys| must be the same as the
// previous point set.
func (sp *Spline) Init(xs, ys []float64) {
	if len(xs) != len(sp.xs) || len(ys) != len(sp.ys) {
		panic("Length of input arrays do not equal internal spline arrays.")
	}
	sp.xs, sp.ys = xs, ys

	sp.incr = xs[0] < xs[1]
	for i := 0; i < len(xs)-1; i++ {
		if (xs[i+1] > xs[i]) != sp.incr {
			panic("Table given to NewSpline() not strictly sorted.")
		}
	}

	sp.dx = (xs[len(xs)-1] - xs[0]) / float64(len(xs)-1)
	switch sp.bc {
	case NotAKnot:
		sp.calcNotAKnotY2s()
	default:
		sp.calcY2s()
	}
	sp.calcCoeffs()
}

// Eval computes the value of the spline at the given point.
//
// x must be within the range of x values given to NewSpline().
func (sp *Spline) Eval(x float64) float64 {
	n := len(sp.xs)
	if x <= sp.xs[0] == sp.incr || x >= sp.xs[n-1] == sp.incr {
		if x == sp.xs[0] {
			return sp.ys[0]
		}
		if x == sp.xs[n-1] {
			return sp.ys[n-1]
		}

		panic(fmt.Sprintf("Point %g given to Spline.Eval() out of bounds "+
			"[%g, %g].", x, sp.xs[0], sp.xs[n-1]))
	}

	return sp.piece(sp.bsearch(x), x)
}

// Extrapolate computes the value of the spline at the given point. Points
// outside the table are evaluated by extending the first or last cubic
// piece.
func (sp *Spline) Extrapolate(x float64) float64 {
	n := len(sp.xs)
	switch {
	case x == sp.xs[0]:
		return sp.ys[0]
	case x == sp.xs[n-1]:
		return sp.ys[n-1]
	case x < sp.xs[0] == sp.incr:
		return sp.piece(0, x)
	case x > sp.xs[n-1] == sp.incr:
		return sp.piece(n-2, x)
	}
	return sp.piece(sp.bsearch(x), x)
}

func (sp *Spline) piece(i int, x float64) float64 {
	dx := x - sp.xs[i]
	a, b, c, d := sp.coeffs[i].a, sp.coeffs[i].b, sp.coeffs[i].c, sp.coeffs[i].d
	return a*dx*dx*dx + b*dx*dx + c*dx + d
}

// bsearch returns the the index of the largest element in xs which is smaller
// than x.
func (sp *Spline) bsearch(x float64) int {
	// Guess under the assumption of uniform spacing.
	guess := int((x - sp.xs[0]) / sp.dx)
	if guess >= 0 && guess < len(sp.xs)-1 &&
		(sp.xs[guess] <= x == sp.incr) &&
		(sp.xs[guess+1] >= x == sp.incr) {

		return guess
	}

	// Binary search.
	lo, hi := 0, len(sp.xs)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if sp.incr == (x >= sp.xs[mid]) {
			lo = mid
		} else {
			hi = mid
		}
	}

	if lo == len(sp.xs)-1 {
		panic(fmt.Sprintf("Point %g out of Spline bounds [%g, %g].",
			x, sp.xs[0], sp.xs[len(sp.xs)-1]))
	}
	return lo
}

// interiorSystem fills in the tridiagonal system for the second derivatives
// at the interior points of the table.
func (sp *Spline) interiorSystem() (as, bs, cs, rs []float64) {
	n := len(sp.xs)
	as, bs = make([]float64, n-2), make([]float64, n-2)
	cs, rs = make([]float64, n-2), make([]float64, n-2)

	xs, ys := sp.xs, sp.ys
	for i := range rs {
		// j indexes into xs and ys.
		j := i + 1

		as[i] = (xs[j] - xs[j-1]) / 6
		bs[i] = (xs[j+1] - xs[j-1]) / 3
		cs[i] = (xs[j+1] - xs[j]) / 6
		rs[i] = ((ys[j+1] - ys[j]) / (xs[j+1] - xs[j])) -
			((ys[j] - ys[j-1]) / (xs[j] - xs[j-1]))
	}
	return as, bs, cs, rs
}

// calcY2s computes the second derivative at every point in the table with
// the boundaries fixed at zero.
func (sp *Spline) calcY2s() {
	n := len(sp.xs)
	sp.y2s[0], sp.y2s[n-1] = 0, 0
	if n == 2 {
		return
	}

	as, bs, cs, rs := sp.interiorSystem()
	TriDiagAt(as, bs, cs, rs, sp.y2s[1:n-1])
}

// calcNotAKnotY2s computes the second derivative at every point in the table
// by eliminating the end points with the not-a-knot conditions
//
//	y2[0]   = y2[1]   (1 + h0/h1)        - y2[2]   h0/h1
//	y2[n-1] = y2[n-2] (1 + hn2/hn3)      - y2[n-3] hn2/hn3
//
// where hk = x[k+1] - x[k].
func (sp *Spline) calcNotAKnotY2s() {
	n, xs := len(sp.xs), sp.xs
	as, bs, cs, rs := sp.interiorSystem()

	h0, h1 := xs[1]-xs[0], xs[2]-xs[1]
	hn2, hn3 := xs[n-1]-xs[n-2], xs[n-2]-xs[n-3]
	lo, hi := h0/h1, hn2/hn3

	last := len(bs) - 1
	bs[0] += as[0] * (1 + lo)
	cs[0] -= as[0] * lo
	bs[last] += cs[last] * (1 + hi)
	as[last] -= cs[last] * hi

	y2s := sp.y2s
	TriDiagAt(as, bs, cs, rs, y2s[1:n-1])
	y2s[0] = y2s[1]*(1+lo) - y2s[2]*lo
	y2s[n-1] = y2s[n-2]*(1+hi) - y2s[n-3]*hi
}

func (sp *Spline) calcCoeffs() {
	coeffs, xs, ys, y2s := sp.coeffs, sp.xs, sp.ys, sp.y2s
	for i := range sp.coeffs {
		dx := xs[i+1] - xs[i]
		coeffs[i].a = (-y2s[i]/6 + y2s[i+1]/6) / dx
		coeffs[i].b = y2s[i] / 2
		coeffs[i].c = (ys[i+1]-ys[i])/dx + dx*(-y2s[i]/3-y2s[i+1]/6)
		coeffs[i].d = ys[i]
	}
}

// TriDiagAt solves the system of equations
//
//	| b0 c0 ..    |   | out0 |   | r0 |
//	| a1 b1 c1 .. |   | out1 |   | r1 |
//	| ..          | * | ..   | = | .. |
//	| ..    an bn |   | outn |   | rn |
//
// For out0 .. outn in place in the given slice.
func TriDiagAt(as, bs, cs, rs, out []float64) {
	if len(as) != len(bs) || len(as) != len(cs) ||
		len(as) != len(out) || len(as) != len(rs) {

		panic("Length of arugments to TriDiagAt are unequal.")
	}

	tmp := make([]float64, len(as))

	beta := bs[0]
	if beta == 0 {
		panic("TriDiagAt cannot solve given system.")
	}
	out[0] = rs[0] / beta

	for i := 1; i < len(out); i++ {
		tmp[i] = cs[i-1] / beta
		beta = bs[i] - as[i]*tmp[i]
		if beta == 0 {
			panic("TriDiagAt cannot solve given system")
		}
		out[i] = (rs[i] - as[i]*out[i-1]) / beta
	}

	for i := len(out) - 2; i >= 0; i-- {
		out[i] -= tmp[i+1] * out[i+1]
	}
}
