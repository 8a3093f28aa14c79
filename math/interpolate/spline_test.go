package interpolate

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func mapFunc(xs []float64, f func(float64) float64) []float64 {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = f(x)
	}
	return ys
}

func cubic(x float64) float64 { return 2*x*x*x - x*x + 3*x - 7 }

func TestNaturalSplineLinear(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	sp := NewSpline(xs, []float64{2, 3, 4, 5, 6})

	for _, x := range linspace(0, 4, 41) {
		assert.InDelta(t, x+2, sp.Eval(x), 1e-12, "x = %g", x)
	}
}

func TestNaturalSplineTwoPoints(t *testing.T) {
	sp := NewSpline([]float64{0, 2}, []float64{1, 5})
	assert.InDelta(t, 3.0, sp.Eval(1), 1e-14)
}

func TestNotAKnotReproducesCubic(t *testing.T) {
	knotSets := [][]float64{
		linspace(-1, 1, 4),
		linspace(-2, 3, 9),
		{-1, -0.6, 0.1, 0.2, 0.9, 1.5},
		{3, 2, 1.5, 0, -1},
	}

	for _, xs := range knotSets {
		sp := NewNotAKnotSpline(xs, mapFunc(xs, cubic))
		lo, hi := math.Min(xs[0], xs[len(xs)-1]), math.Max(xs[0], xs[len(xs)-1])

		for _, x := range linspace(lo, hi, 57) {
			assert.InDelta(t, cubic(x), sp.Eval(x), 1e-9, "x = %g, knots %v", x, xs)
		}
		for _, x := range []float64{lo - 0.5, lo - 0.01, hi + 0.01, hi + 0.5} {
			assert.InDelta(t, cubic(x), sp.Extrapolate(x), 1e-9,
				"extrapolated x = %g, knots %v", x, xs)
		}
	}
}

func TestSplinePassesThroughKnots(t *testing.T) {
	rnd := rand.New(rand.NewSource(0))
	xs := make([]float64, 12)
	for i := range xs {
		xs[i] = rnd.Float64()*10 - 5
	}
	sort.Float64s(xs)
	ys := mapFunc(xs, func(float64) float64 { return rnd.Float64() })

	for _, bc := range []Boundary{Natural, NotAKnot} {
		sp := NewBoundarySpline(xs, ys, bc)
		for i := range xs {
			assert.InDelta(t, ys[i], sp.Eval(xs[i]), 1e-12, "%s knot %d", bc, i)
			assert.InDelta(t, ys[i], sp.Extrapolate(xs[i]), 1e-12, "%s knot %d", bc, i)
		}
	}
}

func TestSplineBounds(t *testing.T) {
	xs := linspace(0, 1, 5)
	sp := NewNotAKnotSpline(xs, mapFunc(xs, cubic))

	assert.Panics(t, func() { sp.Eval(1.1) })
	assert.Panics(t, func() { sp.Eval(-0.1) })
	assert.NotPanics(t, func() { sp.Extrapolate(1.1) })

	assert.Panics(t, func() { NewNotAKnotSpline(xs[:3], xs[:3]) })
	assert.Panics(t, func() { NewSpline(xs, xs[:4]) })
	assert.Panics(t, func() { NewSpline([]float64{0, 1, 1, 2}, xs[:4]) })
}

func TestSplineInit(t *testing.T) {
	xs := linspace(0, 1, 6)
	sp := NewNotAKnotSpline(xs, make([]float64, 6))
	assert.Equal(t, 0.0, sp.Eval(0.5))

	sp.Init(xs, mapFunc(xs, cubic))
	assert.InDelta(t, cubic(0.5), sp.Eval(0.5), 1e-12)

	assert.Panics(t, func() { sp.Init(xs[:5], xs[:5]) })
}

func TestTriDiagAt(t *testing.T) {
	// | 2 1 0 |   | 1 |   |  4 |
	// | 1 3 1 | * | 2 | = | 10 |
	// | 0 1 4 |   | 3 |   | 14 |
	as := []float64{0, 1, 1}
	bs := []float64{2, 3, 4}
	cs := []float64{1, 1, 0}
	rs := []float64{4, 10, 14}
	out := make([]float64, 3)

	TriDiagAt(as, bs, cs, rs, out)
	assert.InDeltaSlice(t, []float64{1, 2, 3}, out, 1e-14)

	assert.Panics(t, func() { TriDiagAt(as, bs, cs, rs, out[:2]) })
}

func tensorCubic(x, y float64) float64 {
	return x*x*x - 2*x*y*y + y*y*y - 3*x*x*y + x - y + 0.5
}

func TestRectSplineReproducesTensorCubic(t *testing.T) {
	xs, ys := linspace(-1, 1, 6), linspace(0, 2, 5)
	vals := make([]float64, len(xs)*len(ys))
	for i, x := range xs {
		for j, y := range ys {
			vals[i*len(ys)+j] = tensorCubic(x, y)
		}
	}

	rs := NewRectSpline(xs, ys, vals)
	fx, fy := linspace(-1.2, 1.3, 11), linspace(-0.1, 2.4, 13)
	grid := rs.Grid(fx, fy)
	require.Len(t, grid, len(fx)*len(fy))

	for i, x := range fx {
		for j, y := range fy {
			want := tensorCubic(x, y)
			assert.InDelta(t, want, grid[i*len(fy)+j], 1e-9, "Grid(%g, %g)", x, y)
			assert.InDelta(t, want, rs.Eval(x, y), 1e-9, "Eval(%g, %g)", x, y)
		}
	}
}

func TestRectSplineGridMatchesEval(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	xs, ys := linspace(0, 1, 7), linspace(-3, 1, 8)
	vals := make([]float64, len(xs)*len(ys))
	for i := range vals {
		vals[i] = rnd.NormFloat64()
	}

	rs := NewRectSpline(xs, ys, vals)
	fx, fy := linspace(0, 1.1, 23), linspace(-3, 1.2, 19)
	grid := rs.Grid(fx, fy)
	// Grid never builds the cache used by Eval.
	assert.Nil(t, rs.ySplines)
	assert.Nil(t, rs.xSpline)

	for i, x := range fx {
		for j, y := range fy {
			assert.InDelta(t, rs.Eval(x, y), grid[i*len(fy)+j], 1e-10)
		}
	}

	assert.Len(t, rs.ySplines, len(xs))
	assert.Equal(t, fy[len(fy)-1], rs.lastY)

	knots := rs.Grid(xs, ys)
	assert.InDeltaSlice(t, vals, knots, 1e-12)
}

func TestRectSplinePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewRectSpline(linspace(0, 1, 4), linspace(0, 1, 4), make([]float64, 15))
	})
	assert.Panics(t, func() {
		NewRectSpline(linspace(0, 1, 3), linspace(0, 1, 4), make([]float64, 12))
	})
}

func TestBlock(t *testing.T) {
	blk := NewBlock(4)
	assert.Equal(t, 4, blk.Size())

	ll, lr, ul, ur := 1.0, 2.0, 3.0, 5.0
	assert.Equal(t, ll, blk.Eval(0, 0, ll, lr, ul, ur))
	assert.Equal(t, lr, blk.Eval(4, 0, ll, lr, ul, ur))
	assert.Equal(t, ul, blk.Eval(0, 4, ll, lr, ul, ur))
	assert.Equal(t, ur, blk.Eval(4, 4, ll, lr, ul, ur))
	assert.InDelta(t, 2.75, blk.Eval(2, 2, ll, lr, ul, ur), 1e-15)

	// Bilinear functions are reproduced exactly.
	f := func(di, dj int) float64 {
		x, y := float64(di)/4, float64(dj)/4
		return 1 + 2*x - 3*y + 4*x*y
	}
	written := 0
	blk.Fill(f(0, 0), f(4, 0), f(0, 4), f(4, 4), func(di, dj int, v float64) {
		written++
		assert.InDelta(t, f(di, dj), v, 1e-14, "node (%d, %d)", di, dj)
	})
	assert.Equal(t, 5*5-4, written)

	assert.Panics(t, func() { NewBlock(0) })
}
