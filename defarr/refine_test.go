package defarr

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microlens/deflect/grid"
	"github.com/microlens/deflect/lens"
	"github.com/microlens/deflect/math/interpolate"
)

func TestUpsampleIdentity(t *testing.T) {
	coarse, _, err := Evaluate(context.Background(), smooth{}, square, 3, 3, EvalOptions{})
	require.NoError(t, err)

	for _, bins := range []int{0, 1} {
		fine, err := Upsample(coarse, square, bins)
		require.NoError(t, err)
		assert.Same(t, coarse, fine)
	}
}

func TestUpsampleInsufficientSamples(t *testing.T) {
	for _, shape := range [][2]int{{3, 8}, {8, 3}, {1, 1}} {
		coarse := grid.NewField(shape[0], shape[1])
		_, err := Upsample(coarse, square, 2)
		assert.ErrorIs(t, err, ErrInsufficientSamples, "%v", shape)
	}
}

func TestUpsampleReproducesControlPoints(t *testing.T) {
	const nx, ny, bins = 12, 9, 3
	coarse, _, err := Evaluate(context.Background(), smooth{}, square, nx, ny, EvalOptions{})
	require.NoError(t, err)

	fine, err := Upsample(coarse, square, bins)
	require.NoError(t, err)
	require.Equal(t, nx*bins, fine.Nx)
	require.Equal(t, ny*bins, fine.Ny)

	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			cx, cy := coarse.At(i, j)
			fx, fy := fine.At(i*bins, j*bins)
			assert.InDelta(t, cx, fx, 1e-12, "node (%d, %d)", i, j)
			assert.InDelta(t, cy, fy, 1e-12, "node (%d, %d)", i, j)
		}
	}
}

func TestUpsampleAccuracy(t *testing.T) {
	const nx, ny, bins = 16, 16, 2
	ctx := context.Background()
	coarse, _, err := Evaluate(ctx, smooth{}, square, nx, ny, EvalOptions{})
	require.NoError(t, err)
	fine, err := Upsample(coarse, square, bins)
	require.NoError(t, err)

	xc, yc := square.Xs(nx), square.Ys(ny)
	xf, yf := square.Xs(nx*bins), square.Ys(ny*bins)
	for i, x := range xf {
		for j, y := range yf {
			dx, dy := smooth{}.Deflect(min(x, xc[nx-1]), min(y, yc[ny-1]), nil)
			fx, fy := fine.At(i, j)
			assert.InDelta(t, dx, fx, 2e-3, "alpha_x at (%d, %d)", i, j)
			// The y component is a tensor-product cubic.
			assert.InDelta(t, dy, fy, 1e-9, "alpha_y at (%d, %d)", i, j)
		}
	}
}

// cubic has the deflection (x^3, y^3).
type cubic struct{}

func (cubic) Deflect(x, y float64, c *lens.Counts) (float64, float64) {
	return x * x * x, y * y * y
}

func TestUpsampleClampsUpperEdges(t *testing.T) {
	coarse, _, err := Evaluate(context.Background(), cubic{}, square, 8, 8, EvalOptions{})
	require.NoError(t, err)
	fine, err := Upsample(coarse, square, 2)
	require.NoError(t, err)

	// x = 0.875 lies past the last coarse sample at x = 0.75.
	ax, _ := fine.At(15, 0)
	cx, _ := coarse.At(7, 0)
	assert.InDelta(t, 0.421875, cx, 1e-15)
	assert.InDelta(t, cx, ax, 1e-12)

	_, ay := fine.At(0, 15)
	_, cy := coarse.At(0, 7)
	assert.InDelta(t, cy, ay, 1e-12)

	for k := 0; k < 16; k++ {
		ex, ey := fine.At(14, k)
		gx, gy := fine.At(15, k)
		assert.InDelta(t, ex, gx, 1e-12, "column 15, row %d", k)
		assert.InDelta(t, ey, gy, 1e-12, "column 15, row %d", k)

		ex, ey = fine.At(k, 14)
		gx, gy = fine.At(k, 15)
		assert.InDelta(t, ex, gx, 1e-12, "row 15, column %d", k)
		assert.InDelta(t, ey, gy, 1e-12, "row 15, column %d", k)
	}

	// Interior nodes follow the cubic exactly.
	ax, ay = fine.At(13, 9)
	assert.InDelta(t, 0.625*0.625*0.625, ax, 1e-12)
	assert.InDelta(t, 0.125*0.125*0.125, ay, 1e-12)
}

func TestBlockBilinearReusesCorners(t *testing.T) {
	rec := newRecording(smooth{})
	f := grid.NewField(9, 9)

	st, err := BlockBilinear{Bins: 4}.Refine(context.Background(), rec, square, f)
	require.NoError(t, err)

	assert.Equal(t, int64(9), st.Evaluations)
	assert.Equal(t, int64(7), st.Reused)
	assert.Len(t, rec.seen, 9)
	for pt, n := range rec.seen {
		assert.Equal(t, 1, n, "corner %v evaluated %d times", pt, n)
	}

	// Every corner, reused or not, equals a fresh evaluation.
	xs, ys := square.Xs(9), square.Ys(9)
	for i := 0; i <= 8; i += 4 {
		for j := 0; j <= 8; j += 4 {
			ex, ey := smooth{}.Deflect(xs[i], ys[j], nil)
			ax, ay := f.At(i, j)
			assert.Equal(t, ex, ax, "corner (%d, %d)", i, j)
			assert.Equal(t, ey, ay, "corner (%d, %d)", i, j)
		}
	}
}

func TestBlockBilinearSharedEdges(t *testing.T) {
	const n = 4
	f := grid.NewField(9, 9)
	_, err := BlockBilinear{Bins: n}.Refine(context.Background(), smooth{}, square, f)
	require.NoError(t, err)

	blk := interpolate.NewBlock(n)
	corners := func(i0, j0 int) (ll, lr, ul, ur float64) {
		ll, _ = f.At(i0, j0)
		lr, _ = f.At(i0+n, j0)
		ul, _ = f.At(i0, j0+n)
		ur, _ = f.At(i0+n, j0+n)
		return
	}

	// The edge i = 4 is shared by the blocks at i0 = 0 and i0 = 4.
	for j := 1; j < n; j++ {
		ll, lr, ul, ur := corners(0, 0)
		left := blk.Eval(n, j, ll, lr, ul, ur)
		ll, lr, ul, ur = corners(n, 0)
		right := blk.Eval(0, j, ll, lr, ul, ur)

		ax, _ := f.At(n, j)
		assert.Equal(t, left, right)
		assert.Equal(t, left, ax)
	}
}

func TestBlockBilinearLinearFieldWithRemainder(t *testing.T) {
	const nx, ny = 11, 10
	f := grid.NewField(nx, ny)
	st, err := BlockBilinear{Bins: 4}.Refine(context.Background(), linear{}, square, f)
	require.NoError(t, err)

	// A 3 x 3 lattice of corners plus the 29 nodes outside the blocks.
	assert.Equal(t, int64(9+29), st.Evaluations)

	xs, ys := square.Xs(nx), square.Ys(ny)
	for i, x := range xs {
		for j, y := range ys {
			ex, ey := linear{}.Deflect(x, y, nil)
			ax, ay := f.At(i, j)
			assert.InDelta(t, ex, ax, 1e-12, "node (%d, %d)", i, j)
			assert.InDelta(t, ey, ay, 1e-12, "node (%d, %d)", i, j)
		}
	}
}

func TestBlockBilinearSmallGrid(t *testing.T) {
	d := &counting{d: smooth{}}
	f := grid.NewField(3, 7)
	st, err := BlockBilinear{Bins: 4}.Refine(context.Background(), d, square, f)
	require.NoError(t, err)

	assert.Equal(t, int64(21), st.Evaluations)
	assert.Equal(t, int64(21), d.calls.Load())

	_, err = BlockBilinear{Bins: 0}.Refine(context.Background(), d, square, f)
	assert.ErrorIs(t, err, ErrInvalidGrid)
}

func TestKnotIndices(t *testing.T) {
	assert.Equal(t, []int{0, 4, 8, 12, 16}, knotIndices(17, 4))
	assert.Equal(t, []int{0, 4, 8, 12, 16, 17}, knotIndices(18, 4))
	assert.Equal(t, []int{0, 1, 2}, knotIndices(3, 1))
	assert.Equal(t, []int{0}, knotIndices(1, 64))
}

func TestSplineGrid(t *testing.T) {
	for _, nx := range []int{17, 18} {
		d := &counting{d: smooth{}}
		f := grid.NewField(nx, nx)

		st, err := SplineGrid{Bins: 4}.Refine(context.Background(), d, square, f)
		require.NoError(t, err)

		k := int64(len(knotIndices(nx, 4)))
		assert.Equal(t, k*k, st.Evaluations)
		assert.Equal(t, k*k, d.calls.Load())
		assert.Equal(t, int64(nx*nx)-k*k, st.Interpolated)

		xs, ys := square.Xs(nx), square.Ys(nx)
		for i, x := range xs {
			for j, y := range ys {
				ex, ey := smooth{}.Deflect(x, y, nil)
				ax, ay := f.At(i, j)
				assert.InDelta(t, ex, ax, 5e-2, "nx = %d, node (%d, %d)", nx, i, j)
				assert.InDelta(t, ey, ay, 1e-9, "nx = %d, node (%d, %d)", nx, i, j)
			}
		}

		for _, i := range knotIndices(nx, 4) {
			for _, j := range knotIndices(nx, 4) {
				ex, ey := smooth{}.Deflect(xs[i], ys[j], nil)
				ax, ay := f.At(i, j)
				assert.Equal(t, ex, ax)
				assert.Equal(t, ey, ay)
			}
		}
	}
}

func TestSplineGridInsufficientSamples(t *testing.T) {
	d := &counting{d: smooth{}}
	_, err := SplineGrid{Bins: 4}.Refine(context.Background(), d, square, grid.NewField(9, 20))
	assert.ErrorIs(t, err, ErrInsufficientSamples)
	assert.Zero(t, d.calls.Load())
}

func TestSchemeFor(t *testing.T) {
	opt := DispatchOptions{Workers: 2}

	ref, err := SchemeFor(SchemeDirect, 8, opt)
	require.NoError(t, err)
	assert.Equal(t, Direct{Workers: 2}, ref)

	ref, err = SchemeFor(SchemeBilinear, 8, opt)
	require.NoError(t, err)
	assert.Equal(t, BlockBilinear{Bins: 8}, ref)

	ref, err = SchemeFor(SchemeSpline, 8, opt)
	require.NoError(t, err)
	assert.Equal(t, SplineGrid{Bins: 8}, ref)

	for _, scheme := range []int{0, 4, -1} {
		_, err := SchemeFor(scheme, 8, opt)
		assert.ErrorIs(t, err, ErrUnsupportedScheme, "scheme %d", scheme)
	}
}

func TestRefineUnsupportedSchemeLeavesField(t *testing.T) {
	d := &counting{d: smooth{}}
	f := grid.NewField(8, 8)
	for k := range f.Data {
		f.Data[k] = math.Pi * float64(k)
	}
	before := f.Clone()

	_, err := Refine(context.Background(), 4, 2, DispatchOptions{Workers: 4}, d, square, f)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
	assert.Equal(t, before.Data, f.Data)
	assert.Zero(t, d.calls.Load())
}

func TestDirectSerialMatchesParallel(t *testing.T) {
	ctx := context.Background()
	serial, parallel := grid.NewField(12, 8), grid.NewField(12, 8)

	st, err := Direct{}.Refine(ctx, smooth{}, square, serial)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Workers)

	st, err = Direct{Workers: 4}.Refine(ctx, smooth{}, square, parallel)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Workers)

	assert.Empty(t, fieldDiff(serial, parallel, 1e-9, 1e-12))
}

func TestDirectInvalidPartitionHasNoFallback(t *testing.T) {
	d := &counting{d: smooth{}}
	f := grid.NewField(10, 7)
	_, err := Direct{Workers: 4}.Refine(context.Background(), d, square, f)
	assert.ErrorIs(t, err, ErrInvalidPartition)
	assert.Zero(t, d.calls.Load())
	assert.Equal(t, make([]float64, len(f.Data)), f.Data)
}
