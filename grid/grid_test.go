package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinspace(t *testing.T) {
	tests := []struct {
		lo, hi float64
		n      int
		want   []float64
	}{
		{-1, 1, 4, []float64{-1, -0.5, 0, 0.5}},
		{0, 1, 1, []float64{0}},
		{2, 3, 0, []float64{}},
	}

	for _, tt := range tests {
		assert.InDeltaSlice(t, tt.want, Linspace(tt.lo, tt.hi, tt.n), 1e-15,
			"Linspace(%g, %g, %d)", tt.lo, tt.hi, tt.n)
	}
}

func TestLinspaceExcludesUpperBound(t *testing.T) {
	xs := Linspace(-3, 7, 1000)
	for _, x := range xs {
		assert.Less(t, x, 7.0)
		assert.GreaterOrEqual(t, x, -3.0)
	}
}

func TestStripsTileRange(t *testing.T) {
	ranges := []Range{
		{-1, 1, -1, 1},
		{0, 1, 0.1, 0.7},
		{-5, 5, -1e3, 3.3e-2},
	}

	for _, r := range ranges {
		for _, n := range []int{1, 2, 3, 4, 7, 16} {
			strips := Strips(r, n)
			require.Len(t, strips, n)

			assert.Equal(t, r.Y0, strips[0].Y0)
			assert.Equal(t, r.Y1, strips[n-1].Y1)
			for k := range strips {
				assert.Equal(t, r.X0, strips[k].X0)
				assert.Equal(t, r.X1, strips[k].X1)
				assert.Less(t, strips[k].Y0, strips[k].Y1)
				if k > 0 {
					assert.Equal(t, strips[k-1].Y1, strips[k].Y0,
						"strips %d and %d of %v", k-1, k, r)
				}
			}
		}
	}
}

func TestStripsPanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { Strips(Range{0, 1, 0, 1}, 0) })
}

func TestRangeValidate(t *testing.T) {
	assert.NoError(t, Range{-1, 1, -1, 1}.Validate())
	assert.Error(t, Range{1, 1, -1, 1}.Validate())
	assert.Error(t, Range{-1, 1, 2, 1}.Validate())
}

func TestFieldLayout(t *testing.T) {
	f := NewField(3, 2)
	f.Set(2, 1, 5, -5)
	f.Set(0, 1, 1, 2)

	ax, ay := f.At(2, 1)
	assert.Equal(t, 5.0, ax)
	assert.Equal(t, -5.0, ay)
	assert.Equal(t, []float64{5, -5}, f.Data[10:12])

	xs := f.Channel(0)
	assert.Equal(t, []float64{0, 1, 0, 0, 0, 5}, xs)

	g := NewField(3, 2)
	g.SetChannel(0, xs)
	g.SetChannel(1, f.Channel(1))
	assert.Equal(t, f.Data, g.Data)
}

func TestFieldSetStrip(t *testing.T) {
	full := NewField(2, 4)
	for off := 0; off < 4; off += 2 {
		p := NewField(2, 2)
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				p.Set(i, j, float64(i), float64(off+j))
			}
		}
		full.SetStrip(off, p)
	}

	for i := 0; i < 2; i++ {
		for j := 0; j < 4; j++ {
			ax, ay := full.At(i, j)
			assert.Equal(t, float64(i), ax)
			assert.Equal(t, float64(j), ay)
		}
	}

	assert.Panics(t, func() { full.SetStrip(3, NewField(2, 2)) })
}

func TestFieldClone(t *testing.T) {
	f := NewField(2, 2)
	f.Set(1, 1, 3, 4)
	g := f.Clone()
	g.Set(1, 1, 0, 0)

	ax, ay := f.At(1, 1)
	assert.Equal(t, 3.0, ax)
	assert.Equal(t, 4.0, ay)
}
