/*package grid contains the sampling geometry shared by the deflection map
routines: image-plane ranges, half-open coordinate sequences and the dense
[nx][ny][2] layout used for deflection fields.
*/
package grid

import (
	"fmt"
	"math"
)

// Range is a rectangular region of the image plane. Samples are taken over
// the half-open intervals [X0, X1) and [Y0, Y1).
type Range struct {
	X0, X1, Y0, Y1 float64
}

// Validate returns an error if the range is empty, inverted or not finite.
func (r Range) Validate() error {
	for _, v := range []float64{r.X0, r.X1, r.Y0, r.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("range %v has a non-finite bound", r)
		}
	}
	if r.X1 <= r.X0 {
		return fmt.Errorf("x range [%g, %g) is empty", r.X0, r.X1)
	} else if r.Y1 <= r.Y0 {
		return fmt.Errorf("y range [%g, %g) is empty", r.Y0, r.Y1)
	}
	return nil
}

// Xs returns the n half-open x coordinates of the range.
func (r Range) Xs(n int) []float64 { return Linspace(r.X0, r.X1, n) }

// Ys returns the n half-open y coordinates of the range.
func (r Range) Ys(n int) []float64 { return Linspace(r.Y0, r.Y1, n) }

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g) x [%g, %g)", r.X0, r.X1, r.Y0, r.Y1)
}

// Linspace returns n samples of [lo, hi) where sample i is lo + i*(hi-lo)/n.
// hi itself is never sampled.
func Linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*(hi-lo)/float64(n)
	}
	return out
}

// Strips splits r into n equal-height strips along y. Neighbouring strips
// share a single boundary value and the last strip ends exactly at r.Y1, so
// the strips tile [r.Y0, r.Y1) with no gaps or overlaps.
//
// Panics if n <= 0.
func Strips(r Range, n int) []Range {
	if n <= 0 {
		panic(fmt.Sprintf("Strips called with %d strips.", n))
	}

	bounds := make([]float64, n+1)
	dy := (r.Y1 - r.Y0) / float64(n)
	for k := 0; k < n; k++ {
		bounds[k] = r.Y0 + float64(k)*dy
	}
	bounds[n] = r.Y1

	out := make([]Range, n)
	for k := range out {
		out[k] = Range{X0: r.X0, X1: r.X1, Y0: bounds[k], Y1: bounds[k+1]}
	}
	return out
}
