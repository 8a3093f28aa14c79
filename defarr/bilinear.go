package defarr

import (
	"context"
	"fmt"

	"github.com/microlens/deflect/grid"
	"github.com/microlens/deflect/lens"
	"github.com/microlens/deflect/logging"
	"github.com/microlens/deflect/math/interpolate"
)

// BlockBilinear refines a field by evaluating only the corners of square
// blocks of Bins x Bins cells and bilinearly interpolating everything
// inside them. Corners shared between neighbouring blocks are evaluated
// once and read back from the field afterwards.
type BlockBilinear struct {
	Bins int
}

// Refine fills f, which covers r, in place.
//
// Blocks are visited with the x block index in the outer loop. For block
// (bx, by) the upper-right corner is always evaluated. The upper-left
// corner is evaluated only when bx == 0, the lower-right only when by == 0
// and the lower-left only for the first block; otherwise they were written
// by an earlier block. Nodes past the last whole block along either axis
// are evaluated directly.
func (b BlockBilinear) Refine(
	ctx context.Context, d lens.Deflector, r grid.Range, f *grid.Field,
) (Stats, error) {
	if err := checkGrid(r, f.Nx, f.Ny); err != nil {
		return Stats{}, err
	} else if b.Bins < 1 {
		return Stats{}, fmt.Errorf("%w: block size %d is not positive",
			ErrInvalidGrid, b.Bins)
	}

	n := b.Bins
	xs, ys := r.Xs(f.Nx), r.Ys(f.Ny)
	ncx, ncy := (f.Nx-1)/n, (f.Ny-1)/n
	blk := interpolate.NewBlock(n)

	st := Stats{}
	eval := func(i, j int) {
		ax, ay := d.Deflect(xs[i], ys[j], &st.Counts)
		f.Set(i, j, ax, ay)
		st.Evaluations++
	}

	prog := logging.NewProgress("block column", ncx, logging.DefaultProgressInterval)
	for bx := 0; bx < ncx; bx++ {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		i0, i1 := bx*n, (bx+1)*n
		for by := 0; by < ncy; by++ {
			j0, j1 := by*n, (by+1)*n

			eval(i1, j1)
			if bx == 0 {
				eval(i0, j1)
			} else {
				st.Reused++
			}
			if by == 0 {
				eval(i1, j0)
			} else {
				st.Reused++
			}
			if bx == 0 && by == 0 {
				eval(i0, j0)
			} else {
				st.Reused++
			}

			st.Interpolated += fillBlock(f, blk, i0, j0)
		}
		prog.Step(bx + 1)
	}

	// Nodes outside the blocked region.
	covered := func(i, j int) bool {
		return ncx > 0 && ncy > 0 && i <= ncx*n && j <= ncy*n
	}
	for i := 0; i < f.Nx; i++ {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		for j := 0; j < f.Ny; j++ {
			if !covered(i, j) {
				eval(i, j)
			}
		}
	}

	return st, nil
}

// fillBlock interpolates the non-corner nodes of the block whose lower-left
// corner is (i0, j0) and returns the number of nodes written.
func fillBlock(f *grid.Field, blk *interpolate.Block, i0, j0 int) int64 {
	n := blk.Size()
	llx, lly := f.At(i0, j0)
	lrx, lry := f.At(i0+n, j0)
	ulx, uly := f.At(i0, j0+n)
	urx, ury := f.At(i0+n, j0+n)

	written := int64(0)
	blk.Fill(llx, lrx, ulx, urx, func(di, dj int, v float64) {
		_, ay := f.At(i0+di, j0+dj)
		f.Set(i0+di, j0+dj, v, ay)
		written++
	})
	blk.Fill(lly, lry, uly, ury, func(di, dj int, v float64) {
		ax, _ := f.At(i0+di, j0+dj)
		f.Set(i0+di, j0+dj, ax, v)
	})
	return written
}
