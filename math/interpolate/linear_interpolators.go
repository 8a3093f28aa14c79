package interpolate

import (
	"fmt"
)

// Block is a bi-linear interpolator over the nodes of a square block of
// n x n cells. Nodes are addressed by their offsets (di, dj) from the
// lower-left corner, 0 <= di, dj <= n. The fractional offsets k/n are
// computed once, so a Block can be reused for every block of a grid.
type Block struct {
	n    int
	frac []float64
}

// NewBlock creates a Block for blocks which are n cells on a side.
//
// Panics if n < 1.
func NewBlock(n int) *Block {
	if n < 1 {
		panic(fmt.Sprintf("NewBlock given block size %d.", n))
	}

	blk := &Block{n: n, frac: make([]float64, n+1)}
	for k := range blk.frac {
		blk.frac[k] = float64(k) / float64(n)
	}
	return blk
}

// Size returns the number of cells along each side of the block.
func (blk *Block) Size() int { return blk.n }

// Eval interpolates the node at offset (di, dj) from the values at the
// lower-left, lower-right, upper-left and upper-right corners. "Upper" and
// "right" refer to increasing j and i respectively. At the corners
// themselves Eval returns the corner values exactly.
func (blk *Block) Eval(di, dj int, ll, lr, ul, ur float64) float64 {
	switch {
	case di == 0 && dj == 0:
		return ll
	case di == blk.n && dj == 0:
		return lr
	case di == 0 && dj == blk.n:
		return ul
	case di == blk.n && dj == blk.n:
		return ur
	}

	fx, fy := blk.frac[di], blk.frac[dj]
	return ll*(1-fx)*(1-fy) + lr*fx*(1-fy) + ul*(1-fx)*fy + ur*fx*fy
}

// Fill interpolates every node of a block from its corners and writes the
// result with set. Corner nodes are not written.
func (blk *Block) Fill(ll, lr, ul, ur float64, set func(di, dj int, v float64)) {
	n := blk.n
	for di := 0; di <= n; di++ {
		for dj := 0; dj <= n; dj++ {
			if (di == 0 || di == n) && (dj == 0 || dj == n) {
				continue
			}
			set(di, dj, blk.Eval(di, dj, ll, lr, ul, ur))
		}
	}
}
