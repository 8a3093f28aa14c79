package grid

import (
	"fmt"
)

// Field is a dense deflection map with logical shape [Nx][Ny][2]. Channel 0
// holds alpha_x and channel 1 holds alpha_y. Data is indexed as
// Data[(i*Ny + j)*2 + c], so a single x column is contiguous.
type Field struct {
	Nx, Ny int
	Data   []float64
}

// NewField allocates a zeroed nx x ny field.
func NewField(nx, ny int) *Field {
	if nx < 0 || ny < 0 {
		panic(fmt.Sprintf("NewField called with nx = %d, ny = %d.", nx, ny))
	}
	return &Field{Nx: nx, Ny: ny, Data: make([]float64, nx*ny*2)}
}

func (f *Field) idx(i, j int) int { return (i*f.Ny + j) * 2 }

// At returns the deflection stored at node (i, j).
func (f *Field) At(i, j int) (ax, ay float64) {
	k := f.idx(i, j)
	return f.Data[k], f.Data[k+1]
}

// Set stores a deflection at node (i, j).
func (f *Field) Set(i, j int, ax, ay float64) {
	k := f.idx(i, j)
	f.Data[k], f.Data[k+1] = ax, ay
}

// Channel copies channel c into a new slice indexed as vals[i*Ny + j].
func (f *Field) Channel(c int) []float64 {
	out := make([]float64, f.Nx*f.Ny)
	for k := range out {
		out[k] = f.Data[2*k+c]
	}
	return out
}

// SetChannel overwrites channel c with vals, indexed as vals[i*Ny + j].
func (f *Field) SetChannel(c int, vals []float64) {
	if len(vals) != f.Nx*f.Ny {
		panic(fmt.Sprintf("len(vals) = %d, but field is %d x %d.",
			len(vals), f.Nx, f.Ny))
	}
	for k, v := range vals {
		f.Data[2*k+c] = v
	}
}

// SetStrip copies p into the rows [off, off + p.Ny) of f. p must have the
// same Nx as f.
func (f *Field) SetStrip(off int, p *Field) {
	if p.Nx != f.Nx || off < 0 || off+p.Ny > f.Ny {
		panic(fmt.Sprintf("cannot place a %d x %d strip at row %d of a "+
			"%d x %d field.", p.Nx, p.Ny, off, f.Nx, f.Ny))
	}
	for i := 0; i < f.Nx; i++ {
		dst := f.Data[f.idx(i, off):f.idx(i, off+p.Ny)]
		copy(dst, p.Data[p.idx(i, 0):p.idx(i+1, 0)])
	}
}

// CopyFrom overwrites f with the contents of g, which must have the same shape.
func (f *Field) CopyFrom(g *Field) {
	if f.Nx != g.Nx || f.Ny != g.Ny {
		panic(fmt.Sprintf("cannot copy a %d x %d field into a %d x %d field.",
			g.Nx, g.Ny, f.Nx, f.Ny))
	}
	copy(f.Data, g.Data)
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	g := &Field{Nx: f.Nx, Ny: f.Ny, Data: make([]float64, len(f.Data))}
	copy(g.Data, f.Data)
	return g
}
