package lens

import (
	"fmt"
	"math"
)

// Cell is a multipole expansion of a group of masses about the point
// (X, Y). Moments[k] is the complex moment a_k = sum_i m_i (z_i - z0)^k,
// so Moments[0] is the total mass. A Cell is only accurate at points well
// outside the region containing its masses.
type Cell struct {
	X, Y    float64
	Moments []complex128
}

// NewCell expands stars about their center of mass up to the given order.
// Panics if there are no stars, the total mass is not positive or order is
// negative.
func NewCell(stars []Star, order int) Cell {
	if order < 0 {
		panic(fmt.Sprintf("NewCell given multipole order %d.", order))
	}

	mass, x0, y0 := 0.0, 0.0, 0.0
	for _, s := range stars {
		mass += s.Mass
		x0 += s.Mass * s.X
		y0 += s.Mass * s.Y
	}
	if mass <= 0 {
		panic(fmt.Sprintf("NewCell given %d stars with total mass %g.",
			len(stars), mass))
	}
	x0, y0 = x0/mass, y0/mass

	c := Cell{X: x0, Y: y0, Moments: make([]complex128, order+1)}
	for _, s := range stars {
		dz, term := complex(s.X-x0, s.Y-y0), complex(s.Mass, 0)
		for k := range c.Moments {
			c.Moments[k] += term
			term *= dz
		}
	}
	return c
}

// Mass returns the total mass of the cell.
func (c *Cell) Mass() float64 {
	if len(c.Moments) == 0 {
		return 0
	}
	return real(c.Moments[0])
}

// deflect evaluates conj(sum_k a_k / w^(k+1)) with w = z - z0. Only the
// monopole term is softened.
func (c *Cell) deflect(x, y, soft2 float64) (ax, ay float64) {
	if len(c.Moments) == 0 {
		return 0, 0
	}

	dx, dy := x-c.X, y-c.Y
	d2 := dx*dx + dy*dy
	if d2 == 0 {
		return 0, 0
	}

	m := real(c.Moments[0])
	ax, ay = m*dx/(d2+soft2), m*dy/(d2+soft2)

	if len(c.Moments) > 1 {
		inv := 1 / complex(dx, dy)
		pow, sum := inv*inv, complex(0, 0)
		for _, a := range c.Moments[1:] {
			sum += a * pow
			pow *= inv
		}
		ax, ay = ax+real(sum), ay-imag(sum)
	}

	return ax, ay
}

// Group splits stars into those within radius of (x0, y0), which are
// returned unchanged, and those outside it. The outer stars are binned onto
// a square lattice of side size anchored at (x0, y0), and each occupied bin
// with positive mass becomes a Cell of the given order. Massless bins are
// dropped.
func Group(stars []Star, x0, y0, radius, size float64, order int) (near []Star, cells []Cell) {
	if size <= 0 {
		panic(fmt.Sprintf("Group given lattice spacing %g.", size))
	}

	type bin struct{ i, j int }
	bins := map[bin][]Star{}
	var keys []bin
	r2 := radius * radius
	for _, s := range stars {
		dx, dy := s.X-x0, s.Y-y0
		if dx*dx+dy*dy <= r2 {
			near = append(near, s)
			continue
		}
		b := bin{int(math.Floor(dx / size)), int(math.Floor(dy / size))}
		if _, ok := bins[b]; !ok {
			keys = append(keys, b)
		}
		bins[b] = append(bins[b], s)
	}

	for _, b := range keys {
		mass := 0.0
		for _, s := range bins[b] {
			mass += s.Mass
		}
		if mass > 0 {
			cells = append(cells, NewCell(bins[b], order))
		}
	}
	return near, cells
}
