/*package lens evaluates gravitational deflection angles at single points of
the image plane. A Population holds individual point masses, which are summed
through a Barnes-Hut tree, together with precomputed multipole cells which
summarize distant groups of masses.

Units are chosen so that a point of unit mass has an Einstein radius of one:
a star of mass m at z_i deflects a ray at z by m (z - z_i) / |z - z_i|^2.
*/
package lens

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

// Deflector computes the deflection angle at a single image-plane point.
// Implementations must be deterministic and safe for concurrent use. If c is
// non-nil, the work done by the call is added to it.
type Deflector interface {
	Deflect(x, y float64, c *Counts) (ax, ay float64)
}

// Counts tallies the lens elements used by Deflect calls. Every goroutine
// owns its own Counts.
type Counts struct {
	// Cells is the number of multipole terms evaluated. Aggregate tree nodes
	// opened by the Barnes-Hut walk are counted here too.
	Cells int64 `yaml:"cells"`
	// Stars is the number of individual point masses evaluated.
	Stars int64 `yaml:"stars"`
}

// Add adds the contents of o to c.
func (c *Counts) Add(o Counts) {
	c.Cells += o.Cells
	c.Stars += o.Stars
}

// Star is a single point mass.
type Star struct {
	X, Y, Mass float64
}

// Options configures a Population.
type Options struct {
	// Theta is the Barnes-Hut opening angle used for the star tree. Zero sums
	// every star directly.
	Theta float64
	// Softening is a Plummer softening length applied to point masses and to
	// the monopole term of each cell.
	Softening float64
}

// Validate returns an error if any option is out of range.
func (opt Options) Validate() error {
	if opt.Theta < 0 || math.IsNaN(opt.Theta) {
		return fmt.Errorf("opening angle %g is negative", opt.Theta)
	} else if opt.Softening < 0 || math.IsNaN(opt.Softening) {
		return fmt.Errorf("softening length %g is negative", opt.Softening)
	}
	return nil
}

// particle adapts a Star to barneshut.Particle2.
type particle struct {
	pos r2.Vec
	m   float64
}

func (p *particle) Coord2() r2.Vec { return p.pos }
func (p *particle) Mass() float64  { return p.m }

// Population is a read-only lens model. It is safe to share a single
// Population between any number of goroutines once it has been constructed.
type Population struct {
	stars []Star
	cells []Cell
	plane *barneshut.Plane

	theta, soft2 float64
}

// NewPopulation builds a Population from a set of stars and a set of
// multipole cells. Either may be empty.
func NewPopulation(stars []Star, cells []Cell, opt Options) (*Population, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}

	p := &Population{
		stars: stars, cells: cells,
		theta: opt.Theta, soft2: opt.Softening * opt.Softening,
	}

	if len(stars) > 0 {
		// The tree cannot separate coincident particles, so stars at the
		// same position share one particle.
		ps := make([]barneshut.Particle2, 0, len(stars))
		at := make(map[r2.Vec]*particle, len(stars))
		for i, s := range stars {
			if s.Mass < 0 || math.IsNaN(s.X) || math.IsNaN(s.Y) {
				return nil, fmt.Errorf("star %d at (%g, %g) has mass %g",
					i, s.X, s.Y, s.Mass)
			}
			pos := r2.Vec{X: s.X, Y: s.Y}
			if q, ok := at[pos]; ok {
				q.m += s.Mass
				continue
			}
			q := &particle{pos: pos, m: s.Mass}
			at[pos] = q
			ps = append(ps, q)
		}

		plane, err := barneshut.NewPlane(ps)
		if err != nil {
			return nil, fmt.Errorf("could not build star tree: %w", err)
		}
		p.plane = plane
	}

	return p, nil
}

// Stars returns the number of point masses in the population.
func (p *Population) Stars() int { return len(p.stars) }

// Cells returns the number of multipole cells in the population.
func (p *Population) Cells() int { return len(p.cells) }

// Mass returns the total mass of the population.
func (p *Population) Mass() float64 {
	sum := 0.0
	for _, s := range p.stars {
		sum += s.Mass
	}
	for i := range p.cells {
		sum += p.cells[i].Mass()
	}
	return sum
}

// Deflect returns the deflection angle at (x, y).
func (p *Population) Deflect(x, y float64, c *Counts) (ax, ay float64) {
	for i := range p.cells {
		dx, dy := p.cells[i].deflect(x, y, p.soft2)
		ax, ay = ax+dx, ay+dy
	}
	if c != nil {
		c.Cells += int64(len(p.cells))
	}

	if p.plane != nil {
		ray := &particle{pos: r2.Vec{X: x, Y: y}}
		f := p.plane.ForceOn(ray, p.theta, p.force(c))
		ax, ay = ax+f.X, ay+f.Y
	}

	return ax, ay
}

// force returns a barneshut.Force2 which computes the deflection caused by
// p2 on a massless ray at p1. v points from the ray to the mass.
func (p *Population) force(c *Counts) barneshut.Force2 {
	soft2 := p.soft2
	return func(_, p2 barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
		if c != nil {
			if _, ok := p2.(*particle); ok {
				c.Stars++
			} else {
				c.Cells++
			}
		}

		d2 := r2.Norm2(v) + soft2
		if d2 == 0 {
			return r2.Vec{}
		}
		return r2.Scale(-m2/d2, v)
	}
}
