package defarr

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"github.com/microlens/deflect/grid"
	"github.com/microlens/deflect/lens"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var square = grid.Range{X0: -1, X1: 1, Y0: -1, Y1: 1}

// smooth is an analytic deflection field. Its y component is a tensor-product
// cubic, which bicubic splines reproduce exactly.
type smooth struct{}

func (smooth) Deflect(x, y float64, c *lens.Counts) (float64, float64) {
	if c != nil {
		c.Stars++
	}
	return math.Sin(x) * math.Cos(2*y), x*y + y*y*y - 2*x*x*y
}

// linear is reproduced exactly by bilinear interpolation.
type linear struct{}

func (linear) Deflect(x, y float64, c *lens.Counts) (float64, float64) {
	return 2*x + 3*y - 1, -x + 0.5*y + 4*x*y
}

// counting counts calls to an underlying Deflector.
type counting struct {
	d     lens.Deflector
	calls atomic.Int64
}

func (c *counting) Deflect(x, y float64, cs *lens.Counts) (float64, float64) {
	c.calls.Add(1)
	return c.d.Deflect(x, y, cs)
}

// recording remembers how often each point was evaluated.
type recording struct {
	d    lens.Deflector
	mu   sync.Mutex
	seen map[[2]float64]int
}

func newRecording(d lens.Deflector) *recording {
	return &recording{d: d, seen: map[[2]float64]int{}}
}

func (r *recording) Deflect(x, y float64, c *lens.Counts) (float64, float64) {
	r.mu.Lock()
	r.seen[[2]float64{x, y}]++
	r.mu.Unlock()
	return r.d.Deflect(x, y, c)
}

// panicking panics for every point with y >= above.
type panicking struct{ above float64 }

func (p panicking) Deflect(x, y float64, c *lens.Counts) (float64, float64) {
	if y >= p.above {
		panic("evaluator blew up")
	}
	return x, y
}

// sleepy sleeps before every evaluation with y < below.
type sleepy struct {
	below float64
	delay time.Duration
}

func (s sleepy) Deflect(x, y float64, c *lens.Counts) (float64, float64) {
	if y < s.below {
		time.Sleep(s.delay)
	}
	return smooth{}.Deflect(x, y, c)
}

func fieldDiff(want, got *grid.Field, rel, abs float64) string {
	if want.Nx != got.Nx || want.Ny != got.Ny {
		return cmp.Diff([2]int{want.Nx, want.Ny}, [2]int{got.Nx, got.Ny})
	}
	return cmp.Diff(want.Data, got.Data, cmpopts.EquateApprox(rel, abs))
}
