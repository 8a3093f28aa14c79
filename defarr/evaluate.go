/*package defarr computes deflection maps: dense grids of deflection angles
over a rectangle of the image plane. A map can be evaluated point by point,
split into strips which are evaluated in parallel, or evaluated sparsely and
refined with bilinear or bicubic interpolation.
*/
package defarr

import (
	"context"
	"fmt"

	"github.com/microlens/deflect/grid"
	"github.com/microlens/deflect/lens"
	"github.com/microlens/deflect/logging"
)

// EvalOptions configures a direct evaluation.
type EvalOptions struct {
	// Verbose turns on progress logging for the call.
	Verbose bool
}

func checkGrid(r grid.Range, nx, ny int) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGrid, err)
	} else if nx <= 0 || ny <= 0 {
		return fmt.Errorf("%w: resolution %d x %d is not positive",
			ErrInvalidGrid, nx, ny)
	}
	return nil
}

// Evaluate computes the deflection at every node of an nx x ny grid over
// the half-open range r.
func Evaluate(
	ctx context.Context, d lens.Deflector, r grid.Range, nx, ny int,
	opt EvalOptions,
) (*grid.Field, Stats, error) {
	if err := checkGrid(r, nx, ny); err != nil {
		return nil, Stats{}, err
	}
	return EvaluateAt(ctx, d, r.Xs(nx), r.Ys(ny), opt)
}

// EvaluateAt computes the deflection at every point of the outer product of
// xs and ys. The context is checked before each x column.
func EvaluateAt(
	ctx context.Context, d lens.Deflector, xs, ys []float64, opt EvalOptions,
) (*grid.Field, Stats, error) {
	f := grid.NewField(len(xs), len(ys))
	st := Stats{}

	var prog *logging.Progress
	if opt.Verbose {
		prog = logging.NewProgress("x column", len(xs),
			logging.DefaultProgressInterval)
	}

	for i, x := range xs {
		if err := ctx.Err(); err != nil {
			return nil, st, err
		}
		for j, y := range ys {
			ax, ay := d.Deflect(x, y, &st.Counts)
			f.Set(i, j, ax, ay)
		}
		st.Evaluations += int64(len(ys))
		prog.Step(i + 1)
	}

	return f, st, nil
}
