package defarr

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/microlens/deflect/grid"
	"github.com/microlens/deflect/lens"
	"github.com/microlens/deflect/logging"
)

// DefaultWorkers is the worker count used when a config doesn't set one.
const DefaultWorkers = 4

// DispatchOptions configures a parallel evaluation.
type DispatchOptions struct {
	// Workers is the number of strips, and goroutines, the grid is split
	// into. It must evenly divide the y resolution.
	Workers int
	// Timeout bounds the whole call. Zero means no limit.
	Timeout time.Duration
}

// task is the work assigned to a single worker.
type task struct {
	strip   int
	sub     grid.Range
	nx, ny  int
	verbose bool
}

// partial is the result of a single task. Ownership of field passes to the
// receiver.
type partial struct {
	strip int
	field *grid.Field
	stats Stats
}

// Dispatch evaluates an nx x ny grid over r by splitting the y range into
// opt.Workers equal strips and evaluating each strip on its own goroutine.
// Results are merged by strip index, so the output does not depend on the
// order in which workers finish.
//
// If any worker fails, or the timeout expires, the whole call fails with a
// *WorkerError and no field is returned.
func Dispatch(
	ctx context.Context, d lens.Deflector, r grid.Range, nx, ny int,
	opt DispatchOptions,
) (*grid.Field, Stats, error) {
	if err := checkGrid(r, nx, ny); err != nil {
		return nil, Stats{}, err
	}
	nproc := opt.Workers
	if nproc <= 0 || ny%nproc != 0 {
		return nil, Stats{}, fmt.Errorf(
			"%w: the y resolution, %d, must be divisible by the number of "+
				"workers, %d", ErrInvalidPartition, ny, nproc,
		)
	}

	if opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opt.Timeout)
		defer cancel()
	}

	strips := grid.Strips(r, nproc)
	nyStrip := ny / nproc

	g, gctx := errgroup.WithContext(ctx)
	parts := make(chan partial, nproc)
	for k := range strips {
		t := task{strip: k, sub: strips[k], nx: nx, ny: nyStrip, verbose: k == 0}
		g.Go(func() error { return t.run(gctx, d, parts) })
	}

	done := make(chan error, 1)
	go func() {
		err := g.Wait()
		close(parts)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, Stats{}, err
		}
	case <-ctx.Done():
		return nil, Stats{}, &WorkerError{Strip: -1, Err: ctx.Err()}
	}

	field := grid.NewField(nx, ny)
	st := Stats{Workers: nproc}
	for p := range parts {
		field.SetStrip(p.strip*nyStrip, p.field)
		st.add(p.stats)
	}

	logging.Log().Debug("strips merged", zap.Int("workers", nproc),
		zap.Int64("evaluations", st.Evaluations))
	return field, st, nil
}

// run evaluates the task's strip and sends the result to out. Panics are
// converted into errors.
func (t task) run(ctx context.Context, d lens.Deflector, out chan<- partial) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &WorkerError{Strip: t.strip, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	f, st, err := Evaluate(ctx, d, t.sub, t.nx, t.ny, EvalOptions{Verbose: t.verbose})
	if err != nil {
		return &WorkerError{Strip: t.strip, Err: err}
	}

	out <- partial{strip: t.strip, field: f, stats: st}
	return nil
}
