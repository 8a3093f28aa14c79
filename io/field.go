package io

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/microlens/deflect/grid"
)

// fieldRow is a single node of a deflection map.
type fieldRow struct {
	I      int     `csv:"i"`
	J      int     `csv:"j"`
	X      float64 `csv:"x"`
	Y      float64 `csv:"y"`
	AlphaX float64 `csv:"alpha_x"`
	AlphaY float64 `csv:"alpha_y"`
}

// WriteFieldCSV writes every node of f, which was sampled over r, as a row of
// a CSV file. Rows are ordered by i, then j.
func WriteFieldCSV(fname string, f *grid.Field, r grid.Range) error {
	fname, err := ExpandPath(fname)
	if err != nil {
		return err
	}

	xs, ys := r.Xs(f.Nx), r.Ys(f.Ny)
	rows := make([]*fieldRow, 0, f.Nx*f.Ny)
	for i, x := range xs {
		for j, y := range ys {
			ax, ay := f.At(i, j)
			rows = append(rows, &fieldRow{
				I: i, J: j, X: x, Y: y, AlphaX: ax, AlphaY: ay,
			})
		}
	}

	out, err := create(fname)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(&rows, out); err != nil {
		out.Close()
		return fmt.Errorf("could not write deflection map %s: %w", fname, err)
	}
	return out.Close()
}

// ReadFieldCSV reads a deflection map written by WriteFieldCSV. The shape of
// the map is taken from the largest i and j indices.
func ReadFieldCSV(fname string) (*grid.Field, error) {
	fname, err := ExpandPath(fname)
	if err != nil {
		return nil, err
	}

	in, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	rows := []*fieldRow{}
	if err := gocsv.UnmarshalFile(in, &rows); err != nil {
		return nil, fmt.Errorf("could not parse deflection map %s: %w", fname, err)
	}

	nx, ny := 0, 0
	for _, row := range rows {
		if row.I < 0 || row.J < 0 {
			return nil, fmt.Errorf("deflection map %s has a node at "+
				"(%d, %d)", fname, row.I, row.J)
		}
		nx, ny = max(nx, row.I+1), max(ny, row.J+1)
	}
	if len(rows) != nx*ny {
		return nil, fmt.Errorf("deflection map %s has %d rows, but its "+
			"indices span a %d x %d grid", fname, len(rows), nx, ny)
	}

	f := grid.NewField(nx, ny)
	for _, row := range rows {
		f.Set(row.I, row.J, row.AlphaX, row.AlphaY)
	}
	return f, nil
}
