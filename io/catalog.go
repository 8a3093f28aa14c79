package io

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/microlens/deflect/lens"
)

// catalogRow is a single line of a star catalog:
//
//	x,y,mass
//	0.25,-1.5,1.0
type catalogRow struct {
	X    float64 `csv:"x"`
	Y    float64 `csv:"y"`
	Mass float64 `csv:"mass"`
}

// ReadCatalog reads a CSV star catalog with the columns x, y and mass.
func ReadCatalog(fname string) ([]lens.Star, error) {
	fname, err := ExpandPath(fname)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows := []*catalogRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("could not parse star catalog %s: %w", fname, err)
	}

	stars := make([]lens.Star, len(rows))
	for i, row := range rows {
		if row.Mass < 0 {
			return nil, fmt.Errorf("star %d of catalog %s has negative "+
				"mass %g", i, fname, row.Mass)
		}
		stars[i] = lens.Star{X: row.X, Y: row.Y, Mass: row.Mass}
	}
	return stars, nil
}

// WriteCatalog writes stars to a CSV catalog readable by ReadCatalog.
func WriteCatalog(fname string, stars []lens.Star) error {
	fname, err := ExpandPath(fname)
	if err != nil {
		return err
	}

	rows := make([]*catalogRow, len(stars))
	for i, s := range stars {
		rows[i] = &catalogRow{X: s.X, Y: s.Y, Mass: s.Mass}
	}

	f, err := create(fname)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		return fmt.Errorf("could not write star catalog %s: %w", fname, err)
	}
	return f.Close()
}
