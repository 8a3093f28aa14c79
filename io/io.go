/*The io package contains code for moving deflect's inputs and outputs to and
from disk: star catalogs, deflection maps and the metadata describing how a
map was made.

Every format here is a plain CSV or YAML file so that maps can be inspected
and plotted with whatever tools are at hand. If you're adding a new output
format, the pattern is:

0. Make a file in this directory named after the format.

1. Write a row type whose fields carry `csv` (or `yaml`) tags. gocsv and
yaml.v3 do the rest of the work.

2. Write a ReadX and/or WriteX function that opens the file, expands a
leading ~ in the path with ExpandPath, and converts between the row type
and the types used by the rest of the code (lens.Star, grid.Field).

3. Wire the new function into cmd/map.go and mention it in the example config.
*/
package io

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// ExpandPath expands a leading ~ in fname.
func ExpandPath(fname string) (string, error) {
	out, err := homedir.Expand(fname)
	if err != nil {
		return "", fmt.Errorf("could not expand path '%s': %w", fname, err)
	}
	return out, nil
}

// create creates fname, along with any missing parent directories.
func create(fname string) (*os.File, error) {
	if dir := filepath.Dir(fname); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.Create(fname)
}
