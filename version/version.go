/*package version tracks the semantic version of the source code and checks
that config files were written for it.*/
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// SourceVersion is the version string representing the semantic version number
// of the source code.
const SourceVersion = "0.3.0"

// Version is a parsed semantic version number.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Parse parses a semantic version number string and returns an error if
// the string is invalid.
func Parse(s string) (Version, error) {
	toks := strings.Split(strings.TrimPrefix(strings.TrimSpace(s), "v"), ".")
	if len(toks) != 3 {
		return Version{}, fmt.Errorf("version string '%s' does not take the "+
			"form of three period-separated non-negative numbers", s)
	}

	var parts [3]int
	for i, tok := range toks {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("version string '%s' does not take "+
				"the form of three period-separated non-negative numbers", s)
		}
		parts[i] = n
	}

	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// Later returns true if v represents a later version of the source than w.
func (v Version) Later(w Version) bool {
	if v.Major != w.Major {
		return v.Major > w.Major
	} else if v.Minor != w.Minor {
		return v.Minor > w.Minor
	}
	return v.Patch > w.Patch
}

// Check returns an error if a config file written for version s cannot be
// read by this source. Configs may not come from a later source version or
// from a different major version.
func Check(s string) error {
	v, err := Parse(s)
	if err != nil {
		return err
	}
	src, err := Parse(SourceVersion)
	if err != nil {
		panic(err.Error())
	}

	if v.Later(src) {
		return fmt.Errorf("the config file was written for version %s, "+
			"but this is version %s", v, src)
	} else if v.Major != src.Major {
		return fmt.Errorf("the config file was written for major version %d, "+
			"but this is version %s", v.Major, src)
	}
	return nil
}
