package cmd

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/microlens/deflect/io"
	"github.com/microlens/deflect/lens"
	"github.com/microlens/deflect/parse"
)

// CheckConfig contains the inputs to the check mode, which sanity checks a
// star catalog against expected values without computing a map.
type CheckConfig struct {
	catalog    string
	starCount  int64
	totalMass  float64
	starMasses []float64
}

var _ Mode = &CheckConfig{}

func (config *CheckConfig) ExampleConfig() string {
	return `check:
  # The star catalog being checked.
  Catalog: path/to/stars.csv

  # All the remaining fields are optional. Report float values to at least
  # two decimal places.

  # StarCount: 1000
  # TotalMass: 350.0
  # StarMasses: [0.1, 0.5, 1.0]
`
}

func (config *CheckConfig) ReadConfig(fname string, flags []string) error {
	vars := parse.NewConfigVars("check")

	vars.String(&config.catalog, "Catalog", "")
	vars.Int(&config.starCount, "StarCount", -1)
	vars.Float(&config.totalMass, "TotalMass", -1)
	vars.Floats(&config.starMasses, "StarMasses", []float64{})

	if err := readVars(fname, flags, vars); err != nil {
		return err
	}

	if config.catalog == "" {
		return fmt.Errorf("The 'Catalog' variable isn't set.")
	}
	return nil
}

func (config *CheckConfig) Run(
	ctx context.Context, gConfig *GlobalConfig,
) ([]string, error) {
	stars, err := io.ReadCatalog(config.catalog)
	if err != nil {
		return nil, err
	}
	pop, err := lens.NewPopulation(stars, nil, lens.Options{})
	if err != nil {
		return nil, fmt.Errorf("The catalog %s can't be used as a lens: %s",
			config.catalog, err.Error())
	}

	failedTests := []string{}
	failedTests = countChecks(pop, config, failedTests)
	failedTests = massChecks(stars, config, failedTests)

	if len(failedTests) > 0 {
		header := "Sanity check failed:"
		if len(failedTests) > 1 {
			header = "Sanity checks failed:"
		}
		return nil, fmt.Errorf("%s\n%s", header, strings.Join(failedTests, "\n"))
	}

	return []string{
		fmt.Sprintf("%s: %d stars with total mass %g.",
			config.catalog, pop.Stars(), pop.Mass()),
		massQuantiles(stars),
	}, nil
}

// massQuantiles summarizes the star mass distribution.
func massQuantiles(stars []lens.Star) string {
	ms := make([]float64, len(stars))
	for i, s := range stars {
		ms[i] = s.Mass
	}
	slices.Sort(ms)

	q := func(p float64) float64 { return stat.Quantile(p, stat.Empirical, ms, nil) }
	return fmt.Sprintf("Star masses: min %g, median %g, 90th percentile %g, "+
		"max %g.", ms[0], q(0.5), q(0.9), ms[len(ms)-1])
}

func checkAlmostEq(x, y float64) bool {
	delta := math.Abs(y) / 10
	return math.Abs(x-y) < delta
}

func countChecks(
	pop *lens.Population, config *CheckConfig, failedTests []string,
) []string {
	if pop.Stars() == 0 {
		failedTests = append(failedTests, "The catalog contains no stars.")
	}

	if config.starCount >= 0 && int64(pop.Stars()) != config.starCount {
		msg := fmt.Sprintf(
			"StarCount value in check config is %d, but read value is %d.",
			config.starCount, pop.Stars(),
		)
		failedTests = append(failedTests, msg)
	}

	if config.totalMass > 0 && !checkAlmostEq(config.totalMass, pop.Mass()) {
		msg := fmt.Sprintf(
			"TotalMass value in check config is %g, but read total mass "+
				"is %g.", config.totalMass, pop.Mass(),
		)
		failedTests = append(failedTests, msg)
	}

	return failedTests
}

func massChecks(
	stars []lens.Star, config *CheckConfig, failedTests []string,
) []string {
	if len(config.starMasses) == 0 {
		return failedTests
	}

	for i, s := range stars {
		found := false
		for _, m := range config.starMasses {
			found = found || checkAlmostEq(s.Mass, m)
		}

		if !found {
			msg := fmt.Sprintf(
				"Allowed masses in check config are %g, but star %d has "+
					"mass %g.", config.starMasses, i, s.Mass,
			)
			return append(failedTests, msg)
		}
	}

	return failedTests
}
