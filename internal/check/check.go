// Package check evaluates the hello_bakery agent section against warn and
// crit levels.
package check

import (
	"strconv"

	"codeberg.org/mutker/hellobakery/internal/errors"
)

const (
	// Name is the unique plugin identifier and the agent section name.
	Name = "hello_bakery"
	// ServiceName is the label of the discovered service.
	ServiceName = "Hello bakery!"
	// Ruleset is the parameter ruleset the host binds to the check.
	Ruleset = "hello_bakery"
	// MetricName is the name of the emitted metric.
	MetricName = "hellobakerylevel"

	defaultWarn = 80.0
	defaultCrit = 90.0

	metricMin = 0.0
	metricMax = 100.0

	summaryOK   = "lovely day"
	summaryWarn = "need some coffee"
	summaryCrit = "leave me alone"
)

// Discover always yields exactly one service. The section is not inspected.
func Discover(_ [][]string) []Service {
	return []Service{{}}
}

// Check scans section for lines named after the plugin and emits a metric
// and a result for each of them. A WARN or CRIT result ends the scan, an OK
// result does not. A section without a matching line yields nothing.
//
// A malformed value returns an error and no emissions; the host turns it
// into an UNKNOWN state.
func Check(params Params, section [][]string) ([]Emission, error) {
	var out []Emission

	for i, line := range section {
		if len(line) == 0 || line[0] != Name {
			continue
		}

		value, err := parseValue(i, line)
		if err != nil {
			return nil, err
		}

		out = append(out, Metric{
			Name:  MetricName,
			Value: value,
			Min:   metricMin,
			Max:   metricMax,
		})

		if value > params.Levels.Crit {
			return append(out, Result{State: StateCrit, Summary: summaryCrit}), nil
		}
		if value > params.Levels.Warn {
			return append(out, Result{State: StateWarn, Summary: summaryWarn}), nil
		}

		out = append(out, Result{State: StateOK, Summary: summaryOK})
	}

	return out, nil
}

func parseValue(index int, line []string) (float64, error) {
	errFactory := errors.New()

	if len(line) < 2 {
		return 0, errFactory.WithData(ErrParseFailed, struct {
			Line  int
			Error string
		}{
			Line:  index,
			Error: "missing value field",
		})
	}

	value, err := strconv.ParseFloat(line[1], 64)
	if err != nil {
		return 0, errFactory.Wrap(ErrParseFailed, err)
	}

	return value, nil
}

// NewManifest returns the manifest a host adapter registers.
func NewManifest() Manifest {
	return Manifest{
		Name:          Name,
		ServiceName:   ServiceName,
		Discover:      Discover,
		Check:         Check,
		Ruleset:       Ruleset,
		DefaultParams: DefaultParams(),
	}
}
