package check

import "fmt"

// State is the health state of a service. Values follow the monitoring
// core's numbering.
type State int

const (
	StateOK State = iota
	StateWarn
	StateCrit
	StateUnknown
)

func (s State) String() string {
	switch s {
	case StateOK:
		return "OK"
	case StateWarn:
		return "WARN"
	case StateCrit:
		return "CRIT"
	case StateUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Levels are the upper warn and crit bounds. Warn <= Crit is expected but
// not enforced.
type Levels struct {
	Warn float64 `mapstructure:"warn"`
	Crit float64 `mapstructure:"crit"`
}

// Params are the check parameters supplied by the host per evaluation.
type Params struct {
	Levels Levels `mapstructure:"levels"`
}

// DefaultParams returns the parameters used when no rule overrides them.
func DefaultParams() Params {
	return Params{Levels: Levels{Warn: defaultWarn, Crit: defaultCrit}}
}

// Service is a discovered service. The plugin has no items, so the zero
// value is the only service it ever yields.
type Service struct {
	Item string
}

// Emission is either a Metric or a Result.
type Emission interface {
	emission()
}

// Metric is a graphable value with its boundaries.
type Metric struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

// Result is a health state with a human-readable summary.
type Result struct {
	State   State
	Summary string
}

func (Metric) emission() {}
func (Result) emission() {}

// Manifest describes the check plugin to a host registry.
type Manifest struct {
	Name          string
	ServiceName   string
	Discover      func(section [][]string) []Service
	Check         func(params Params, section [][]string) ([]Emission, error)
	Ruleset       string
	DefaultParams Params
}
