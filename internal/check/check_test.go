package check_test

import (
	"testing"

	"codeberg.org/mutker/hellobakery/internal/check"
	"codeberg.org/mutker/hellobakery/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverAlwaysYieldsOneService(t *testing.T) {
	sections := map[string][][]string{
		"nil":      nil,
		"empty":    {},
		"matching": {{"hello_bakery", "10.0"}},
		"other":    {{"something_else", "1"}},
	}

	for name, section := range sections {
		t.Run(name, func(t *testing.T) {
			services := check.Discover(section)
			require.Len(t, services, 1)
			assert.Equal(t, check.Service{}, services[0])
		})
	}
}

func TestCheckLevels(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    float64
		state   check.State
		summary string
	}{
		{"ok", "10.0", 10.0, check.StateOK, "lovely day"},
		{"warn", "85.0", 85.0, check.StateWarn, "need some coffee"},
		{"crit", "95.0", 95.0, check.StateCrit, "leave me alone"},
		{"equal to warn is ok", "80", 80.0, check.StateOK, "lovely day"},
		{"equal to crit is warn", "90", 90.0, check.StateWarn, "need some coffee"},
		{"negative", "-3.5", -3.5, check.StateOK, "lovely day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := check.Check(check.DefaultParams(), [][]string{{"hello_bakery", tt.value}})
			require.NoError(t, err)
			require.Len(t, out, 2)

			assert.Equal(t, check.Metric{
				Name:  "hellobakerylevel",
				Value: tt.want,
				Min:   0.0,
				Max:   100.0,
			}, out[0])
			assert.Equal(t, check.Result{State: tt.state, Summary: tt.summary}, out[1])
		})
	}
}

func TestCheckEmptySectionYieldsNothing(t *testing.T) {
	out, err := check.Check(check.DefaultParams(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = check.Check(check.DefaultParams(), [][]string{{"other", "99"}, {}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCheckCustomLevels(t *testing.T) {
	params := check.Params{Levels: check.Levels{Warn: 10, Crit: 20}}

	out, err := check.Check(params, [][]string{{"hello_bakery", "15"}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, check.StateWarn, out[1].(check.Result).State)
}

func TestCheckStopsOnFirstTerminalState(t *testing.T) {
	section := [][]string{
		{"hello_bakery", "5"},
		{"hello_bakery", "95"},
		{"hello_bakery", "85"},
	}

	out, err := check.Check(check.DefaultParams(), section)
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.Equal(t, check.Result{State: check.StateOK, Summary: "lovely day"}, out[1])
	assert.Equal(t, 95.0, out[2].(check.Metric).Value)
	assert.Equal(t, check.Result{State: check.StateCrit, Summary: "leave me alone"}, out[3])
}

func TestCheckIgnoresExtraFields(t *testing.T) {
	out, err := check.Check(check.DefaultParams(), [][]string{{"hello_bakery", "42", "extra"}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 42.0, out[0].(check.Metric).Value)
}

func TestCheckParseFailure(t *testing.T) {
	sections := map[string][][]string{
		"not a number":  {{"hello_bakery", "lots"}},
		"missing value": {{"hello_bakery"}},
		"after ok line": {{"hello_bakery", "1"}, {"hello_bakery", "x"}},
	}

	for name, section := range sections {
		t.Run(name, func(t *testing.T) {
			out, err := check.Check(check.DefaultParams(), section)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.HasCode(err, check.ErrParseFailed))
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "OK", check.StateOK.String())
	assert.Equal(t, "WARN", check.StateWarn.String())
	assert.Equal(t, "CRIT", check.StateCrit.String())
	assert.Equal(t, "UNKNOWN", check.StateUnknown.String())
	assert.Equal(t, "State(7)", check.State(7).String())
}

func TestNewManifest(t *testing.T) {
	m := check.NewManifest()

	assert.Equal(t, "hello_bakery", m.Name)
	assert.Equal(t, "Hello bakery!", m.ServiceName)
	assert.Equal(t, "hello_bakery", m.Ruleset)
	assert.Equal(t, check.Levels{Warn: 80.0, Crit: 90.0}, m.DefaultParams.Levels)
	require.NotNil(t, m.Discover)
	require.NotNil(t, m.Check)
}
