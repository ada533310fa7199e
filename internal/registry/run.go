package registry

import (
	"strings"

	"codeberg.org/mutker/hellobakery/internal/bakery"
	"codeberg.org/mutker/hellobakery/internal/check"
	"codeberg.org/mutker/hellobakery/internal/errors"
)

// Outcome is what the host makes of one check run.
type Outcome struct {
	Plugin     string
	Service    string
	Discovered bool
	// Stale is set when the check emitted nothing. The host shows the
	// service as stale, not UNKNOWN.
	Stale   bool
	Metrics []check.Metric
	Result  check.Result
	// Err is the error propagated by the check, if any. Result is UNKNOWN
	// in that case.
	Err error
}

// RunCheck runs discovery and the check of plugin name against section.
// Nil params select the manifest's defaults. The returned error only
// reports an unknown plugin; check failures end up in the Outcome.
func (r *Registry) RunCheck(name string, params *check.Params, section [][]string) (Outcome, error) {
	m, err := r.Check(name)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Plugin: m.Name, Service: m.ServiceName}

	services := m.Discover(section)
	if len(services) == 0 {
		return out, nil
	}
	out.Discovered = true
	if services[0].Item != "" {
		out.Service = m.ServiceName + " " + services[0].Item
	}

	p := m.DefaultParams
	if params != nil {
		p = *params
	}

	emissions, err := m.Check(p, section)
	if err != nil {
		out.Err = err
		out.Result = check.Result{State: check.StateUnknown, Summary: err.Error()}

		var appErr errors.Error
		if errors.As(err, &appErr) {
			r.logger.ErrorWithContext(appErr, "check", m.Name).Msg("Check failed")
		} else {
			r.logger.Error().Err(err).Str("check", m.Name).Msg("Check failed")
		}
		return out, nil
	}

	if len(emissions) == 0 {
		out.Stale = true
		r.logger.Debug().Str("check", m.Name).Msg("Check emitted nothing")
		return out, nil
	}

	var (
		summaries []string
		state     = check.StateOK
	)
	for _, e := range emissions {
		switch e := e.(type) {
		case check.Metric:
			out.Metrics = append(out.Metrics, e)
		case check.Result:
			state = worst(state, e.State)
			summaries = append(summaries, e.Summary)
		}
	}
	out.Result = check.Result{State: state, Summary: strings.Join(summaries, ", ")}

	return out, nil
}

// worst orders states the way the host does: CRIT beats UNKNOWN beats WARN
// beats OK.
func worst(a, b check.State) check.State {
	if severity(b) > severity(a) {
		return b
	}
	return a
}

func severity(s check.State) int {
	switch s {
	case check.StateOK:
		return 0
	case check.StateWarn:
		return 1
	case check.StateUnknown:
		return 2
	default:
		return 3
	}
}

// Bundle is everything a bakery plugin contributes to one agent package.
type Bundle struct {
	Plugin        string
	Files         []bakery.Artifact
	Scriptlets    []bakery.Scriptlet
	WindowsConfig []bakery.WindowsConfigEntry
}

// Bake runs all producers of bakery plugin name for conf. Any failure
// discards the whole bundle.
func (r *Registry) Bake(name string, conf bakery.TargetConfig) (Bundle, error) {
	m, err := r.Bakery(name)
	if err != nil {
		return Bundle{}, err
	}

	files, err := m.Files(conf)
	if err != nil {
		return Bundle{}, err
	}

	entries, err := m.WindowsConfig(conf)
	if err != nil {
		return Bundle{}, err
	}

	bundle := Bundle{
		Plugin:        m.Name,
		Files:         files,
		Scriptlets:    m.Scriptlets(conf),
		WindowsConfig: entries,
	}

	r.logger.Debug().
		Str("plugin", m.Name).
		Int("files", len(bundle.Files)).
		Int("scriptlets", len(bundle.Scriptlets)).
		Int("windows_entries", len(bundle.WindowsConfig)).
		Msg("Assembled bakery bundle")

	return bundle, nil
}
