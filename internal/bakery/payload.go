package bakery

import (
	"encoding/json"
	"strings"

	"codeberg.org/mutker/hellobakery/internal/errors"
)

const (
	linuxConfigTarget   = "hello_bakery.json"
	solarisConfigTarget = "hello_bakery.cfg"
)

// payloadStrategy renders a TargetConfig in the native config format of
// one OS.
type payloadStrategy struct {
	target        string
	includeHeader bool
	lines         func(user, content string) ([]string, error)
}

var payloadStrategies = map[OS]payloadStrategy{
	// The JSON format has no comment syntax, so the banner stays off.
	OSLinux: {
		target:        linuxConfigTarget,
		includeHeader: false,
		lines:         jsonLines,
	},
	// Sourced by the ksh plugin; "#" comments are fine.
	OSSolaris: {
		target:        solarisConfigTarget,
		includeHeader: true,
		lines:         shellLines,
	},
}

// ConfigFor builds the config payload for os. It fails for targets without
// a payload format and for incomplete configurations.
func ConfigFor(os OS, conf TargetConfig) (PluginConfig, error) {
	errFactory := errors.New()

	strategy, ok := payloadStrategies[os]
	if !ok {
		return PluginConfig{}, errFactory.WithData(ErrUnsupportedTarget, os)
	}

	if err := conf.Validate(); err != nil {
		return PluginConfig{}, err
	}

	lines, err := strategy.lines(conf.User, conf.Content)
	if err != nil {
		return PluginConfig{}, errFactory.Wrap(ErrEncodePayload, err)
	}

	return PluginConfig{
		OS:            os,
		Lines:         lines,
		Target:        strategy.target,
		IncludeHeader: strategy.includeHeader,
	}, nil
}

// SupportsConfig reports whether a payload format exists for os.
func SupportsConfig(os OS) bool {
	_, ok := payloadStrategies[os]
	return ok
}

type jsonPayload struct {
	User    string `json:"user"`
	Content string `json:"content"`
}

func jsonLines(user, content string) ([]string, error) {
	data, err := json.Marshal(jsonPayload{User: user, Content: content})
	if err != nil {
		return nil, err
	}

	return strings.Split(string(data), "\n"), nil
}

func shellLines(user, content string) ([]string, error) {
	return []string{
		"USER=" + QuoteShellString(user),
		"CONTENT=" + QuoteShellString(content),
	}, nil
}

// QuoteShellString quotes s for POSIX shells. The result is a single word
// that expands to s exactly.
func QuoteShellString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
