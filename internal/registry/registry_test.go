package registry_test

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/hellobakery/internal/bakery"
	"codeberg.org/mutker/hellobakery/internal/check"
	"codeberg.org/mutker/hellobakery/internal/errors"
	"codeberg.org/mutker/hellobakery/internal/logger"
	"codeberg.org/mutker/hellobakery/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefault(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.NewDefault(logger.Nop())
	require.NoError(t, err)
	return r
}

func TestNewDefaultRegistersBothPlugins(t *testing.T) {
	r := newDefault(t)

	assert.Equal(t, []string{"hello_bakery"}, r.Checks())
	assert.Equal(t, []string{"hello_bakery"}, r.Bakeries())
}

func TestRegisterDuplicate(t *testing.T) {
	r := newDefault(t)

	err := r.RegisterCheck(check.NewManifest())
	assert.True(t, errors.HasCode(err, registry.ErrDuplicatePlugin))

	err = r.RegisterBakery(bakery.NewManifest())
	assert.True(t, errors.HasCode(err, registry.ErrDuplicatePlugin))
}

func TestRegisterInvalidManifest(t *testing.T) {
	r := registry.NewRegistry(logger.Nop())

	err := r.RegisterCheck(check.Manifest{Name: "x"})
	assert.True(t, errors.HasCode(err, registry.ErrInvalidManifest))

	err = r.RegisterBakery(bakery.Manifest{})
	assert.True(t, errors.HasCode(err, registry.ErrInvalidManifest))
}

func TestLookupUnknown(t *testing.T) {
	r := newDefault(t)

	_, err := r.Check("nope")
	assert.True(t, errors.HasCode(err, registry.ErrPluginNotFound))

	_, err = r.RunCheck("nope", nil, nil)
	assert.True(t, errors.HasCode(err, registry.ErrPluginNotFound))

	_, err = r.Bake("nope", bakery.TargetConfig{})
	assert.True(t, errors.HasCode(err, registry.ErrPluginNotFound))
}

func TestRunCheck(t *testing.T) {
	r := newDefault(t)

	out, err := r.RunCheck("hello_bakery", nil, [][]string{{"hello_bakery", "85.0"}})
	require.NoError(t, err)

	assert.True(t, out.Discovered)
	assert.False(t, out.Stale)
	assert.NoError(t, out.Err)
	assert.Equal(t, "Hello bakery!", out.Service)
	require.Len(t, out.Metrics, 1)
	assert.Equal(t, 85.0, out.Metrics[0].Value)
	assert.Equal(t, check.Result{State: check.StateWarn, Summary: "need some coffee"}, out.Result)
}

func TestRunCheckCustomParams(t *testing.T) {
	r := newDefault(t)
	params := check.Params{Levels: check.Levels{Warn: 1, Crit: 2}}

	out, err := r.RunCheck("hello_bakery", &params, [][]string{{"hello_bakery", "10"}})
	require.NoError(t, err)
	assert.Equal(t, check.StateCrit, out.Result.State)
}

func TestRunCheckParseErrorBecomesUnknown(t *testing.T) {
	var buf bytes.Buffer
	r, err := registry.NewDefault(logger.New(&buf))
	require.NoError(t, err)

	out, err := r.RunCheck("hello_bakery", nil, [][]string{{"hello_bakery", "n/a"}})
	require.NoError(t, err)

	require.Error(t, out.Err)
	assert.True(t, errors.HasCode(out.Err, check.ErrParseFailed))
	assert.Equal(t, check.StateUnknown, out.Result.State)
	assert.Empty(t, out.Metrics)
	assert.Contains(t, buf.String(), `"error_code":"check_parse_failed"`)
}

func TestRunCheckEmptySectionIsStale(t *testing.T) {
	r := newDefault(t)

	out, err := r.RunCheck("hello_bakery", nil, nil)
	require.NoError(t, err)

	assert.True(t, out.Discovered)
	assert.True(t, out.Stale)
	assert.Empty(t, out.Metrics)
	assert.Equal(t, check.Result{}, out.Result)
}

func TestRunCheckAggregatesResults(t *testing.T) {
	r := newDefault(t)

	out, err := r.RunCheck("hello_bakery", nil, [][]string{
		{"hello_bakery", "1"},
		{"hello_bakery", "99"},
	})
	require.NoError(t, err)

	assert.Len(t, out.Metrics, 2)
	assert.Equal(t, check.StateCrit, out.Result.State)
	assert.Equal(t, "lovely day, leave me alone", out.Result.Summary)
}

func TestBake(t *testing.T) {
	r := newDefault(t)

	bundle, err := r.Bake("hello_bakery", bakery.TargetConfig{User: "alice", Content: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "hello_bakery", bundle.Plugin)
	assert.Len(t, bundle.Files, 3)
	assert.Len(t, bundle.Scriptlets, 6)
	assert.Len(t, bundle.WindowsConfig, 2)
}

func TestBakeFailsClosed(t *testing.T) {
	r := newDefault(t)

	bundle, err := r.Bake("hello_bakery", bakery.TargetConfig{User: "alice"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, bakery.ErrInvalidTargetConfig))
	assert.Equal(t, registry.Bundle{}, bundle)
}
