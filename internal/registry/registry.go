// Package registry stands in for the monitoring host: it holds plugin
// manifests and runs them the way the host would.
package registry

import (
	"sort"
	"sync"

	"codeberg.org/mutker/hellobakery/internal/bakery"
	"codeberg.org/mutker/hellobakery/internal/check"
	"codeberg.org/mutker/hellobakery/internal/errors"
	"codeberg.org/mutker/hellobakery/internal/logger"
)

// Registry holds check and bakery manifests keyed by name.
type Registry struct {
	checks   map[string]check.Manifest
	bakeries map[string]bakery.Manifest
	mu       sync.RWMutex
	logger   logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		checks:   make(map[string]check.Manifest),
		bakeries: make(map[string]bakery.Manifest),
		logger:   log,
	}
}

// NewDefault returns a registry with the hello_bakery check and bakery
// plugin registered.
func NewDefault(log logger.Logger) (*Registry, error) {
	r := NewRegistry(log)

	if err := r.RegisterCheck(check.NewManifest()); err != nil {
		return nil, err
	}
	if err := r.RegisterBakery(bakery.NewManifest()); err != nil {
		return nil, err
	}

	return r, nil
}

// RegisterCheck adds a check manifest. Names are unique per kind.
func (r *Registry) RegisterCheck(m check.Manifest) error {
	errFactory := errors.New()

	if m.Name == "" || m.Discover == nil || m.Check == nil {
		return errFactory.WithData(ErrInvalidManifest, m.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checks[m.Name]; exists {
		return errFactory.WithData(ErrDuplicatePlugin, m.Name)
	}
	r.checks[m.Name] = m

	r.logger.Debug().
		Str("name", m.Name).
		Str("service", m.ServiceName).
		Str("ruleset", m.Ruleset).
		Msg("Registered check plugin")

	return nil
}

// RegisterBakery adds a bakery manifest.
func (r *Registry) RegisterBakery(m bakery.Manifest) error {
	errFactory := errors.New()

	if m.Name == "" || m.Files == nil || m.Scriptlets == nil || m.WindowsConfig == nil {
		return errFactory.WithData(ErrInvalidManifest, m.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bakeries[m.Name]; exists {
		return errFactory.WithData(ErrDuplicatePlugin, m.Name)
	}
	r.bakeries[m.Name] = m

	r.logger.Debug().Str("name", m.Name).Msg("Registered bakery plugin")

	return nil
}

// Check returns the check manifest registered as name.
func (r *Registry) Check(name string) (check.Manifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.checks[name]
	if !ok {
		return check.Manifest{}, errors.New().WithData(ErrPluginNotFound, name)
	}
	return m, nil
}

// Bakery returns the bakery manifest registered as name.
func (r *Registry) Bakery(name string) (bakery.Manifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.bakeries[name]
	if !ok {
		return bakery.Manifest{}, errors.New().WithData(ErrPluginNotFound, name)
	}
	return m, nil
}

// Checks returns the names of all registered checks, sorted.
func (r *Registry) Checks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bakeries returns the names of all registered bakery plugins, sorted.
func (r *Registry) Bakeries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.bakeries))
	for name := range r.bakeries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
