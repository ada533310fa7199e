// Package stage writes assembled bakery bundles into a directory tree, one
// subtree per target OS and package manager.
package stage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"codeberg.org/mutker/hellobakery/internal/bakery"
	"codeberg.org/mutker/hellobakery/internal/errors"
	"codeberg.org/mutker/hellobakery/internal/logger"
	"codeberg.org/mutker/hellobakery/internal/registry"
)

const (
	defaultDirPerm     = 0o755
	defaultFilePerm    = 0o644
	executableFilePerm = 0o755

	// WindowsConfigFile is the merged Windows agent configuration.
	WindowsConfigFile = "check_mk.user.yml"
	// RPMScriptletFile collects all RPM scriptlet sections.
	RPMScriptletFile = "scriptlets.spec"

	configHeader = "# Created by the agent bakery.\n# Do not edit manually, changes are lost on the next bake.\n"
	shebang      = "#!/bin/sh\n"
)

type Config struct {
	SourceDir string
	OutputDir string
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.SourceDir == "" {
		return errFactory.WithData(ErrInvalidConfig, "source dir is required")
	}
	if c.OutputDir == "" {
		return errFactory.WithData(ErrInvalidConfig, "output dir is required")
	}
	return nil
}

// Stager materializes bundles below Config.OutputDir.
type Stager struct {
	cfg    Config
	logger logger.Logger
}

func New(cfg Config, log logger.Logger) (*Stager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Stager{cfg: cfg, logger: log}, nil
}

// pending is one file of a staged tree, fully rendered.
type pending struct {
	path string
	data []byte
	perm os.FileMode
}

// Stage writes all bundles. Scriptlets of all bundles are concatenated per
// hook and Windows entries are merged into the existing Windows config.
//
// Every source is read and every file rendered before the first write, so
// a missing source or a config conflict leaves the output untouched.
func (s *Stager) Stage(bundles ...registry.Bundle) error {
	plan, err := s.plan(bundles)
	if err != nil {
		return err
	}

	if err := s.commit(plan); err != nil {
		return err
	}

	s.logger.Info().
		Int("bundles", len(bundles)).
		Int("files", len(plan)).
		Str("output_dir", s.cfg.OutputDir).
		Msg("Bundles staged")

	return nil
}

func (s *Stager) plan(bundles []registry.Bundle) ([]pending, error) {
	var (
		plan       []pending
		entries    []bakery.WindowsConfigEntry
		scriptlets = make(map[bakery.Step][]string)
	)

	for _, b := range bundles {
		for _, a := range b.Files {
			p, err := s.planFile(a)
			if err != nil {
				return nil, err
			}
			plan = append(plan, p)
		}
		for _, sc := range b.Scriptlets {
			scriptlets[sc.Step] = append(scriptlets[sc.Step], sc.Lines...)
		}
		entries = append(entries, b.WindowsConfig...)
	}

	plan = append(plan, s.planScriptlets(scriptlets)...)

	if len(entries) > 0 {
		p, err := s.planWindowsConfig(entries)
		if err != nil {
			return nil, err
		}
		plan = append(plan, p)
	}

	return plan, nil
}

func (s *Stager) planFile(a bakery.Artifact) (pending, error) {
	errFactory := errors.New()

	target, err := bakery.InstallPath(a)
	if err != nil {
		return pending{}, err
	}

	switch a := a.(type) {
	case bakery.Plugin:
		src := filepath.Join(s.cfg.SourceDir, a.Source)
		data, err := os.ReadFile(src)
		if err != nil {
			return pending{}, errFactory.WithData(ErrSourceMissing, struct {
				Path  string
				Error string
			}{
				Path:  src,
				Error: err.Error(),
			})
		}
		return pending{path: s.osPath(a.OS, target), data: data, perm: executableFilePerm}, nil
	case bakery.PluginConfig:
		var b strings.Builder
		if a.IncludeHeader {
			b.WriteString(configHeader)
		}
		for _, line := range a.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		return pending{path: s.osPath(a.OS, target), data: []byte(b.String()), perm: defaultFilePerm}, nil
	default:
		return pending{}, errFactory.WithData(errors.ErrInvalidArgument, a.Kind())
	}
}

func (s *Stager) osPath(targetOS bakery.OS, target string) string {
	return filepath.Join(s.cfg.OutputDir, string(targetOS), filepath.FromSlash(target))
}

// planScriptlets renders one script per hook for deb and sol, and a single
// spec fragment for rpm.
func (s *Stager) planScriptlets(byStep map[bakery.Step][]string) []pending {
	steps := make([]bakery.Step, 0, len(byStep))
	for step := range byStep {
		steps = append(steps, step)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].String() < steps[j].String() })

	var (
		plan []pending
		rpm  strings.Builder
	)
	for _, step := range steps {
		lines := strings.Join(byStep[step], "\n") + "\n"

		if step.Manager == bakery.ManagerRPM {
			rpm.WriteString("%" + step.Hook + "\n" + lines + "\n")
			continue
		}

		plan = append(plan, pending{
			path: filepath.Join(s.cfg.OutputDir, string(step.Manager), step.Hook),
			data: []byte(shebang + lines),
			perm: executableFilePerm,
		})
	}

	if rpm.Len() > 0 {
		plan = append(plan, pending{
			path: filepath.Join(s.cfg.OutputDir, string(bakery.ManagerRPM), RPMScriptletFile),
			data: []byte(rpm.String()),
			perm: defaultFilePerm,
		})
	}

	return plan
}

// commit writes every file to a temporary sibling first and renames them
// into place only when all of them were written.
func (s *Stager) commit(plan []pending) error {
	errFactory := errors.New()

	var written []string
	cleanup := func() {
		for _, tmp := range written {
			os.Remove(tmp)
		}
	}

	for _, p := range plan {
		if err := os.MkdirAll(filepath.Dir(p.path), defaultDirPerm); err != nil {
			cleanup()
			return errFactory.Wrap(ErrWriteFailed, err)
		}

		tmp := p.path + ".tmp"
		if err := os.WriteFile(tmp, p.data, p.perm); err != nil {
			cleanup()
			return errFactory.Wrap(ErrWriteFailed, err)
		}
		written = append(written, tmp)

		// WriteFile honors the umask.
		if err := os.Chmod(tmp, p.perm); err != nil {
			cleanup()
			return errFactory.Wrap(ErrWriteFailed, err)
		}
	}

	for i, p := range plan {
		if err := os.Rename(written[i], p.path); err != nil {
			cleanup()
			return errFactory.Wrap(ErrWriteFailed, err)
		}
		s.logger.Debug().Str("path", p.path).Int("bytes", len(p.data)).Msg("Staged file")
	}

	return nil
}
