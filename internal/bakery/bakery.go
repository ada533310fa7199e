// Package bakery decides which files, config payloads and scriptlets the
// agent bakery ships for the hello_bakery plugin on each target OS.
//
// All producers are pure functions of a TargetConfig.
package bakery

import (
	"fmt"
	"path"
	"strconv"

	"codeberg.org/mutker/hellobakery/internal/errors"
)

const (
	// Name is the bakery plugin identifier and the Windows config key.
	Name = "hello_bakery"

	unixPluginDir  = "/usr/lib/check_mk_agent/plugins"
	unixConfigDir  = "/etc/check_mk"
	windowsPlugDir = "plugins"

	installedLine   = `logger -p Checkmk_Agent "Installed hello_bakery"`
	uninstalledLine = `logger -p Checkmk_Agent "Uninstalled hello_bakery"`
)

// Manifest describes the bakery plugin to a host registry.
type Manifest struct {
	Name          string
	Files         func(conf TargetConfig) ([]Artifact, error)
	Scriptlets    func(conf TargetConfig) []Scriptlet
	WindowsConfig func(conf TargetConfig) ([]WindowsConfigEntry, error)
}

// NewManifest returns the manifest a host adapter registers.
func NewManifest() Manifest {
	return Manifest{
		Name:          Name,
		Files:         Files,
		Scriptlets:    Scriptlets,
		WindowsConfig: WindowsConfig,
	}
}

// Files returns the plugin files for every supported OS followed by the
// Linux config payload. The interval is passed through unchanged; callers
// that need a minimum must enforce it before calling.
func Files(conf TargetConfig) ([]Artifact, error) {
	linuxConfig, err := ConfigFor(OSLinux, conf)
	if err != nil {
		return nil, err
	}

	files := []Artifact{
		Plugin{
			OS:       OSLinux,
			Source:   "hello_bakery",
			Target:   "hello_bakery",
			Interval: conf.Interval,
		},
	}

	if conf.Solaris {
		files = append(files, Plugin{
			OS:       OSSolaris,
			Source:   "hello_bakery.solaris.ksh",
			Target:   "hello_bakery",
			Interval: conf.Interval,
		})
	}

	files = append(files,
		Plugin{
			OS:       OSWindows,
			Source:   "hello_bakery.cmd",
			Target:   "hello_bakery.bat",
			Interval: conf.Interval,
		},
		linuxConfig,
	)

	if conf.Solaris {
		solarisConfig, err := ConfigFor(OSSolaris, conf)
		if err != nil {
			return nil, err
		}
		files = append(files, solarisConfig)
	}

	return files, nil
}

// Scriptlets returns the install and removal hooks for each package
// manager. The result does not depend on conf.
func Scriptlets(_ TargetConfig) []Scriptlet {
	installed := []string{installedLine}
	uninstalled := []string{uninstalledLine}

	return []Scriptlet{
		{Step: DebPostinst, Lines: installed},
		{Step: DebPostrm, Lines: uninstalled},
		{Step: RPMPost, Lines: installed},
		{Step: RPMPostun, Lines: uninstalled},
		{Step: SolPostinstall, Lines: installed},
		{Step: SolPostremove, Lines: uninstalled},
	}
}

// WindowsConfig returns the entries this plugin contributes to the shared
// Windows agent configuration tree.
func WindowsConfig(conf TargetConfig) ([]WindowsConfigEntry, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return []WindowsConfigEntry{
		{Path: []string{Name, "user"}, Content: conf.User},
		{Path: []string{Name, "content"}, Content: conf.Content},
	}, nil
}

// InstallPath returns where a Plugin or PluginConfig lands on the target
// host. Windows paths are relative to the agent data directory.
func InstallPath(a Artifact) (string, error) {
	errFactory := errors.New()

	switch a := a.(type) {
	case Plugin:
		switch a.OS {
		case OSLinux, OSSolaris:
			if a.Interval == nil {
				return path.Join(unixPluginDir, a.Target), nil
			}
			return path.Join(unixPluginDir, strconv.Itoa(*a.Interval), a.Target), nil
		case OSWindows:
			return path.Join(windowsPlugDir, a.Target), nil
		}
		return "", errFactory.WithData(ErrUnsupportedTarget, a.OS)
	case PluginConfig:
		switch a.OS {
		case OSLinux, OSSolaris:
			return path.Join(unixConfigDir, a.Target), nil
		}
		return "", errFactory.WithData(ErrUnsupportedTarget, a.OS)
	default:
		return "", errFactory.WithData(errors.ErrInvalidArgument, fmt.Sprintf("%T", a))
	}
}
