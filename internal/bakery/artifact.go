package bakery

// OS is a target operating system of the agent bakery.
type OS string

const (
	OSLinux   OS = "linux"
	OSSolaris OS = "solaris"
	OSWindows OS = "windows"
)

// Kind identifies the concrete type behind an Artifact.
type Kind string

const (
	KindPlugin        Kind = "plugin"
	KindPluginConfig  Kind = "plugin_config"
	KindScriptlet     Kind = "scriptlet"
	KindWindowsConfig Kind = "windows_config"
)

// Artifact is one item delivered to a managed host.
type Artifact interface {
	Kind() Kind
}

// Plugin is an agent plugin file. Source is resolved against the plugin
// source directory, Target is the file name on the host. A nil Interval
// means the plugin runs synchronously with the agent.
type Plugin struct {
	OS       OS
	Source   string
	Target   string
	Interval *int
}

// PluginConfig is a configuration file for a plugin. Lines are written as
// is; IncludeHeader asks the packager for its "#" comment banner.
type PluginConfig struct {
	OS            OS
	Lines         []string
	Target        string
	IncludeHeader bool
}

// PackageManager is a lifecycle model of a package format.
type PackageManager string

const (
	ManagerDeb PackageManager = "deb"
	ManagerRPM PackageManager = "rpm"
	ManagerSol PackageManager = "sol"
)

// Step is a lifecycle hook of a package manager.
type Step struct {
	Manager PackageManager
	Hook    string
}

func (s Step) String() string {
	return string(s.Manager) + "/" + s.Hook
}

var (
	DebPostinst    = Step{Manager: ManagerDeb, Hook: "postinst"}
	DebPostrm      = Step{Manager: ManagerDeb, Hook: "postrm"}
	RPMPost        = Step{Manager: ManagerRPM, Hook: "post"}
	RPMPostun      = Step{Manager: ManagerRPM, Hook: "postun"}
	SolPostinstall = Step{Manager: ManagerSol, Hook: "postinstall"}
	SolPostremove  = Step{Manager: ManagerSol, Hook: "postremove"}
)

// Scriptlet is a fragment run by a package manager at Step.
type Scriptlet struct {
	Step  Step
	Lines []string
}

// WindowsConfigEntry is a leaf of the merged Windows agent configuration.
// Path is the hierarchical key below the root of that tree.
type WindowsConfigEntry struct {
	Path    []string
	Content string
}

func (Plugin) Kind() Kind             { return KindPlugin }
func (PluginConfig) Kind() Kind       { return KindPluginConfig }
func (Scriptlet) Kind() Kind          { return KindScriptlet }
func (WindowsConfigEntry) Kind() Kind { return KindWindowsConfig }
