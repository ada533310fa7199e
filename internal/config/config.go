// Package config loads hellobakery settings from a TOML file, the
// environment and command line flags, in increasing order of precedence.
package config

import (
	"math"
	"os"
	"strings"

	"codeberg.org/mutker/hellobakery/internal/bakery"
	"codeberg.org/mutker/hellobakery/internal/check"
	"codeberg.org/mutker/hellobakery/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel  = string(LogLevelWarning)
	DefaultEnvPrefix = "HELLOBAKERY"
	DefaultHistoryDB = "/var/lib/hellobakery/history.db"
	DefaultSourceDir = "/usr/share/hellobakery/agents/plugins"
	DefaultOutputDir = "./baked"

	configName = "hellobakery"
	configType = "toml"
	configDir  = "/etc"
)

type Config struct {
	LogLevel  string                         `mapstructure:"log_level"`
	Warn      float64                        `mapstructure:"warn"`
	Crit      float64                        `mapstructure:"crit"`
	History   bool                           `mapstructure:"history"`
	HistoryDB string                         `mapstructure:"history_db"`
	SourceDir string                         `mapstructure:"source_dir"`
	OutputDir string                         `mapstructure:"output_dir"`
	Section   string                         `mapstructure:"section"`
	Targets   map[string]bakery.TargetConfig `mapstructure:"targets"`

	// Args holds the positional arguments left after flag parsing.
	Args []string
}

// Params returns the check parameters described by the configured levels.
func (c *Config) Params() check.Params {
	return check.Params{Levels: check.Levels{Warn: c.Warn, Crit: c.Crit}}
}

// Load parses args (without the program name) and merges them with the
// configuration file and environment.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	defaults := check.DefaultParams().Levels

	fs := pflag.NewFlagSet("hellobakery", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configFlag := fs.String("config", "", "Path to the configuration file")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Float64("warn", defaults.Warn, "Warning level")
	fs.Float64("crit", defaults.Crit, "Critical level")
	fs.Bool("history", false, "Record check outcomes in the history database")
	fs.String("history-db", DefaultHistoryDB, "Path to the history database")
	fs.String("source-dir", DefaultSourceDir, "Directory holding the plugin sources")
	fs.String("output-dir", DefaultOutputDir, "Directory to stage baked files in")
	fs.String("section", "-", "Agent output to check, - for stdin")

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		"log_level":  "log-level",
		"warn":       "warn",
		"crit":       "crit",
		"history":    "history",
		"history_db": "history-db",
		"source_dir": "source-dir",
		"output_dir": "output-dir",
		"section":    "section",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	path := o.configPath
	if *configFlag != "" {
		path = *configFlag
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}
	cfg.Args = fs.Args()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(configType)
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
		return nil
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

// Validate checks the loaded values. Warn above crit is accepted.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel).
			WithMessage(string(errors.ErrInvalidLogLevel))
	}

	if math.IsNaN(c.Warn) || math.IsNaN(c.Crit) {
		return errFactory.WithData(errors.ErrInvalidLevels, struct {
			Warn float64
			Crit float64
		}{
			Warn: c.Warn,
			Crit: c.Crit,
		})
	}

	return nil
}
