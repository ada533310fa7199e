package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/hellobakery/internal/bakery"
	"codeberg.org/mutker/hellobakery/internal/check"
	"codeberg.org/mutker/hellobakery/internal/config"
	"codeberg.org/mutker/hellobakery/internal/errors"
	"codeberg.org/mutker/hellobakery/internal/history"
	"codeberg.org/mutker/hellobakery/internal/logger"
	"codeberg.org/mutker/hellobakery/internal/pid"
	"codeberg.org/mutker/hellobakery/internal/registry"
	"codeberg.org/mutker/hellobakery/internal/section"
	"codeberg.org/mutker/hellobakery/internal/stage"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2

	historyWindow = 24 * time.Hour

	usage = `usage: hellobakery [flags] <command> [args]

commands:
  check            evaluate agent output read from --section
  bake [target..]  assemble and stage bakery files for configured targets
  history          print recorded check runs of the last 24 hours
`
)

type app struct {
	cfg      *config.Config
	registry *registry.Registry
	stdin    io.Reader
	stdout   io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		fmt.Fprint(os.Stderr, usage)
		return exitUsage
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if len(cfg.Args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return exitUsage
	}

	reg, err := registry.NewDefault(logger.Default())
	if err != nil {
		errorEvent(err).Msg("failed to register plugins")
		return exitFailure
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		handleSignals(ctx, cancel)
		close(stopped)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	a := &app{cfg: cfg, registry: reg, stdin: stdin, stdout: stdout}

	switch cfg.Args[0] {
	case "check":
		return a.check(ctx)
	case "bake":
		return a.bake(cfg.Args[1:])
	case "history":
		return a.history(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cfg.Args[0])
		fmt.Fprint(os.Stderr, usage)
		return exitUsage
	}
}

// errorEvent adds the error code fields when err carries one.
func errorEvent(err error) *logger.LogEvent {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		return logger.ErrorWithCode(appErr)
	}
	return &logger.LogEvent{Event: logger.Error().Err(err)}
}

// handleSignals cancels the run on SIGINT or SIGTERM and returns once ctx
// is done.
func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		logger.Info().Msg("Received termination signal.")
		cancel()
	case <-ctx.Done():
	}
}

// check prints the outcome in plugin output format and exits with the
// numeric state.
func (a *app) check(ctx context.Context) int {
	sections, err := a.readSections()
	if err != nil {
		errorEvent(err).Str("section", a.cfg.Section).Msg("failed to read agent output")
		return exitFailure
	}

	params := a.cfg.Params()
	outcome, err := a.registry.RunCheck(check.Name, &params, sections[check.Name])
	if err != nil {
		errorEvent(err).Msg("failed to run check")
		return exitFailure
	}

	if err := a.record(ctx, outcome); err != nil {
		errorEvent(err).Msg("failed to record check run")
	}

	if outcome.Stale {
		fmt.Fprintf(a.stdout, "%s: no data in section %s\n", outcome.Service, check.Name)
		return exitOK
	}

	fmt.Fprintln(a.stdout, formatOutcome(outcome, params))
	return int(outcome.Result.State)
}

func (a *app) readSections() (section.Sections, error) {
	if a.cfg.Section == "-" {
		return section.Parse(a.stdin)
	}

	f, err := os.Open(a.cfg.Section)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return section.Parse(f)
}

func (a *app) record(ctx context.Context, outcome registry.Outcome) error {
	rec, err := history.NewService(a.historyConfig(), logger.Default())
	if err != nil {
		return err
	}
	defer rec.Close()

	return rec.Record(ctx, history.FromOutcome(outcome, time.Now()))
}

func (a *app) historyConfig() history.Config {
	cfg := history.DefaultConfig()
	cfg.Enabled = a.cfg.History
	cfg.DBPath = a.cfg.HistoryDB
	cfg.BackupDir = filepath.Join(filepath.Dir(a.cfg.HistoryDB), "backups")
	return cfg
}

func formatOutcome(o registry.Outcome, params check.Params) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s - %s", o.Result.State, o.Service, o.Result.Summary)

	for i, m := range o.Metrics {
		if i == 0 {
			b.WriteString(" |")
		}
		fmt.Fprintf(&b, " %s=%g;%g;%g;%g;%g",
			m.Name, m.Value, params.Levels.Warn, params.Levels.Crit, m.Min, m.Max)
	}

	return b.String()
}

// bake assembles every requested target into OutputDir/<target>. A failing
// target is skipped entirely; the others are still staged.
func (a *app) bake(names []string) int {
	if len(a.cfg.Targets) == 0 {
		logger.Error().Msg("no bakery targets configured")
		return exitFailure
	}

	if len(names) == 0 {
		for name := range a.cfg.Targets {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	lock, err := pid.Acquire(a.cfg.OutputDir)
	if err != nil {
		errorEvent(err).Str("output_dir", a.cfg.OutputDir).Msg("failed to lock output directory")
		return exitFailure
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn().Err(err).Msg("failed to release output directory lock")
		}
	}()

	failed := 0
	for _, name := range names {
		if err := a.bakeTarget(name); err != nil {
			failed++
			errorEvent(err).Str("target", name).Msg("failed to bake target")
			continue
		}
		fmt.Fprintf(a.stdout, "baked %s\n", name)
	}

	if failed > 0 {
		return exitFailure
	}
	return exitOK
}

func (a *app) bakeTarget(name string) error {
	conf, ok := a.cfg.Targets[strings.ToLower(name)]
	if !ok {
		return errors.New().WithData(errors.ErrResourceNotFound, name)
	}

	bundle, err := a.registry.Bake(bakery.Name, conf)
	if err != nil {
		return err
	}

	stager, err := stage.New(stage.Config{
		SourceDir: a.cfg.SourceDir,
		OutputDir: filepath.Join(a.cfg.OutputDir, name),
	}, logger.Default())
	if err != nil {
		return err
	}

	return stager.Stage(bundle)
}

func (a *app) history(ctx context.Context) int {
	if !a.cfg.History {
		logger.Error().Msg("history is disabled, enable it with --history")
		return exitFailure
	}

	rec, err := history.NewService(a.historyConfig(), logger.Default())
	if err != nil {
		errorEvent(err).Msg("failed to open history")
		return exitFailure
	}
	defer rec.Close()

	series, err := rec.Series(ctx, check.ServiceName, time.Now().Add(-historyWindow))
	if err != nil {
		errorEvent(err).Msg("failed to read history")
		return exitFailure
	}

	for _, s := range series {
		value := "-"
		if s.Value != nil {
			value = fmt.Sprintf("%g", *s.Value)
		}
		fmt.Fprintf(a.stdout, "%s\t%s\t%s\t%s\n",
			s.Timestamp.Format(time.RFC3339), s.State, value, s.Summary)
	}

	return exitOK
}
