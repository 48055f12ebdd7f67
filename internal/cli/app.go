package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/config"
	"github.com/thruflo/snapview/internal/display"
	"github.com/thruflo/snapview/internal/logging"
	"github.com/thruflo/snapview/internal/progress"
	"github.com/thruflo/snapview/internal/server"
	"github.com/thruflo/snapview/internal/watch"
)

// sourceOverride replaces the configured progress source.
// It can be overridden in tests.
var sourceOverride progress.Source

// logFileName is where watch sends log output while the panel owns the
// terminal.
const logFileName = "snapview.log"

// app is what every command builds from the config file.
type app struct {
	base     string
	cfg      *config.Config
	source   progress.Source
	commands actions.Commands
	runner   *actions.Runner
	closers  []func() error
}

// loadApp reads the config under baseDir and wires the source and
// triggers. With demo set, a Simulator stands in for the pipeline.
func loadApp(demo bool) (*app, error) {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", baseDir, err)
	}

	cfg, err := config.LoadConfig(base)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg.Logging)

	a := &app{base: base, cfg: cfg, runner: actions.NewRunner()}

	var triggers map[string]actions.Trigger
	if demo {
		sim := progress.NewSimulator()
		a.source = sim
		triggers = demoTriggers(sim)
	} else {
		triggers, err = actions.TriggersFromConfig(cfg.Actions, base)
		if err != nil {
			return nil, fmt.Errorf("invalid actions: %w", err)
		}
		if a.source, err = a.openSource(); err != nil {
			return nil, err
		}
	}
	if sourceOverride != nil {
		a.source = sourceOverride
	}

	a.commands = actions.NewCommands(triggers)
	return a, nil
}

func (a *app) openSource() (progress.Source, error) {
	src := a.cfg.Source
	if src.URL != "" {
		return progress.NewHTTPSource(src.URL, src.Timeout), nil
	}

	file := progress.NewFileSource(a.cfg.SourceFile(a.base))
	if src.Watch {
		if err := file.Watch(); err != nil {
			return nil, fmt.Errorf("failed to watch progress file: %w", err)
		}
		a.closers = append(a.closers, file.Close)
	}
	return file, nil
}

// Close releases watchers and log files.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.Debug("close failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *app) displayOptions() display.Options {
	return display.Options{TitlePrefix: a.cfg.TitlePrefix, Commands: a.commands}
}

func (a *app) newLoop(surfaces ...display.Surface) *watch.Loop {
	return watch.New(watch.Options{
		Source:   a.source,
		Surfaces: surfaces,
		Display:  a.displayOptions(),
		Interval: a.cfg.Interval,
	})
}

// newServer builds the web surface. port overrides the configured port
// when positive.
func (a *app) newServer(port int) (*server.Server, error) {
	sc := a.cfg.Server
	if sc == nil {
		sc = config.DefaultServerConfig()
	}
	if port <= 0 {
		port = sc.Port
	}
	return server.NewServer(&server.Config{
		Port:         port,
		PasswordHash: sc.PasswordHash,
		Interval:     a.cfg.Interval,
		Commands:     a.commands,
		Runner:       a.runner,
	})
}

// logToFile sends log output to .snapview/snapview.log.
func (a *app) logToFile() (string, error) {
	path := filepath.Join(filepath.Dir(config.Path(a.base)), logFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}

	prev := logging.Default().Output()
	logging.SetOutput(log.New(f, "", log.LstdFlags))
	a.closers = append(a.closers, func() error {
		logging.SetOutput(prev)
		return f.Close()
	})
	return path, nil
}

// setupLogging applies the configured level. Unknown levels were already
// rejected by config validation.
func setupLogging(cfg config.LoggingConfig) {
	if level, err := logging.ParseLevel(cfg.Level); err == nil {
		logging.SetLevel(level)
	}
	if cfg.Verbose {
		logging.On()
	}
}

func demoTriggers(sim *progress.Simulator) map[string]actions.Trigger {
	triggers := map[string]actions.Trigger{actions.Init: sim}
	for _, name := range actions.Names {
		if name == actions.Init {
			continue
		}
		triggers[name] = actions.TriggerFunc(func(ctx context.Context) error {
			logging.Info("demo export", "action", name)
			return nil
		})
	}
	return triggers
}

// describeResult formats a finished run for a status line.
func describeResult(res actions.Result) string {
	label := actions.Label(res.Name)
	if res.Err != nil {
		return fmt.Sprintf("%s failed: %v", label, res.Err)
	}
	return label + " finished"
}
