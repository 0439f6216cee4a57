// Package internal provides the App struct that wires all components of
// drl-monitor together and initializes the CLI layer.
package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valter-silva-au/drl-monitor/internal/cli"
	"github.com/valter-silva-au/drl-monitor/internal/core"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// App holds all service dependencies of drlmon.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Diagnostics
	Logger *slog.Logger

	// Monitor services
	Reader     *core.TableReader
	Aggregator *core.Aggregator
}

// NewApp loads the configuration found in basePath, or configFile when it is
// non-empty, and wires the CLI package-level variables.
func NewApp(basePath, configFile string) (*App, error) {
	return newApp(basePath, configFile, os.Stderr)
}

func newApp(basePath, configFile string, logOut io.Writer) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath, configFile)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	app.Config = cfg

	// --- Diagnostics ---
	app.Logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}))

	// --- Monitor services ---
	app.Reader = core.NewTableReader(app.Logger)
	app.Aggregator = core.NewAggregator(app.Reader, core.AggregatorOptions{
		Agents:        cfg.Monitor.Agents,
		HistoryRounds: cfg.Monitor.HistoryRounds,
		WindowSize:    cfg.Plot.WindowSize,
		StepsPerRound: cfg.Plot.StepsPerRound,
	})

	// --- Wire CLI package-level variables ---
	cli.Config = app.Config
	cli.Logger = app.Logger
	cli.Aggregator = app.Aggregator
	cli.Reconfigure = func(path string) error {
		_, err := newApp(basePath, path, logOut)
		return err
	}

	app.Logger.Debug("app initialized",
		slog.String("base_path", basePath),
		slog.Any("agents", cfg.Monitor.Agents),
	)
	return app, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// ResolveBasePath determines the directory searched for .drlmon.yaml. It
// checks the DRLMON_HOME env var, then walks up from the current directory,
// then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("DRLMON_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}
