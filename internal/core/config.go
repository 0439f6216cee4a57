// Package core contains the business logic of drl-monitor: the training
// logger, the monitor aggregator, the poll loop and configuration.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// ConfigFileName is the base name of the optional configuration file.
const ConfigFileName = ".drlmon"

// ConfigurationManager defines the interface for loading and validating the
// drlmon configuration.
type ConfigurationManager interface {
	Load() (*models.Config, error)
	ValidateConfig(cfg *models.Config) error
}

// viperConfigManager implements ConfigurationManager using Viper for reading
// a YAML configuration file with DRLMON_* environment overrides.
type viperConfigManager struct {
	// basePath is the directory searched for .drlmon.yaml.
	basePath string
	// configFile, when set, is read instead of searching basePath.
	configFile string
}

// NewConfigurationManager creates a ConfigurationManager that looks for
// .drlmon.yaml in basePath, or reads configFile when it is non-empty.
func NewConfigurationManager(basePath, configFile string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath, configFile: configFile}
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *models.Config {
	return &models.Config{
		Monitor: models.MonitorConfig{
			RefreshInterval: 2 * time.Second,
			Agents:          append([]string(nil), DefaultAgents...),
			HistoryRounds:   5,
		},
		Plot: models.PlotConfig{
			RefreshInterval: 2 * time.Second,
			StepsPerRound:   5000,
			WindowSize:      100,
		},
		Log: models.LogConfig{Level: "warn"},
	}
}

// Load reads the configuration file if present and applies environment
// overrides. A missing file yields the defaults.
func (cm *viperConfigManager) Load() (*models.Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if cm.configFile != "" {
		v.SetConfigFile(cm.configFile)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(cm.basePath)
	}
	v.SetEnvPrefix("DRLMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("monitor.refresh_interval", cfg.Monitor.RefreshInterval)
	v.SetDefault("monitor.agents", cfg.Monitor.Agents)
	v.SetDefault("monitor.history_rounds", cfg.Monitor.HistoryRounds)
	v.SetDefault("plot.refresh_interval", cfg.Plot.RefreshInterval)
	v.SetDefault("plot.steps_per_round", cfg.Plot.StepsPerRound)
	v.SetDefault("plot.window_size", cfg.Plot.WindowSize)
	v.SetDefault("plot.watch", cfg.Plot.Watch)
	v.SetDefault("log.level", cfg.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s config: %w", ConfigFileName, err)
		}
	}

	cfg.Monitor.RefreshInterval = v.GetDuration("monitor.refresh_interval")
	cfg.Monitor.Agents = v.GetStringSlice("monitor.agents")
	cfg.Monitor.HistoryRounds = v.GetInt("monitor.history_rounds")
	cfg.Plot.RefreshInterval = v.GetDuration("plot.refresh_interval")
	cfg.Plot.StepsPerRound = v.GetInt("plot.steps_per_round")
	cfg.Plot.WindowSize = v.GetInt("plot.window_size")
	cfg.Plot.Watch = v.GetBool("plot.watch")
	cfg.Log.Level = v.GetString("log.level")

	return cfg, nil
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// ValidateConfig checks cfg for invalid values and returns an error listing
// every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.Monitor.RefreshInterval <= 0 {
		errs = append(errs, fmt.Sprintf("monitor.refresh_interval must be positive, got %s", cfg.Monitor.RefreshInterval))
	}
	if len(cfg.Monitor.Agents) == 0 {
		errs = append(errs, "monitor.agents must not be empty")
	}
	seen := make(map[string]bool)
	for _, a := range cfg.Monitor.Agents {
		if strings.TrimSpace(a) == "" {
			errs = append(errs, "monitor.agents must not contain empty names")
		} else if seen[a] {
			errs = append(errs, fmt.Sprintf("monitor.agents lists %q twice", a))
		}
		seen[a] = true
	}
	if cfg.Monitor.HistoryRounds <= 0 {
		errs = append(errs, fmt.Sprintf("monitor.history_rounds must be positive, got %d", cfg.Monitor.HistoryRounds))
	}
	if cfg.Plot.RefreshInterval <= 0 {
		errs = append(errs, fmt.Sprintf("plot.refresh_interval must be positive, got %s", cfg.Plot.RefreshInterval))
	}
	if cfg.Plot.StepsPerRound <= 0 {
		errs = append(errs, fmt.Sprintf("plot.steps_per_round must be positive, got %d", cfg.Plot.StepsPerRound))
	}
	if cfg.Plot.WindowSize <= 0 {
		errs = append(errs, fmt.Sprintf("plot.window_size must be positive, got %d", cfg.Plot.WindowSize))
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid, must be one of: debug, info, warn, error", cfg.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
