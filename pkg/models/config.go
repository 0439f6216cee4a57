package models

import "time"

// MonitorConfig holds the console monitor settings read from .drlmon.yaml via Viper.
type MonitorConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`
	Agents          []string      `yaml:"agents" mapstructure:"agents"`
	HistoryRounds   int           `yaml:"history_rounds" mapstructure:"history_rounds"`
}

// PlotConfig holds the chart renderer settings.
type PlotConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`
	StepsPerRound   int           `yaml:"steps_per_round" mapstructure:"steps_per_round"`
	WindowSize      int           `yaml:"window_size" mapstructure:"window_size"`
	Watch           bool          `yaml:"watch" mapstructure:"watch"`
}

// LogConfig controls the diagnostic logger (not the training event log).
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// Config is the full drlmon configuration.
type Config struct {
	Monitor MonitorConfig `yaml:"monitor" mapstructure:"monitor"`
	Plot    PlotConfig    `yaml:"plot" mapstructure:"plot"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}
