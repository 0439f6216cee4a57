package models

import "time"

// EventLevel tags a line in the training event log.
type EventLevel string

const (
	LevelInfo        EventLevel = "INFO"
	LevelMetric      EventLevel = "METRIC"
	LevelEpisode     EventLevel = "EPISODE"
	LevelAggregation EventLevel = "AGGREGATION"
	LevelError       EventLevel = "ERROR"
	LevelCheckpoint  EventLevel = "CHECKPOINT"
)

// ValidEventLevels lists every level accepted by the event log.
var ValidEventLevels = []EventLevel{
	LevelInfo, LevelMetric, LevelEpisode, LevelAggregation, LevelError, LevelCheckpoint,
}

// MetricRow is one line of metrics.csv: a client's results for one round.
type MetricRow struct {
	Timestamp     time.Time `json:"timestamp"`
	Round         int       `json:"round"`
	ClientID      int       `json:"client_id"`
	MeanReward    float64   `json:"mean_reward"`
	StdReward     float64   `json:"std_reward"`
	EpisodeLength int       `json:"episode_length"`
	Loss          float64   `json:"loss"`
	GlobalReward  *float64  `json:"global_reward,omitempty"`
}

// ActionRow is one line of actions.csv.
type ActionRow struct {
	Timestamp time.Time `json:"timestamp"`
	Round     int       `json:"round"`
	ClientID  int       `json:"client_id"`
	Counts    []int     `json:"counts"`
}

// SummaryRow is one line of summary.csv, written once per agent when training ends.
type SummaryRow struct {
	Agent               string  `json:"agent"`
	FinalAccuracy       float64 `json:"final_accuracy"`
	MeanAccuracy        float64 `json:"mean_accuracy"`
	StdAccuracy         float64 `json:"std_accuracy"`
	TrainingTimeSeconds float64 `json:"training_time_seconds"`
}

// AgentMetricRow is one line of <Agent>_metrics.csv.
type AgentMetricRow struct {
	Round    int     `json:"round"`
	Accuracy float64 `json:"accuracy"`
	Reward   float64 `json:"reward"`
}

// Row is a parsed CSV data row keyed by header column. Values are kept as the
// raw strings read from disk; consumers parse what they need.
type Row map[string]string

// MetricsSummary is the in-memory aggregate of everything one logger wrote.
type MetricsSummary struct {
	Status       string  `json:"status,omitempty"`
	TotalRounds  int     `json:"total_rounds"`
	TotalClients int     `json:"total_clients"`
	TotalMetrics int     `json:"total_metrics"`
	TotalActions int     `json:"total_actions"`
	AvgReward    float64 `json:"avg_reward"`
	MaxReward    float64 `json:"max_reward"`
	MinReward    float64 `json:"min_reward"`
	StdReward    float64 `json:"std_reward"`
}
