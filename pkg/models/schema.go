package models

import "fmt"

// File names inside an output directory.
const (
	MetricsFileName = "metrics.csv"
	ActionsFileName = "actions.csv"
	EventsFileName  = "training_log.txt"
	ConfigFileName  = "config.yaml"
	SummaryFileName = "summary.csv"
)

// AgentMetricsFileName returns the per-agent metrics file read by the console monitor.
func AgentMetricsFileName(agent string) string {
	return agent + "_metrics.csv"
}

// MetricsColumns is the fixed column order of metrics.csv.
var MetricsColumns = []string{
	"timestamp", "round", "client_id", "mean_reward",
	"std_reward", "episode_length", "loss", "global_reward",
}

// Action bucket families. The three families always add up to ActionBucketCount.
var (
	SkipBuckets     = []string{"skip_0", "skip_1", "skip_2", "skip_3", "skip_4"}
	BitrateBuckets  = []string{"bitrate_low", "bitrate_med", "bitrate_high", "bitrate_auto"}
	PrefetchBuckets = []string{"prefetch_off", "prefetch_short", "prefetch_long"}
)

// ActionBucketCount is the number of action buckets stored per ActionRow.
const ActionBucketCount = 12

// ActionBucketNames lists every bucket in storage order: skip, bitrate, prefetch.
var ActionBucketNames = concat(SkipBuckets, BitrateBuckets, PrefetchBuckets)

// ActionsColumns is the fixed column order of actions.csv (15 columns).
var ActionsColumns = concat([]string{"timestamp", "round", "client_id"}, ActionBucketNames)

// SummaryColumns is the column order of summary.csv.
var SummaryColumns = []string{
	"agent", "final_accuracy", "mean_accuracy", "std_accuracy", "training_time_seconds",
}

// AgentMetricsColumns is the column order of <Agent>_metrics.csv.
var AgentMetricsColumns = []string{"round", "accuracy", "reward"}

// NormalizeActionCounts returns a copy of counts right-padded with zeros to
// ActionBucketCount. Longer inputs and negative counts are rejected.
func NormalizeActionCounts(counts []int) ([]int, error) {
	if len(counts) > ActionBucketCount {
		return nil, fmt.Errorf("got %d action counts, at most %d allowed", len(counts), ActionBucketCount)
	}
	out := make([]int, ActionBucketCount)
	for i, c := range counts {
		if c < 0 {
			return nil, fmt.Errorf("action count %s is negative: %d", ActionBucketNames[i], c)
		}
		out[i] = c
	}
	return out, nil
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
