package observability

import (
	"math"
	"strconv"
	"strings"

	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// Latest takes the last row as the most recent one. An empty slice, or a
// field that is missing or malformed, yields the zero value for that field.
// The reward comes from the "reward" column and falls back to "mean_reward"
// for tables written by the training logger.
func Latest(rows []models.Row) models.LatestMetrics {
	if len(rows) == 0 {
		return models.LatestMetrics{}
	}
	last := rows[len(rows)-1]

	var out models.LatestMetrics
	if r, ok := ParseRound(last["round"]); ok {
		out.Round = r
	}
	if v, ok := ParseFloat(last["accuracy"]); ok {
		out.Accuracy = v
	}
	if v, ok := ParseFloat(last["reward"]); ok {
		out.Reward = v
	} else if v, ok := ParseFloat(last["mean_reward"]); ok {
		out.Reward = v
	}
	return out
}

// Statistics computes population statistics of field over rows. Rows where
// the field is missing, empty or not a number are skipped.
func Statistics(rows []models.Row, field string) models.Stats {
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := ParseFloat(row[field]); ok {
			values = append(values, v)
		}
	}
	return Describe(values)
}

// Describe returns mean, population standard deviation, max and min of values.
func Describe(values []float64) models.Stats {
	if len(values) == 0 {
		return models.Stats{}
	}

	sum := 0.0
	minV, maxV := values[0], values[0]
	for _, v := range values {
		sum += v
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return models.Stats{
		Mean: mean,
		Std:  math.Sqrt(variance),
		Max:  maxV,
		Min:  minV,
	}
}

// BestOf returns the agent with the highest latest accuracy. Agents are
// visited in slice order and a tie keeps the earlier agent, so callers pass
// them in the configured agent order.
func BestOf(agents []models.AgentLatest) (string, bool) {
	if len(agents) == 0 {
		return "", false
	}
	best := agents[0]
	for _, a := range agents[1:] {
		if a.Latest.Accuracy > best.Latest.Accuracy {
			best = a
		}
	}
	return best.Agent, true
}

// ParseFloat parses a CSV cell. Empty, non-numeric and NaN cells are rejected.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseRound parses a round or client id cell, accepting float notation such as "3.0".
func ParseRound(s string) (int, bool) {
	v, ok := ParseFloat(s)
	if !ok || math.IsInf(v, 0) {
		return 0, false
	}
	return int(v), true
}
