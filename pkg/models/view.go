package models

// LatestMetrics is the most recent row of a metrics table.
type LatestMetrics struct {
	Round    int     `json:"round"`
	Accuracy float64 `json:"accuracy"`
	Reward   float64 `json:"reward"`
}

// Stats holds population statistics over one column.
type Stats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Max  float64 `json:"max"`
	Min  float64 `json:"min"`
}

// AgentLatest pairs an agent with its latest metrics, used for best-performer selection.
type AgentLatest struct {
	Agent  string
	Latest LatestMetrics
}

// HistoryPoint is one entry of the recent accuracy history.
type HistoryPoint struct {
	Round    int     `json:"round"`
	Accuracy float64 `json:"accuracy"`
}

// AgentView is the console dashboard's aggregated state for one agent.
type AgentView struct {
	Agent     string         `json:"agent"`
	Available bool           `json:"available"`
	Latest    LatestMetrics  `json:"latest"`
	Accuracy  Stats          `json:"accuracy"`
	History   []HistoryPoint `json:"history,omitempty"`
	// HistoryErr is set when a recent row could not be parsed.
	HistoryErr bool `json:"history_error,omitempty"`
}

// DashboardView is recomputed on every poll of the console monitor and never persisted.
type DashboardView struct {
	ResultsDir   string       `json:"results_dir"`
	Agents       []AgentView  `json:"agents"`
	BestAgent    string       `json:"best_agent,omitempty"`
	BestAccuracy float64      `json:"best_accuracy,omitempty"`
	Summary      []SummaryRow `json:"summary,omitempty"`
}

// AnyAvailable reports whether at least one agent has a metrics file.
func (v DashboardView) AnyAvailable() bool {
	for _, a := range v.Agents {
		if a.Available {
			return true
		}
	}
	return false
}

// Point is a (round, value) sample of a chart series.
type Point struct {
	Round int     `json:"round"`
	Value float64 `json:"value"`
}

// Series is one labelled line in a chart panel.
type Series struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// ActionBucket is one bar of the action distribution panel.
type ActionBucket struct {
	Name  string  `json:"name"`
	Count float64 `json:"count"`
}

// ChartStats backs the statistics text panel.
type ChartStats struct {
	CurrentRound   int     `json:"current_round"`
	Clients        int     `json:"clients"`
	RewardMean     float64 `json:"reward_mean"`
	RewardBest     float64 `json:"reward_best"`
	RewardWorst    float64 `json:"reward_worst"`
	RewardStd      float64 `json:"reward_std"`
	TotalTimesteps int64   `json:"total_timesteps"`
}

// ChartView is the chart renderer's aggregated state, rebuilt from disk on every refresh.
type ChartView struct {
	HasMetrics     bool           `json:"has_metrics"`
	Rewards        []Series       `json:"rewards,omitempty"`
	Global         *Series        `json:"global,omitempty"`
	EpisodeLengths []Series       `json:"episode_lengths,omitempty"`
	Losses         []Series       `json:"losses,omitempty"`
	Actions        []ActionBucket `json:"actions,omitempty"`
	Stats          ChartStats     `json:"stats"`
}
