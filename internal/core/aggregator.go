package core

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/valter-silva-au/drl-monitor/internal/observability"
	"github.com/valter-silva-au/drl-monitor/internal/storage"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// DefaultAgents is the agent enumeration order of the console monitor. The
// order decides best-performer ties.
var DefaultAgents = []string{"PPO", "SAC", "TD3", "Random"}

// TableReader reads tabular logs written by a concurrently running producer.
// It never creates, modifies or deletes files.
type TableReader struct {
	logger *slog.Logger
}

// NewTableReader creates a TableReader that reports unreadable tables on logger.
func NewTableReader(logger *slog.Logger) *TableReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableReader{logger: logger}
}

// ReadTable returns the rows of path and whether the table is present. A
// missing file and a file that fails to parse (for instance a row the writer
// is still appending) are both reported as absent; the next poll retries.
// A header-only file is present with zero rows.
func (r *TableReader) ReadTable(path string) ([]models.Row, bool) {
	tbl, err := storage.ReadTable(path)
	if err != nil {
		r.logger.Warn("skipping unreadable table", slog.String("path", path), slog.Any("error", err))
		return nil, false
	}
	if tbl == nil {
		return nil, false
	}
	return tbl.Rows, true
}

// AggregatorOptions tunes the views built by an Aggregator.
type AggregatorOptions struct {
	Agents        []string
	HistoryRounds int
	WindowSize    int
	StepsPerRound int
}

// Aggregator builds the ephemeral views rendered by the console and chart
// monitors. Each call re-reads the tables from disk.
type Aggregator struct {
	reader *TableReader
	opts   AggregatorOptions
}

// NewAggregator creates an Aggregator, filling unset options with defaults.
func NewAggregator(reader *TableReader, opts AggregatorOptions) *Aggregator {
	if len(opts.Agents) == 0 {
		opts.Agents = DefaultAgents
	}
	if opts.HistoryRounds <= 0 {
		opts.HistoryRounds = 5
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = 100
	}
	if opts.StepsPerRound <= 0 {
		opts.StepsPerRound = 5000
	}
	return &Aggregator{reader: reader, opts: opts}
}

// Agents returns the agent enumeration order.
func (a *Aggregator) Agents() []string { return a.opts.Agents }

// Dashboard aggregates the per-agent metrics files and the optional summary in dir.
func (a *Aggregator) Dashboard(dir string) models.DashboardView {
	view := models.DashboardView{ResultsDir: dir}

	var latest []models.AgentLatest
	for _, agent := range a.opts.Agents {
		av := models.AgentView{Agent: agent}
		rows, found := a.reader.ReadTable(filepath.Join(dir, models.AgentMetricsFileName(agent)))
		if found && len(rows) > 0 {
			av.Available = true
			av.Latest = observability.Latest(rows)
			av.Accuracy = observability.Statistics(rows, "accuracy")
			av.History, av.HistoryErr = recentHistory(rows, a.opts.HistoryRounds)
			latest = append(latest, models.AgentLatest{Agent: agent, Latest: av.Latest})
		}
		view.Agents = append(view.Agents, av)
	}

	if best, ok := observability.BestOf(latest); ok {
		view.BestAgent = best
		for _, l := range latest {
			if l.Agent == best {
				view.BestAccuracy = l.Latest.Accuracy
			}
		}
	}

	view.Summary = a.Summary(dir)
	return view
}

// Summary reads summary.csv. It returns nil while training is still running.
func (a *Aggregator) Summary(dir string) []models.SummaryRow {
	rows, found := a.reader.ReadTable(filepath.Join(dir, models.SummaryFileName))
	if !found || len(rows) == 0 {
		return nil
	}
	out := make([]models.SummaryRow, 0, len(rows))
	for _, row := range rows {
		s := models.SummaryRow{Agent: row["agent"]}
		if s.Agent == "" {
			s.Agent = "Unknown"
		}
		s.FinalAccuracy, _ = observability.ParseFloat(row["final_accuracy"])
		s.MeanAccuracy, _ = observability.ParseFloat(row["mean_accuracy"])
		s.StdAccuracy, _ = observability.ParseFloat(row["std_accuracy"])
		s.TrainingTimeSeconds, _ = observability.ParseFloat(row["training_time_seconds"])
		out = append(out, s)
	}
	return out
}

// recentHistory returns the last n (round, accuracy) points. Rows without an
// accuracy column are skipped; a present but malformed value flags the whole
// history as unreadable.
func recentHistory(rows []models.Row, n int) ([]models.HistoryPoint, bool) {
	if len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	points := make([]models.HistoryPoint, 0, len(rows))
	for _, row := range rows {
		rawRound, hasRound := row["round"]
		rawAcc, hasAcc := row["accuracy"]
		if !hasRound || !hasAcc {
			continue
		}
		round, ok := observability.ParseRound(rawRound)
		if !ok {
			return nil, true
		}
		acc, ok := observability.ParseFloat(rawAcc)
		if !ok {
			return nil, true
		}
		points = append(points, models.HistoryPoint{Round: round, Accuracy: acc})
	}
	return points, false
}

type clientSeries struct {
	id       int
	rewards  []models.Point
	episodes []models.Point
	losses   []models.Point
}

// Chart aggregates metrics.csv and actions.csv in dir for the chart monitor.
func (a *Aggregator) Chart(dir string) models.ChartView {
	var view models.ChartView

	rows, found := a.reader.ReadTable(filepath.Join(dir, models.MetricsFileName))
	if found && len(rows) > 0 {
		view.HasMetrics = true
		a.fillMetricPanels(&view, rows)
	}

	actions, found := a.reader.ReadTable(filepath.Join(dir, models.ActionsFileName))
	if found && len(actions) > 0 {
		last := actions[len(actions)-1]
		view.Actions = make([]models.ActionBucket, 0, models.ActionBucketCount)
		for _, name := range models.ActionBucketNames {
			v, _ := observability.ParseFloat(last[name])
			view.Actions = append(view.Actions, models.ActionBucket{Name: name, Count: v})
		}
	}

	return view
}

func (a *Aggregator) fillMetricPanels(view *models.ChartView, rows []models.Row) {
	var order []*clientSeries
	byID := make(map[int]*clientSeries)
	global := make(map[int]float64)

	type parsed struct {
		round, client int
		reward        float64
		hasReward     bool
	}
	var valid []parsed

	for _, row := range rows {
		round, ok := observability.ParseRound(row["round"])
		if !ok {
			continue
		}
		client, ok := observability.ParseRound(row["client_id"])
		if !ok {
			continue
		}

		cs, seen := byID[client]
		if !seen {
			cs = &clientSeries{id: client}
			byID[client] = cs
			order = append(order, cs)
		}

		p := parsed{round: round, client: client}
		if v, ok := observability.ParseFloat(row["mean_reward"]); ok {
			cs.rewards = append(cs.rewards, models.Point{Round: round, Value: v})
			p.reward, p.hasReward = v, true
		}
		if v, ok := observability.ParseFloat(row["episode_length"]); ok {
			cs.episodes = append(cs.episodes, models.Point{Round: round, Value: v})
		}
		if v, ok := observability.ParseFloat(row["loss"]); ok {
			cs.losses = append(cs.losses, models.Point{Round: round, Value: v})
		}
		if v, ok := observability.ParseFloat(row["global_reward"]); ok {
			if _, exists := global[round]; !exists {
				global[round] = v
			}
		}
		valid = append(valid, p)
	}

	w := a.opts.WindowSize
	for _, cs := range order {
		label := "Client " + strconv.Itoa(cs.id)
		view.Rewards = append(view.Rewards, models.Series{Label: label, Points: tail(cs.rewards, w)})
		view.EpisodeLengths = append(view.EpisodeLengths, models.Series{Label: label, Points: tail(cs.episodes, w)})
		view.Losses = append(view.Losses, models.Series{Label: label, Points: tail(cs.losses, w)})
	}

	if len(global) > 0 {
		rounds := make([]int, 0, len(global))
		for r := range global {
			rounds = append(rounds, r)
		}
		sort.Ints(rounds)
		gs := &models.Series{Label: "Global"}
		for _, r := range rounds {
			gs.Points = append(gs.Points, models.Point{Round: r, Value: global[r]})
		}
		gs.Points = tail(gs.Points, w)
		view.Global = gs
	}

	if len(valid) == 0 {
		return
	}
	current := valid[0].round
	for _, p := range valid {
		if p.round > current {
			current = p.round
		}
	}
	var latestRewards []float64
	for _, p := range valid {
		if p.round == current && p.hasReward {
			latestRewards = append(latestRewards, p.reward)
		}
	}
	rs := observability.Describe(latestRewards)
	view.Stats = models.ChartStats{
		CurrentRound:   current,
		Clients:        len(order),
		RewardMean:     rs.Mean,
		RewardBest:     rs.Max,
		RewardWorst:    rs.Min,
		RewardStd:      rs.Std,
		TotalTimesteps: int64(current) * int64(a.opts.StepsPerRound) * int64(len(order)),
	}
}

func tail(points []models.Point, n int) []models.Point {
	if len(points) > n {
		return points[len(points)-n:]
	}
	return points
}
