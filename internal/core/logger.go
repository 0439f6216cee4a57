package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/drl-monitor/internal/observability"
	"github.com/valter-silva-au/drl-monitor/internal/storage"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// rowTimeLayout is the ISO-8601 timestamp written into every tabular row.
const rowTimeLayout = "2006-01-02T15:04:05.000000"

// experimentNameLayout derives a default experiment name with second resolution.
const experimentNameLayout = "20060102_150405"

// RoundMetrics is the input of LogRound. Zero values match the documented
// defaults: std_reward, episode_length and loss of 0 and no global reward.
type RoundMetrics struct {
	Round         int
	ClientID      int
	MeanReward    float64
	StdReward     float64
	EpisodeLength int
	Loss          float64
	GlobalReward  *float64
}

// LoggerOption customises a TrainingLogger.
type LoggerOption func(*TrainingLogger)

// WithClock overrides the time source used for timestamps and the default
// experiment name.
func WithClock(now func() time.Time) LoggerOption {
	return func(l *TrainingLogger) { l.now = now }
}

// TrainingLogger appends per-round metrics and action distributions to the
// tabular logs and writes events to the text event log. Every append is
// synced to disk before the call returns. The in-memory buffers only mirror
// rows written through this instance.
type TrainingLogger struct {
	outputDir      string
	experimentName string
	runID          string

	metricsPath string
	actionsPath string
	configPath  string
	events      observability.EventLog
	now         func() time.Time

	mu      sync.Mutex
	metrics []models.MetricRow
	actions []models.ActionRow
}

// NewTrainingLogger creates outputDir if needed, creates metrics.csv and
// actions.csv with header rows when absent, and records a
// "Logger initialized" event. An empty experimentName is derived from the
// current time.
func NewTrainingLogger(outputDir, experimentName string, opts ...LoggerOption) (*TrainingLogger, error) {
	l := &TrainingLogger{
		outputDir:   outputDir,
		runID:       uuid.NewString(),
		metricsPath: filepath.Join(outputDir, models.MetricsFileName),
		actionsPath: filepath.Join(outputDir, models.ActionsFileName),
		configPath:  filepath.Join(outputDir, models.ConfigFileName),
		events:      observability.NewTextEventLog(filepath.Join(outputDir, models.EventsFileName)),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	if experimentName == "" {
		experimentName = l.now().Format(experimentNameLayout)
	}
	l.experimentName = experimentName

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating output directory %s: %v", ErrConfiguration, outputDir, err)
	}
	if err := storage.EnsureTable(l.metricsPath, models.MetricsColumns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := storage.EnsureTable(l.actionsPath, models.ActionsColumns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := l.LogEvent(models.LevelInfo, "Logger initialized"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return l, nil
}

// ExperimentName returns the name given at construction or derived from the clock.
func (l *TrainingLogger) ExperimentName() string { return l.experimentName }

// RunID returns the random identifier of this logger instance.
func (l *TrainingLogger) RunID() string { return l.runID }

// OutputDir returns the directory holding all log files.
func (l *TrainingLogger) OutputDir() string { return l.outputDir }

// LogEvent appends one line to the event log.
func (l *TrainingLogger) LogEvent(level models.EventLevel, message string) error {
	err := l.events.Write(observability.Event{Time: l.now(), Level: level, Message: message})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	return nil
}

// LogConfig writes a snapshot of cfg, augmented with the experiment name, run
// id and an ISO-8601 timestamp, replacing any previous snapshot. cfg itself is
// not modified.
func (l *TrainingLogger) LogConfig(cfg map[string]any) error {
	snapshot := make(map[string]any, len(cfg)+3)
	for k, v := range cfg {
		snapshot[k] = v
	}
	snapshot["experiment_name"] = l.experimentName
	snapshot["run_id"] = l.runID
	snapshot["timestamp"] = l.now().Format(time.RFC3339Nano)

	if err := storage.WriteSnapshot(l.configPath, snapshot); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	return l.LogEvent(models.LevelInfo, fmt.Sprintf("Configuration saved: %v", snapshot))
}

// LogRound appends one row to metrics.csv and records a METRIC event.
func (l *TrainingLogger) LogRound(m RoundMetrics) error {
	switch {
	case m.Round < 0:
		return fmt.Errorf("%w: round must be non-negative, got %d", ErrValidation, m.Round)
	case m.StdReward < 0:
		return fmt.Errorf("%w: std_reward must be non-negative, got %v", ErrValidation, m.StdReward)
	case m.EpisodeLength < 0:
		return fmt.Errorf("%w: episode_length must be non-negative, got %d", ErrValidation, m.EpisodeLength)
	}

	ts := l.now()
	row := models.MetricRow{
		Timestamp:     ts,
		Round:         m.Round,
		ClientID:      m.ClientID,
		MeanReward:    m.MeanReward,
		StdReward:     m.StdReward,
		EpisodeLength: m.EpisodeLength,
		Loss:          m.Loss,
		GlobalReward:  m.GlobalReward,
	}

	global := ""
	if m.GlobalReward != nil {
		global = formatFloat(*m.GlobalReward)
	}
	record := []string{
		ts.Format(rowTimeLayout),
		strconv.Itoa(m.Round),
		strconv.Itoa(m.ClientID),
		formatFloat(m.MeanReward),
		formatFloat(m.StdReward),
		strconv.Itoa(m.EpisodeLength),
		formatFloat(m.Loss),
		global,
	}
	if err := storage.AppendRow(l.metricsPath, record); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}

	l.mu.Lock()
	l.metrics = append(l.metrics, row)
	l.mu.Unlock()

	return l.LogEvent(models.LevelMetric, fmt.Sprintf("Round %d | Client %d | Reward: %.4f | Loss: %.4f",
		m.Round, m.ClientID, m.MeanReward, m.Loss))
}

// LogActionDistribution appends one row to actions.csv. counts is padded with
// zeros to the 12 action buckets; longer input is rejected.
func (l *TrainingLogger) LogActionDistribution(round, clientID int, counts []int) error {
	if round < 0 {
		return fmt.Errorf("%w: round must be non-negative, got %d", ErrValidation, round)
	}
	normalized, err := models.NormalizeActionCounts(counts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	ts := l.now()
	record := make([]string, 0, len(models.ActionsColumns))
	record = append(record, ts.Format(rowTimeLayout), strconv.Itoa(round), strconv.Itoa(clientID))
	for _, c := range normalized {
		record = append(record, strconv.Itoa(c))
	}
	if err := storage.AppendRow(l.actionsPath, record); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}

	l.mu.Lock()
	l.actions = append(l.actions, models.ActionRow{Timestamp: ts, Round: round, ClientID: clientID, Counts: normalized})
	l.mu.Unlock()
	return nil
}

// LogEpisode records the result of one episode within a round.
func (l *TrainingLogger) LogEpisode(round, clientID, episode int, totalReward float64, length int) error {
	return l.LogEvent(models.LevelEpisode, fmt.Sprintf("Round %d | Client %d | Episode %d | Reward: %.4f | Length: %d",
		round, clientID, episode, totalReward, length))
}

// LogAggregation records a federated averaging step.
func (l *TrainingLogger) LogAggregation(round, numClients int, preVariance, postVariance float64) error {
	return l.LogEvent(models.LevelAggregation, fmt.Sprintf("Round %d | FedAvg | Clients: %d | Variance: %.4f → %.4f",
		round, numClients, preVariance, postVariance))
}

// LogCheckpoint records that a model checkpoint was saved.
func (l *TrainingLogger) LogCheckpoint(round int, checkpointPath string) error {
	return l.LogEvent(models.LevelCheckpoint, fmt.Sprintf("Round %d | Checkpoint saved: %s", round, checkpointPath))
}

// LogError records an error message, with the cause appended when non-nil.
func (l *TrainingLogger) LogError(message string, cause error) error {
	if cause != nil {
		message += " | Exception: " + cause.Error()
	}
	return l.LogEvent(models.LevelError, message)
}

// Summary aggregates the rows logged through this instance.
func (l *TrainingLogger) Summary() models.MetricsSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.metrics) == 0 {
		return models.MetricsSummary{Status: "No metrics logged yet", TotalActions: len(l.actions)}
	}

	rounds := make(map[int]struct{})
	clients := make(map[int]struct{})
	rewards := make([]float64, 0, len(l.metrics))
	for _, m := range l.metrics {
		rounds[m.Round] = struct{}{}
		clients[m.ClientID] = struct{}{}
		rewards = append(rewards, m.MeanReward)
	}
	stats := observability.Describe(rewards)

	return models.MetricsSummary{
		TotalRounds:  len(rounds),
		TotalClients: len(clients),
		TotalMetrics: len(l.metrics),
		TotalActions: len(l.actions),
		AvgReward:    stats.Mean,
		MaxReward:    stats.Max,
		MinReward:    stats.Min,
		StdReward:    stats.Std,
	}
}

// Finish records the end of the training session and returns the final summary.
func (l *TrainingLogger) Finish() (models.MetricsSummary, error) {
	if err := l.LogEvent(models.LevelInfo, "Training session completed"); err != nil {
		return models.MetricsSummary{}, err
	}
	return l.Summary(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
