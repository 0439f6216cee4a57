package core

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/valter-silva-au/drl-monitor/internal/storage"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// AgentMetricsWriter appends rows to <Agent>_metrics.csv, the per-agent table
// the console monitor polls.
type AgentMetricsWriter struct {
	agent string
	path  string
}

// NewAgentMetricsWriter creates the agent's metrics file with a header row when absent.
func NewAgentMetricsWriter(dir, agent string) (*AgentMetricsWriter, error) {
	path := filepath.Join(dir, models.AgentMetricsFileName(agent))
	if err := storage.EnsureTable(path, models.AgentMetricsColumns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return &AgentMetricsWriter{agent: agent, path: path}, nil
}

// Agent returns the agent this writer appends for.
func (w *AgentMetricsWriter) Agent() string { return w.agent }

// Append writes one row and syncs it before returning.
func (w *AgentMetricsWriter) Append(row models.AgentMetricRow) error {
	if row.Round < 0 {
		return fmt.Errorf("%w: round must be non-negative, got %d", ErrValidation, row.Round)
	}
	record := []string{strconv.Itoa(row.Round), formatFloat(row.Accuracy), formatFloat(row.Reward)}
	if err := storage.AppendRow(w.path, record); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	return nil
}

// WriteAgentSummary writes summary.csv with one row per agent. Its presence
// tells the monitor that training has completed.
func WriteAgentSummary(dir string, rows []models.SummaryRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Agent,
			formatFloat(r.FinalAccuracy),
			formatFloat(r.MeanAccuracy),
			formatFloat(r.StdAccuracy),
			formatFloat(r.TrainingTimeSeconds),
		})
	}
	if err := storage.WriteTable(filepath.Join(dir, models.SummaryFileName), models.SummaryColumns, records); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	return nil
}
