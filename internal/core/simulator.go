package core

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"github.com/valter-silva-au/drl-monitor/internal/observability"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// SimulationOptions configures a synthetic training run.
type SimulationOptions struct {
	// OutputDir receives metrics.csv, actions.csv, the event log and config.yaml.
	OutputDir  string
	Experiment string
	// ResultsDir, when set, receives <Agent>_metrics.csv and summary.csv.
	ResultsDir    string
	Agents        []string
	Rounds        int
	Clients       int
	StepsPerRound int
	// Interval is slept between rounds so monitors can follow along.
	Interval time.Duration
	Seed     uint64
}

// SimulationResult is returned by Simulate.
type SimulationResult struct {
	Summary    models.MetricsSummary
	OutputDir  string
	Experiment string
	RunID      string
}

// Simulate writes a synthetic federated training run through a
// TrainingLogger. Cancelling ctx stops after the current round; the session
// is still closed and the partial result returned together with ctx's error.
func Simulate(ctx context.Context, opts SimulationOptions) (*SimulationResult, error) {
	if opts.Rounds <= 0 || opts.Clients <= 0 {
		return nil, fmt.Errorf("%w: rounds and clients must be positive", ErrValidation)
	}
	if opts.StepsPerRound <= 0 {
		opts.StepsPerRound = 5000
	}
	if len(opts.Agents) == 0 {
		opts.Agents = DefaultAgents
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	logger, err := NewTrainingLogger(opts.OutputDir, opts.Experiment)
	if err != nil {
		return nil, err
	}
	if err := logger.LogConfig(map[string]any{
		"algorithm":           "PPO",
		"n_rounds":            opts.Rounds,
		"n_clients":           opts.Clients,
		"timesteps_per_round": opts.StepsPerRound,
	}); err != nil {
		return nil, err
	}

	agents, err := newAgentRuns(opts, rng)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	var runErr error
	for round := 1; round <= opts.Rounds; round++ {
		if err := simulateRound(logger, rng, round, opts.Clients); err != nil {
			return nil, err
		}
		for _, a := range agents {
			if err := a.step(round, opts.Rounds); err != nil {
				return nil, err
			}
		}
		if round%5 == 0 || round == opts.Rounds {
			if err := logger.LogCheckpoint(round, fmt.Sprintf("checkpoints/round_%d.pt", round)); err != nil {
				return nil, err
			}
		}

		if round == opts.Rounds {
			break
		}
		if opts.Interval > 0 {
			timer := time.NewTimer(opts.Interval)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
	}

	if opts.ResultsDir != "" && runErr == nil {
		if err := writeAgentSummaries(opts.ResultsDir, agents, time.Since(started)); err != nil {
			return nil, err
		}
	}

	summary, err := logger.Finish()
	if err != nil {
		return nil, err
	}
	return &SimulationResult{
		Summary:    summary,
		OutputDir:  logger.OutputDir(),
		Experiment: logger.ExperimentName(),
		RunID:      logger.RunID(),
	}, runErr
}

func simulateRound(logger *TrainingLogger, rng *rand.Rand, round, clients int) error {
	rewards := make([]float64, clients)
	for c := 0; c < clients; c++ {
		rewards[c] = uniform(rng, 0.3, 0.7)
		length := 50 + rng.IntN(100)
		if err := logger.LogEpisode(round, c, 1, rewards[c]*float64(length), length); err != nil {
			return err
		}

		m := RoundMetrics{
			Round:         round,
			ClientID:      c,
			MeanReward:    rewards[c],
			StdReward:     uniform(rng, 0.05, 0.15),
			EpisodeLength: length,
			Loss:          uniform(rng, 0.01, 0.5),
		}
		// The global reward is known once every client has reported.
		if c == clients-1 {
			g := observability.Describe(rewards).Mean
			m.GlobalReward = &g
		}
		if err := logger.LogRound(m); err != nil {
			return err
		}

		counts := make([]int, models.ActionBucketCount)
		for i := range counts {
			counts[i] = rng.IntN(100)
		}
		if err := logger.LogActionDistribution(round, c, counts); err != nil {
			return err
		}
	}

	pre := observability.Describe(rewards).Std
	pre *= pre
	return logger.LogAggregation(round, clients, pre, pre*uniform(rng, 0.1, 0.5))
}

// agentRun produces a learning curve for one agent of the comparison run.
type agentRun struct {
	writer   *AgentMetricsWriter
	rng      *rand.Rand
	ceiling  float64
	accuracy []float64
}

func newAgentRuns(opts SimulationOptions, rng *rand.Rand) ([]*agentRun, error) {
	if opts.ResultsDir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(opts.ResultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating results directory %s: %v", ErrConfiguration, opts.ResultsDir, err)
	}
	runs := make([]*agentRun, 0, len(opts.Agents))
	for i, agent := range opts.Agents {
		w, err := NewAgentMetricsWriter(opts.ResultsDir, agent)
		if err != nil {
			return nil, err
		}
		// Later agents in the list plateau lower.
		ceiling := 0.9 - 0.1*float64(i)
		if ceiling < 0.3 {
			ceiling = 0.3
		}
		runs = append(runs, &agentRun{writer: w, rng: rng, ceiling: ceiling})
	}
	return runs, nil
}

func (a *agentRun) step(round, total int) error {
	progress := 1 - math.Exp(-3*float64(round)/float64(total))
	acc := math.Max(0, math.Min(1, 0.25+(a.ceiling-0.25)*progress+uniform(a.rng, -0.02, 0.02)))
	a.accuracy = append(a.accuracy, acc)
	return a.writer.Append(models.AgentMetricRow{Round: round, Accuracy: acc, Reward: acc * 100})
}

func writeAgentSummaries(dir string, runs []*agentRun, elapsed time.Duration) error {
	rows := make([]models.SummaryRow, 0, len(runs))
	for _, a := range runs {
		if len(a.accuracy) == 0 {
			continue
		}
		stats := observability.Describe(a.accuracy)
		rows = append(rows, models.SummaryRow{
			Agent:               a.writer.Agent(),
			FinalAccuracy:       a.accuracy[len(a.accuracy)-1],
			MeanAccuracy:        stats.Mean,
			StdAccuracy:         stats.Std,
			TrainingTimeSeconds: elapsed.Seconds(),
		})
	}
	return WriteAgentSummary(dir, rows)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
