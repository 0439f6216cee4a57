package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/drl-monitor/internal/core"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

var (
	simRounds     int
	simClients    int
	simExperiment string
	simResults    string
	simInterval   time.Duration
	simSeed       uint64
)

func printTrainingSummary(w io.Writer, s models.MetricsSummary) {
	rule := heavyRule[:60]
	fmt.Fprintf(w, "\n%s\n  TRAINING SUMMARY\n%s\n", rule, rule)
	if s.Status != "" {
		fmt.Fprintf(w, "Status: %s\n", s.Status)
	} else {
		fmt.Fprintf(w, "Total Rounds: %d\n", s.TotalRounds)
		fmt.Fprintf(w, "Total Clients: %d\n", s.TotalClients)
		fmt.Fprintf(w, "Total Metrics: %d\n", s.TotalMetrics)
		fmt.Fprintf(w, "Total Actions: %d\n", s.TotalActions)
		fmt.Fprintf(w, "Avg Reward: %.4f\n", s.AvgReward)
		fmt.Fprintf(w, "Max Reward: %.4f\n", s.MaxReward)
		fmt.Fprintf(w, "Min Reward: %.4f\n", s.MinReward)
		fmt.Fprintf(w, "Std Reward: %.4f\n", s.StdReward)
	}
	fmt.Fprintf(w, "%s\n\n", rule)
}

var simulateCmd = &cobra.Command{
	Use:   "simulate [output_dir]",
	Short: "Write a synthetic federated training run",
	Long: `Drive the training logger with random but plausible data: a config
snapshot, per-round metrics and action counts for every client, episode,
aggregation and checkpoint events and, with --results, per-agent metrics
files plus a final summary.

Use --interval to pace the rounds and watch the run live with the monitor
and plot commands. The output directory defaults to "drl_outputs" and is
created if needed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := defaultOutputDir
		if len(args) == 1 {
			dir = args[0]
		}
		agents := core.DefaultAgents
		steps := 0
		if Config != nil {
			agents = Config.Monitor.Agents
			steps = Config.Plot.StepsPerRound
		}
		seed := simSeed
		if !cmd.Flags().Changed("seed") {
			seed = uint64(time.Now().UnixNano())
		}

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := core.Simulate(ctx, core.SimulationOptions{
			OutputDir:     dir,
			Experiment:    simExperiment,
			ResultsDir:    simResults,
			Agents:        agents,
			Rounds:        simRounds,
			Clients:       simClients,
			StepsPerRound: steps,
			Interval:      simInterval,
			Seed:          seed,
		})
		if res == nil {
			return err
		}
		out := cmd.OutOrStdout()
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, "Simulation stopped by user")
		} else if err != nil {
			return err
		}

		printTrainingSummary(out, res.Summary)
		fmt.Fprintf(out, "Experiment: %s (run %s)\n", res.Experiment, res.RunID)
		fmt.Fprintf(out, "Logs saved to: %s\n", res.OutputDir)
		if simResults != "" && err == nil {
			fmt.Fprintf(out, "Agent results saved to: %s\n", simResults)
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simRounds, "rounds", 3, "number of federated rounds")
	simulateCmd.Flags().IntVar(&simClients, "clients", 3, "number of clients per round")
	simulateCmd.Flags().StringVar(&simExperiment, "experiment", "", "experiment name (default derived from the current time)")
	simulateCmd.Flags().StringVar(&simResults, "results", "", "also write per-agent metrics and summary.csv here")
	simulateCmd.Flags().DurationVar(&simInterval, "interval", 0, "pause between rounds")
	simulateCmd.Flags().Uint64Var(&simSeed, "seed", 0, "random seed (default random)")
	rootCmd.AddCommand(simulateCmd)
}
