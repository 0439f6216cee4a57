package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

var statsJSON bool

// statsReport is the one-shot snapshot printed by the stats command.
type statsReport struct {
	OutputDir  string                `json:"output_dir"`
	HasMetrics bool                  `json:"has_metrics"`
	Stats      models.ChartStats     `json:"stats"`
	Actions    []models.ActionBucket `json:"actions,omitempty"`
}

func printStatsJSON(w io.Writer, report statsReport) error {
	f := prettyjson.NewFormatter()
	f.DisabledColor = color.NoColor
	data, err := f.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printStatsText(w io.Writer, report statsReport, now time.Time) {
	fmt.Fprintf(w, "TRAINING STATISTICS (%s)\n", report.OutputDir)
	if !report.HasMetrics {
		fmt.Fprintln(w, "Waiting for training data...")
		return
	}
	fmt.Fprintln(w, renderStatsText(report.Stats, now))
	if len(report.Actions) > 0 {
		fmt.Fprintln(w, "\nCURRENT ACTION DISTRIBUTION:")
		fmt.Fprintln(w, renderBars(report.Actions, barWidth))
	}
}

var statsCmd = &cobra.Command{
	Use:   "stats [output_dir]",
	Short: "Print the current training statistics once",
	Long: `Aggregate metrics.csv and actions.csv once and print the statistics
panel of the plot view: current round, client count, reward spread and the
estimated total timesteps. Use --json for machine-readable output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Aggregator == nil {
			return fmt.Errorf("aggregator not initialized")
		}
		dir, err := outputDirArg(args)
		if err != nil {
			return err
		}

		view := Aggregator.Chart(dir)
		report := statsReport{
			OutputDir:  dir,
			HasMetrics: view.HasMetrics,
			Stats:      view.Stats,
			Actions:    view.Actions,
		}
		if statsJSON {
			return printStatsJSON(cmd.OutOrStdout(), report)
		}
		printStatsText(cmd.OutOrStdout(), report, time.Now())
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}
