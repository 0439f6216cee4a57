package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/drl-monitor/internal/storage"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

const defaultOutputDir = "drl_outputs"

var (
	plotWatch    bool
	plotInterval time.Duration
)

// outputDirArg returns the positional output directory and checks that it exists.
func outputDirArg(args []string) (string, error) {
	dir := defaultOutputDir
	if len(args) == 1 {
		dir = args[0]
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("Directory '%s' not found", dir)
	}
	return dir, nil
}

var plotCmd = &cobra.Command{
	Use:   "plot [output_dir]",
	Short: "Live multi-panel charts over metrics.csv and actions.csv",
	Long: `Open a terminal chart view of a training output directory: reward per
client with the global overlay, episode length, loss on a log scale, the
latest action distribution and a statistics panel.

Every refresh re-reads the files and redraws every panel. With --watch the
view also refreshes as soon as metrics.csv or actions.csv changes.

The directory defaults to "drl_outputs" and must exist.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Aggregator == nil || Config == nil {
			return fmt.Errorf("plotter not initialized")
		}
		dir, err := outputDirArg(args)
		if err != nil {
			return err
		}

		interval := Config.Plot.RefreshInterval
		if plotInterval > 0 {
			interval = plotInterval
		}
		watch := Config.Plot.Watch || plotWatch

		var changes <-chan struct{}
		if watch {
			w, err := storage.WatchTables(dir, []string{models.MetricsFileName, models.ActionsFileName}, logger())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: file watching disabled: %v\n", err)
			} else {
				defer w.Close()
				changes = w.Changes()
			}
		}

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM)
		defer stop()

		p := tea.NewProgram(newChartModel(dir, Aggregator, interval, changes), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Plotting stopped by user")
		return nil
	},
}

func init() {
	plotCmd.Flags().BoolVar(&plotWatch, "watch", false, "refresh early when metrics.csv or actions.csv changes")
	plotCmd.Flags().DurationVar(&plotInterval, "interval", 0, "refresh interval (default from plot.refresh_interval)")
	rootCmd.AddCommand(plotCmd)
}
