package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/drl-monitor/internal/core"
)

const defaultResultsDir = "results"

var monitorInterval time.Duration

// consoleMonitor repaints the text dashboard once per poll cycle.
type consoleMonitor struct {
	dir           string
	agg           *core.Aggregator
	out           io.Writer
	refresh       time.Duration
	historyRounds int
	start         time.Time
	now           func() time.Time
}

func (m *consoleMonitor) cycle(iteration int) {
	now := m.now()
	info := frameInfo{
		ResultsDir:    m.dir,
		Elapsed:       now.Sub(m.start),
		Now:           now,
		Refresh:       m.refresh,
		Iteration:     iteration,
		HistoryRounds: m.historyRounds,
	}
	fmt.Fprint(m.out, renderFrame(info, m.agg.Dashboard(m.dir)))
}

// run blocks until ctx is cancelled, then prints the final runtime.
func (m *consoleMonitor) run(ctx context.Context) int {
	fmt.Fprintln(m.out, "Starting training monitor...")
	fmt.Fprintf(m.out, "Monitoring: %s\n", m.dir)
	fmt.Fprint(m.out, "Press Ctrl+C to stop\n\n")

	poller := core.NewPoller(m.refresh)
	n := poller.Run(ctx, m.cycle)

	fmt.Fprint(m.out, renderStopped(m.now().Sub(m.start)))
	return n
}

var monitorCmd = &cobra.Command{
	Use:   "monitor [results_dir]",
	Short: "Live text dashboard over per-agent metrics files",
	Long: `Poll <Agent>_metrics.csv and summary.csv in the results directory and
repaint a fixed-width dashboard on every refresh: per-agent progress, the
best current performer, recent accuracy history and, once training has
finished, the final summary.

The directory defaults to "results". Press Ctrl+C to stop; the frame being
drawn is always completed first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Aggregator == nil || Config == nil {
			return fmt.Errorf("monitor not initialized")
		}
		dir := defaultResultsDir
		if len(args) == 1 {
			dir = args[0]
		}

		refresh := Config.Monitor.RefreshInterval
		if monitorInterval > 0 {
			refresh = monitorInterval
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, renderBanner())
		if _, err := os.Stat(dir); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Results directory '%s' not found\n", dir)
		}

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()

		m := &consoleMonitor{
			dir:           dir,
			agg:           Aggregator,
			out:           out,
			refresh:       refresh,
			historyRounds: Config.Monitor.HistoryRounds,
			start:         time.Now(),
			now:           time.Now,
		}
		n := m.run(ctx)
		logger().Debug("monitor stopped", slog.Int("refreshes", n))
		return nil
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "refresh interval (default from monitor.refresh_interval)")
	rootCmd.AddCommand(monitorCmd)
}
