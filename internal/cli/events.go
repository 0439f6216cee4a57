package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/drl-monitor/internal/observability"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

var (
	eventsLevel string
	eventsSince time.Duration
)

func parseEventLevel(s string) (models.EventLevel, error) {
	if s == "" {
		return "", nil
	}
	level := models.EventLevel(strings.ToUpper(s))
	for _, l := range models.ValidEventLevels {
		if l == level {
			return level, nil
		}
	}
	names := make([]string, len(models.ValidEventLevels))
	for i, l := range models.ValidEventLevels {
		names[i] = string(l)
	}
	return "", fmt.Errorf("invalid level %q: must be one of %s", s, strings.Join(names, ", "))
}

var eventsCmd = &cobra.Command{
	Use:   "events [output_dir]",
	Short: "Print the training event log",
	Long: `Print the lines of training_log.txt in the output directory, optionally
filtered by level (INFO, METRIC, EPISODE, AGGREGATION, ERROR, CHECKPOINT)
and by age.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := outputDirArg(args)
		if err != nil {
			return err
		}
		level, err := parseEventLevel(eventsLevel)
		if err != nil {
			return err
		}

		filter := observability.EventFilter{Level: level}
		if eventsSince > 0 {
			since := time.Now().Add(-eventsSince)
			filter.Since = &since
		}

		events, err := observability.NewTextEventLog(filepath.Join(dir, models.EventsFileName)).Read(filter)
		if err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No events found.")
			return nil
		}
		for _, e := range events {
			fmt.Fprintln(cmd.OutOrStdout(), observability.FormatEvent(e))
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsLevel, "level", "", "only show events of this level")
	eventsCmd.Flags().DurationVar(&eventsSince, "since", 0, "only show events newer than this age (e.g. 10m)")
	rootCmd.AddCommand(eventsCmd)
}
