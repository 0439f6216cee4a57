package cli

import (
	"log/slog"

	"github.com/valter-silva-au/drl-monitor/internal/core"
	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	Config     *models.Config
	Aggregator *core.Aggregator
	Logger     *slog.Logger

	// Reconfigure reloads Config from an explicit file and rewires the
	// services above. It is called when --config is given.
	Reconfigure func(configFile string) error
)

func logger() *slog.Logger {
	if Logger == nil {
		return slog.Default()
	}
	return Logger
}
