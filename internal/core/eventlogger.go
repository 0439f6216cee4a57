package core

import "github.com/valter-silva-au/drl-monitor/pkg/models"

// EventLogger is the subset of the training logger that only touches the event log.
type EventLogger interface {
	LogEpisode(round, clientID, episode int, totalReward float64, length int) error
	LogAggregation(round, numClients int, preVariance, postVariance float64) error
	LogCheckpoint(round int, checkpointPath string) error
	LogError(message string, cause error) error
	LogEvent(level models.EventLevel, message string) error
}

var _ EventLogger = (*TrainingLogger)(nil)
