package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/fcnquote/internal/snapshot"
	"github.com/wonny/fcnquote/pkg/logger"
)

// WarmJob keeps the latest snapshot hot in the in-process cache so
// the first quote after a data refresh does not pay the load cost
type WarmJob struct {
	store    *snapshot.Store
	schedule string
	logger   *logger.Logger
}

// NewWarmJob creates a new cache warm job
func NewWarmJob(store *snapshot.Store, schedule string, log *logger.Logger) *WarmJob {
	return &WarmJob{
		store:    store,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *WarmJob) Name() string {
	return "snapshot_warm"
}

// Schedule returns the cron schedule expression
func (j *WarmJob) Schedule() string {
	return j.schedule
}

// Run refreshes the date list and preloads the latest snapshot
func (j *WarmJob) Run(ctx context.Context) error {
	dates, err := j.store.ListDates(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh snapshot dates: %w", err)
	}
	if len(dates) == 0 {
		j.logger.Warn("No snapshots available to warm")
		return nil
	}

	latest := dates[0]
	if err := j.store.Warm(ctx, latest); err != nil {
		return fmt.Errorf("failed to warm snapshot %s: %w", latest, err)
	}

	j.logger.WithField("date", latest).Debug("Snapshot cache warmed")
	return nil
}
