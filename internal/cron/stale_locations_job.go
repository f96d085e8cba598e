package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/quickbites/dispatch-backend/pkg/logger"
)

// LocationPruner clears persisted agent locations older than a cutoff.
type LocationPruner interface {
	ClearStaleLocations(ctx context.Context, cutoff time.Time) (int64, error)
}

// StaleLocationsJob clears agent locations that have not been refreshed
// within the configured staleness window. A zero window disables the job.
type StaleLocationsJob struct {
	pruner     LocationPruner
	staleAfter time.Duration
	logg       *logger.Logger
}

// NewStaleLocationsJob builds the stale location pruning job.
func NewStaleLocationsJob(pruner LocationPruner, staleAfter time.Duration, logg *logger.Logger) (*StaleLocationsJob, error) {
	if pruner == nil {
		return nil, fmt.Errorf("location pruner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &StaleLocationsJob{pruner: pruner, staleAfter: staleAfter, logg: logg}, nil
}

// Name implements Job.
func (j *StaleLocationsJob) Name() string { return "stale-locations" }

// Run implements Job.
func (j *StaleLocationsJob) Run(ctx context.Context) error {
	if j.staleAfter <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-j.staleAfter)
	cleared, err := j.pruner.ClearStaleLocations(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("clear stale locations: %w", err)
	}
	if cleared > 0 {
		j.logg.Info(ctx, fmt.Sprintf("cleared %d stale agent locations", cleared))
	}
	return nil
}
