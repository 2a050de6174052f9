package tasks

import (
	"context"
	"fmt"
	"time"
)

// maintenanceTimeout bounds a single maintenance run; VACUUM on a large
// message corpus can take a while but should never run unbounded.
const maintenanceTimeout = 10 * time.Minute

// newMaintenanceTask creates the scheduled task function for running
// database maintenance (VACUUM, ANALYZE, full-text index optimization).
func newMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled maintenance task...")
		startTime := time.Now()

		timeoutCtx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
		defer cancel()

		err := deps.Store.RunMaintenance(timeoutCtx)
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Maintenance task failed", "error", err, "duration", duration)
			return fmt.Errorf("maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled maintenance task completed successfully", "duration", duration)
		return nil
	}
}
