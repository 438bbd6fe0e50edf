package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/esfolk/DefiHedge/internal/config"
	"github.com/esfolk/DefiHedge/internal/scheduler"
)

// historyMaintenanceSchedule runs weekly, Sunday 03:30
const historyMaintenanceSchedule = "0 30 3 * * SUN"

// RegisterJobs creates the background jobs and registers them with a new
// scheduler. The scheduler is returned unstarted.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	jobs := &JobInstances{Scheduler: sched}

	// Warming walks every supported ticker, one provider request each
	warm := scheduler.NewWarmPriceCacheJob(container.PriceSource, 30*time.Minute)
	warm.SetLogger(log)
	jobs.WarmPriceCache = warm
	if cfg.CacheWarmEnabled {
		if err := sched.AddJob(cfg.CacheWarmSchedule, warm); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", warm.Name(), err)
		}
	}

	maintenance := scheduler.NewHistoryMaintenanceJob(container.HistoryDB, container.HistoryStore)
	maintenance.SetLogger(log)
	jobs.HistoryMaintenance = maintenance
	if err := sched.AddJob(historyMaintenanceSchedule, maintenance); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", maintenance.Name(), err)
	}

	return jobs, nil
}
