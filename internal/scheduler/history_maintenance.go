package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/esfolk/DefiHedge/internal/database"
	"github.com/esfolk/DefiHedge/internal/modules/prices"
)

// largeWALFrames is the WAL size, in frames, that is worth a warning
const largeWALFrames = 1000

// HistoryMaintenanceJob prunes closes older than any analysis can request
// and checkpoints the history database WAL.
type HistoryMaintenanceJob struct {
	db        *database.DB
	store     *prices.HistoryStore
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewHistoryMaintenanceJob creates a new HistoryMaintenanceJob. Closes are
// kept for the longest lookback plus a month.
func NewHistoryMaintenanceJob(db *database.DB, store *prices.HistoryStore) *HistoryMaintenanceJob {
	return &HistoryMaintenanceJob{
		db:        db,
		store:     store,
		retention: time.Duration(prices.MaxLookbackDays+30) * 24 * time.Hour,
		now:       time.Now,
		log:       zerolog.Nop(),
	}
}

// SetLogger sets the logger for the job
func (j *HistoryMaintenanceJob) SetLogger(log zerolog.Logger) {
	j.log = log.With().Str("job", j.Name()).Logger()
}

// Name returns the job name
func (j *HistoryMaintenanceJob) Name() string {
	return "history_maintenance"
}

// Run executes the history maintenance job
func (j *HistoryMaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	pruned, err := j.store.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("history maintenance: %w", err)
	}

	frames, checkpointed, err := j.db.WALCheckpoint("PASSIVE")
	if err != nil {
		// A busy database is checked again on the next run
		j.log.Warn().Err(err).Msg("Failed to checkpoint history WAL")
	} else if frames > largeWALFrames {
		j.log.Warn().
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, checkpoint may be needed")
	}

	j.log.Info().
		Int64("pruned", pruned).
		Time("cutoff", cutoff).
		Int("wal_frames", frames).
		Msg("History maintenance completed")

	return nil
}
