package scheduler

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	syncsvc "github.com/temadison/stockdash/internal/modules/sync"
)

// PriceSyncJob runs the scheduled price sync for every purchased symbol.
// An in-progress guard keeps a slow run from overlapping the next tick.
type PriceSyncJob struct {
	syncService *syncsvc.Service
	recorder    *syncsvc.JobRunRecorder
	log         zerolog.Logger
	inProgress  atomic.Bool
}

// NewPriceSyncJob creates the scheduled price sync job
func NewPriceSyncJob(syncService *syncsvc.Service, recorder *syncsvc.JobRunRecorder, log zerolog.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		syncService: syncService,
		recorder:    recorder,
		log:         log.With().Str("job", "price_sync").Logger(),
	}
}

// Name implements Job
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Run implements Job
func (j *PriceSyncJob) Run() error {
	if !j.inProgress.CompareAndSwap(false, true) {
		j.log.Warn().Msg("Previous price sync still running, skipping this tick")
		return nil
	}
	defer j.inProgress.Store(false)

	runID, err := j.recorder.Start(j.Name())
	if err != nil {
		// Bookkeeping failure should not block the sync itself
		j.log.Error().Err(err).Msg("Failed to record job start")
	}

	result, err := j.syncService.SyncAll()
	if err != nil {
		if runID > 0 {
			if recErr := j.recorder.FinishFailure(runID, err); recErr != nil {
				j.log.Error().Err(recErr).Msg("Failed to record job failure")
			}
		}
		return fmt.Errorf("scheduled price sync failed: %w", err)
	}

	if runID > 0 {
		if recErr := j.recorder.FinishSuccess(runID, result); recErr != nil {
			j.log.Error().Err(recErr).Msg("Failed to record job success")
		}
	}

	j.log.Info().
		Int("symbols", result.SymbolsRequested).
		Int("stored", result.PricesStored).
		Msg("Scheduled price sync completed")

	return nil
}
