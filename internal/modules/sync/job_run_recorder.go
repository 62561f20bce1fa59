package sync

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Job run terminal states
const (
	JobRunning = "RUNNING"
	JobSuccess = "SUCCESS"
	JobFailed  = "FAILED"
)

// JobRunRecorder persists job run bookkeeping to the job_runs table so sync
// history survives restarts.
type JobRunRecorder struct {
	historyDB *sql.DB
	log       zerolog.Logger
}

// NewJobRunRecorder creates a new job run recorder
func NewJobRunRecorder(historyDB *sql.DB, log zerolog.Logger) *JobRunRecorder {
	return &JobRunRecorder{
		historyDB: historyDB,
		log:       log.With().Str("repo", "job_run").Logger(),
	}
}

// Start records the beginning of a job run and returns its row id
func (r *JobRunRecorder) Start(jobName string) (int64, error) {
	query := `
		INSERT INTO job_runs (job_name, status, started_at, requested_count, processed_count, failed_count, skipped_count)
		VALUES (?, ?, ?, 0, 0, 0, 0)
	`

	result, err := r.historyDB.Exec(query, jobName, JobRunning, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to record job start: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read job run id: %w", err)
	}
	return id, nil
}

// FinishSuccess marks a job run as succeeded with the sync result counters
func (r *JobRunRecorder) FinishSuccess(id int64, result Result) error {
	return r.finish(id, JobSuccess, result.SymbolsRequested, result.PricesStored,
		0, len(result.SkippedSymbols), "")
}

// FinishFailure marks a job run as failed with the error detail
func (r *JobRunRecorder) FinishFailure(id int64, runErr error) error {
	detail := ""
	if runErr != nil {
		detail = runErr.Error()
	}
	return r.finish(id, JobFailed, 0, 0, 1, 0, detail)
}

func (r *JobRunRecorder) finish(id int64, status string, requested, processed, failed, skipped int, details string) error {
	query := `
		UPDATE job_runs
		SET status = ?, finished_at = ?, requested_count = ?, processed_count = ?, failed_count = ?, skipped_count = ?, details = ?
		WHERE id = ?
	`

	_, err := r.historyDB.Exec(query, status, time.Now().Unix(), requested, processed, failed, skipped, details, id)
	if err != nil {
		return fmt.Errorf("failed to record job finish: %w", err)
	}

	r.log.Debug().Int64("job_run_id", id).Str("status", status).Msg("Job run recorded")
	return nil
}
