package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/creatorsync/internal/models"
	"github.com/maheshrc27/creatorsync/internal/service"
)

// HandleSyncAccountTask drives the sync pipeline for one queued job and
// records the outcome on the job row. Reauthentication failures are not
// retried: the user has to reconnect, so asynq retrying is pointless.
func (q *Queue) HandleSyncAccountTask(ctx context.Context, task *asynq.Task) error {
	var payload SyncAccountPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if payload.JobID != "" {
		if err := q.jobs.UpdateStatus(ctx, payload.JobID, models.SyncJobStatusProcessing, ""); err != nil {
			log.Printf("Error marking job %s processing: %v", payload.JobID, err)
		}
	}

	summary, err := q.sync.SyncContent(ctx, payload.AccountID, payload.FullSync)
	if err != nil {
		if payload.JobID != "" {
			if updateErr := q.jobs.UpdateStatus(ctx, payload.JobID, models.SyncJobStatusFailed, err.Error()); updateErr != nil {
				log.Printf("Error marking job %s failed: %v", payload.JobID, updateErr)
			}
		}

		if errors.Is(err, service.ErrReauthenticationRequired) || errors.Is(err, service.ErrAccountNotFound) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	log.Printf("Sync completed for account %d: saved=%d failed=%d", payload.AccountID, summary.SavedCount, summary.FailedCount)

	if payload.JobID != "" {
		lastError := ""
		if summary.FailedCount > 0 {
			lastError = fmt.Sprintf("%d items failed", summary.FailedCount)
		}
		if err := q.jobs.UpdateStatus(ctx, payload.JobID, models.SyncJobStatusCompleted, lastError); err != nil {
			log.Printf("Error marking job %s completed: %v", payload.JobID, err)
		}
	}

	return nil
}
