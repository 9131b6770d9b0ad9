package queue

import (
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

func (e *Enqueuer) EnqueueSync(jobID string, accountID int64, fullSync bool) error {
	payload := SyncAccountPayload{
		JobID:     jobID,
		AccountID: accountID,
		FullSync:  fullSync,
	}

	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeSyncAccount, taskPayload)

	// TaskID keyed by job id so a double-enqueue of the same job collapses.
	_, err = e.client.Enqueue(task, asynq.TaskID(jobID), asynq.MaxRetry(3))
	if err != nil {
		return err
	}

	log.Printf("Sync task scheduled: %+v", payload)
	return nil
}
