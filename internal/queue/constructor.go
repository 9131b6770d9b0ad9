package queue

import (
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/creatorsync/internal/repository"
	"github.com/maheshrc27/creatorsync/internal/service"
)

const TaskTypeSyncAccount = "sync:account"

type SyncAccountPayload struct {
	JobID     string `json:"job_id"`
	AccountID int64  `json:"account_id"`
	FullSync  bool   `json:"full_sync"`
}

type Queue struct {
	sync service.SyncService
	jobs repository.SyncJobRepository
}

func NewQueue(sync service.SyncService, jobs repository.SyncJobRepository) *Queue {
	return &Queue{
		sync: sync,
		jobs: jobs,
	}
}

// Enqueuer satisfies service.SyncEnqueuer over an asynq client.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}
