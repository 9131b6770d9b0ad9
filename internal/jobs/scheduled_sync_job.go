package job

import (
	"context"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/maheshrc27/creatorsync/internal/models"
	"github.com/maheshrc27/creatorsync/internal/repository"
	"github.com/maheshrc27/creatorsync/internal/service"
)

// Accounts whose watermark is older than this get an incremental sync
// queued on the next cron tick.
const syncStaleness = 6 * time.Hour

type ScheduledSyncJob struct {
	accounts repository.SocialAccountRepository
	profiles repository.CreatorProfileRepository
	jobs     repository.SyncJobRepository
	enqueuer service.SyncEnqueuer
}

func NewScheduledSyncJob(
	accounts repository.SocialAccountRepository,
	profiles repository.CreatorProfileRepository,
	jobs repository.SyncJobRepository,
	enqueuer service.SyncEnqueuer) *ScheduledSyncJob {
	return &ScheduledSyncJob{
		accounts: accounts,
		profiles: profiles,
		jobs:     jobs,
		enqueuer: enqueuer,
	}
}

func (j *ScheduledSyncJob) EnqueueStaleAccounts() {
	ctx := context.Background()

	cutoff := time.Now().Add(-syncStaleness)
	accounts, err := j.accounts.ListActiveSyncedBefore(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, acc := range accounts {
		profile, err := j.profiles.GetByID(ctx, acc.CreatorProfileID)
		if err != nil || profile == nil {
			slog.Info("skipping account with unresolvable profile", "account_id", acc.ID)
			continue
		}

		jobID, err := gonanoid.New()
		if err != nil {
			slog.Info(err.Error())
			continue
		}

		syncJob := &models.SyncJob{
			ID:              jobID,
			TenantID:        profile.TenantID,
			SocialAccountID: acc.ID,
			Platform:        acc.Platform,
			JobType:         models.SyncJobTypeIncremental,
			Status:          models.SyncJobStatusPending,
			Priority:        5,
		}
		if err := j.jobs.Create(ctx, syncJob); err != nil {
			slog.Info("Unable to create scheduled sync job", "account_id", acc.ID)
			continue
		}

		if err := j.enqueuer.EnqueueSync(jobID, acc.ID, false); err != nil {
			slog.Info("Unable to enqueue scheduled sync", "account_id", acc.ID)
		}
	}
}
