package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/creatorsync/internal/models"
)

type SyncJobRepository interface {
	Create(ctx context.Context, job *models.SyncJob) error
	UpdateStatus(ctx context.Context, id, status, lastError string) error
}

type syncJobRepository struct {
	db *sql.DB
}

func NewSyncJobRepository(db *sql.DB) SyncJobRepository {
	return &syncJobRepository{db: db}
}

func (r *syncJobRepository) Create(ctx context.Context, job *models.SyncJob) error {
	query := `
		INSERT INTO sync_jobs(id, tenant_id, social_account_id, platform, job_type, status, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.TenantID,
		job.SocialAccountID,
		job.Platform,
		job.JobType,
		job.Status,
		job.Priority,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *syncJobRepository) UpdateStatus(ctx context.Context, id, status, lastError string) error {
	query := `
		UPDATE sync_jobs
		SET status = $2, last_error = $3, processed_at = $4
		WHERE id = $1`

	var processedAt *time.Time
	if status == models.SyncJobStatusCompleted || status == models.SyncJobStatusFailed {
		now := time.Now()
		processedAt = &now
	}

	_, err := r.db.ExecContext(ctx, query, id, status, lastError, processedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
