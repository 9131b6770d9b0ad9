package models

import "time"

const (
	SyncJobTypeFull        = "full_sync"
	SyncJobTypeIncremental = "incremental_sync"

	SyncJobStatusPending    = "pending"
	SyncJobStatusProcessing = "processing"
	SyncJobStatusCompleted  = "completed"
	SyncJobStatusFailed     = "failed"
)

type SyncJob struct {
	ID              string     `db:"id" json:"id"`
	TenantID        int64      `db:"tenant_id" json:"tenant_id"`
	SocialAccountID int64      `db:"social_account_id" json:"social_account_id"`
	Platform        string     `db:"platform" json:"platform"`
	JobType         string     `db:"job_type" json:"job_type"`
	Status          string     `db:"status" json:"status"`
	Priority        int        `db:"priority" json:"priority"`
	LastError       string     `db:"last_error" json:"last_error"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processed_at"`
}

// CreatorStats aggregates follower/content/engagement totals across all of
// a profile's active accounts.
type CreatorStats struct {
	CreatorProfileID int64 `json:"creator_profile_id"`
	AccountCount     int   `json:"account_count"`
	TotalFollowers   int64 `json:"total_followers"`
	TotalContent     int64 `json:"total_content"`
	TotalViews       int64 `json:"total_views"`
	TotalLikes       int64 `json:"total_likes"`
	TotalComments    int64 `json:"total_comments"`
}
