package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/maheshrc27/creatorsync/internal/models"
)

type ContentRepository interface {
	UpsertItem(ctx context.Context, item *models.ContentItem) (int64, bool, error)
	UpsertMetrics(ctx context.Context, metrics *models.ContentMetrics) error
	GetCreatorStats(ctx context.Context, profileID int64) (*models.CreatorStats, error)
}

type contentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) ContentRepository {
	return &contentRepository{db: db}
}

// UpsertItem inserts or updates by the provider-stable natural key
// (platform, platform_content_id). The bool result reports whether the row
// was inserted rather than updated.
func (r *contentRepository) UpsertItem(ctx context.Context, item *models.ContentItem) (int64, bool, error) {
	query := `
		INSERT INTO content_items(
			social_account_id,
			platform,
			platform_content_id,
			content_type,
			title,
			description,
			url,
			thumbnail_url,
			duration_seconds,
			is_sponsored,
			hashtags,
			published_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (platform, platform_content_id)
		DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			url = EXCLUDED.url,
			thumbnail_url = EXCLUDED.thumbnail_url,
			duration_seconds = EXCLUDED.duration_seconds,
			is_sponsored = EXCLUDED.is_sponsored,
			hashtags = EXCLUDED.hashtags,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, (xmax = 0) AS inserted
	`

	var id int64
	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		item.SocialAccountID,
		item.Platform,
		item.PlatformContentID,
		item.ContentType,
		item.Title,
		item.Description,
		item.URL,
		item.ThumbnailURL,
		item.DurationSeconds,
		item.IsSponsored,
		pq.Array(item.Hashtags),
		item.PublishedAt,
	).Scan(&id, &inserted)
	if err != nil {
		slog.Info(err.Error())
		return 0, false, err
	}

	return id, inserted, nil
}

// UpsertMetrics merge-upserts the daily snapshot: same metric_date updates
// counts in place, a new date inserts a fresh row.
func (r *contentRepository) UpsertMetrics(ctx context.Context, metrics *models.ContentMetrics) error {
	query := `
		INSERT INTO content_metrics(
			content_item_id,
			metric_date,
			view_count,
			like_count,
			comment_count,
			share_count,
			engagement_rate
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (content_item_id, metric_date)
		DO UPDATE SET
			view_count = EXCLUDED.view_count,
			like_count = EXCLUDED.like_count,
			comment_count = EXCLUDED.comment_count,
			share_count = EXCLUDED.share_count,
			engagement_rate = EXCLUDED.engagement_rate
	`

	_, err := r.db.ExecContext(ctx, query,
		metrics.ContentItemID,
		metrics.MetricDate,
		metrics.ViewCount,
		metrics.LikeCount,
		metrics.CommentCount,
		metrics.ShareCount,
		metrics.EngagementRate,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// GetCreatorStats sums followers across active accounts and engagement
// from each content item's most recent metric snapshot.
func (r *contentRepository) GetCreatorStats(ctx context.Context, profileID int64) (*models.CreatorStats, error) {
	accountsQuery := `
		SELECT COUNT(*), COALESCE(SUM(follower_count), 0)
		FROM social_accounts
		WHERE creator_profile_id = $1 AND account_status = 'active'`

	stats := &models.CreatorStats{CreatorProfileID: profileID}
	err := r.db.QueryRowContext(ctx, accountsQuery, profileID).Scan(
		&stats.AccountCount,
		&stats.TotalFollowers,
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	contentQuery := `
		SELECT
			COUNT(ci.id),
			COALESCE(SUM(latest.view_count), 0),
			COALESCE(SUM(latest.like_count), 0),
			COALESCE(SUM(latest.comment_count), 0)
		FROM content_items ci
		JOIN social_accounts sa ON sa.id = ci.social_account_id
		LEFT JOIN LATERAL (
			SELECT cm.view_count, cm.like_count, cm.comment_count
			FROM content_metrics cm
			WHERE cm.content_item_id = ci.id
			ORDER BY cm.metric_date DESC
			LIMIT 1
		) latest ON TRUE
		WHERE sa.creator_profile_id = $1 AND sa.account_status = 'active'`

	err = r.db.QueryRowContext(ctx, contentQuery, profileID).Scan(
		&stats.TotalContent,
		&stats.TotalViews,
		&stats.TotalLikes,
		&stats.TotalComments,
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return stats, nil
}
