package models

import "time"

type ContentItem struct {
	ID                int64      `db:"id" json:"id"`
	SocialAccountID   int64      `db:"social_account_id" json:"social_account_id"`
	Platform          string     `db:"platform" json:"platform"`
	PlatformContentID string     `db:"platform_content_id" json:"platform_content_id"`
	ContentType       string     `db:"content_type" json:"content_type"`
	Title             string     `db:"title" json:"title"`
	Description       string     `db:"description" json:"description"`
	URL               string     `db:"url" json:"url"`
	ThumbnailURL      string     `db:"thumbnail_url" json:"thumbnail_url"`
	DurationSeconds   int        `db:"duration_seconds" json:"duration_seconds"`
	IsSponsored       bool       `db:"is_sponsored" json:"is_sponsored"`
	Hashtags          []string   `db:"hashtags" json:"hashtags"`
	PublishedAt       *time.Time `db:"published_at" json:"published_at"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// ContentMetrics is a daily snapshot keyed by (content_item_id, metric_date).
type ContentMetrics struct {
	ID             int64     `db:"id" json:"id"`
	ContentItemID  int64     `db:"content_item_id" json:"content_item_id"`
	MetricDate     time.Time `db:"metric_date" json:"metric_date"`
	ViewCount      int64     `db:"view_count" json:"view_count"`
	LikeCount      int64     `db:"like_count" json:"like_count"`
	CommentCount   int64     `db:"comment_count" json:"comment_count"`
	ShareCount     int64     `db:"share_count" json:"share_count"`
	EngagementRate float64   `db:"engagement_rate" json:"engagement_rate"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
