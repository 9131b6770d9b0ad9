package models

import (
	"time"
)

const (
	AccountStatusActive       = "active"
	AccountStatusDisconnected = "disconnected"
)

type SocialAccount struct {
	ID               int64      `db:"id" json:"id"`
	CreatorProfileID int64      `db:"creator_profile_id" json:"creator_profile_id"`
	Platform         string     `db:"platform" json:"platform"`
	PlatformUserID   string     `db:"platform_user_id" json:"platform_user_id"`
	Username         string     `db:"username" json:"username"`
	DisplayName      string     `db:"display_name" json:"display_name"`
	ProfilePicture   string     `db:"profile_picture_url" json:"profile_picture"`
	FollowerCount    int64      `db:"follower_count" json:"follower_count"`
	IsVerified       bool       `db:"is_verified" json:"is_verified"`
	AccountStatus    string     `db:"account_status" json:"account_status"`
	LastSyncedAt     *time.Time `db:"last_synced_at" json:"last_synced_at"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// ConnectedAccount is the read-model returned to clients: a SocialAccount
// joined with its active token row so expiry can be surfaced.
type ConnectedAccount struct {
	SocialAccount
	TokenExpiresAt *time.Time `json:"token_expires_at"`
	NeedsReconnect bool       `json:"needs_reconnect"`
}
