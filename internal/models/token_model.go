package models

import "time"

// OAuthToken rows are superseded, never deleted: refreshing a token marks
// the previous row inactive and inserts a new active one.
type OAuthToken struct {
	ID              int64      `db:"id" json:"id"`
	SocialAccountID int64      `db:"social_account_id" json:"social_account_id"`
	AccessToken     string     `db:"access_token" json:"-"`
	RefreshToken    string     `db:"refresh_token" json:"-"`
	ExpiresAt       *time.Time `db:"expires_at" json:"expires_at"`
	Scope           string     `db:"scope" json:"scope"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
