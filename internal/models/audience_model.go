package models

import "time"

// AudienceDemographic rows are replaced wholesale on every sync, one set
// per social account.
type AudienceDemographic struct {
	ID              int64     `db:"id" json:"id"`
	SocialAccountID int64     `db:"social_account_id" json:"social_account_id"`
	DimensionType   string    `db:"dimension_type" json:"dimension_type"`
	DimensionValue  string    `db:"dimension_value" json:"dimension_value"`
	Percentage      float64   `db:"percentage" json:"percentage"`
	Count           int64     `db:"count" json:"count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
