package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/creatorsync/internal/models"
)

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	GetActiveByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	ListConnectedByProfileID(ctx context.Context, profileID int64) ([]*models.ConnectedAccount, error)
	ListActiveSyncedBefore(ctx context.Context, cutoff time.Time) ([]*models.SocialAccount, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateSyncState(ctx context.Context, id int64, followerCount int64, lastSyncedAt time.Time) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

// Upsert keeps at most one non-disconnected row per (profile, platform):
// reconnecting an account updates it in place and reactivates it.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts(
			creator_profile_id,
			platform,
			platform_user_id,
			username,
			display_name,
			profile_picture_url,
			follower_count,
			is_verified,
			account_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active')
		ON CONFLICT (creator_profile_id, platform)
		DO UPDATE SET
			platform_user_id = EXCLUDED.platform_user_id,
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			profile_picture_url = EXCLUDED.profile_picture_url,
			follower_count = EXCLUDED.follower_count,
			is_verified = EXCLUDED.is_verified,
			account_status = 'active',
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		sa.CreatorProfileID,
		sa.Platform,
		sa.PlatformUserID,
		sa.Username,
		sa.DisplayName,
		sa.ProfilePicture,
		sa.FollowerCount,
		sa.IsVerified,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `
		SELECT id, creator_profile_id, platform, platform_user_id, username, display_name,
			profile_picture_url, follower_count, is_verified, account_status, last_synced_at,
			created_at, updated_at
		FROM social_accounts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *socialAccountRepository) GetActiveByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `
		SELECT id, creator_profile_id, platform, platform_user_id, username, display_name,
			profile_picture_url, follower_count, is_verified, account_status, last_synced_at,
			created_at, updated_at
		FROM social_accounts WHERE id = $1 AND account_status = 'active'`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *socialAccountRepository) scanOne(row *sql.Row) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.CreatorProfileID, &sa.Platform, &sa.PlatformUserID,
		&sa.Username, &sa.DisplayName, &sa.ProfilePicture, &sa.FollowerCount,
		&sa.IsVerified, &sa.AccountStatus, &sa.LastSyncedAt, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &sa, nil
}

// ListConnectedByProfileID joins each active account with its active token
// row so callers can derive reconnect status from the expiry.
func (r *socialAccountRepository) ListConnectedByProfileID(ctx context.Context, profileID int64) ([]*models.ConnectedAccount, error) {
	query := `
		SELECT sa.id, sa.creator_profile_id, sa.platform, sa.platform_user_id, sa.username,
			sa.display_name, sa.profile_picture_url, sa.follower_count, sa.is_verified,
			sa.account_status, sa.last_synced_at, sa.created_at, sa.updated_at,
			t.expires_at
		FROM social_accounts sa
		LEFT JOIN oauth_tokens t ON t.social_account_id = sa.id AND t.is_active = TRUE
		WHERE sa.creator_profile_id = $1 AND sa.account_status = 'active'
		ORDER BY sa.platform`

	rows, err := r.db.QueryContext(ctx, query, profileID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.ConnectedAccount
	for rows.Next() {
		var ca models.ConnectedAccount
		err := rows.Scan(&ca.ID, &ca.CreatorProfileID, &ca.Platform, &ca.PlatformUserID,
			&ca.Username, &ca.DisplayName, &ca.ProfilePicture, &ca.FollowerCount,
			&ca.IsVerified, &ca.AccountStatus, &ca.LastSyncedAt, &ca.CreatedAt,
			&ca.UpdatedAt, &ca.TokenExpiresAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &ca)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return accounts, nil
}

func (r *socialAccountRepository) ListActiveSyncedBefore(ctx context.Context, cutoff time.Time) ([]*models.SocialAccount, error) {
	query := `
		SELECT id, creator_profile_id, platform, platform_user_id, username, display_name,
			profile_picture_url, follower_count, is_verified, account_status, last_synced_at,
			created_at, updated_at
		FROM social_accounts
		WHERE account_status = 'active'
		AND (last_synced_at IS NULL OR last_synced_at < $1)`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.CreatorProfileID, &sa.Platform, &sa.PlatformUserID,
			&sa.Username, &sa.DisplayName, &sa.ProfilePicture, &sa.FollowerCount,
			&sa.IsVerified, &sa.AccountStatus, &sa.LastSyncedAt, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return accounts, nil
}

func (r *socialAccountRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE social_accounts SET account_status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) UpdateSyncState(ctx context.Context, id int64, followerCount int64, lastSyncedAt time.Time) error {
	query := `
		UPDATE social_accounts
		SET follower_count = $2, last_synced_at = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, followerCount, lastSyncedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
