package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/creatorsync/internal/models"
)

type OAuthTokenRepository interface {
	GetActiveByAccountID(ctx context.Context, accountID int64) (*models.OAuthToken, error)
	Supersede(ctx context.Context, token *models.OAuthToken) (int64, error)
	DeactivateByAccountID(ctx context.Context, accountID int64) error
}

type oauthTokenRepository struct {
	db *sql.DB
}

func NewOAuthTokenRepository(db *sql.DB) OAuthTokenRepository {
	return &oauthTokenRepository{db: db}
}

func (r *oauthTokenRepository) GetActiveByAccountID(ctx context.Context, accountID int64) (*models.OAuthToken, error) {
	query := `
		SELECT id, social_account_id, access_token, refresh_token, expires_at, scope, is_active, created_at
		FROM oauth_tokens
		WHERE social_account_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, accountID)

	var t models.OAuthToken
	err := row.Scan(&t.ID, &t.SocialAccountID, &t.AccessToken, &t.RefreshToken,
		&t.ExpiresAt, &t.Scope, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &t, nil
}

// Supersede deactivates the account's current token row and inserts the
// replacement in one transaction. Old rows stay in place for the audit
// trail; last writer wins if two refreshes race.
func (r *oauthTokenRepository) Supersede(ctx context.Context, token *models.OAuthToken) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	defer tx.Rollback()

	deactivateQuery := `
		UPDATE oauth_tokens SET is_active = FALSE
		WHERE social_account_id = $1 AND is_active = TRUE`
	if _, err := tx.ExecContext(ctx, deactivateQuery, token.SocialAccountID); err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	insertQuery := `
		INSERT INTO oauth_tokens(social_account_id, access_token, refresh_token, expires_at, scope, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id`

	var id int64
	err = tx.QueryRowContext(ctx, insertQuery,
		token.SocialAccountID,
		token.AccessToken,
		token.RefreshToken,
		token.ExpiresAt,
		token.Scope,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *oauthTokenRepository) DeactivateByAccountID(ctx context.Context, accountID int64) error {
	query := `UPDATE oauth_tokens SET is_active = FALSE WHERE social_account_id = $1 AND is_active = TRUE`
	_, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
