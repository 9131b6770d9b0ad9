package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	config "github.com/maheshrc27/creatorsync/configs"
	"github.com/maheshrc27/creatorsync/internal/models"
	"github.com/maheshrc27/creatorsync/internal/providers"
	"github.com/maheshrc27/creatorsync/internal/repository"
	"github.com/maheshrc27/creatorsync/pkg/utils"
)

// syncFetchLimit caps a single fetch so a full sync of a prolific account
// stays bounded; older items are picked up over successive runs.
const syncFetchLimit = 200

type SyncSummary struct {
	SavedCount  int `json:"saved_count"`
	FailedCount int `json:"failed_count"`
}

type SyncService interface {
	SyncContent(ctx context.Context, accountID int64, fullSync bool) (*SyncSummary, error)
}

type syncService struct {
	cfg        config.Config
	registry   *providers.Registry
	accounts   repository.SocialAccountRepository
	tokens     repository.OAuthTokenRepository
	content    repository.ContentRepository
	audience   repository.AudienceRepository
	thumbnails *ThumbnailService
}

func NewSyncService(
	cfg config.Config,
	registry *providers.Registry,
	accounts repository.SocialAccountRepository,
	tokens repository.OAuthTokenRepository,
	content repository.ContentRepository,
	audience repository.AudienceRepository,
	thumbnails *ThumbnailService) SyncService {
	return &syncService{
		cfg:        cfg,
		registry:   registry,
		accounts:   accounts,
		tokens:     tokens,
		content:    content,
		audience:   audience,
		thumbnails: thumbnails,
	}
}

// SyncContent runs the fetch → normalize → upsert pipeline for one account.
// Item failures are isolated: each is logged and counted, and the rest of
// the batch proceeds. The watermark advances whenever the fetch itself
// succeeded, regardless of per-item failures.
func (s *syncService) SyncContent(ctx context.Context, accountID int64, fullSync bool) (*SyncSummary, error) {
	account, err := s.accounts.GetActiveByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	adapter, ok := s.registry.Get(account.Platform)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, account.Platform)
	}

	accessToken, err := s.validAccessToken(ctx, adapter, accountID)
	if err != nil {
		return nil, err
	}

	opts := providers.FetchOptions{Limit: syncFetchLimit}
	if !fullSync && account.LastSyncedAt != nil {
		opts.Since = account.LastSyncedAt
	}

	syncStartedAt := timeNow()

	items, err := adapter.FetchContent(ctx, accessToken, opts)
	if err != nil {
		return nil, fmt.Errorf("content fetch failed for account %d: %w", accountID, err)
	}

	summary := &SyncSummary{}
	supportsMetrics := adapter.Config().SupportsMetrics

	for _, item := range items {
		item.SocialAccountID = accountID

		if err := s.ingestItem(ctx, adapter, accessToken, item, supportsMetrics); err != nil {
			slog.Info("failed to ingest content item",
				"platform", item.Platform,
				"platform_content_id", item.PlatformContentID,
				"error", err.Error())
			summary.FailedCount++
			continue
		}
		summary.SavedCount++
	}

	followerCount := account.FollowerCount
	if info, err := adapter.FetchAccountInfo(ctx, accessToken); err == nil {
		followerCount = info.FollowerCount
	} else {
		slog.Info("failed to refresh account info", "account_id", accountID, "error", err.Error())
	}

	if err := s.accounts.UpdateSyncState(ctx, accountID, followerCount, syncStartedAt); err != nil {
		return summary, err
	}

	if adapter.Config().SupportsAudience {
		s.syncAudience(ctx, adapter, accessToken, accountID)
	}

	return summary, nil
}

func (s *syncService) ingestItem(ctx context.Context, adapter providers.Adapter, accessToken string, item *models.ContentItem, supportsMetrics bool) error {
	contentID, _, err := s.content.UpsertItem(ctx, item)
	if err != nil {
		return err
	}

	if supportsMetrics {
		metrics, err := adapter.FetchContentMetrics(ctx, accessToken, item.PlatformContentID)
		if err != nil {
			return err
		}
		metrics.ContentItemID = contentID
		if err := s.content.UpsertMetrics(ctx, metrics); err != nil {
			return err
		}
	}

	if s.thumbnails != nil && item.ThumbnailURL != "" {
		// Provider CDN thumbnail links expire; archive a copy. Best effort.
		if err := s.thumbnails.Archive(ctx, item.Platform, item.PlatformContentID, item.ThumbnailURL); err != nil {
			slog.Info("thumbnail archive failed", "platform_content_id", item.PlatformContentID, "error", err.Error())
		}
	}

	return nil
}

// syncAudience replaces the demographics wholesale; any failure here is
// logged and never fails the sync.
func (s *syncService) syncAudience(ctx context.Context, adapter providers.Adapter, accessToken string, accountID int64) {
	demographics, err := adapter.FetchAudienceDemographics(ctx, accessToken)
	if err != nil {
		if !errors.Is(err, providers.ErrAudienceUnsupported) {
			slog.Info("audience fetch failed", "account_id", accountID, "error", err.Error())
		}
		return
	}
	if len(demographics) == 0 {
		return
	}

	if err := s.audience.ReplaceForAccount(ctx, accountID, demographics); err != nil {
		slog.Info("audience replace failed", "account_id", accountID, "error", err.Error())
	}
}

// validAccessToken returns a decrypted, unexpired access token, refreshing
// at most once. A failed refresh is terminal for this sync: the caller
// surfaces reconnect-required instead of retrying.
func (s *syncService) validAccessToken(ctx context.Context, adapter providers.Adapter, accountID int64) (string, error) {
	tokenRow, err := s.tokens.GetActiveByAccountID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if tokenRow == nil {
		return "", ErrReauthenticationRequired
	}

	if tokenRow.ExpiresAt == nil || tokenRow.ExpiresAt.After(timeNow()) {
		return utils.Decrypt(tokenRow.AccessToken, []byte(s.cfg.SecretKey))
	}

	if tokenRow.RefreshToken == "" {
		return "", ErrReauthenticationRequired
	}

	refreshToken, err := utils.Decrypt(tokenRow.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", err
	}

	refreshed, err := adapter.RefreshToken(ctx, refreshToken)
	if err != nil {
		slog.Info("token refresh failed", "account_id", accountID, "error", err.Error())
		return "", fmt.Errorf("%w: %v", ErrReauthenticationRequired, err)
	}

	// Some providers omit the refresh token on rotation; carry the old
	// one forward rather than losing it.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = refreshToken
	}

	if err := s.persistRefreshedTokens(ctx, accountID, refreshed, tokenRow.Scope); err != nil {
		return "", err
	}

	return refreshed.AccessToken, nil
}

func (s *syncService) persistRefreshedTokens(ctx context.Context, accountID int64, tokens *providers.OAuthTokens, previousScope string) error {
	encryptedAccess, err := utils.Encrypt([]byte(tokens.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}
	encryptedRefresh, err := utils.Encrypt([]byte(tokens.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	scope := tokens.Scope
	if scope == "" {
		scope = previousScope
	}

	_, err = s.tokens.Supersede(ctx, &models.OAuthToken{
		SocialAccountID: accountID,
		AccessToken:     encryptedAccess,
		RefreshToken:    encryptedRefresh,
		ExpiresAt:       tokens.ExpiresAt,
		Scope:           scope,
	})
	return err
}
