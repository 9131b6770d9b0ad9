package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/creatorsync/internal/models"
	"github.com/maheshrc27/creatorsync/internal/providers"
	"github.com/maheshrc27/creatorsync/pkg/utils"
)

type syncFixture struct {
	service  SyncService
	adapter  *fakeAdapter
	accounts *fakeAccountRepo
	tokens   *fakeTokenRepo
	content  *fakeContentRepo
	audience *fakeAudienceRepo
}

func newSyncFixture(t *testing.T, adapter *fakeAdapter) *syncFixture {
	t.Helper()

	f := &syncFixture{
		adapter:  adapter,
		accounts: newFakeAccountRepo(),
		tokens:   newFakeTokenRepo(),
		content:  newFakeContentRepo(),
		audience: newFakeAudienceRepo(),
	}
	f.service = NewSyncService(
		testConfig,
		providers.NewRegistry(adapter),
		f.accounts,
		f.tokens,
		f.content,
		f.audience,
		nil,
	)
	return f
}

// seedAccount creates an active account with an encrypted, unexpired token.
func (f *syncFixture) seedAccount(t *testing.T, platform string) int64 {
	t.Helper()

	accountID, err := f.accounts.Upsert(context.Background(), &models.SocialAccount{
		CreatorProfileID: 10,
		Platform:         platform,
	})
	require.NoError(t, err)

	f.seedToken(t, accountID, "access-token", "refresh-token", time.Now().Add(time.Hour))
	return accountID
}

func (f *syncFixture) seedToken(t *testing.T, accountID int64, access, refresh string, expiresAt time.Time) {
	t.Helper()

	encAccess, err := utils.Encrypt([]byte(access), []byte(testConfig.SecretKey))
	require.NoError(t, err)
	encRefresh := ""
	if refresh != "" {
		encRefresh, err = utils.Encrypt([]byte(refresh), []byte(testConfig.SecretKey))
		require.NoError(t, err)
	}

	_, err = f.tokens.Supersede(context.Background(), &models.OAuthToken{
		SocialAccountID: accountID,
		AccessToken:     encAccess,
		RefreshToken:    encRefresh,
		ExpiresAt:       &expiresAt,
		Scope:           "read",
	})
	require.NoError(t, err)
}

func syncItem(platform, id string, publishedAt time.Time) *models.ContentItem {
	return &models.ContentItem{
		Platform:          platform,
		PlatformContentID: id,
		ContentType:       "video",
		Title:             "item " + id,
		PublishedAt:       &publishedAt,
	}
}

func TestSyncContentUnknownAccount(t *testing.T) {
	f := newSyncFixture(t, plainAdapter())

	_, err := f.service.SyncContent(context.Background(), 404, false)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSyncContentDisconnectedAccount(t *testing.T) {
	f := newSyncFixture(t, plainAdapter())
	accountID := f.seedAccount(t, "twitch")
	require.NoError(t, f.accounts.UpdateStatus(context.Background(), accountID, models.AccountStatusDisconnected))

	_, err := f.service.SyncContent(context.Background(), accountID, false)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSyncContentIdempotent(t *testing.T) {
	now := time.Now().UTC()
	adapter := &fakeAdapter{cfg: providers.ProviderConfig{Key: "twitch", SupportsContent: true, SupportsMetrics: true}}
	adapter.contentFn = func(opts providers.FetchOptions) ([]*models.ContentItem, error) {
		if opts.Since != nil {
			// Incremental run after the watermark advanced: nothing new.
			return nil, nil
		}
		return []*models.ContentItem{
			syncItem("twitch", "v1", now.Add(-time.Hour)),
			syncItem("twitch", "v2", now.Add(-2*time.Hour)),
		}, nil
	}

	f := newSyncFixture(t, adapter)
	accountID := f.seedAccount(t, "twitch")

	summary, err := f.service.SyncContent(context.Background(), accountID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SavedCount)
	assert.Equal(t, 0, summary.FailedCount)
	assert.Len(t, f.content.metrics, 2)

	account := f.accounts.accounts[accountID]
	require.NotNil(t, account.LastSyncedAt, "watermark must advance after a successful fetch")

	// Re-running right away picks up nothing and changes nothing.
	summary, err = f.service.SyncContent(context.Background(), accountID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.SavedCount)
	assert.Equal(t, 0, summary.FailedCount)
	assert.Len(t, f.content.items, 2)
}

func TestSyncContentFullSyncIgnoresWatermark(t *testing.T) {
	var sawSince *time.Time
	adapter := &fakeAdapter{cfg: providers.ProviderConfig{Key: "twitch", SupportsContent: true}}
	adapter.contentFn = func(opts providers.FetchOptions) ([]*models.ContentItem, error) {
		sawSince = opts.Since
		return nil, nil
	}

	f := newSyncFixture(t, adapter)
	accountID := f.seedAccount(t, "twitch")
	past := time.Now().Add(-24 * time.Hour)
	f.accounts.accounts[accountID].LastSyncedAt = &past

	_, err := f.service.SyncContent(context.Background(), accountID, true)
	require.NoError(t, err)
	assert.Nil(t, sawSince, "full sync must not pass the watermark to the provider")
}

func TestSyncContentItemFailureIsolation(t *testing.T) {
	now := time.Now().UTC()
	adapter := &fakeAdapter{cfg: providers.ProviderConfig{Key: "twitch", SupportsContent: true}}
	adapter.contentFn = func(opts providers.FetchOptions) ([]*models.ContentItem, error) {
		return []*models.ContentItem{
			syncItem("twitch", "good-1", now),
			syncItem("twitch", "bad", now),
			syncItem("twitch", "good-2", now),
		}, nil
	}

	f := newSyncFixture(t, adapter)
	accountID := f.seedAccount(t, "twitch")
	f.content.failUpsert["twitch|bad"] = assert.AnError

	summary, err := f.service.SyncContent(context.Background(), accountID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SavedCount)
	assert.Equal(t, 1, summary.FailedCount)

	// A partial batch still advances the watermark.
	assert.NotNil(t, f.accounts.accounts[accountID].LastSyncedAt)
}

func TestSyncContentFetchFailureKeepsWatermark(t *testing.T) {
	adapter := &fakeAdapter{cfg: providers.ProviderConfig{Key: "twitch", SupportsContent: true}}
	adapter.contentFn = func(opts providers.FetchOptions) ([]*models.ContentItem, error) {
		return nil, assert.AnError
	}

	f := newSyncFixture(t, adapter)
	accountID := f.seedAccount(t, "twitch")

	_, err := f.service.SyncContent(context.Background(), accountID, false)
	require.Error(t, err)
	assert.Nil(t, f.accounts.accounts[accountID].LastSyncedAt)
}

func TestSyncContentNoTokenRequiresReauth(t *testing.T) {
	f := newSyncFixture(t, plainAdapter())
	accountID, err := f.accounts.Upsert(context.Background(), &models.SocialAccount{
		CreatorProfileID: 10,
		Platform:         "twitch",
	})
	require.NoError(t, err)

	_, err = f.service.SyncContent(context.Background(), accountID, false)
	assert.ErrorIs(t, err, ErrReauthenticationRequired)
}

func TestSyncContentRefreshesExpiredToken(t *testing.T) {
	var usedToken string
	newExpiry := time.Now().Add(2 * time.Hour)
	adapter := &fakeAdapter{cfg: providers.ProviderConfig{Key: "twitch", SupportsContent: true}}
	adapter.refreshFn = func(refreshToken string) (*providers.OAuthTokens, error) {
		assert.Equal(t, "refresh-token", refreshToken)
		return &providers.OAuthTokens{
			AccessToken:  "access-fresh",
			RefreshToken: "refresh-rotated",
			ExpiresAt:    &newExpiry,
		}, nil
	}
	adapter.contentFn = func(opts providers.FetchOptions) ([]*models.ContentItem, error) {
		return nil, nil
	}

	f := newSyncFixture(t, adapter)
	accountID, err := f.accounts.Upsert(context.Background(), &models.SocialAccount{
		CreatorProfileID: 10,
		Platform:         "twitch",
	})
	require.NoError(t, err)
	f.seedToken(t, accountID, "access-stale", "refresh-token", time.Now().Add(-time.Minute))

	_, err = f.service.SyncContent(context.Background(), accountID, false)
	require.NoError(t, err)

	stored := f.tokens.active[accountID]
	require.NotNil(t, stored)
	usedToken, err = utils.Decrypt(stored.AccessToken, []byte(testConfig.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "access-fresh", usedToken)

	rotated, err := utils.Decrypt(stored.RefreshToken, []byte(testConfig.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "refresh-rotated", rotated)
	assert.Equal(t, "read", stored.Scope, "empty scope on refresh keeps the previous grant")
}

func TestSyncContentRefreshCarriesForwardRefreshToken(t *testing.T) {
	adapter := &fakeAdapter{cfg: providers.ProviderConfig{Key: "twitch", SupportsContent: true}}
	adapter.refreshFn = func(refreshToken string) (*providers.OAuthTokens, error) {
		// Provider rotates the access token but omits the refresh token.
		return &providers.OAuthTokens{AccessToken: "access-fresh"}, nil
	}
	adapter.contentFn = func(opts providers.FetchOptions) ([]*models.ContentItem, error) {
		return nil, nil
	}

	f := newSyncFixture(t, adapter)
	accountID, err := f.accounts.Upsert(context.Background(), &models.SocialAccount{
		CreatorProfileID: 10,
		Platform:         "twitch",
	})
	require.NoError(t, err)
	f.seedToken(t, accountID, "access-stale", "refresh-token", time.Now().Add(-time.Minute))

	_, err = f.service.SyncContent(context.Background(), accountID, false)
	require.NoError(t, err)

	stored := f.tokens.active[accountID]
	require.NotNil(t, stored)
	kept, err := utils.Decrypt(stored.RefreshToken, []byte(testConfig.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", kept)
}

func TestSyncContentRefreshFailureRequiresReauth(t *testing.T) {
	adapter := &fakeAdapter{cfg: providers.ProviderConfig{Key: "twitch", SupportsContent: true}}
	adapter.refreshFn = func(refreshToken string) (*providers.OAuthTokens, error) {
		return nil, providers.ErrTokenRefresh
	}

	f := newSyncFixture(t, adapter)
	accountID, err := f.accounts.Upsert(context.Background(), &models.SocialAccount{
		CreatorProfileID: 10,
		Platform:         "twitch",
	})
	require.NoError(t, err)
	f.seedToken(t, accountID, "access-stale", "refresh-token", time.Now().Add(-time.Minute))

	_, err = f.service.SyncContent(context.Background(), accountID, false)
	assert.ErrorIs(t, err, ErrReauthenticationRequired)
}

func TestSyncContentExpiredTokenWithoutRefreshToken(t *testing.T) {
	f := newSyncFixture(t, plainAdapter())
	accountID, err := f.accounts.Upsert(context.Background(), &models.SocialAccount{
		CreatorProfileID: 10,
		Platform:         "twitch",
	})
	require.NoError(t, err)
	f.seedToken(t, accountID, "access-stale", "", time.Now().Add(-time.Minute))

	_, err = f.service.SyncContent(context.Background(), accountID, false)
	assert.ErrorIs(t, err, ErrReauthenticationRequired)
}

func TestSyncContentRefreshesFollowerCount(t *testing.T) {
	adapter := &fakeAdapter{cfg: providers.ProviderConfig{Key: "twitch", SupportsContent: true}}
	adapter.contentFn = func(opts providers.FetchOptions) ([]*models.ContentItem, error) {
		return nil, nil
	}
	adapter.infoFn = func() (*providers.AccountInfo, error) {
		return &providers.AccountInfo{PlatformUserID: "tw-1", FollowerCount: 9000}, nil
	}

	f := newSyncFixture(t, adapter)
	accountID := f.seedAccount(t, "twitch")

	_, err := f.service.SyncContent(context.Background(), accountID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(9000), f.accounts.accounts[accountID].FollowerCount)
}

func TestSyncContentReplacesAudience(t *testing.T) {
	adapter := &fakeAdapter{cfg: providers.ProviderConfig{Key: "tiktok", SupportsContent: true, SupportsAudience: true}}
	adapter.contentFn = func(opts providers.FetchOptions) ([]*models.ContentItem, error) {
		return nil, nil
	}
	adapter.audienceFn = func() ([]*models.AudienceDemographic, error) {
		return []*models.AudienceDemographic{
			{DimensionType: "country", DimensionValue: "US", Percentage: 0.4},
			{DimensionType: "country", DimensionValue: "BR", Percentage: 0.2},
		}, nil
	}

	f := newSyncFixture(t, adapter)
	accountID := f.seedAccount(t, "tiktok")

	_, err := f.service.SyncContent(context.Background(), accountID, false)
	require.NoError(t, err)
	assert.Len(t, f.audience.replaced[accountID], 2)
}

func TestSyncContentAudienceFailureNonFatal(t *testing.T) {
	adapter := &fakeAdapter{cfg: providers.ProviderConfig{Key: "tiktok", SupportsContent: true, SupportsAudience: true}}
	adapter.contentFn = func(opts providers.FetchOptions) ([]*models.ContentItem, error) {
		return nil, nil
	}
	adapter.audienceFn = func() ([]*models.AudienceDemographic, error) {
		return nil, assert.AnError
	}

	f := newSyncFixture(t, adapter)
	accountID := f.seedAccount(t, "tiktok")

	_, err := f.service.SyncContent(context.Background(), accountID, false)
	assert.NoError(t, err)
}
