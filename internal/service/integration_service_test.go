package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/creatorsync/internal/models"
	"github.com/maheshrc27/creatorsync/internal/oauthstate"
	"github.com/maheshrc27/creatorsync/internal/providers"
	"github.com/maheshrc27/creatorsync/pkg/utils"
)

type integrationFixture struct {
	service  IntegrationService
	codec    *oauthstate.Codec
	adapter  *fakeAdapter
	profiles *fakeProfileRepo
	accounts *fakeAccountRepo
	tokens   *fakeTokenRepo
	content  *fakeContentRepo
	jobs     *fakeJobRepo
	enqueuer *fakeEnqueuer
}

func newIntegrationFixture(t *testing.T, adapter *fakeAdapter) *integrationFixture {
	t.Helper()

	f := &integrationFixture{
		codec:   oauthstate.NewCodec(testConfig.SecretKey),
		adapter: adapter,
		profiles: &fakeProfileRepo{profiles: map[int64]*models.CreatorProfile{
			10: {ID: 10, TenantID: 1, UserID: 100, DisplayName: "Creator"},
		}},
		accounts: newFakeAccountRepo(),
		tokens:   newFakeTokenRepo(),
		content:  newFakeContentRepo(),
		jobs:     &fakeJobRepo{},
		enqueuer: &fakeEnqueuer{},
	}

	f.service = NewIntegrationService(
		testConfig,
		providers.NewRegistry(adapter),
		f.codec,
		f.profiles,
		f.accounts,
		f.tokens,
		f.content,
		f.jobs,
		f.enqueuer,
	)
	return f
}

func pkceAdapter() *fakeAdapter {
	return &fakeAdapter{cfg: providers.ProviderConfig{Key: "tiktok", RequiresPKCE: true}}
}

func plainAdapter() *fakeAdapter {
	return &fakeAdapter{cfg: providers.ProviderConfig{Key: "twitch"}}
}

func TestRequestAuthorizationUnsupportedProvider(t *testing.T) {
	f := newIntegrationFixture(t, plainAdapter())

	_, err := f.service.RequestAuthorization(context.Background(), "myspace", 10, 100)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestRequestAuthorizationUnknownProfile(t *testing.T) {
	f := newIntegrationFixture(t, plainAdapter())

	_, err := f.service.RequestAuthorization(context.Background(), "twitch", 999, 100)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestRequestAuthorizationStateRoundTrips(t *testing.T) {
	adapter := plainAdapter()
	f := newIntegrationFixture(t, adapter)

	authURL, err := f.service.RequestAuthorization(context.Background(), "twitch", 10, 100)
	require.NoError(t, err)
	require.NotEmpty(t, authURL)

	state, err := f.codec.Decode(adapter.lastState)
	require.NoError(t, err)
	assert.Equal(t, "twitch", state.Provider)
	assert.Equal(t, int64(10), state.CreatorProfileID)
	assert.Equal(t, int64(100), state.UserID)
	assert.Empty(t, state.CodeVerifier)
	assert.Empty(t, adapter.lastChallenge)
}

func TestRequestAuthorizationPKCE(t *testing.T) {
	adapter := pkceAdapter()
	f := newIntegrationFixture(t, adapter)

	_, err := f.service.RequestAuthorization(context.Background(), "tiktok", 10, 100)
	require.NoError(t, err)

	state, err := f.codec.Decode(adapter.lastState)
	require.NoError(t, err)
	require.NotEmpty(t, state.CodeVerifier)
	assert.Equal(t, providers.CodeChallengeS256(state.CodeVerifier), adapter.lastChallenge)
}

func TestCompleteConnection(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)
	adapter := plainAdapter()
	adapter.exchangeFn = func(code, verifier string) (*providers.OAuthTokens, error) {
		assert.Equal(t, "auth-code", code)
		return &providers.OAuthTokens{
			AccessToken:  "access-123",
			RefreshToken: "refresh-456",
			ExpiresAt:    &expiresAt,
			Scope:        "read",
		}, nil
	}
	adapter.infoFn = func() (*providers.AccountInfo, error) {
		return &providers.AccountInfo{
			PlatformUserID: "tw-1",
			Username:       "streamer",
			DisplayName:    "Streamer",
			FollowerCount:  4200,
		}, nil
	}

	f := newIntegrationFixture(t, adapter)

	encodedState, err := f.codec.Encode(oauthstate.State{Provider: "twitch", CreatorProfileID: 10, UserID: 100})
	require.NoError(t, err)

	accountID, err := f.service.CompleteConnection(context.Background(), "twitch", "auth-code", encodedState)
	require.NoError(t, err)
	require.NotZero(t, accountID)

	account := f.accounts.accounts[accountID]
	require.NotNil(t, account)
	assert.Equal(t, "tw-1", account.PlatformUserID)
	assert.Equal(t, models.AccountStatusActive, account.AccountStatus)
	assert.Equal(t, int64(4200), account.FollowerCount)

	// Tokens land encrypted, never as given by the provider.
	stored := f.tokens.active[accountID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "access-123", stored.AccessToken)
	decrypted, err := utils.Decrypt(stored.AccessToken, []byte(testConfig.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "access-123", decrypted)

	// An initial full sync job is persisted and enqueued.
	require.Len(t, f.jobs.created, 1)
	assert.Equal(t, models.SyncJobTypeFull, f.jobs.created[0].JobType)
	assert.Equal(t, int64(1), f.jobs.created[0].TenantID)
	require.Len(t, f.enqueuer.enqueued, 1)
	assert.True(t, f.enqueuer.enqueued[0].fullSync)
	assert.Equal(t, f.jobs.created[0].ID, f.enqueuer.enqueued[0].jobID)
}

func TestCompleteConnectionReconnectReusesAccount(t *testing.T) {
	adapter := plainAdapter()
	adapter.exchangeFn = func(code, verifier string) (*providers.OAuthTokens, error) {
		return &providers.OAuthTokens{AccessToken: "access-next"}, nil
	}
	adapter.infoFn = func() (*providers.AccountInfo, error) {
		return &providers.AccountInfo{PlatformUserID: "tw-1", Username: "streamer"}, nil
	}

	f := newIntegrationFixture(t, adapter)

	encodedState, err := f.codec.Encode(oauthstate.State{Provider: "twitch", CreatorProfileID: 10, UserID: 100})
	require.NoError(t, err)

	first, err := f.service.CompleteConnection(context.Background(), "twitch", "code-1", encodedState)
	require.NoError(t, err)

	require.NoError(t, f.service.DisconnectAccount(context.Background(), first))

	encodedState, err = f.codec.Encode(oauthstate.State{Provider: "twitch", CreatorProfileID: 10, UserID: 100})
	require.NoError(t, err)

	second, err := f.service.CompleteConnection(context.Background(), "twitch", "code-2", encodedState)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, models.AccountStatusActive, f.accounts.accounts[second].AccountStatus)
}

func TestCompleteConnectionProviderMismatch(t *testing.T) {
	f := newIntegrationFixture(t, plainAdapter())

	encodedState, err := f.codec.Encode(oauthstate.State{Provider: "youtube", CreatorProfileID: 10, UserID: 100})
	require.NoError(t, err)

	_, err = f.service.CompleteConnection(context.Background(), "twitch", "code", encodedState)
	assert.ErrorIs(t, err, oauthstate.ErrInvalidState)
}

func TestCompleteConnectionExpiredState(t *testing.T) {
	f := newIntegrationFixture(t, plainAdapter())

	encodedState, err := f.codec.Encode(oauthstate.State{
		Provider:         "twitch",
		CreatorProfileID: 10,
		UserID:           100,
		IssuedAt:         time.Now().Add(-oauthstate.TTL - time.Minute),
	})
	require.NoError(t, err)

	_, err = f.service.CompleteConnection(context.Background(), "twitch", "code", encodedState)
	assert.ErrorIs(t, err, oauthstate.ErrAuthorizationExpired)
}

func TestCompleteConnectionRejectedCodeWritesNothing(t *testing.T) {
	adapter := plainAdapter()
	adapter.exchangeFn = func(code, verifier string) (*providers.OAuthTokens, error) {
		return nil, providers.ErrTokenExchange
	}

	f := newIntegrationFixture(t, adapter)

	encodedState, err := f.codec.Encode(oauthstate.State{Provider: "twitch", CreatorProfileID: 10, UserID: 100})
	require.NoError(t, err)

	_, err = f.service.CompleteConnection(context.Background(), "twitch", "replayed-code", encodedState)
	assert.ErrorIs(t, err, providers.ErrTokenExchange)

	assert.Empty(t, f.accounts.accounts)
	assert.Zero(t, f.tokens.superseded)
	assert.Empty(t, f.jobs.created)
}

func TestCompleteConnectionEnqueueFailureNonFatal(t *testing.T) {
	adapter := plainAdapter()
	adapter.exchangeFn = func(code, verifier string) (*providers.OAuthTokens, error) {
		return &providers.OAuthTokens{AccessToken: "access"}, nil
	}

	f := newIntegrationFixture(t, adapter)
	f.enqueuer.err = assert.AnError

	encodedState, err := f.codec.Encode(oauthstate.State{Provider: "twitch", CreatorProfileID: 10, UserID: 100})
	require.NoError(t, err)

	accountID, err := f.service.CompleteConnection(context.Background(), "twitch", "code", encodedState)
	require.NoError(t, err)
	assert.NotZero(t, accountID)
}

func TestGetConnectedAccountsNeedsReconnect(t *testing.T) {
	f := newIntegrationFixture(t, plainAdapter())

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	f.accounts.connected = []*models.ConnectedAccount{
		{SocialAccount: models.SocialAccount{ID: 1}, TokenExpiresAt: &past},
		{SocialAccount: models.SocialAccount{ID: 2}, TokenExpiresAt: &future},
		{SocialAccount: models.SocialAccount{ID: 3}},
	}

	accounts, err := f.service.GetConnectedAccounts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.True(t, accounts[0].NeedsReconnect)
	assert.False(t, accounts[1].NeedsReconnect)
	assert.False(t, accounts[2].NeedsReconnect)
}

func TestDisconnectAccountPreservesHistory(t *testing.T) {
	f := newIntegrationFixture(t, plainAdapter())

	accountID, err := f.accounts.Upsert(context.Background(), &models.SocialAccount{
		CreatorProfileID: 10,
		Platform:         "twitch",
	})
	require.NoError(t, err)
	_, err = f.tokens.Supersede(context.Background(), &models.OAuthToken{SocialAccountID: accountID, AccessToken: "enc"})
	require.NoError(t, err)

	require.NoError(t, f.service.DisconnectAccount(context.Background(), accountID))

	account := f.accounts.accounts[accountID]
	require.NotNil(t, account, "account row must survive disconnect")
	assert.Equal(t, models.AccountStatusDisconnected, account.AccountStatus)
	assert.Nil(t, f.tokens.active[accountID], "tokens must be deactivated")
}

func TestDisconnectAccountUnknown(t *testing.T) {
	f := newIntegrationFixture(t, plainAdapter())

	err := f.service.DisconnectAccount(context.Background(), 404)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestVerifyProfileOwnership(t *testing.T) {
	f := newIntegrationFixture(t, plainAdapter())

	assert.NoError(t, f.service.VerifyProfileOwnership(context.Background(), 10, 100))
	assert.ErrorIs(t, f.service.VerifyProfileOwnership(context.Background(), 10, 999), ErrProfileNotFound)
	assert.ErrorIs(t, f.service.VerifyProfileOwnership(context.Background(), 77, 100), ErrProfileNotFound)
}

func TestVerifyAccountOwnership(t *testing.T) {
	f := newIntegrationFixture(t, plainAdapter())

	accountID, err := f.accounts.Upsert(context.Background(), &models.SocialAccount{
		CreatorProfileID: 10,
		Platform:         "twitch",
	})
	require.NoError(t, err)

	assert.NoError(t, f.service.VerifyAccountOwnership(context.Background(), accountID, 100))
	assert.ErrorIs(t, f.service.VerifyAccountOwnership(context.Background(), accountID, 999), ErrProfileNotFound)
	assert.ErrorIs(t, f.service.VerifyAccountOwnership(context.Background(), 404, 100), ErrAccountNotFound)
}

func TestReauthenticate(t *testing.T) {
	adapter := plainAdapter()
	f := newIntegrationFixture(t, adapter)

	accountID, err := f.accounts.Upsert(context.Background(), &models.SocialAccount{
		CreatorProfileID: 10,
		Platform:         "twitch",
	})
	require.NoError(t, err)

	authURL, err := f.service.Reauthenticate(context.Background(), accountID)
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state, err := f.codec.Decode(parsed.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "twitch", state.Provider)
	assert.Equal(t, int64(10), state.CreatorProfileID)
	assert.Equal(t, int64(100), state.UserID)
}
