package service

import (
	"context"
	"fmt"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"

	config "github.com/maheshrc27/creatorsync/configs"
	"github.com/maheshrc27/creatorsync/internal/models"
	"github.com/maheshrc27/creatorsync/internal/oauthstate"
	"github.com/maheshrc27/creatorsync/internal/providers"
	"github.com/maheshrc27/creatorsync/internal/repository"
	"github.com/maheshrc27/creatorsync/pkg/utils"
)

// SyncEnqueuer hands a persisted sync job to whatever queue backend runs
// the workers. Implemented by internal/queue.
type SyncEnqueuer interface {
	EnqueueSync(jobID string, accountID int64, fullSync bool) error
}

type IntegrationService interface {
	VerifyProfileOwnership(ctx context.Context, profileID, userID int64) error
	VerifyAccountOwnership(ctx context.Context, accountID, userID int64) error
	RequestAuthorization(ctx context.Context, provider string, profileID, userID int64) (string, error)
	CompleteConnection(ctx context.Context, provider, code, encodedState string) (int64, error)
	GetConnectedAccounts(ctx context.Context, profileID int64) ([]*models.ConnectedAccount, error)
	DisconnectAccount(ctx context.Context, accountID int64) error
	GetCreatorStats(ctx context.Context, profileID int64) (*models.CreatorStats, error)
	Reauthenticate(ctx context.Context, accountID int64) (string, error)
}

type integrationService struct {
	cfg      config.Config
	registry *providers.Registry
	codec    *oauthstate.Codec
	profiles repository.CreatorProfileRepository
	accounts repository.SocialAccountRepository
	tokens   repository.OAuthTokenRepository
	content  repository.ContentRepository
	jobs     repository.SyncJobRepository
	enqueuer SyncEnqueuer
}

func NewIntegrationService(
	cfg config.Config,
	registry *providers.Registry,
	codec *oauthstate.Codec,
	profiles repository.CreatorProfileRepository,
	accounts repository.SocialAccountRepository,
	tokens repository.OAuthTokenRepository,
	content repository.ContentRepository,
	jobs repository.SyncJobRepository,
	enqueuer SyncEnqueuer) IntegrationService {
	return &integrationService{
		cfg:      cfg,
		registry: registry,
		codec:    codec,
		profiles: profiles,
		accounts: accounts,
		tokens:   tokens,
		content:  content,
		jobs:     jobs,
		enqueuer: enqueuer,
	}
}

// VerifyProfileOwnership rejects a profile that does not belong to the
// caller. A mismatch is logged and refused outright; there is no fallback
// to another profile.
func (s *integrationService) VerifyProfileOwnership(ctx context.Context, profileID, userID int64) error {
	ok, err := s.profiles.CheckByUserID(ctx, profileID, userID)
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("profile ownership check failed", "profile_id", profileID, "user_id", userID)
		return ErrProfileNotFound
	}
	return nil
}

func (s *integrationService) VerifyAccountOwnership(ctx context.Context, accountID, userID int64) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	return s.VerifyProfileOwnership(ctx, account.CreatorProfileID, userID)
}

// RequestAuthorization builds the provider authorize URL. Nothing is
// persisted: the signed state blob in the URL is the only record of the
// attempt.
func (s *integrationService) RequestAuthorization(ctx context.Context, provider string, profileID, userID int64) (string, error) {
	adapter, ok := s.registry.Get(provider)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", ErrProfileNotFound
	}

	state := oauthstate.State{
		Provider:         provider,
		CreatorProfileID: profileID,
		UserID:           userID,
	}

	codeChallenge := ""
	if adapter.Config().RequiresPKCE {
		verifier, err := providers.GenerateCodeVerifier()
		if err != nil {
			return "", err
		}
		state.CodeVerifier = verifier
		codeChallenge = providers.CodeChallengeS256(verifier)
	}

	encodedState, err := s.codec.Encode(state)
	if err != nil {
		return "", err
	}

	return adapter.AuthorizationURL(encodedState, codeChallenge), nil
}

// CompleteConnection finishes the callback half of the handshake. A replayed
// authorization code fails inside the adapter's exchange and surfaces as a
// terminal error; the previously connected account is untouched because
// nothing is written before the exchange succeeds.
func (s *integrationService) CompleteConnection(ctx context.Context, provider, code, encodedState string) (int64, error) {
	adapter, ok := s.registry.Get(provider)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	state, err := s.codec.Decode(encodedState)
	if err != nil {
		return 0, err
	}
	if state.Provider != provider {
		slog.Info("state provider mismatch", "expected", provider, "got", state.Provider)
		return 0, oauthstate.ErrInvalidState
	}

	profile, err := s.profiles.GetByID(ctx, state.CreatorProfileID)
	if err != nil {
		return 0, err
	}
	if profile == nil {
		return 0, ErrProfileNotFound
	}

	tokens, err := adapter.ExchangeCode(ctx, code, state.CodeVerifier)
	if err != nil {
		return 0, err
	}

	info, err := adapter.FetchAccountInfo(ctx, tokens.AccessToken)
	if err != nil {
		return 0, err
	}

	account := &models.SocialAccount{
		CreatorProfileID: state.CreatorProfileID,
		Platform:         provider,
		PlatformUserID:   info.PlatformUserID,
		Username:         info.Username,
		DisplayName:      info.DisplayName,
		ProfilePicture:   info.ProfilePicture,
		FollowerCount:    info.FollowerCount,
		IsVerified:       info.IsVerified,
	}

	accountID, err := s.accounts.Upsert(ctx, account)
	if err != nil {
		return 0, err
	}

	if err := s.persistTokens(ctx, accountID, tokens); err != nil {
		return 0, err
	}

	if err := s.enqueueSyncJob(ctx, profile.TenantID, accountID, provider, models.SyncJobTypeFull); err != nil {
		// The connection itself succeeded; the scheduled sync cron will
		// pick the account up if the job never ran.
		slog.Info("failed to enqueue initial sync", "account_id", accountID, "error", err.Error())
	}

	return accountID, nil
}

func (s *integrationService) persistTokens(ctx context.Context, accountID int64, tokens *providers.OAuthTokens) error {
	encryptedAccess, err := utils.Encrypt([]byte(tokens.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	encryptedRefresh := ""
	if tokens.RefreshToken != "" {
		encryptedRefresh, err = utils.Encrypt([]byte(tokens.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}
	}

	_, err = s.tokens.Supersede(ctx, &models.OAuthToken{
		SocialAccountID: accountID,
		AccessToken:     encryptedAccess,
		RefreshToken:    encryptedRefresh,
		ExpiresAt:       tokens.ExpiresAt,
		Scope:           tokens.Scope,
	})
	return err
}

func (s *integrationService) enqueueSyncJob(ctx context.Context, tenantID, accountID int64, provider, jobType string) error {
	jobID, err := gonanoid.New()
	if err != nil {
		return err
	}

	job := &models.SyncJob{
		ID:              jobID,
		TenantID:        tenantID,
		SocialAccountID: accountID,
		Platform:        provider,
		JobType:         jobType,
		Status:          models.SyncJobStatusPending,
		Priority:        1,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return err
	}

	return s.enqueuer.EnqueueSync(jobID, accountID, jobType == models.SyncJobTypeFull)
}

func (s *integrationService) GetConnectedAccounts(ctx context.Context, profileID int64) ([]*models.ConnectedAccount, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	accounts, err := s.accounts.ListConnectedByProfileID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	for _, account := range accounts {
		account.NeedsReconnect = account.TokenExpiresAt != nil && account.TokenExpiresAt.Before(now)
	}
	return accounts, nil
}

// DisconnectAccount flips the status and deactivates tokens. Content and
// metrics history stays queryable.
func (s *integrationService) DisconnectAccount(ctx context.Context, accountID int64) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}

	if err := s.accounts.UpdateStatus(ctx, accountID, models.AccountStatusDisconnected); err != nil {
		return err
	}
	return s.tokens.DeactivateByAccountID(ctx, accountID)
}

func (s *integrationService) GetCreatorStats(ctx context.Context, profileID int64) (*models.CreatorStats, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	return s.content.GetCreatorStats(ctx, profileID)
}

func (s *integrationService) Reauthenticate(ctx context.Context, accountID int64) (string, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", ErrAccountNotFound
	}

	profile, err := s.profiles.GetByID(ctx, account.CreatorProfileID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", ErrProfileNotFound
	}

	return s.RequestAuthorization(ctx, account.Platform, account.CreatorProfileID, profile.UserID)
}
