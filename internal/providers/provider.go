package providers

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/maheshrc27/creatorsync/internal/models"
)

var (
	ErrTokenExchange       = errors.New("provider rejected authorization code")
	ErrTokenRefresh        = errors.New("provider rejected refresh token")
	ErrAudienceUnsupported = errors.New("provider does not expose audience demographics")
)

// ProviderConfig is the static descriptor for one external platform.
// Instances are built once at process start and never mutated.
type ProviderConfig struct {
	Key         string
	DisplayName string
	AuthURL     string
	TokenURL    string
	APIBaseURL  string
	Scopes      []string

	RequiresPKCE     bool
	SupportsContent  bool
	SupportsMetrics  bool
	SupportsAudience bool
	SupportsRevenue  bool
}

type AccountInfo struct {
	PlatformUserID string
	Username       string
	DisplayName    string
	ProfilePicture string
	FollowerCount  int64
	IsVerified     bool
}

type OAuthTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scope        string
}

// FetchOptions bounds one content fetch. Since nil means unbounded
// (full sync); adapters paginate internally until Limit items or the
// provider reports no further pages.
type FetchOptions struct {
	Limit int
	Since *time.Time
}

// Adapter is the uniform contract every platform integration implements.
// Implementations hold no mutable state, so one instance may serve any
// number of concurrent syncs.
type Adapter interface {
	Config() ProviderConfig

	// AuthorizationURL is a pure function of config and state; no network.
	// codeChallenge is empty for providers that do not use PKCE.
	AuthorizationURL(state, codeChallenge string) string

	ExchangeCode(ctx context.Context, code, verifier string) (*OAuthTokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*OAuthTokens, error)

	FetchAccountInfo(ctx context.Context, accessToken string) (*AccountInfo, error)
	FetchContent(ctx context.Context, accessToken string, opts FetchOptions) ([]*models.ContentItem, error)
	FetchContentMetrics(ctx context.Context, accessToken, platformContentID string) (*models.ContentMetrics, error)
	FetchAudienceDemographics(ctx context.Context, accessToken string) ([]*models.AudienceDemographic, error)
}

// Registry maps provider keys to adapter instances. Built once in main and
// handed to the orchestrator by construction.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Config().Key] = a
	}
	return &Registry{adapters: m}
}

func (r *Registry) Get(key string) (Adapter, bool) {
	a, ok := r.adapters[key]
	return a, ok
}

func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
