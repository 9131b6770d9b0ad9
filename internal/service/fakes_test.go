package service

import (
	"context"
	"fmt"
	"time"

	config "github.com/maheshrc27/creatorsync/configs"
	"github.com/maheshrc27/creatorsync/internal/models"
	"github.com/maheshrc27/creatorsync/internal/providers"
)

var testConfig = config.Config{SecretKey: "0123456789abcdef0123456789abcdef"}

type fakeProfileRepo struct {
	profiles map[int64]*models.CreatorProfile
}

func (r *fakeProfileRepo) GetByID(ctx context.Context, id int64) (*models.CreatorProfile, error) {
	return r.profiles[id], nil
}

func (r *fakeProfileRepo) CheckByUserID(ctx context.Context, profileID, userID int64) (bool, error) {
	p, ok := r.profiles[profileID]
	return ok && p.UserID == userID, nil
}

type fakeAccountRepo struct {
	accounts  map[int64]*models.SocialAccount
	connected []*models.ConnectedAccount
	nextID    int64
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[int64]*models.SocialAccount), nextID: 1}
}

func (r *fakeAccountRepo) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	for id, existing := range r.accounts {
		if existing.CreatorProfileID == sa.CreatorProfileID && existing.Platform == sa.Platform {
			sa.ID = id
			sa.AccountStatus = models.AccountStatusActive
			sa.LastSyncedAt = existing.LastSyncedAt
			r.accounts[id] = sa
			return id, nil
		}
	}
	sa.ID = r.nextID
	r.nextID++
	sa.AccountStatus = models.AccountStatusActive
	r.accounts[sa.ID] = sa
	return sa.ID, nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return r.accounts[id], nil
}

func (r *fakeAccountRepo) GetActiveByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	sa, ok := r.accounts[id]
	if !ok || sa.AccountStatus != models.AccountStatusActive {
		return nil, nil
	}
	return sa, nil
}

func (r *fakeAccountRepo) ListConnectedByProfileID(ctx context.Context, profileID int64) ([]*models.ConnectedAccount, error) {
	return r.connected, nil
}

func (r *fakeAccountRepo) ListActiveSyncedBefore(ctx context.Context, cutoff time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (r *fakeAccountRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if sa, ok := r.accounts[id]; ok {
		sa.AccountStatus = status
	}
	return nil
}

func (r *fakeAccountRepo) UpdateSyncState(ctx context.Context, id int64, followerCount int64, lastSyncedAt time.Time) error {
	if sa, ok := r.accounts[id]; ok {
		sa.FollowerCount = followerCount
		t := lastSyncedAt
		sa.LastSyncedAt = &t
	}
	return nil
}

type fakeTokenRepo struct {
	active     map[int64]*models.OAuthToken
	superseded int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{active: make(map[int64]*models.OAuthToken)}
}

func (r *fakeTokenRepo) GetActiveByAccountID(ctx context.Context, accountID int64) (*models.OAuthToken, error) {
	return r.active[accountID], nil
}

func (r *fakeTokenRepo) Supersede(ctx context.Context, token *models.OAuthToken) (int64, error) {
	r.superseded++
	token.ID = int64(r.superseded)
	token.IsActive = true
	r.active[token.SocialAccountID] = token
	return token.ID, nil
}

func (r *fakeTokenRepo) DeactivateByAccountID(ctx context.Context, accountID int64) error {
	delete(r.active, accountID)
	return nil
}

type fakeContentRepo struct {
	items      map[string]*models.ContentItem
	ids        map[string]int64
	metrics    []*models.ContentMetrics
	failUpsert map[string]error
	stats      *models.CreatorStats
	nextID     int64
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{
		items:      make(map[string]*models.ContentItem),
		ids:        make(map[string]int64),
		failUpsert: make(map[string]error),
		nextID:     1,
	}
}

func contentKey(item *models.ContentItem) string {
	return fmt.Sprintf("%s|%s", item.Platform, item.PlatformContentID)
}

func (r *fakeContentRepo) UpsertItem(ctx context.Context, item *models.ContentItem) (int64, bool, error) {
	key := contentKey(item)
	if err := r.failUpsert[key]; err != nil {
		return 0, false, err
	}
	if id, ok := r.ids[key]; ok {
		r.items[key] = item
		return id, false, nil
	}
	id := r.nextID
	r.nextID++
	r.ids[key] = id
	r.items[key] = item
	return id, true, nil
}

func (r *fakeContentRepo) UpsertMetrics(ctx context.Context, metrics *models.ContentMetrics) error {
	r.metrics = append(r.metrics, metrics)
	return nil
}

func (r *fakeContentRepo) GetCreatorStats(ctx context.Context, profileID int64) (*models.CreatorStats, error) {
	return r.stats, nil
}

type fakeAudienceRepo struct {
	replaced map[int64][]*models.AudienceDemographic
}

func newFakeAudienceRepo() *fakeAudienceRepo {
	return &fakeAudienceRepo{replaced: make(map[int64][]*models.AudienceDemographic)}
}

func (r *fakeAudienceRepo) ReplaceForAccount(ctx context.Context, accountID int64, demographics []*models.AudienceDemographic) error {
	r.replaced[accountID] = demographics
	return nil
}

func (r *fakeAudienceRepo) ListByAccountID(ctx context.Context, accountID int64) ([]*models.AudienceDemographic, error) {
	return r.replaced[accountID], nil
}

type fakeJobRepo struct {
	created []*models.SyncJob
}

func (r *fakeJobRepo) Create(ctx context.Context, job *models.SyncJob) error {
	r.created = append(r.created, job)
	return nil
}

func (r *fakeJobRepo) UpdateStatus(ctx context.Context, id, status, lastError string) error {
	return nil
}

type enqueuedSync struct {
	jobID     string
	accountID int64
	fullSync  bool
}

type fakeEnqueuer struct {
	enqueued []enqueuedSync
	err      error
}

func (e *fakeEnqueuer) EnqueueSync(jobID string, accountID int64, fullSync bool) error {
	if e.err != nil {
		return e.err
	}
	e.enqueued = append(e.enqueued, enqueuedSync{jobID: jobID, accountID: accountID, fullSync: fullSync})
	return nil
}

// fakeAdapter records calls and delegates to the configured funcs so each
// test controls exactly the provider behavior it needs.
type fakeAdapter struct {
	cfg providers.ProviderConfig

	exchangeFn func(code, verifier string) (*providers.OAuthTokens, error)
	refreshFn  func(refreshToken string) (*providers.OAuthTokens, error)
	infoFn     func() (*providers.AccountInfo, error)
	contentFn  func(opts providers.FetchOptions) ([]*models.ContentItem, error)
	metricsFn  func(platformContentID string) (*models.ContentMetrics, error)
	audienceFn func() ([]*models.AudienceDemographic, error)

	lastState     string
	lastChallenge string
}

func (a *fakeAdapter) Config() providers.ProviderConfig { return a.cfg }

func (a *fakeAdapter) AuthorizationURL(state, codeChallenge string) string {
	a.lastState = state
	a.lastChallenge = codeChallenge
	return fmt.Sprintf("https://auth.example.com/authorize?state=%s&code_challenge=%s", state, codeChallenge)
}

func (a *fakeAdapter) ExchangeCode(ctx context.Context, code, verifier string) (*providers.OAuthTokens, error) {
	return a.exchangeFn(code, verifier)
}

func (a *fakeAdapter) RefreshToken(ctx context.Context, refreshToken string) (*providers.OAuthTokens, error) {
	return a.refreshFn(refreshToken)
}

func (a *fakeAdapter) FetchAccountInfo(ctx context.Context, accessToken string) (*providers.AccountInfo, error) {
	if a.infoFn != nil {
		return a.infoFn()
	}
	return &providers.AccountInfo{PlatformUserID: "platform-user"}, nil
}

func (a *fakeAdapter) FetchContent(ctx context.Context, accessToken string, opts providers.FetchOptions) ([]*models.ContentItem, error) {
	return a.contentFn(opts)
}

func (a *fakeAdapter) FetchContentMetrics(ctx context.Context, accessToken, platformContentID string) (*models.ContentMetrics, error) {
	if a.metricsFn != nil {
		return a.metricsFn(platformContentID)
	}
	return &models.ContentMetrics{ViewCount: 1}, nil
}

func (a *fakeAdapter) FetchAudienceDemographics(ctx context.Context, accessToken string) ([]*models.AudienceDemographic, error) {
	if a.audienceFn != nil {
		return a.audienceFn()
	}
	return nil, providers.ErrAudienceUnsupported
}
