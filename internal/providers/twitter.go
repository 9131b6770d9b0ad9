package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/creatorsync/configs"
	"github.com/maheshrc27/creatorsync/internal/models"
	"github.com/maheshrc27/creatorsync/internal/transfer"
)

// TwitterAdapter uses the v2 OAuth flow, which mandates PKCE and basic
// auth on the token endpoint.
type TwitterAdapter struct {
	cfg    ProviderConfig
	creds  config.ProviderCredentials
	client *apiClient
}

func NewTwitterAdapter(creds config.ProviderCredentials) *TwitterAdapter {
	return &TwitterAdapter{
		cfg: ProviderConfig{
			Key:             "twitter",
			DisplayName:     "X (Twitter)",
			AuthURL:         "https://twitter.com/i/oauth2/authorize",
			TokenURL:        "https://api.twitter.com/2/oauth2/token",
			APIBaseURL:      "https://api.twitter.com/2",
			Scopes:          []string{"tweet.read", "users.read", "offline.access"},
			RequiresPKCE:    true,
			SupportsContent: true,
			SupportsMetrics: true,
		},
		creds:  creds,
		client: newAPIClient(15*time.Second, 3, 6),
	}
}

func (a *TwitterAdapter) Config() ProviderConfig { return a.cfg }

func (a *TwitterAdapter) AuthorizationURL(state, codeChallenge string) string {
	params := url.Values{}
	params.Add("client_id", a.creds.ClientID)
	params.Add("scope", strings.Join(a.cfg.Scopes, " "))
	params.Add("response_type", "code")
	params.Add("redirect_uri", a.creds.RedirectURI)
	params.Add("state", state)
	params.Add("code_challenge", codeChallenge)
	params.Add("code_challenge_method", "S256")

	return fmt.Sprintf("%s?%s", a.cfg.AuthURL, params.Encode())
}

func (a *TwitterAdapter) basicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(a.creds.ClientID + ":" + a.creds.ClientSecret))
}

func (a *TwitterAdapter) postToken(ctx context.Context, data url.Values, wrapErr error) (*OAuthTokens, error) {
	var tokenResponse transfer.TwitterTokenResponse
	if err := a.client.postFormBasicAuth(ctx, a.cfg.TokenURL, a.basicAuth(), data, &tokenResponse, wrapErr); err != nil {
		return nil, err
	}
	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", wrapErr)
	}

	return &OAuthTokens{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresAt:    GetExpiresAt(tokenResponse.ExpiresIn),
		Scope:        tokenResponse.Scope,
	}, nil
}

func (a *TwitterAdapter) ExchangeCode(ctx context.Context, code, verifier string) (*OAuthTokens, error) {
	data := url.Values{}
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", a.creds.RedirectURI)
	data.Set("code_verifier", verifier)

	return a.postToken(ctx, data, ErrTokenExchange)
}

func (a *TwitterAdapter) RefreshToken(ctx context.Context, refreshToken string) (*OAuthTokens, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	return a.postToken(ctx, data, ErrTokenRefresh)
}

func (a *TwitterAdapter) FetchAccountInfo(ctx context.Context, accessToken string) (*AccountInfo, error) {
	reqURL := a.cfg.APIBaseURL + "/users/me?user.fields=profile_image_url,verified,public_metrics"

	var result transfer.TwitterUserResponse
	if err := a.client.getJSON(ctx, reqURL, accessToken, &result); err != nil {
		return nil, err
	}

	user := result.Data
	return &AccountInfo{
		PlatformUserID: user.ID,
		Username:       user.Username,
		DisplayName:    user.Name,
		ProfilePicture: user.ProfileImageURL,
		FollowerCount:  user.PublicMetrics.FollowersCount,
		IsVerified:     user.Verified,
	}, nil
}

const twitterPageSize = 100

func (a *TwitterAdapter) FetchContent(ctx context.Context, accessToken string, opts FetchOptions) ([]*models.ContentItem, error) {
	var me transfer.TwitterUserResponse
	if err := a.client.getJSON(ctx, a.cfg.APIBaseURL+"/users/me", accessToken, &me); err != nil {
		return nil, err
	}

	baseURL := fmt.Sprintf(
		"%s/users/%s/tweets?max_results=%d&tweet.fields=created_at,public_metrics",
		a.cfg.APIBaseURL, me.Data.ID, twitterPageSize,
	)
	if opts.Since != nil {
		baseURL += "&start_time=" + url.QueryEscape(opts.Since.UTC().Format(time.RFC3339))
	}

	var items []*models.ContentItem
	nextToken := ""

	for {
		reqURL := baseURL
		if nextToken != "" {
			reqURL += "&pagination_token=" + url.QueryEscape(nextToken)
		}

		var page transfer.TwitterTweetsResponse
		if err := a.client.getJSON(ctx, reqURL, accessToken, &page); err != nil {
			return nil, err
		}

		for _, tweet := range page.Data {
			item, err := a.normalizeTweet(tweet, me.Data.Username)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if opts.Limit > 0 && len(items) >= opts.Limit {
				return items, nil
			}
		}

		if page.Meta.NextToken == "" {
			return items, nil
		}
		nextToken = page.Meta.NextToken
	}
}

func (a *TwitterAdapter) FetchContentMetrics(ctx context.Context, accessToken, platformContentID string) (*models.ContentMetrics, error) {
	reqURL := fmt.Sprintf(
		"%s/tweets/%s?tweet.fields=public_metrics",
		a.cfg.APIBaseURL, url.PathEscape(platformContentID),
	)

	var result struct {
		Data transfer.TwitterTweet `json:"data"`
	}
	if err := a.client.getJSON(ctx, reqURL, accessToken, &result); err != nil {
		return nil, err
	}

	pm := result.Data.PublicMetrics
	return &models.ContentMetrics{
		MetricDate:     time.Now().UTC().Truncate(24 * time.Hour),
		ViewCount:      pm.ViewCount,
		LikeCount:      pm.LikeCount,
		CommentCount:   pm.ReplyCount,
		ShareCount:     pm.RetweetCount + pm.QuoteCount,
		EngagementRate: EngagementRate(pm.ViewCount, pm.LikeCount, pm.ReplyCount, pm.RetweetCount+pm.QuoteCount),
	}, nil
}

func (a *TwitterAdapter) FetchAudienceDemographics(ctx context.Context, accessToken string) ([]*models.AudienceDemographic, error) {
	return nil, ErrAudienceUnsupported
}

func (a *TwitterAdapter) normalizeTweet(tweet transfer.TwitterTweet, username string) (*models.ContentItem, error) {
	publishedAt, err := time.Parse(time.RFC3339, tweet.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("unparseable tweet created_at %q: %w", tweet.CreatedAt, err)
	}
	publishedAt = publishedAt.UTC()

	return &models.ContentItem{
		Platform:          a.cfg.Key,
		PlatformContentID: tweet.ID,
		ContentType:       "post",
		Title:             tweet.Text,
		Description:       tweet.Text,
		URL:               fmt.Sprintf("https://twitter.com/%s/status/%s", username, tweet.ID),
		IsSponsored:       DetectSponsorship(tweet.Text),
		Hashtags:          ExtractHashtags(tweet.Text),
		PublishedAt:       &publishedAt,
	}, nil
}
