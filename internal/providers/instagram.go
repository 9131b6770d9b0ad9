package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/creatorsync/configs"
	"github.com/maheshrc27/creatorsync/internal/models"
	"github.com/maheshrc27/creatorsync/internal/transfer"
)

// InstagramAdapter exchanges the authorization code for a short-lived token
// and immediately upgrades it to a long-lived one. The long-lived token
// doubles as the refresh handle (ig_refresh_token grant).
type InstagramAdapter struct {
	cfg    ProviderConfig
	creds  config.ProviderCredentials
	client *apiClient
}

func NewInstagramAdapter(creds config.ProviderCredentials) *InstagramAdapter {
	return &InstagramAdapter{
		cfg: ProviderConfig{
			Key:              "instagram",
			DisplayName:      "Instagram",
			AuthURL:          "https://www.instagram.com/oauth/authorize",
			TokenURL:         "https://api.instagram.com/oauth/access_token",
			APIBaseURL:       "https://graph.instagram.com",
			Scopes:           []string{"instagram_business_basic", "instagram_business_manage_insights"},
			SupportsContent:  true,
			SupportsMetrics:  true,
			SupportsAudience: true,
		},
		creds:  creds,
		client: newAPIClient(15*time.Second, 4, 8),
	}
}

func (a *InstagramAdapter) Config() ProviderConfig { return a.cfg }

func (a *InstagramAdapter) AuthorizationURL(state, codeChallenge string) string {
	params := url.Values{}
	params.Add("client_id", a.creds.ClientID)
	params.Add("scope", strings.Join(a.cfg.Scopes, ","))
	params.Add("response_type", "code")
	params.Add("redirect_uri", a.creds.RedirectURI)
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", a.cfg.AuthURL, params.Encode())
}

func (a *InstagramAdapter) ExchangeCode(ctx context.Context, code, verifier string) (*OAuthTokens, error) {
	data := url.Values{}
	data.Set("client_id", a.creds.ClientID)
	data.Set("client_secret", a.creds.ClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", a.creds.RedirectURI)
	data.Set("code", code)

	var shortLived transfer.InstagramShortLivedToken
	if err := a.client.postForm(ctx, a.cfg.TokenURL, data, &shortLived, ErrTokenExchange); err != nil {
		return nil, err
	}
	if shortLived.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrTokenExchange)
	}

	exchangeURL := fmt.Sprintf(
		"%s/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		a.cfg.APIBaseURL, a.creds.ClientSecret, shortLived.AccessToken,
	)

	var longLived transfer.InstagramLongLivedToken
	if err := a.client.getJSON(ctx, exchangeURL, "", &longLived); err != nil {
		return nil, fmt.Errorf("%w: long-lived upgrade failed: %v", ErrTokenExchange, err)
	}

	return &OAuthTokens{
		AccessToken:  longLived.AccessToken,
		RefreshToken: longLived.AccessToken,
		ExpiresAt:    GetExpiresAt(longLived.ExpiresIn),
	}, nil
}

func (a *InstagramAdapter) RefreshToken(ctx context.Context, refreshToken string) (*OAuthTokens, error) {
	refreshURL := fmt.Sprintf(
		"%s/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		a.cfg.APIBaseURL, refreshToken,
	)

	var refreshed transfer.InstagramLongLivedToken
	if err := a.client.getJSON(ctx, refreshURL, "", &refreshed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}
	if refreshed.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrTokenRefresh)
	}

	return &OAuthTokens{
		AccessToken:  refreshed.AccessToken,
		RefreshToken: refreshed.AccessToken,
		ExpiresAt:    GetExpiresAt(refreshed.ExpiresIn),
	}, nil
}

func (a *InstagramAdapter) FetchAccountInfo(ctx context.Context, accessToken string) (*AccountInfo, error) {
	reqURL := fmt.Sprintf(
		"%s/me?fields=id,username,name,profile_picture_url,followers_count,media_count&access_token=%s",
		a.cfg.APIBaseURL, accessToken,
	)

	var userInfo transfer.InstagramUserInfo
	if err := a.client.getJSON(ctx, reqURL, "", &userInfo); err != nil {
		return nil, err
	}

	return &AccountInfo{
		PlatformUserID: userInfo.UserID,
		Username:       userInfo.Username,
		DisplayName:    userInfo.Name,
		ProfilePicture: userInfo.ProfilePicture,
		FollowerCount:  userInfo.FollowersCount,
	}, nil
}

const instagramPageSize = 25

func (a *InstagramAdapter) FetchContent(ctx context.Context, accessToken string, opts FetchOptions) ([]*models.ContentItem, error) {
	reqURL := fmt.Sprintf(
		"%s/me/media?fields=id,caption,media_type,media_url,permalink,thumbnail_url,timestamp,like_count,comments_count&limit=%d&access_token=%s",
		a.cfg.APIBaseURL, instagramPageSize, accessToken,
	)

	var items []*models.ContentItem
	for reqURL != "" {
		var page transfer.InstagramMediaResponse
		if err := a.client.getJSON(ctx, reqURL, "", &page); err != nil {
			return nil, err
		}

		for _, media := range page.Data {
			item, err := a.normalizeMedia(media)
			if err != nil {
				return nil, err
			}
			if opts.Since != nil && item.PublishedAt != nil && !item.PublishedAt.After(*opts.Since) {
				return items, nil
			}
			items = append(items, item)
			if opts.Limit > 0 && len(items) >= opts.Limit {
				return items, nil
			}
		}

		reqURL = page.Paging.Next
	}
	return items, nil
}

func (a *InstagramAdapter) FetchContentMetrics(ctx context.Context, accessToken, platformContentID string) (*models.ContentMetrics, error) {
	reqURL := fmt.Sprintf(
		"%s/%s/insights?metric=views,likes,comments,shares&access_token=%s",
		a.cfg.APIBaseURL, platformContentID, accessToken,
	)

	var result transfer.InstagramInsightsResponse
	if err := a.client.getJSON(ctx, reqURL, "", &result); err != nil {
		return nil, err
	}

	metrics := &models.ContentMetrics{
		MetricDate: time.Now().UTC().Truncate(24 * time.Hour),
	}
	for _, insight := range result.Data {
		if len(insight.Values) == 0 {
			continue
		}
		value := insight.Values[0].Value
		switch insight.Name {
		case "views":
			metrics.ViewCount = value
		case "likes":
			metrics.LikeCount = value
		case "comments":
			metrics.CommentCount = value
		case "shares":
			metrics.ShareCount = value
		}
	}
	metrics.EngagementRate = EngagementRate(metrics.ViewCount, metrics.LikeCount, metrics.CommentCount, metrics.ShareCount)
	return metrics, nil
}

func (a *InstagramAdapter) FetchAudienceDemographics(ctx context.Context, accessToken string) ([]*models.AudienceDemographic, error) {
	reqURL := fmt.Sprintf(
		"%s/me/insights?metric=follower_demographics&period=lifetime&metric_type=total_value&breakdown=country&access_token=%s",
		a.cfg.APIBaseURL, accessToken,
	)

	var result transfer.InstagramAudienceResponse
	if err := a.client.getJSON(ctx, reqURL, "", &result); err != nil {
		return nil, err
	}

	var demographics []*models.AudienceDemographic
	var total int64
	for _, metric := range result.Data {
		for _, breakdown := range metric.TotalValue.Breakdowns {
			for _, r := range breakdown.Results {
				total += r.Value
			}
		}
	}
	for _, metric := range result.Data {
		for _, breakdown := range metric.TotalValue.Breakdowns {
			for _, r := range breakdown.Results {
				if len(r.DimensionValues) == 0 {
					continue
				}
				percentage := 0.0
				if total > 0 {
					percentage = float64(r.Value) / float64(total) * 100
				}
				demographics = append(demographics, &models.AudienceDemographic{
					DimensionType:  "country",
					DimensionValue: r.DimensionValues[0],
					Percentage:     percentage,
					Count:          r.Value,
				})
			}
		}
	}
	return demographics, nil
}

func (a *InstagramAdapter) normalizeMedia(media transfer.InstagramMedia) (*models.ContentItem, error) {
	publishedAt, err := time.Parse(time.RFC3339, media.Timestamp)
	if err != nil {
		// Instagram uses a compact offset without the colon.
		publishedAt, err = time.Parse("2006-01-02T15:04:05-0700", media.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("unparseable media timestamp %q: %w", media.Timestamp, err)
		}
	}
	publishedAt = publishedAt.UTC()

	contentType := strings.ToLower(media.MediaType)
	thumbnail := media.ThumbnailURL
	if thumbnail == "" {
		thumbnail = media.MediaURL
	}

	return &models.ContentItem{
		Platform:          a.cfg.Key,
		PlatformContentID: media.ID,
		ContentType:       contentType,
		Title:             media.Caption,
		Description:       media.Caption,
		URL:               media.Permalink,
		ThumbnailURL:      thumbnail,
		IsSponsored:       DetectSponsorship(media.Caption),
		Hashtags:          ExtractHashtags(media.Caption),
		PublishedAt:       &publishedAt,
	}, nil
}
