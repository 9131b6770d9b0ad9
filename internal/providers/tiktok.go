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

type TiktokAdapter struct {
	cfg    ProviderConfig
	creds  config.ProviderCredentials
	client *apiClient
}

func NewTiktokAdapter(creds config.ProviderCredentials) *TiktokAdapter {
	return &TiktokAdapter{
		cfg: ProviderConfig{
			Key:              "tiktok",
			DisplayName:      "TikTok",
			AuthURL:          "https://www.tiktok.com/v2/auth/authorize/",
			TokenURL:         "https://open.tiktokapis.com/v2/oauth/token/",
			APIBaseURL:       "https://open.tiktokapis.com/v2",
			Scopes:           []string{"user.info.basic", "user.info.profile", "user.info.stats", "video.list"},
			RequiresPKCE:     true,
			SupportsContent:  true,
			SupportsMetrics:  true,
			SupportsAudience: true,
		},
		creds:  creds,
		client: newAPIClient(15*time.Second, 5, 10),
	}
}

func (a *TiktokAdapter) Config() ProviderConfig { return a.cfg }

func (a *TiktokAdapter) AuthorizationURL(state, codeChallenge string) string {
	params := url.Values{}
	params.Add("client_key", a.creds.ClientID)
	params.Add("scope", strings.Join(a.cfg.Scopes, ","))
	params.Add("response_type", "code")
	params.Add("redirect_uri", a.creds.RedirectURI)
	params.Add("state", state)
	params.Add("code_challenge", codeChallenge)
	params.Add("code_challenge_method", "S256")

	return fmt.Sprintf("%s?%s", a.cfg.AuthURL, params.Encode())
}

func (a *TiktokAdapter) ExchangeCode(ctx context.Context, code, verifier string) (*OAuthTokens, error) {
	data := url.Values{}
	data.Set("client_key", a.creds.ClientID)
	data.Set("client_secret", a.creds.ClientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", a.creds.RedirectURI)
	data.Set("code_verifier", verifier)

	var tokenResponse transfer.TiktokTokenResponse
	if err := a.client.postForm(ctx, a.cfg.TokenURL, data, &tokenResponse, ErrTokenExchange); err != nil {
		return nil, err
	}
	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrTokenExchange)
	}

	return &OAuthTokens{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresAt:    GetExpiresAt(tokenResponse.ExpiresIn),
		Scope:        tokenResponse.Scope,
	}, nil
}

func (a *TiktokAdapter) RefreshToken(ctx context.Context, refreshToken string) (*OAuthTokens, error) {
	data := url.Values{}
	data.Set("client_key", a.creds.ClientID)
	data.Set("client_secret", a.creds.ClientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	var tokenResponse transfer.TiktokTokenResponse
	if err := a.client.postForm(ctx, a.cfg.TokenURL, data, &tokenResponse, ErrTokenRefresh); err != nil {
		return nil, err
	}
	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrTokenRefresh)
	}

	return &OAuthTokens{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresAt:    GetExpiresAt(tokenResponse.ExpiresIn),
		Scope:        tokenResponse.Scope,
	}, nil
}

func (a *TiktokAdapter) FetchAccountInfo(ctx context.Context, accessToken string) (*AccountInfo, error) {
	reqURL := a.cfg.APIBaseURL + "/user/info/?fields=open_id,avatar_url,display_name,username,follower_count,is_verified"

	var result transfer.TiktokUserResponse
	if err := a.client.getJSON(ctx, reqURL, accessToken, &result); err != nil {
		return nil, err
	}
	if result.Error.Code != "" && result.Error.Code != "ok" {
		return nil, fmt.Errorf("tiktok user info error: %s", result.Error.Message)
	}

	user := result.Data.User
	return &AccountInfo{
		PlatformUserID: user.OpenID,
		Username:       user.Username,
		DisplayName:    user.DisplayName,
		ProfilePicture: user.AvatarURL,
		FollowerCount:  user.FollowerCount,
		IsVerified:     user.IsVerified,
	}, nil
}

const tiktokPageSize = 20

// FetchContent pages the video list with the cursor/has_more convention
// until the limit is reached or the provider runs out. Restartable: no
// cursor survives between calls.
func (a *TiktokAdapter) FetchContent(ctx context.Context, accessToken string, opts FetchOptions) ([]*models.ContentItem, error) {
	reqURL := a.cfg.APIBaseURL + "/video/list/?fields=id,title,video_description,share_url,cover_image_url,duration,create_time,view_count,like_count,comment_count,share_count"

	var items []*models.ContentItem
	var cursor int64

	for {
		body := map[string]any{"max_count": tiktokPageSize}
		if cursor != 0 {
			body["cursor"] = cursor
		}

		var page transfer.TiktokVideoListResponse
		if err := a.client.postJSON(ctx, reqURL, accessToken, body, &page); err != nil {
			return nil, err
		}
		if page.Error.Code != "" && page.Error.Code != "ok" {
			return nil, fmt.Errorf("tiktok video list error: %s", page.Error.Message)
		}

		for _, video := range page.Data.Videos {
			publishedAt := time.Unix(video.CreateTime, 0).UTC()
			if opts.Since != nil && !publishedAt.After(*opts.Since) {
				return items, nil
			}
			items = append(items, a.normalizeVideo(video))
			if opts.Limit > 0 && len(items) >= opts.Limit {
				return items, nil
			}
		}

		if !page.Data.HasMore {
			return items, nil
		}
		cursor = page.Data.Cursor
	}
}

func (a *TiktokAdapter) FetchContentMetrics(ctx context.Context, accessToken, platformContentID string) (*models.ContentMetrics, error) {
	reqURL := a.cfg.APIBaseURL + "/video/query/?fields=id,view_count,like_count,comment_count,share_count"

	body := map[string]any{
		"filters": map[string]any{"video_ids": []string{platformContentID}},
	}

	var result transfer.TiktokVideoListResponse
	if err := a.client.postJSON(ctx, reqURL, accessToken, body, &result); err != nil {
		return nil, err
	}
	if len(result.Data.Videos) == 0 {
		return nil, fmt.Errorf("tiktok video %s not found", platformContentID)
	}

	video := result.Data.Videos[0]
	return &models.ContentMetrics{
		MetricDate:     time.Now().UTC().Truncate(24 * time.Hour),
		ViewCount:      video.ViewCount,
		LikeCount:      video.LikeCount,
		CommentCount:   video.CommentCount,
		ShareCount:     video.ShareCount,
		EngagementRate: EngagementRate(video.ViewCount, video.LikeCount, video.CommentCount, video.ShareCount),
	}, nil
}

func (a *TiktokAdapter) FetchAudienceDemographics(ctx context.Context, accessToken string) ([]*models.AudienceDemographic, error) {
	reqURL := a.cfg.APIBaseURL + "/user/insights/?fields=audience_countries,audience_genders"

	var result transfer.TiktokAudienceResponse
	if err := a.client.getJSON(ctx, reqURL, accessToken, &result); err != nil {
		return nil, err
	}

	var demographics []*models.AudienceDemographic
	for _, slice := range result.Data.AudienceCountries {
		demographics = append(demographics, &models.AudienceDemographic{
			DimensionType:  "country",
			DimensionValue: slice.Dimension,
			Percentage:     slice.Percentage,
		})
	}
	for _, slice := range result.Data.AudienceGenders {
		demographics = append(demographics, &models.AudienceDemographic{
			DimensionType:  "gender",
			DimensionValue: slice.Dimension,
			Percentage:     slice.Percentage,
		})
	}
	return demographics, nil
}

func (a *TiktokAdapter) normalizeVideo(video transfer.TiktokVideo) *models.ContentItem {
	publishedAt := time.Unix(video.CreateTime, 0).UTC()
	caption := video.Title
	if caption == "" {
		caption = video.VideoDesc
	}
	return &models.ContentItem{
		Platform:          a.cfg.Key,
		PlatformContentID: video.ID,
		ContentType:       "video",
		Title:             caption,
		Description:       video.VideoDesc,
		URL:               video.ShareURL,
		ThumbnailURL:      video.CoverURL,
		DurationSeconds:   video.Duration,
		IsSponsored:       DetectSponsorship(video.VideoDesc),
		Hashtags:          ExtractHashtags(video.VideoDesc),
		PublishedAt:       &publishedAt,
	}
}
