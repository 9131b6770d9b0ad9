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

// FacebookAdapter work against the page the creator manages. Exchanged
// tokens are upgraded to long-lived ones (fb_exchange_token); Facebook
// issues no refresh token, so the long-lived token is carried as both.
type FacebookAdapter struct {
	cfg    ProviderConfig
	creds  config.ProviderCredentials
	client *apiClient
}

func NewFacebookAdapter(creds config.ProviderCredentials) *FacebookAdapter {
	return &FacebookAdapter{
		cfg: ProviderConfig{
			Key:             "facebook",
			DisplayName:     "Facebook",
			AuthURL:         "https://www.facebook.com/v21.0/dialog/oauth",
			TokenURL:        "https://graph.facebook.com/v21.0/oauth/access_token",
			APIBaseURL:      "https://graph.facebook.com/v21.0",
			Scopes:          []string{"pages_show_list", "pages_read_engagement", "pages_read_user_content"},
			SupportsContent: true,
			SupportsMetrics: true,
		},
		creds:  creds,
		client: newAPIClient(15*time.Second, 4, 8),
	}
}

func (a *FacebookAdapter) Config() ProviderConfig { return a.cfg }

func (a *FacebookAdapter) AuthorizationURL(state, codeChallenge string) string {
	params := url.Values{}
	params.Add("client_id", a.creds.ClientID)
	params.Add("scope", strings.Join(a.cfg.Scopes, ","))
	params.Add("response_type", "code")
	params.Add("redirect_uri", a.creds.RedirectURI)
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", a.cfg.AuthURL, params.Encode())
}

func (a *FacebookAdapter) ExchangeCode(ctx context.Context, code, verifier string) (*OAuthTokens, error) {
	data := url.Values{}
	data.Set("client_id", a.creds.ClientID)
	data.Set("client_secret", a.creds.ClientSecret)
	data.Set("redirect_uri", a.creds.RedirectURI)
	data.Set("code", code)

	var tokenResponse transfer.FacebookTokenResponse
	if err := a.client.postForm(ctx, a.cfg.TokenURL, data, &tokenResponse, ErrTokenExchange); err != nil {
		return nil, err
	}
	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrTokenExchange)
	}

	longLivedURL := fmt.Sprintf(
		"%s/oauth/access_token?grant_type=fb_exchange_token&client_id=%s&client_secret=%s&fb_exchange_token=%s",
		a.cfg.APIBaseURL, a.creds.ClientID, a.creds.ClientSecret, tokenResponse.AccessToken,
	)

	var longLived transfer.FacebookTokenResponse
	if err := a.client.getJSON(ctx, longLivedURL, "", &longLived); err != nil {
		return nil, fmt.Errorf("%w: long-lived upgrade failed: %v", ErrTokenExchange, err)
	}

	return &OAuthTokens{
		AccessToken:  longLived.AccessToken,
		RefreshToken: longLived.AccessToken,
		ExpiresAt:    GetExpiresAt(longLived.ExpiresIn),
	}, nil
}

func (a *FacebookAdapter) RefreshToken(ctx context.Context, refreshToken string) (*OAuthTokens, error) {
	refreshURL := fmt.Sprintf(
		"%s/oauth/access_token?grant_type=fb_exchange_token&client_id=%s&client_secret=%s&fb_exchange_token=%s",
		a.cfg.APIBaseURL, a.creds.ClientID, a.creds.ClientSecret, refreshToken,
	)

	var refreshed transfer.FacebookTokenResponse
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

func (a *FacebookAdapter) FetchAccountInfo(ctx context.Context, accessToken string) (*AccountInfo, error) {
	reqURL := fmt.Sprintf(
		"%s/me?fields=id,name,picture,fan_count&access_token=%s",
		a.cfg.APIBaseURL, accessToken,
	)

	var userInfo transfer.FacebookUserInfo
	if err := a.client.getJSON(ctx, reqURL, "", &userInfo); err != nil {
		return nil, err
	}

	return &AccountInfo{
		PlatformUserID: userInfo.ID,
		Username:       userInfo.Name,
		DisplayName:    userInfo.Name,
		ProfilePicture: userInfo.Picture.Data.URL,
		FollowerCount:  userInfo.FanCount,
	}, nil
}

const facebookPageSize = 25

func (a *FacebookAdapter) FetchContent(ctx context.Context, accessToken string, opts FetchOptions) ([]*models.ContentItem, error) {
	after := ""

	var items []*models.ContentItem
	for {
		reqURL := fmt.Sprintf(
			"%s/me/posts?fields=id,message,permalink_url,full_picture,created_time,shares,reactions.summary(true),comments.summary(true)&limit=%d&access_token=%s",
			a.cfg.APIBaseURL, facebookPageSize, accessToken,
		)
		if after != "" {
			reqURL += "&after=" + url.QueryEscape(after)
		}

		var page transfer.FacebookPostsResponse
		if err := a.client.getJSON(ctx, reqURL, "", &page); err != nil {
			return nil, err
		}

		for _, post := range page.Data {
			item, err := a.normalizePost(post)
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

		if page.Paging.Next == "" || page.Paging.Cursors.After == "" || len(page.Data) == 0 {
			return items, nil
		}
		after = page.Paging.Cursors.After
	}
}

func (a *FacebookAdapter) FetchContentMetrics(ctx context.Context, accessToken, platformContentID string) (*models.ContentMetrics, error) {
	reqURL := fmt.Sprintf(
		"%s/%s?fields=shares,reactions.summary(true),comments.summary(true)&access_token=%s",
		a.cfg.APIBaseURL, platformContentID, accessToken,
	)

	var post transfer.FacebookPost
	if err := a.client.getJSON(ctx, reqURL, "", &post); err != nil {
		return nil, err
	}

	return &models.ContentMetrics{
		MetricDate:   time.Now().UTC().Truncate(24 * time.Hour),
		LikeCount:    post.Reactions.Summary.TotalCount,
		CommentCount: post.Comments.Summary.TotalCount,
		ShareCount:   post.Shares.Count,
	}, nil
}

func (a *FacebookAdapter) FetchAudienceDemographics(ctx context.Context, accessToken string) ([]*models.AudienceDemographic, error) {
	return nil, ErrAudienceUnsupported
}

func (a *FacebookAdapter) normalizePost(post transfer.FacebookPost) (*models.ContentItem, error) {
	publishedAt, err := time.Parse("2006-01-02T15:04:05-0700", post.CreatedTime)
	if err != nil {
		return nil, fmt.Errorf("unparseable post created_time %q: %w", post.CreatedTime, err)
	}
	publishedAt = publishedAt.UTC()

	return &models.ContentItem{
		Platform:          a.cfg.Key,
		PlatformContentID: post.ID,
		ContentType:       "post",
		Title:             post.Message,
		Description:       post.Message,
		URL:               post.PermalinkURL,
		ThumbnailURL:      post.FullPicture,
		IsSponsored:       DetectSponsorship(post.Message),
		Hashtags:          ExtractHashtags(post.Message),
		PublishedAt:       &publishedAt,
	}, nil
}
