package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	config "github.com/maheshrc27/creatorsync/configs"
	"github.com/maheshrc27/creatorsync/internal/models"
	"github.com/maheshrc27/creatorsync/internal/transfer"
)

type TwitchAdapter struct {
	cfg    ProviderConfig
	creds  config.ProviderCredentials
	client *apiClient
}

func NewTwitchAdapter(creds config.ProviderCredentials) *TwitchAdapter {
	return &TwitchAdapter{
		cfg: ProviderConfig{
			Key:             "twitch",
			DisplayName:     "Twitch",
			AuthURL:         "https://id.twitch.tv/oauth2/authorize",
			TokenURL:        "https://id.twitch.tv/oauth2/token",
			APIBaseURL:      "https://api.twitch.tv/helix",
			Scopes:          []string{"user:read:email", "channel:read:subscriptions"},
			SupportsContent: true,
			SupportsMetrics: true,
		},
		creds:  creds,
		client: newAPIClient(15*time.Second, 8, 16),
	}
}

func (a *TwitchAdapter) Config() ProviderConfig { return a.cfg }

func (a *TwitchAdapter) AuthorizationURL(state, codeChallenge string) string {
	params := url.Values{}
	params.Add("client_id", a.creds.ClientID)
	params.Add("scope", strings.Join(a.cfg.Scopes, " "))
	params.Add("response_type", "code")
	params.Add("redirect_uri", a.creds.RedirectURI)
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", a.cfg.AuthURL, params.Encode())
}

func (a *TwitchAdapter) ExchangeCode(ctx context.Context, code, verifier string) (*OAuthTokens, error) {
	data := url.Values{}
	data.Set("client_id", a.creds.ClientID)
	data.Set("client_secret", a.creds.ClientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", a.creds.RedirectURI)

	var tokenResponse transfer.TwitchTokenResponse
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
		Scope:        strings.Join(tokenResponse.Scope, " "),
	}, nil
}

func (a *TwitchAdapter) RefreshToken(ctx context.Context, refreshToken string) (*OAuthTokens, error) {
	data := url.Values{}
	data.Set("client_id", a.creds.ClientID)
	data.Set("client_secret", a.creds.ClientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	var tokenResponse transfer.TwitchTokenResponse
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
		Scope:        strings.Join(tokenResponse.Scope, " "),
	}, nil
}

// getHelix sets the Client-Id header Twitch requires alongside the bearer
// token.
func (a *TwitchAdapter) getHelix(ctx context.Context, reqURL, accessToken string, out any) error {
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", a.creds.ClientID)

	resp, err := a.client.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("twitch api returned status %d", resp.StatusCode)
	}
	return decodeJSON(resp.Body, out)
}

func (a *TwitchAdapter) FetchAccountInfo(ctx context.Context, accessToken string) (*AccountInfo, error) {
	var users transfer.TwitchUsersResponse
	if err := a.getHelix(ctx, a.cfg.APIBaseURL+"/users", accessToken, &users); err != nil {
		return nil, err
	}
	if len(users.Data) == 0 {
		return nil, errors.New("no user found for authorized account")
	}
	user := users.Data[0]

	var followers transfer.TwitchFollowersResponse
	followersURL := fmt.Sprintf("%s/channels/followers?broadcaster_id=%s&first=1", a.cfg.APIBaseURL, user.ID)
	if err := a.getHelix(ctx, followersURL, accessToken, &followers); err != nil {
		return nil, err
	}

	return &AccountInfo{
		PlatformUserID: user.ID,
		Username:       user.Login,
		DisplayName:    user.DisplayName,
		ProfilePicture: user.ProfileImageURL,
		FollowerCount:  followers.Total,
		IsVerified:     user.BroadcasterType == "partner",
	}, nil
}

const twitchPageSize = 20

func (a *TwitchAdapter) FetchContent(ctx context.Context, accessToken string, opts FetchOptions) ([]*models.ContentItem, error) {
	var users transfer.TwitchUsersResponse
	if err := a.getHelix(ctx, a.cfg.APIBaseURL+"/users", accessToken, &users); err != nil {
		return nil, err
	}
	if len(users.Data) == 0 {
		return nil, errors.New("no user found for authorized account")
	}
	userID := users.Data[0].ID

	var items []*models.ContentItem
	cursor := ""

	for {
		reqURL := fmt.Sprintf("%s/videos?user_id=%s&first=%d", a.cfg.APIBaseURL, userID, twitchPageSize)
		if cursor != "" {
			reqURL += "&after=" + url.QueryEscape(cursor)
		}

		var page transfer.TwitchVideosResponse
		if err := a.getHelix(ctx, reqURL, accessToken, &page); err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			return items, nil
		}

		for _, video := range page.Data {
			item, err := a.normalizeVideo(video)
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

		if page.Pagination.Cursor == "" {
			return items, nil
		}
		cursor = page.Pagination.Cursor
	}
}

func (a *TwitchAdapter) FetchContentMetrics(ctx context.Context, accessToken, platformContentID string) (*models.ContentMetrics, error) {
	reqURL := fmt.Sprintf("%s/videos?id=%s", a.cfg.APIBaseURL, url.QueryEscape(platformContentID))

	var result transfer.TwitchVideosResponse
	if err := a.getHelix(ctx, reqURL, accessToken, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("twitch video %s not found", platformContentID)
	}

	return &models.ContentMetrics{
		MetricDate: time.Now().UTC().Truncate(24 * time.Hour),
		ViewCount:  result.Data[0].ViewCount,
	}, nil
}

func (a *TwitchAdapter) FetchAudienceDemographics(ctx context.Context, accessToken string) ([]*models.AudienceDemographic, error) {
	return nil, ErrAudienceUnsupported
}

func (a *TwitchAdapter) normalizeVideo(video transfer.TwitchVideo) (*models.ContentItem, error) {
	publishedAt, err := time.Parse(time.RFC3339, video.PublishedAt)
	if err != nil {
		return nil, fmt.Errorf("unparseable video published_at %q: %w", video.PublishedAt, err)
	}
	publishedAt = publishedAt.UTC()

	return &models.ContentItem{
		Platform:          a.cfg.Key,
		PlatformContentID: video.ID,
		ContentType:       "video",
		Title:             video.Title,
		Description:       video.Description,
		URL:               video.URL,
		ThumbnailURL:      video.ThumbnailURL,
		DurationSeconds:   parseTwitchDuration(video.Duration),
		IsSponsored:       DetectSponsorship(video.Title + " " + video.Description),
		Hashtags:          ExtractHashtags(video.Description),
		PublishedAt:       &publishedAt,
	}, nil
}

// parseTwitchDuration handles the "1h2m3s" form the videos endpoint uses.
func parseTwitchDuration(duration string) int {
	total := 0
	num := ""
	for _, r := range duration {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'h' || r == 'm' || r == 's':
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0
			}
			switch r {
			case 'h':
				total += n * 3600
			case 'm':
				total += n * 60
			case 's':
				total += n
			}
			num = ""
		default:
			return 0
		}
	}
	return total
}
