package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	config "github.com/maheshrc27/creatorsync/configs"
	"github.com/maheshrc27/creatorsync/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
	"google.golang.org/api/youtubeanalytics/v2"
)

type YoutubeAdapter struct {
	cfg   ProviderConfig
	creds config.ProviderCredentials
}

func NewYoutubeAdapter(creds config.ProviderCredentials) *YoutubeAdapter {
	return &YoutubeAdapter{
		cfg: ProviderConfig{
			Key:         "youtube",
			DisplayName: "YouTube",
			AuthURL:     google.Endpoint.AuthURL,
			TokenURL:    google.Endpoint.TokenURL,
			APIBaseURL:  "https://www.googleapis.com/youtube/v3",
			Scopes: []string{
				"https://www.googleapis.com/auth/youtube.readonly",
				"https://www.googleapis.com/auth/yt-analytics.readonly",
			},
			SupportsContent:  true,
			SupportsMetrics:  true,
			SupportsAudience: true,
		},
		creds: creds,
	}
}

func (a *YoutubeAdapter) Config() ProviderConfig { return a.cfg }

func (a *YoutubeAdapter) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.creds.ClientID,
		ClientSecret: a.creds.ClientSecret,
		RedirectURL:  a.creds.RedirectURI,
		Scopes:       a.cfg.Scopes,
		Endpoint:     google.Endpoint,
	}
}

func (a *YoutubeAdapter) AuthorizationURL(state, codeChallenge string) string {
	return a.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (a *YoutubeAdapter) ExchangeCode(ctx context.Context, code, verifier string) (*OAuthTokens, error) {
	token, err := a.oauthConfig().Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		expiresAt = &expiry
	}

	return &OAuthTokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (a *YoutubeAdapter) RefreshToken(ctx context.Context, refreshToken string) (*OAuthTokens, error) {
	source := a.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}

	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		expiresAt = &expiry
	}

	return &OAuthTokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// apiHTTPClient builds the authorized client on top of a timeout-bearing
// base client so Google API calls stay bounded like the other platforms.
func (a *YoutubeAdapter) apiHTTPClient(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: 15 * time.Second})
	return a.oauthConfig().Client(ctx, &oauth2.Token{AccessToken: accessToken})
}

func (a *YoutubeAdapter) service(ctx context.Context, accessToken string) (*youtube.Service, error) {
	return youtube.NewService(ctx, option.WithHTTPClient(a.apiHTTPClient(ctx, accessToken)))
}

func (a *YoutubeAdapter) FetchAccountInfo(ctx context.Context, accessToken string) (*AccountInfo, error) {
	svc, err := a.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Channels.List([]string{"snippet", "statistics"}).Mine(true).Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, errors.New("no channel found for authorized account")
	}

	channel := resp.Items[0]
	info := &AccountInfo{
		PlatformUserID: channel.Id,
		Username:       channel.Snippet.CustomUrl,
		DisplayName:    channel.Snippet.Title,
	}
	if channel.Snippet.Thumbnails != nil && channel.Snippet.Thumbnails.Default != nil {
		info.ProfilePicture = channel.Snippet.Thumbnails.Default.Url
	}
	if channel.Statistics != nil {
		info.FollowerCount = int64(channel.Statistics.SubscriberCount)
	}
	return info, nil
}

const youtubePageSize = 50

// FetchContent walks the channel's uploads playlist page by page, then
// batches a videos.list call per page for durations and statistics.
func (a *YoutubeAdapter) FetchContent(ctx context.Context, accessToken string, opts FetchOptions) ([]*models.ContentItem, error) {
	svc, err := a.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	channels, err := svc.Channels.List([]string{"contentDetails"}).Mine(true).Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if len(channels.Items) == 0 {
		return nil, errors.New("no channel found for authorized account")
	}
	uploadsPlaylist := channels.Items[0].ContentDetails.RelatedPlaylists.Uploads

	var items []*models.ContentItem
	pageToken := ""

	for {
		page, err := svc.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(uploadsPlaylist).
			MaxResults(youtubePageSize).
			PageToken(pageToken).
			Context(ctx).Do()
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}

		videoIDs := make([]string, 0, len(page.Items))
		for _, pi := range page.Items {
			videoIDs = append(videoIDs, pi.ContentDetails.VideoId)
		}
		if len(videoIDs) == 0 {
			return items, nil
		}

		videos, err := svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
			Id(videoIDs...).
			Context(ctx).Do()
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}

		for _, video := range videos.Items {
			item := a.normalizeVideo(video)
			if opts.Since != nil && item.PublishedAt != nil && !item.PublishedAt.After(*opts.Since) {
				return items, nil
			}
			items = append(items, item)
			if opts.Limit > 0 && len(items) >= opts.Limit {
				return items, nil
			}
		}

		if page.NextPageToken == "" {
			return items, nil
		}
		pageToken = page.NextPageToken
	}
}

func (a *YoutubeAdapter) FetchContentMetrics(ctx context.Context, accessToken, platformContentID string) (*models.ContentMetrics, error) {
	svc, err := a.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Videos.List([]string{"statistics"}).Id(platformContentID).Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if len(resp.Items) == 0 || resp.Items[0].Statistics == nil {
		return nil, fmt.Errorf("youtube video %s not found", platformContentID)
	}

	stats := resp.Items[0].Statistics
	views := int64(stats.ViewCount)
	likes := int64(stats.LikeCount)
	comments := int64(stats.CommentCount)

	return &models.ContentMetrics{
		MetricDate:     time.Now().UTC().Truncate(24 * time.Hour),
		ViewCount:      views,
		LikeCount:      likes,
		CommentCount:   comments,
		EngagementRate: EngagementRate(views, likes, comments, 0),
	}, nil
}

func (a *YoutubeAdapter) FetchAudienceDemographics(ctx context.Context, accessToken string) ([]*models.AudienceDemographic, error) {
	svc, err := youtubeanalytics.NewService(ctx, option.WithHTTPClient(a.apiHTTPClient(ctx, accessToken)))
	if err != nil {
		return nil, err
	}

	end := time.Now().UTC()
	start := end.AddDate(0, -3, 0)

	result, err := svc.Reports.Query().
		Ids("channel==MINE").
		StartDate(start.Format("2006-01-02")).
		EndDate(end.Format("2006-01-02")).
		Metrics("viewerPercentage").
		Dimensions("ageGroup,gender").
		Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	var demographics []*models.AudienceDemographic
	for _, row := range result.Rows {
		if len(row) < 3 {
			continue
		}
		ageGroup, _ := row[0].(string)
		gender, _ := row[1].(string)
		percentage, _ := row[2].(float64)
		demographics = append(demographics, &models.AudienceDemographic{
			DimensionType:  "age_gender",
			DimensionValue: fmt.Sprintf("%s/%s", strings.TrimPrefix(ageGroup, "age"), strings.ToLower(gender)),
			Percentage:     percentage,
		})
	}
	return demographics, nil
}

func (a *YoutubeAdapter) normalizeVideo(video *youtube.Video) *models.ContentItem {
	item := &models.ContentItem{
		Platform:          a.cfg.Key,
		PlatformContentID: video.Id,
		ContentType:       "video",
		URL:               "https://www.youtube.com/watch?v=" + video.Id,
	}
	if video.Snippet != nil {
		item.Title = video.Snippet.Title
		item.Description = video.Snippet.Description
		item.IsSponsored = DetectSponsorship(video.Snippet.Description)
		item.Hashtags = ExtractHashtags(video.Snippet.Description)
		if video.Snippet.Thumbnails != nil && video.Snippet.Thumbnails.High != nil {
			item.ThumbnailURL = video.Snippet.Thumbnails.High.Url
		}
		if publishedAt, err := time.Parse(time.RFC3339, video.Snippet.PublishedAt); err == nil {
			publishedAt = publishedAt.UTC()
			item.PublishedAt = &publishedAt
		}
	}
	if video.ContentDetails != nil {
		item.DurationSeconds = parseISODuration(video.ContentDetails.Duration)
	}
	return item
}

// parseISODuration handles the PT#H#M#S form YouTube uses; anything
// unparseable comes back as zero.
func parseISODuration(duration string) int {
	s := strings.TrimPrefix(duration, "PT")
	if s == duration {
		return 0
	}

	total := 0
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'H' || r == 'M' || r == 'S':
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0
			}
			switch r {
			case 'H':
				total += n * 3600
			case 'M':
				total += n * 60
			case 'S':
				total += n
			}
			num = ""
		default:
			return 0
		}
	}
	return total
}
