package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/maheshrc27/creatorsync/configs"
	"github.com/maheshrc27/creatorsync/internal/transfer"
)

func testTwitchAdapter() *TwitchAdapter {
	return NewTwitchAdapter(config.ProviderCredentials{
		ClientID:     "twitch-client",
		ClientSecret: "twitch-secret",
		RedirectURI:  "https://app.example.com/callback",
	})
}

func TestTwitchFetchContentPaginates(t *testing.T) {
	published := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Client-Id"); got != "twitch-client" {
			t.Errorf("Client-Id header = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization header = %q", got)
		}

		switch r.URL.Path {
		case "/users":
			json.NewEncoder(w).Encode(transfer.TwitchUsersResponse{
				Data: []transfer.TwitchUser{{ID: "u1", Login: "streamer"}},
			})
		case "/videos":
			var resp transfer.TwitchVideosResponse
			if r.URL.Query().Get("after") == "" {
				resp.Data = []transfer.TwitchVideo{
					{ID: "vod1", Title: "First", PublishedAt: published, Duration: "1h2m3s"},
				}
				resp.Pagination.Cursor = "next-page"
			} else {
				resp.Data = []transfer.TwitchVideo{
					{ID: "vod2", Title: "Second", PublishedAt: published, Duration: "45s"},
				}
			}
			json.NewEncoder(w).Encode(resp)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	a := testTwitchAdapter()
	a.cfg.APIBaseURL = srv.URL

	items, err := a.FetchContent(context.Background(), "token", FetchOptions{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].PlatformContentID != "vod1" || items[1].PlatformContentID != "vod2" {
		t.Errorf("unexpected ids %s, %s", items[0].PlatformContentID, items[1].PlatformContentID)
	}
	if items[0].DurationSeconds != 3723 {
		t.Errorf("duration = %d, want 3723", items[0].DurationSeconds)
	}
}

func TestTwitchFetchAccountInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users":
			json.NewEncoder(w).Encode(transfer.TwitchUsersResponse{
				Data: []transfer.TwitchUser{{
					ID:              "123",
					Login:           "streamer",
					DisplayName:     "Streamer",
					BroadcasterType: "partner",
				}},
			})
		case "/channels/followers":
			json.NewEncoder(w).Encode(transfer.TwitchFollowersResponse{Total: 5000})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	a := testTwitchAdapter()
	a.cfg.APIBaseURL = srv.URL

	info, err := a.FetchAccountInfo(context.Background(), "token")
	if err != nil {
		t.Fatalf("fetch account info: %v", err)
	}
	if info.PlatformUserID != "123" || info.Username != "streamer" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.FollowerCount != 5000 {
		t.Errorf("follower count = %d", info.FollowerCount)
	}
	if !info.IsVerified {
		t.Error("partner broadcaster should be verified")
	}
}

func TestTwitchAudienceUnsupported(t *testing.T) {
	a := testTwitchAdapter()
	_, err := a.FetchAudienceDemographics(context.Background(), "token")
	if !errors.Is(err, ErrAudienceUnsupported) {
		t.Fatalf("expected ErrAudienceUnsupported, got %v", err)
	}
}

func TestParseTwitchDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1h2m3s", 3723},
		{"45s", 45},
		{"10m", 600},
		{"", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		if got := parseTwitchDuration(tt.in); got != tt.want {
			t.Errorf("parseTwitchDuration(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
