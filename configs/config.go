package config

import "os"

type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	Providers   map[string]ProviderCredentials
	PostgresURI string
	RedisURI    string
	FrontendURL string
	R2          R2
	SecretKey   string
	CookieName  string
}

func LoadConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCredentials{
			"youtube": {
				ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
				ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
				RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
			},
			"tiktok": {
				ClientID:     getEnv("TIKTOK_CLIENT_KEY", ""),
				ClientSecret: getEnv("TIKTOK_CLIENT_SECRET", ""),
				RedirectURI:  getEnv("TIKTOK_REDIRECT_URI", ""),
			},
			"instagram": {
				ClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
				ClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
				RedirectURI:  getEnv("INSTAGRAM_REDIRECT_URI", ""),
			},
			"facebook": {
				ClientID:     getEnv("FACEBOOK_APP_ID", ""),
				ClientSecret: getEnv("FACEBOOK_APP_SECRET", ""),
				RedirectURI:  getEnv("FACEBOOK_REDIRECT_URI", ""),
			},
			"twitch": {
				ClientID:     getEnv("TWITCH_CLIENT_ID", ""),
				ClientSecret: getEnv("TWITCH_CLIENT_SECRET", ""),
				RedirectURI:  getEnv("TWITCH_REDIRECT_URI", ""),
			},
			"twitter": {
				ClientID:     getEnv("TWITTER_CLIENT_ID", ""),
				ClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
				RedirectURI:  getEnv("TWITTER_REDIRECT_URI", ""),
			},
		},
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", ""),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", "creatorsync_session"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
