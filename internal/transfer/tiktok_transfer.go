package transfer

type TiktokTokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	OpenID           string `json:"open_id"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
	TokenType        string `json:"token_type"`
}

type TiktokError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

type TiktokUserResponse struct {
	Data  TiktokUserData `json:"data"`
	Error TiktokError    `json:"error"`
}

type TiktokUserData struct {
	User TiktokUser `json:"user"`
}

type TiktokUser struct {
	OpenID        string `json:"open_id"`
	AvatarURL     string `json:"avatar_url"`
	DisplayName   string `json:"display_name"`
	Username      string `json:"username"`
	FollowerCount int64  `json:"follower_count"`
	IsVerified    bool   `json:"is_verified"`
}

type TiktokVideoListResponse struct {
	Data  TiktokVideoListData `json:"data"`
	Error TiktokError         `json:"error"`
}

type TiktokVideoListData struct {
	Videos  []TiktokVideo `json:"videos"`
	Cursor  int64         `json:"cursor"`
	HasMore bool          `json:"has_more"`
}

type TiktokVideo struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	VideoDesc    string `json:"video_description"`
	ShareURL     string `json:"share_url"`
	CoverURL     string `json:"cover_image_url"`
	Duration     int    `json:"duration"`
	CreateTime   int64  `json:"create_time"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	ShareCount   int64  `json:"share_count"`
}

type TiktokAudienceResponse struct {
	Data struct {
		AudienceCountries []TiktokAudienceSlice `json:"audience_countries"`
		AudienceGenders   []TiktokAudienceSlice `json:"audience_genders"`
	} `json:"data"`
	Error TiktokError `json:"error"`
}

type TiktokAudienceSlice struct {
	Dimension  string  `json:"dimension"`
	Percentage float64 `json:"percentage"`
}
