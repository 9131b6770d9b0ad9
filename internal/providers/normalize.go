package providers

import (
	"regexp"
	"strings"
	"time"
)

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

var sponsorshipMarkers = []string{
	"#ad", "#sponsored", "#sponsor", "#partner", "#gifted",
	"paid partnership", "in partnership with", "sponsored by",
}

func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func DetectSponsorship(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range sponsorshipMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// EngagementRate is (likes+comments+shares)/views, zero-safe.
func EngagementRate(views, likes, comments, shares int64) float64 {
	if views == 0 {
		return 0
	}
	return float64(likes+comments+shares) / float64(views)
}

func GetExpiresAt(expiresIn int) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	t := time.Now().Add(time.Duration(expiresIn) * time.Second)
	return &t
}
