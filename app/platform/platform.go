// Package platform classifies channel URLs into the platforms the fetch
// adapters understand.
package platform

import (
	"net/url"
	"strings"
)

type Platform string

const (
	YouTube   Platform = "youtube"
	TikTok    Platform = "tiktok"
	Instagram Platform = "instagram"
	Twitch    Platform = "twitch"
	X         Platform = "x"
	Other     Platform = "other"
)

// Order is the canonical display order for grouped views.
var Order = []Platform{YouTube, TikTok, Instagram, Twitch, X, Other}

// Resolve classifies a channel URL by host substring. Unparseable or
// unrecognized hosts classify as Other.
func Resolve(rawURL string) Platform {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Other
	}
	host := strings.ToLower(parsed.Host)

	switch {
	case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
		return YouTube
	case strings.Contains(host, "tiktok.com"):
		return TikTok
	case strings.Contains(host, "instagram.com"):
		return Instagram
	case strings.Contains(host, "twitch.tv"):
		return Twitch
	case strings.Contains(host, "x.com"), strings.Contains(host, "twitter.com"):
		return X
	default:
		return Other
	}
}

// Rank returns the platform's position in Order, with unknown platforms last.
func Rank(p Platform) int {
	for i, known := range Order {
		if known == p {
			return i
		}
	}
	return len(Order)
}
