package fetch

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var unicodeEscapePattern = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)

// NormalizeMediaURL cleans a media URL as upstreams return it: JSON-escaped
// unicode and backslash sequences are decoded, protocol-relative URLs are
// upgraded to https, and anything that is not http(s) is rejected. Returns
// nil when the value is unusable.
func NormalizeMediaURL(raw string) *string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	// Some platforms hand back still-escaped JSON string values,
	// e.g. "https://example.com" or "https:\/\/example.com".
	var decoded string
	if err := json.Unmarshal([]byte(`"`+value+`"`), &decoded); err == nil {
		value = decoded
	} else {
		value = strings.ReplaceAll(value, `\/`, "/")
		value = unicodeEscapePattern.ReplaceAllStringFunc(value, func(match string) string {
			code, err := strconv.ParseUint(match[2:], 16, 32)
			if err != nil {
				return match
			}
			return string(rune(code))
		})
	}

	if value == "" {
		return nil
	}
	if strings.HasPrefix(value, "//") {
		value = "https:" + value
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return nil
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil
	}
	return &value
}

// pickFirstURL returns the first value that normalizes to a usable URL.
func pickFirstURL(values ...string) *string {
	for _, value := range values {
		if normalized := NormalizeMediaURL(value); normalized != nil {
			return normalized
		}
	}
	return nil
}

// thumbnail is the common upstream thumbnail shape.
type thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// pickBestThumbnail prefers the largest thumbnail by area.
func pickBestThumbnail(thumbnails []thumbnail) *string {
	var best *string
	bestArea := -1
	for _, item := range thumbnails {
		normalized := NormalizeMediaURL(item.URL)
		if normalized == nil {
			continue
		}
		area := item.Width * item.Height
		if area > bestArea {
			bestArea = area
			best = normalized
		}
	}
	return best
}

// channelAvatar picks the best square thumbnail when one exists, otherwise
// the largest of any shape.
func channelAvatar(thumbnails []thumbnail) *string {
	if avatar := pickAvatarThumbnail(thumbnails); avatar != nil {
		return avatar
	}
	return pickBestThumbnail(thumbnails)
}

// pickAvatarThumbnail prefers the largest roughly square thumbnail. Video
// covers are usually wide, avatars square; the ratio filter keeps covers out.
func pickAvatarThumbnail(thumbnails []thumbnail) *string {
	var best *string
	bestArea := -1
	for _, item := range thumbnails {
		if item.Width <= 0 || item.Height <= 0 {
			continue
		}
		ratio := float64(item.Width) / float64(item.Height)
		if ratio < 0.8 || ratio > 1.25 {
			continue
		}
		normalized := NormalizeMediaURL(item.URL)
		if normalized == nil {
			continue
		}
		area := item.Width * item.Height
		if area > bestArea {
			bestArea = area
			best = normalized
		}
	}
	return best
}
