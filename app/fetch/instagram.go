package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// igAppID is the web app id Instagram's own frontend sends. Requests without
// it get an HTML login wall instead of JSON.
const igAppID = "936619743392459"

// Path segments that are content pages, not profile usernames.
var igReservedSegments = map[string]bool{
	"p": true, "reel": true, "reels": true, "tv": true,
	"stories": true, "explore": true, "accounts": true,
}

type igFeedResp struct {
	Status string    `json:"status"`
	User   *igUser   `json:"user"`
	Items  []igMedia `json:"items"`
}

type igUser struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	ProfilePicURL string `json:"profile_pic_url"`
	FollowerCount *int64 `json:"follower_count"`
}

type igMedia struct {
	Code          string   `json:"code"`
	MediaType     int      `json:"media_type"`
	ProductType   string   `json:"product_type"`
	TakenAt       *int64   `json:"taken_at"`
	PlayCount     *int64   `json:"play_count"`
	ViewCount     *int64   `json:"view_count"`
	LikeCount     *int64   `json:"like_count"`
	CommentCount  *int64   `json:"comment_count"`
	VideoDuration *float64 `json:"video_duration"`
	Caption       *struct {
		Text string `json:"text"`
	} `json:"caption"`
	ImageVersions2 *struct {
		Candidates []thumbnail `json:"candidates"`
	} `json:"image_versions2"`
	ClipsMetadata map[string]any `json:"clips_metadata"`
}

// FetchInstagram pulls a profile's recent reels through the private feed
// endpoint. Requires a logged-in cookie jar; without one Instagram answers
// with a login redirect.
func (c *Client) FetchInstagram(ctx context.Context, channelURL, cookieFile string, maxVideos int) (*ChannelPayload, error) {
	username, err := instagramUsername(channelURL)
	if err != nil {
		return nil, err
	}

	jar, err := loadCookieJar(cookieFile)
	if err != nil {
		return nil, err
	}

	feedURL := fmt.Sprintf("https://www.instagram.com/api/v1/feed/user/%s/username/?count=%d", url.PathEscape(username), 2*maxVideos)
	headers := map[string]string{
		"x-ig-app-id":      igAppID,
		"Accept":           "application/json",
		"X-Requested-With": "XMLHttpRequest",
		"Referer":          "https://www.instagram.com/" + username + "/",
	}

	feed, err := retryDo(ctx, transientRetry, func() (*igFeedResp, error) {
		var resp igFeedResp
		if err := c.getJSON(ctx, feedURL, headers, jar, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		if status, ok := statusCodeOf(err); ok {
			switch status {
			case 429:
				return nil, wrapError(KindRateLimited, err, "rate limited by Instagram")
			case 401, 403:
				return nil, wrapError(KindRejected, err, "Instagram rejected the session, cookies may have expired")
			case 404:
				return nil, wrapError(KindRejected, err, "profile %q does not exist", username)
			}
		}
		return nil, err
	}
	if feed.Status != "" && feed.Status != "ok" {
		return nil, newError(KindRejected, "Instagram returned status %q", feed.Status)
	}

	payload := &ChannelPayload{
		Title: "@" + username,
		URL:   "https://www.instagram.com/" + username + "/",
	}
	if feed.User != nil {
		if feed.User.FullName != "" {
			payload.Title = feed.User.FullName
		}
		payload.AvatarURL = NormalizeMediaURL(feed.User.ProfilePicURL)
		payload.SubscriberCount = feed.User.FollowerCount
	}

	for _, media := range feed.Items {
		if len(payload.Videos) >= maxVideos {
			break
		}
		if !media.isReel() {
			continue
		}
		payload.Videos = append(payload.Videos, media.toVideo())
	}
	if len(payload.Videos) == 0 {
		return nil, newError(KindNoData, "profile %q has no reels", username)
	}
	return payload, nil
}

// instagramUsername extracts the profile username from a URL, rejecting
// content-page paths like /reel/<code> that carry no profile.
func instagramUsername(channelURL string) (string, error) {
	parsed, err := url.Parse(channelURL)
	if err != nil {
		return "", wrapError(KindValidation, err, "invalid Instagram URL %q", channelURL)
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", newError(KindValidation, "no username in Instagram URL %q", channelURL)
	}
	username := strings.TrimPrefix(segments[0], "@")
	if igReservedSegments[strings.ToLower(username)] {
		return "", newError(KindValidation, "%q is a content link, not a profile", channelURL)
	}
	return username, nil
}

func (m *igMedia) isReel() bool {
	return m.MediaType == 2 || m.ProductType == "clips" || len(m.ClipsMetadata) > 0
}

func (m *igMedia) toVideo() VideoPayload {
	video := VideoPayload{
		URL:          "https://www.instagram.com/reel/" + m.Code + "/",
		LikeCount:    m.LikeCount,
		CommentCount: m.CommentCount,
	}

	video.Title = "Reel " + m.Code
	if m.Caption != nil {
		if caption := strings.TrimSpace(m.Caption.Text); caption != "" {
			video.Title = truncateRunes(caption, 80)
		}
	}

	if m.TakenAt != nil {
		takenAt := time.Unix(*m.TakenAt, 0).UTC()
		video.UploadDate = &takenAt
	}
	if m.PlayCount != nil {
		video.ViewCount = m.PlayCount
	} else {
		video.ViewCount = m.ViewCount
	}
	if m.VideoDuration != nil {
		video.DurationSeconds = int64Ptr(int64(*m.VideoDuration))
	}
	if m.ImageVersions2 != nil && len(m.ImageVersions2.Candidates) > 0 {
		video.ThumbnailURL = NormalizeMediaURL(m.ImageVersions2.Candidates[0].URL)
	}
	return video
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
