package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	ttSecUIDPattern   = regexp.MustCompile(`"secUid"\s*:\s*"([^"]+)"`)
	ttFollowerPattern = regexp.MustCompile(`"followerCount"\s*:\s*(\d+)`)
	ttVideoIDPattern  = regexp.MustCompile(`/video/(\d+)`)
	ttOnTikTokSuffix  = regexp.MustCompile(`\s*(\|\s*TikTok|on TikTok)\s*$`)
	ttDescPattern     = regexp.MustCompile(`"desc"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

type ttItemListResp struct {
	StatusCode int      `json:"statusCode"`
	ItemList   []ttItem `json:"itemList"`
	HasMore    bool     `json:"hasMore"`
}

type ttItem struct {
	ID         string `json:"id"`
	Desc       string `json:"desc"`
	CreateTime int64  `json:"createTime"`
	Video      *struct {
		Duration    int64  `json:"duration"`
		Cover       string `json:"cover"`
		OriginCover string `json:"originCover"`
	} `json:"video"`
	Stats *struct {
		PlayCount    *int64 `json:"playCount"`
		DiggCount    *int64 `json:"diggCount"`
		CommentCount *int64 `json:"commentCount"`
	} `json:"stats"`
	Author *struct {
		UniqueID     string `json:"uniqueId"`
		Nickname     string `json:"nickname"`
		AvatarLarger string `json:"avatarLarger"`
	} `json:"author"`
	AuthorStats *struct {
		FollowerCount *int64 `json:"followerCount"`
	} `json:"authorStats"`
}

// FetchTikTok loads a creator profile. The item_list API gives full stats
// when it cooperates; when it refuses (which it does often, and differently
// every month) the profile HTML is scraped for a degraded listing with video
// IDs and descriptions but no counts.
func (c *Client) FetchTikTok(ctx context.Context, channelURL string, maxVideos int) (*ChannelPayload, error) {
	username, err := tiktokUsername(channelURL)
	if err != nil {
		return nil, err
	}
	profileURL := "https://www.tiktok.com/@" + username

	page, err := retryDo(ctx, transientRetry, func() ([]byte, error) {
		return c.get(ctx, profileURL, nil, nil)
	})
	if err != nil {
		if status, ok := statusCodeOf(err); ok && status == 404 {
			return nil, wrapError(KindRejected, err, "profile @%s does not exist", username)
		}
		return nil, err
	}

	payload, apiErr := c.tiktokFromAPI(ctx, page, profileURL, maxVideos)
	if apiErr == nil {
		return payload, nil
	}
	if !tiktokFallbackWorthy(apiErr) {
		return nil, apiErr
	}

	slog.Warn("TikTok API refused, scraping profile page", "username", username, "error", apiErr)
	return parseTikTokProfile(page, profileURL, maxVideos)
}

// tiktokFromAPI extracts the secUid embedded in the profile page and calls
// the item_list endpoint with it.
func (c *Client) tiktokFromAPI(ctx context.Context, page []byte, profileURL string, maxVideos int) (*ChannelPayload, error) {
	match := ttSecUIDPattern.FindSubmatch(page)
	if match == nil {
		return nil, newError(KindRejected, "no secondary user id on profile page")
	}
	secUID := string(match[1])

	listURL := fmt.Sprintf("https://www.tiktok.com/api/post/item_list/?aid=1988&count=%d&secUid=%s&cursor=0", maxVideos, url.QueryEscape(secUID))
	headers := map[string]string{"Referer": profileURL}

	list, err := retryDo(ctx, transientRetry, func() (*ttItemListResp, error) {
		var resp ttItemListResp
		if err := c.getJSON(ctx, listURL, headers, nil, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		if status, ok := statusCodeOf(err); ok && status == 429 {
			return nil, wrapError(KindRateLimited, err, "rate limited by TikTok")
		}
		return nil, err
	}
	if list.StatusCode != 0 {
		return nil, newError(KindRejected, "item list refused with status %d", list.StatusCode)
	}
	if len(list.ItemList) == 0 {
		return nil, newError(KindNoData, "item list is empty")
	}

	payload := &ChannelPayload{Title: "Unknown channel", URL: profileURL}
	for index, item := range list.ItemList {
		if len(payload.Videos) >= maxVideos {
			break
		}
		if index == 0 && item.Author != nil {
			if item.Author.Nickname != "" {
				payload.Title = item.Author.Nickname
			} else if item.Author.UniqueID != "" {
				payload.Title = "@" + item.Author.UniqueID
			}
			payload.AvatarURL = NormalizeMediaURL(item.Author.AvatarLarger)
		}
		if index == 0 && item.AuthorStats != nil {
			payload.SubscriberCount = item.AuthorStats.FollowerCount
		}
		payload.Videos = append(payload.Videos, item.toVideo(profileURL))
	}
	return payload, nil
}

// tiktokFallbackWorthy reports whether the HTML scrape should be attempted.
// Validation failures and rate limits are surfaced as-is.
func tiktokFallbackWorthy(err error) bool {
	switch KindOf(err) {
	case KindRejected, KindTransient, KindNoData, KindUnexpected:
		return true
	default:
		return false
	}
}

func (item *ttItem) toVideo(profileURL string) VideoPayload {
	video := VideoPayload{
		Title: "Video " + item.ID,
		URL:   profileURL + "/video/" + item.ID,
	}
	if desc := strings.TrimSpace(item.Desc); desc != "" {
		video.Title = truncateRunes(desc, 120)
	}
	if item.CreateTime > 0 {
		created := time.Unix(item.CreateTime, 0).UTC()
		video.UploadDate = &created
	}
	if item.Video != nil {
		if item.Video.Duration > 0 {
			video.DurationSeconds = int64Ptr(item.Video.Duration)
		}
		video.ThumbnailURL = pickFirstURL(item.Video.Cover, item.Video.OriginCover)
	}
	if item.Stats != nil {
		video.ViewCount = item.Stats.PlayCount
		video.LikeCount = item.Stats.DiggCount
		video.CommentCount = item.Stats.CommentCount
	}
	return video
}

// parseTikTokProfile scrapes a profile page into a degraded payload: title
// from og:title, follower count from embedded JSON, video IDs from anchors
// and descriptions matched near each ID in the page source. Counts per video
// are not recoverable from the page, so they stay nil.
func parseTikTokProfile(page []byte, profileURL string, maxVideos int) (*ChannelPayload, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, wrapError(KindUnexpected, err, "failed to parse profile page")
	}

	payload := &ChannelPayload{Title: "Unknown channel", URL: profileURL}
	if ogTitle, exists := doc.Find(`meta[property="og:title"]`).Attr("content"); exists {
		if title := strings.TrimSpace(ttOnTikTokSuffix.ReplaceAllString(ogTitle, "")); title != "" {
			payload.Title = title
		}
	}
	if ogImage, exists := doc.Find(`meta[property="og:image"]`).Attr("content"); exists {
		payload.AvatarURL = NormalizeMediaURL(ogImage)
	}
	if match := ttFollowerPattern.FindSubmatch(page); match != nil {
		payload.SubscriberCount = parseInt64(string(match[1]))
	}

	seen := make(map[string]bool)
	doc.Find(`a[href*="/video/"]`).EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		href, _ := anchor.Attr("href")
		match := ttVideoIDPattern.FindStringSubmatch(href)
		if match == nil || seen[match[1]] {
			return true
		}
		videoID := match[1]
		seen[videoID] = true

		video := VideoPayload{
			Title: "Video " + videoID,
			URL:   profileURL + "/video/" + videoID,
		}
		if desc := tiktokDescNear(page, videoID); desc != "" {
			video.Title = truncateRunes(desc, 120)
		}
		payload.Videos = append(payload.Videos, video)
		return len(payload.Videos) < maxVideos
	})

	if len(payload.Videos) == 0 {
		return nil, newError(KindNoData, "no videos found on profile page")
	}
	return payload, nil
}

// tiktokDescNear finds the desc field closest after a video id in the raw
// page JSON. The search window is bounded so an id mentioned far from its
// item block cannot pick up another video's description.
func tiktokDescNear(page []byte, videoID string) string {
	idx := bytes.Index(page, []byte(`"id":"`+videoID+`"`))
	if idx < 0 {
		return ""
	}
	window := page[idx:]
	if len(window) > 4096 {
		window = window[:4096]
	}
	match := ttDescPattern.FindSubmatch(window)
	if match == nil {
		return ""
	}
	raw := string(match[1])
	var decoded string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &decoded); err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(decoded)
}

func tiktokUsername(channelURL string) (string, error) {
	parsed, err := url.Parse(channelURL)
	if err != nil {
		return "", wrapError(KindValidation, err, "invalid TikTok URL %q", channelURL)
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", newError(KindValidation, "no username in TikTok URL %q", channelURL)
	}
	username := strings.TrimPrefix(segments[0], "@")
	if username == "" {
		return "", newError(KindValidation, "no username in TikTok URL %q", channelURL)
	}
	return username, nil
}
