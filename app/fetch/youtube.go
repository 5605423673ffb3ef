package fetch

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

var (
	abbreviatedCountPattern = regexp.MustCompile(`^([\d.,]+)\s*([KMB]?)`)
	nonDigitPattern         = regexp.MustCompile(`[^\d]`)
	ogImagePattern          = regexp.MustCompile(`<meta\s+property="og:image"\s+content="([^"]+)"`)
)

// FetchYouTube resolves a channel URL through the Innertube API and returns
// the canonical payload. When the flat listing omits fields a per-video
// player call fills them in. A transient listing failure falls back to the
// public RSS feed so a refresh still produces recent entries.
func (c *Client) FetchYouTube(ctx context.Context, channelURL string, maxVideos int) (*ChannelPayload, error) {
	browseID, err := c.resolveBrowseID(ctx, channelURL)
	if err != nil {
		return nil, err
	}

	browse, err := retryDo(ctx, transientRetry, func() (*ytBrowseResp, error) {
		return c.ytBrowse(ctx, browseID, ytVideosTabParams)
	})
	if err != nil {
		if KindOf(err) == KindTransient {
			slog.Warn("youtube listing unavailable, falling back to RSS", "channel_url", channelURL, "error", err)
			return c.fetchYouTubeRSS(ctx, browseID, channelURL, maxVideos)
		}
		return nil, err
	}

	payload := c.youTubeChannelPayload(ctx, browse, channelURL)

	renderers := browse.videoRenderers()
	if len(renderers) == 0 {
		return nil, newError(KindNoData, "channel listing returned no videos")
	}
	for _, renderer := range renderers {
		if len(payload.Videos) >= maxVideos {
			break
		}
		if renderer.VideoID == "" {
			continue
		}
		video := videoFromRenderer(renderer)
		if needsVideoDetails(video) {
			c.fillVideoDetails(ctx, renderer.VideoID, &video)
		}
		payload.Videos = append(payload.Videos, video)
	}
	return payload, nil
}

func (c *Client) resolveBrowseID(ctx context.Context, channelURL string) (string, error) {
	resolved, err := retryDo(ctx, transientRetry, func() (*ytResolveResp, error) {
		return c.ytResolve(ctx, channelURL)
	})
	if err != nil {
		if status, ok := statusCodeOf(err); ok && status == 404 {
			return "", wrapError(KindRejected, err, "channel %q does not exist", channelURL)
		}
		return "", err
	}
	if resolved.Endpoint == nil || resolved.Endpoint.BrowseEndpoint == nil || resolved.Endpoint.BrowseEndpoint.BrowseID == "" {
		return "", newError(KindRejected, "could not resolve %q to a channel", channelURL)
	}
	return resolved.Endpoint.BrowseEndpoint.BrowseID, nil
}

func (c *Client) youTubeChannelPayload(ctx context.Context, browse *ytBrowseResp, channelURL string) *ChannelPayload {
	payload := &ChannelPayload{Title: "Unknown channel", URL: channelURL}

	if browse.Metadata != nil && browse.Metadata.ChannelMetadataRenderer != nil {
		meta := browse.Metadata.ChannelMetadataRenderer
		if meta.Title != "" {
			payload.Title = meta.Title
		}
		if canonical := pickFirstURL(meta.ChannelURL, meta.VanityURL); canonical != nil {
			payload.URL = *canonical
		}
		if meta.Avatar != nil {
			payload.AvatarURL = channelAvatar(meta.Avatar.Thumbnails)
		}
	}
	if browse.Header != nil && browse.Header.C4TabbedHeaderRenderer != nil {
		header := browse.Header.C4TabbedHeaderRenderer
		if payload.Title == "Unknown channel" && header.Title != "" {
			payload.Title = header.Title
		}
		if payload.AvatarURL == nil && header.Avatar != nil {
			payload.AvatarURL = channelAvatar(header.Avatar.Thumbnails)
		}
		payload.SubscriberCount = parseAbbreviatedCount(header.SubscriberCountText.text())
	}
	if payload.AvatarURL == nil {
		payload.AvatarURL = c.fetchProfileAvatar(ctx, payload.URL)
	}
	return payload
}

// fetchProfileAvatar scrapes og:image off the channel page. Last resort when
// the API response carried no avatar at all.
func (c *Client) fetchProfileAvatar(ctx context.Context, channelURL string) *string {
	body, err := c.get(ctx, channelURL, nil, nil)
	if err != nil {
		slog.Debug("profile avatar lookup failed", "channel_url", channelURL, "error", err)
		return nil
	}
	match := ogImagePattern.FindSubmatch(body)
	if match == nil {
		return nil
	}
	return NormalizeMediaURL(string(match[1]))
}

func videoFromRenderer(renderer ytVideoRenderer) VideoPayload {
	video := VideoPayload{
		Title: renderer.Title.text(),
		URL:   "https://www.youtube.com/watch?v=" + renderer.VideoID,
	}
	video.ViewCount = parseViewCountText(renderer.ViewCountText.text())
	video.DurationSeconds = parseDurationText(renderer.LengthText.text())
	if renderer.Thumbnail != nil {
		video.ThumbnailURL = pickBestThumbnail(renderer.Thumbnail.Thumbnails)
	}
	return video
}

// needsVideoDetails reports whether the flat listing entry is missing enough
// that a per-video lookup is worth an extra request.
func needsVideoDetails(video VideoPayload) bool {
	if video.UploadDate == nil || video.ViewCount == nil || video.ThumbnailURL == nil {
		return true
	}
	return video.LikeCount == nil && video.CommentCount == nil
}

// fillVideoDetails queries the player endpoint for one video and fills in
// whatever the flat listing left blank. Failures keep the listing values.
func (c *Client) fillVideoDetails(ctx context.Context, videoID string, video *VideoPayload) {
	player, err := c.ytPlayer(ctx, videoID)
	if err != nil {
		slog.Debug("video detail lookup failed", "video_id", videoID, "error", err)
		return
	}

	if details := player.VideoDetails; details != nil {
		if video.Title == "" && details.Title != "" {
			video.Title = details.Title
		}
		if video.ViewCount == nil {
			video.ViewCount = parseInt64(details.ViewCount)
		}
		if video.DurationSeconds == nil {
			video.DurationSeconds = parseInt64(details.LengthSeconds)
		}
		if video.ThumbnailURL == nil && details.Thumbnail != nil {
			video.ThumbnailURL = pickBestThumbnail(details.Thumbnail.Thumbnails)
		}
	}
	if player.Microformat != nil && player.Microformat.PlayerMicroformatRenderer != nil {
		micro := player.Microformat.PlayerMicroformatRenderer
		if video.UploadDate == nil {
			video.UploadDate = parseUploadDate(micro.PublishDate, micro.UploadDate)
		}
		if video.LikeCount == nil {
			video.LikeCount = parseInt64(micro.LikeCount)
		}
		if video.ThumbnailURL == nil && micro.Thumbnail != nil {
			video.ThumbnailURL = pickBestThumbnail(micro.Thumbnail.Thumbnails)
		}
	}
}

// fetchYouTubeRSS reads the channel's public feed. The feed only carries the
// latest fifteen entries with title, link, date and sometimes a view count,
// but that is enough to keep a refresh alive through an API outage.
func (c *Client) fetchYouTubeRSS(ctx context.Context, browseID, channelURL string, maxVideos int) (*ChannelPayload, error) {
	if !strings.HasPrefix(browseID, "UC") {
		return nil, newError(KindNoData, "no RSS feed for browse id %q", browseID)
	}
	feedURL := "https://www.youtube.com/feeds/videos.xml?channel_id=" + browseID

	body, err := retryDo(ctx, transientRetry, func() ([]byte, error) {
		return c.get(ctx, feedURL, nil, nil)
	})
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, wrapError(KindUnexpected, err, "failed to parse channel feed")
	}
	if len(feed.Items) == 0 {
		return nil, newError(KindNoData, "channel feed has no entries")
	}
	return youTubeFeedPayload(feed, channelURL, maxVideos), nil
}

func youTubeFeedPayload(feed *gofeed.Feed, channelURL string, maxVideos int) *ChannelPayload {
	payload := &ChannelPayload{Title: feed.Title, URL: channelURL}
	if payload.Title == "" {
		payload.Title = "Unknown channel"
	}
	if feed.Link != "" {
		if canonical := NormalizeMediaURL(feed.Link); canonical != nil {
			payload.URL = *canonical
		}
	}
	for _, item := range feed.Items {
		if len(payload.Videos) >= maxVideos {
			break
		}
		video := VideoPayload{Title: item.Title, URL: item.Link}
		if item.PublishedParsed != nil {
			published := item.PublishedParsed.UTC()
			video.UploadDate = &published
		}
		video.ViewCount = feedItemViews(item)
		if item.Image != nil && item.Image.URL != "" {
			video.ThumbnailURL = NormalizeMediaURL(item.Image.URL)
		}
		payload.Videos = append(payload.Videos, video)
	}
	return payload
}

// feedItemViews digs the media:statistics views attribute out of the feed
// extensions. Absent on some entries, so a nil result is normal.
func feedItemViews(item *gofeed.Item) *int64 {
	media, ok := item.Extensions["media"]
	if !ok {
		return nil
	}
	for _, group := range media["group"] {
		for _, community := range group.Children["community"] {
			for _, statistics := range community.Children["statistics"] {
				if views := statistics.Attrs["views"]; views != "" {
					return parseInt64(views)
				}
			}
		}
	}
	return nil
}

func parseInt64(value string) *int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

// parseViewCountText handles "12,345 views" and "No views".
func parseViewCountText(text string) *int64 {
	if text == "" {
		return nil
	}
	if strings.HasPrefix(strings.ToLower(text), "no views") {
		return int64Ptr(0)
	}
	digits := nonDigitPattern.ReplaceAllString(strings.SplitN(text, " ", 2)[0], "")
	if digits == "" {
		return nil
	}
	return parseInt64(digits)
}

// parseAbbreviatedCount handles "1.23M subscribers" style strings.
func parseAbbreviatedCount(text string) *int64 {
	match := abbreviatedCountPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return nil
	}
	number, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	switch match[2] {
	case "K":
		number *= 1_000
	case "M":
		number *= 1_000_000
	case "B":
		number *= 1_000_000_000
	}
	return int64Ptr(int64(math.Round(number)))
}

// parseDurationText handles "1:23" and "1:02:03" length labels.
func parseDurationText(text string) *int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil
	}
	var total int64
	for _, part := range parts {
		value, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil
		}
		total = total*60 + value
	}
	return &total
}

func parseUploadDate(candidates ...string) *time.Time {
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, candidate); err == nil {
				utc := parsed.UTC()
				return &utc
			}
		}
	}
	return nil
}
