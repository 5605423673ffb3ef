// Package analytics merges fetched channel data with stored history and
// computes the aggregate figures shown on the dashboard.
package analytics

import (
	"time"

	"github.com/okatenko/channelpulse/app/database"
	"github.com/okatenko/channelpulse/app/fetch"
)

const untitledVideo = "Untitled video"

// Reconcile merges freshly fetched videos with the stored set keyed by URL.
// Fresh non-null values win; null fields are backfilled from the stored video
// at the same URL. View/like/comment deltas are computed only when both the
// old and new value are known, otherwise they stay unset.
func Reconcile(existingByURL map[string]database.Video, freshVideos []fetch.VideoPayload, channelID int64, now time.Time) []database.Video {
	merged := make([]database.Video, 0, len(freshVideos))
	for _, fresh := range freshVideos {
		video := database.Video{
			ChannelID:       channelID,
			Title:           fresh.Title,
			URL:             fresh.URL,
			UploadDate:      fresh.UploadDate,
			DurationSeconds: fresh.DurationSeconds,
			ViewCount:       fresh.ViewCount,
			LikeCount:       fresh.LikeCount,
			CommentCount:    fresh.CommentCount,
			ThumbnailURL:    fresh.ThumbnailURL,
			ExtractedAt:     now,
		}

		if existing, ok := existingByURL[fresh.URL]; ok {
			if video.Title == "" {
				video.Title = existing.Title
			}
			if video.UploadDate == nil {
				video.UploadDate = existing.UploadDate
			}
			if video.DurationSeconds == nil {
				video.DurationSeconds = existing.DurationSeconds
			}
			if video.ViewCount == nil {
				video.ViewCount = existing.ViewCount
			}
			if video.LikeCount == nil {
				video.LikeCount = existing.LikeCount
			}
			if video.CommentCount == nil {
				video.CommentCount = existing.CommentCount
			}
			if video.ThumbnailURL == nil {
				video.ThumbnailURL = existing.ThumbnailURL
			}

			video.ViewDelta = countDelta(existing.ViewCount, fresh.ViewCount)
			video.LikeDelta = countDelta(existing.LikeCount, fresh.LikeCount)
			video.CommentDelta = countDelta(existing.CommentCount, fresh.CommentCount)
		}

		if video.Title == "" {
			video.Title = untitledVideo
		}
		merged = append(merged, video)
	}
	return merged
}

// countDelta is new−old, or nil when either side is unknown. A nil delta is
// meaningfully different from zero: zero means "no change", nil means "cannot
// tell".
func countDelta(old, fresh *int64) *int64 {
	if old == nil || fresh == nil {
		return nil
	}
	delta := *fresh - *old
	return &delta
}

// IndexByURL prepares the stored video set for reconciliation.
func IndexByURL(videos []database.Video) map[string]database.Video {
	byURL := make(map[string]database.Video, len(videos))
	for _, video := range videos {
		byURL[video.URL] = video
	}
	return byURL
}
