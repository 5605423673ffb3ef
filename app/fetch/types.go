// Package fetch acquires channel and video metadata from the supported
// platforms and maps it onto a single canonical payload shape.
package fetch

import (
	"time"
)

// VideoPayload is one fetched post/video. Everything but title and URL is
// optional; upstream surfaces routinely omit fields.
type VideoPayload struct {
	Title           string
	URL             string
	UploadDate      *time.Time
	DurationSeconds *int64
	ViewCount       *int64
	LikeCount       *int64
	CommentCount    *int64
	ThumbnailURL    *string
}

// ChannelPayload is the canonical result of one channel fetch.
type ChannelPayload struct {
	Title           string
	URL             string
	AvatarURL       *string
	SubscriberCount *int64
	Videos          []VideoPayload
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }
