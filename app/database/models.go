package database

import (
	"time"
)

type Channel struct {
	ID              int64
	Title           string
	URL             string // unique per channel
	AvatarURL       *string
	SubscriberCount *int64
	CreatedAt       time.Time
	LastRefreshedAt *time.Time
	LastError       *string

	// Change since the previous successful refresh. All six stay NULL until a
	// second successful refresh exists.
	DeltaTotalViews    *int64
	DeltaAvgViews      *int64
	DeltaMedianViews   *int64
	DeltaTopVideoViews *int64
	DeltaTotalLikes    *int64
	DeltaTotalComments *int64
}

type Video struct {
	ID              int64
	ChannelID       int64
	Title           string
	URL             string
	UploadDate      *time.Time
	DurationSeconds *int64
	ViewCount       *int64
	LikeCount       *int64
	CommentCount    *int64
	ViewDelta       *int64
	LikeDelta       *int64
	CommentDelta    *int64
	ThumbnailURL    *string
	ExtractedAt     time.Time
}

// ChannelSnapshot is an append-only totals record used for 24h delta
// reporting. At most one snapshot is stored per channel per rolling 24 hours.
type ChannelSnapshot struct {
	ID              int64
	ChannelID       int64
	CapturedAt      time.Time
	TotalViews      int64
	TotalLikes      int64
	TotalComments   int64
	SubscriberCount *int64
}

// ChannelUpdate carries the channel-level fields written when a refresh
// commits. Nil pointer fields keep the stored value (non-null-wins policy);
// the delta fields are written as-is, including NULLs.
type ChannelUpdate struct {
	Title           *string
	URL             *string
	AvatarURL       *string
	SubscriberCount *int64
	LastRefreshedAt time.Time

	DeltaTotalViews    *int64
	DeltaAvgViews      *int64
	DeltaMedianViews   *int64
	DeltaTopVideoViews *int64
	DeltaTotalLikes    *int64
	DeltaTotalComments *int64
}
