package api

import (
	"context"
	"time"

	"github.com/okatenko/channelpulse/app/database"
	"github.com/okatenko/channelpulse/app/refresh"
)

// RefresherInterface is the per-channel refresh entry point used by the
// synchronous endpoints.
type RefresherInterface interface {
	RefreshChannel(ctx context.Context, channelID int64, force bool) refresh.Result
}

var _ RefresherInterface = (*refresh.Refresher)(nil)

type Handler struct {
	channelRepo  database.ChannelRepository
	videoRepo    database.VideoRepository
	snapshotRepo database.SnapshotRepository
	refresher    RefresherInterface
	jobs         *refresh.JobManager
}

type channelResponse struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	DisplayTitle    string     `json:"display_title"`
	URL             string     `json:"url"`
	Platform        string     `json:"platform"`
	AvatarURL       *string    `json:"avatar_url"`
	SubscriberCount *int64     `json:"subscriber_count"`
	VideoCount      int        `json:"video_count"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
	LastError       *string    `json:"last_error"`

	TotalViews    int64 `json:"total_views"`
	AvgViews      int64 `json:"avg_views"`
	MedianViews   int64 `json:"median_views"`
	TopVideoViews int64 `json:"top_video_views"`
	TotalLikes    int64 `json:"total_likes"`
	TotalComments int64 `json:"total_comments"`

	DeltaTotalViews    *int64 `json:"delta_total_views"`
	DeltaAvgViews      *int64 `json:"delta_avg_views"`
	DeltaMedianViews   *int64 `json:"delta_median_views"`
	DeltaTopVideoViews *int64 `json:"delta_top_video_views"`
	DeltaTotalLikes    *int64 `json:"delta_total_likes"`
	DeltaTotalComments *int64 `json:"delta_total_comments"`
}

type videoResponse struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	URL             string     `json:"url"`
	UploadDate      *time.Time `json:"upload_date"`
	DurationSeconds *int64     `json:"duration_seconds"`
	ViewCount       *int64     `json:"view_count"`
	LikeCount       *int64     `json:"like_count"`
	CommentCount    *int64     `json:"comment_count"`
	ViewDelta       *int64     `json:"view_delta"`
	LikeDelta       *int64     `json:"like_delta"`
	CommentDelta    *int64     `json:"comment_delta"`
	ThumbnailURL    *string    `json:"thumbnail_url"`
	ExtractedAt     time.Time  `json:"extracted_at"`
}

type stats24hResponse struct {
	ChannelID       int64      `json:"channel_id"`
	Title           string     `json:"title"`
	Platform        string     `json:"platform"`
	HasBaseline     bool       `json:"has_baseline"`
	BaselineAt      *time.Time `json:"baseline_at,omitempty"`
	ViewsDelta      *int64     `json:"views_delta,omitempty"`
	LikesDelta      *int64     `json:"likes_delta,omitempty"`
	CommentsDelta   *int64     `json:"comments_delta,omitempty"`
	SubscriberDelta *int64     `json:"subscriber_delta,omitempty"`
}
