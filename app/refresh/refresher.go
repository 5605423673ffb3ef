// Package refresh drives channel refreshes: the per-channel state machine
// and the background batch jobs that run it.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/okatenko/channelpulse/app/analytics"
	"github.com/okatenko/channelpulse/app/database"
	"github.com/okatenko/channelpulse/app/fetch"
	"github.com/okatenko/channelpulse/app/platform"
)

// Outcome buckets one channel refresh for job accounting.
type Outcome int

const (
	OutcomeRefreshed Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRefreshed:
		return "refreshed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result is the terminal report of one channel refresh.
type Result struct {
	Outcome      Outcome
	Message      string
	ChannelTitle string
}

// Fetcher is the slice of the fetch orchestrator the refresher needs.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.ChannelPayload, platform.Platform, error)
}

// Refresher runs the per-channel refresh state machine: cache check, fetch,
// reconcile, aggregate, one-transaction persist.
type Refresher struct {
	channels database.ChannelRepository
	videos   database.VideoRepository
	fetcher  Fetcher
	interval time.Duration
	now      func() time.Time
}

func NewRefresher(channels database.ChannelRepository, videos database.VideoRepository, fetcher Fetcher, interval time.Duration) *Refresher {
	return &Refresher{
		channels: channels,
		videos:   videos,
		fetcher:  fetcher,
		interval: interval,
		now:      time.Now,
	}
}

// RefreshChannel refreshes one channel. A fetch or persist failure records
// the error on the channel and never touches the stored videos.
func (r *Refresher) RefreshChannel(ctx context.Context, channelID int64, force bool) Result {
	channel, err := r.channels.GetChannel(channelID)
	if err != nil || channel == nil {
		return Result{Outcome: OutcomeFailed, Message: fmt.Sprintf("channel %d not found", channelID)}
	}

	now := r.now().UTC()
	if !force && channel.LastRefreshedAt != nil && now.Sub(*channel.LastRefreshedAt) < r.interval {
		return Result{
			Outcome:      OutcomeSkipped,
			Message:      "recently refreshed, cache still valid",
			ChannelTitle: channel.Title,
		}
	}

	payload, _, err := r.fetcher.Fetch(ctx, channel.URL)
	if err != nil {
		return r.fail(channel, err.Error())
	}

	stored, err := r.videos.GetVideos(channelID)
	if err != nil {
		return r.fail(channel, "unexpected refresh error")
	}
	if len(payload.Videos) == 0 && len(stored) > 0 {
		return r.fail(channel, fmt.Sprintf("fetch returned no videos, kept %d stored videos", len(stored)))
	}

	merged := analytics.Reconcile(analytics.IndexByURL(stored), payload.Videos, channelID, now)
	oldAggregates := analytics.ComputeAggregates(stored)
	aggregates := analytics.ComputeAggregates(merged)

	update := analytics.ComputeChannelDeltas(oldAggregates, aggregates, channel.LastRefreshedAt != nil)
	update.LastRefreshedAt = now
	if payload.Title != "" {
		update.Title = &payload.Title
	}
	if payload.URL != "" {
		update.URL = &payload.URL
	}
	update.AvatarURL = payload.AvatarURL
	update.SubscriberCount = payload.SubscriberCount

	subscriberCount := payload.SubscriberCount
	if subscriberCount == nil {
		subscriberCount = channel.SubscriberCount
	}
	snapshot := database.ChannelSnapshot{
		ChannelID:       channelID,
		CapturedAt:      now,
		TotalViews:      aggregates.TotalViews,
		TotalLikes:      aggregates.TotalLikes,
		TotalComments:   aggregates.TotalComments,
		SubscriberCount: subscriberCount,
	}

	if err := r.channels.CommitRefresh(channelID, update, merged, snapshot); err != nil {
		slog.Error("Failed to persist refresh", "channel_id", channelID, "error", err)
		return r.fail(channel, "unexpected refresh error")
	}

	slog.Info("Channel refreshed", "channel_id", channelID, "title", channel.Title, "videos", len(merged))
	return Result{
		Outcome:      OutcomeRefreshed,
		Message:      fmt.Sprintf("refreshed %d videos", len(merged)),
		ChannelTitle: channel.Title,
	}
}

func (r *Refresher) fail(channel *database.Channel, message string) Result {
	slog.Warn("Channel refresh failed", "channel_id", channel.ID, "title", channel.Title, "error", message)
	if err := r.channels.SetLastError(channel.ID, message); err != nil {
		slog.Error("Failed to record channel error", "channel_id", channel.ID, "error", err)
	}
	return Result{Outcome: OutcomeFailed, Message: message, ChannelTitle: channel.Title}
}
