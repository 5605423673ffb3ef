package analytics

import (
	"sort"
	"time"

	"github.com/okatenko/channelpulse/app/database"
)

// Aggregates are the channel-level figures derived from one video set.
type Aggregates struct {
	TotalViews    int64
	AvgViews      int64
	MedianViews   int64
	TopVideoViews int64
	TotalLikes    int64
	TotalComments int64
}

// ComputeAggregates folds a video set into channel totals. Videos without a
// view count contribute 0 to the sums but are excluded from avg, median and
// top. All divisions truncate toward zero.
func ComputeAggregates(videos []database.Video) Aggregates {
	var agg Aggregates
	var views []int64
	for _, video := range videos {
		if video.ViewCount != nil {
			agg.TotalViews += *video.ViewCount
			views = append(views, *video.ViewCount)
		}
		if video.LikeCount != nil {
			agg.TotalLikes += *video.LikeCount
		}
		if video.CommentCount != nil {
			agg.TotalComments += *video.CommentCount
		}
	}
	if len(views) == 0 {
		return agg
	}

	sort.Slice(views, func(i, j int) bool { return views[i] < views[j] })
	agg.AvgViews = agg.TotalViews / int64(len(views))
	agg.TopVideoViews = views[len(views)-1]

	mid := len(views) / 2
	if len(views)%2 == 1 {
		agg.MedianViews = views[mid]
	} else {
		agg.MedianViews = (views[mid-1] + views[mid]) / 2
	}
	return agg
}

// ComputeChannelDeltas compares two aggregate states. Without prior history
// every field stays unset, so a first refresh never reports six zeros.
func ComputeChannelDeltas(old, current Aggregates, hasPriorHistory bool) database.ChannelUpdate {
	var update database.ChannelUpdate
	if !hasPriorHistory {
		return update
	}
	update.DeltaTotalViews = deltaOf(old.TotalViews, current.TotalViews)
	update.DeltaAvgViews = deltaOf(old.AvgViews, current.AvgViews)
	update.DeltaMedianViews = deltaOf(old.MedianViews, current.MedianViews)
	update.DeltaTopVideoViews = deltaOf(old.TopVideoViews, current.TopVideoViews)
	update.DeltaTotalLikes = deltaOf(old.TotalLikes, current.TotalLikes)
	update.DeltaTotalComments = deltaOf(old.TotalComments, current.TotalComments)
	return update
}

func deltaOf(old, current int64) *int64 {
	delta := current - old
	return &delta
}

// Stats24h is one channel's change over the last day, measured against the
// most recent snapshot at least 24 hours old.
type Stats24h struct {
	ViewsDelta      int64
	LikesDelta      int64
	CommentsDelta   int64
	SubscriberDelta *int64
	BaselineAt      time.Time
}

// Compute24hDelta compares current totals against a baseline snapshot. The
// subscriber delta is reported only when both sides know the count.
func Compute24hDelta(baseline *database.ChannelSnapshot, current Aggregates, currentSubscribers *int64) *Stats24h {
	if baseline == nil {
		return nil
	}
	stats := &Stats24h{
		ViewsDelta:    current.TotalViews - baseline.TotalViews,
		LikesDelta:    current.TotalLikes - baseline.TotalLikes,
		CommentsDelta: current.TotalComments - baseline.TotalComments,
		BaselineAt:    baseline.CapturedAt.UTC(),
	}
	if baseline.SubscriberCount != nil && currentSubscribers != nil {
		delta := *currentSubscribers - *baseline.SubscriberCount
		stats.SubscriberDelta = &delta
	}
	return stats
}
