package database

import (
	"time"
)

type ChannelRepository interface {
	GetChannel(id int64) (*Channel, error)
	GetChannelByURL(url string) (*Channel, error)
	ListChannels() ([]Channel, error)
	CreateChannel(title, url string) (*Channel, error)
	DeleteChannel(id int64) error
	SetLastError(id int64, message string) error

	// CommitRefresh atomically replaces the channel's video set, applies the
	// channel update and records a throttled snapshot. Either everything
	// becomes visible or nothing does.
	CommitRefresh(channelID int64, update ChannelUpdate, videos []Video, snapshot ChannelSnapshot) error
}

type VideoRepository interface {
	GetVideos(channelID int64) ([]Video, error)
	GetVideosSorted(channelID int64, sortKey, order string) ([]Video, error)
	GetVideoCount(channelID int64) (int, error)
}

type SnapshotRepository interface {
	// RecordSnapshot inserts a totals point unless the channel's latest
	// snapshot is younger than 24 hours.
	RecordSnapshot(channelID int64, totalViews, totalLikes, totalComments int64, subscriberCount *int64, now time.Time) error

	// GetBaseline returns the most recent snapshot captured at or before the
	// given time, or nil if none exists.
	GetBaseline(channelID int64, before time.Time) (*ChannelSnapshot, error)

	GetLatest(channelID int64) (*ChannelSnapshot, error)
}
