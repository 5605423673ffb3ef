package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ SnapshotRepository = (*SnapshotRepo)(nil)

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

const snapshotThrottle = 24 * time.Hour

func (r *SnapshotRepo) RecordSnapshot(channelID int64, totalViews, totalLikes, totalComments int64, subscriberCount *int64, now time.Time) error {
	return recordSnapshotTx(r.db, channelID, ChannelSnapshot{
		ChannelID:       channelID,
		CapturedAt:      now,
		TotalViews:      totalViews,
		TotalLikes:      totalLikes,
		TotalComments:   totalComments,
		SubscriberCount: subscriberCount,
	})
}

func (r *SnapshotRepo) GetBaseline(channelID int64, before time.Time) (*ChannelSnapshot, error) {
	row := r.db.QueryRow(`
		SELECT id, channel_id, captured_at, total_views, total_likes, total_comments, subscriber_count
		FROM channel_snapshots
		WHERE channel_id = ? AND captured_at <= ?
		ORDER BY captured_at DESC, id DESC
		LIMIT 1
	`, channelID, before)
	return scanSnapshot(row)
}

func (r *SnapshotRepo) GetLatest(channelID int64) (*ChannelSnapshot, error) {
	row := r.db.QueryRow(`
		SELECT id, channel_id, captured_at, total_views, total_likes, total_comments, subscriber_count
		FROM channel_snapshots
		WHERE channel_id = ?
		ORDER BY captured_at DESC, id DESC
		LIMIT 1
	`, channelID)
	return scanSnapshot(row)
}

// queryExecer is satisfied by both *sql.Tx and *DB so snapshot throttling
// behaves identically inside and outside the refresh transaction.
type queryExecer interface {
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

func recordSnapshotTx(q queryExecer, channelID int64, snapshot ChannelSnapshot) error {
	var latest sql.NullTime
	err := q.QueryRow(`
		SELECT captured_at FROM channel_snapshots
		WHERE channel_id = ?
		ORDER BY captured_at DESC, id DESC
		LIMIT 1
	`, channelID).Scan(&latest)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read latest snapshot: %w", err)
	}

	if latest.Valid && snapshot.CapturedAt.Sub(latest.Time) < snapshotThrottle {
		return nil
	}

	_, err = q.Exec(`
		INSERT INTO channel_snapshots (channel_id, captured_at, total_views, total_likes, total_comments, subscriber_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, channelID, snapshot.CapturedAt, snapshot.TotalViews, snapshot.TotalLikes, snapshot.TotalComments, snapshot.SubscriberCount)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

func scanSnapshot(row *sql.Row) (*ChannelSnapshot, error) {
	var snapshot ChannelSnapshot
	var subscriberCount sql.NullInt64

	err := row.Scan(
		&snapshot.ID, &snapshot.ChannelID, &snapshot.CapturedAt,
		&snapshot.TotalViews, &snapshot.TotalLikes, &snapshot.TotalComments,
		&subscriberCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snapshot.SubscriberCount = nullableInt(subscriberCount)
	return &snapshot, nil
}
