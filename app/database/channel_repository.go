package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ ChannelRepository = (*ChannelRepo)(nil)

type ChannelRepo struct {
	db *DB
}

func NewChannelRepository(db *DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

const channelColumns = `id, title, url, avatar_url, subscriber_count, created_at,
	last_refreshed_at, last_error, delta_total_views, delta_avg_views,
	delta_median_views, delta_top_video_views, delta_total_likes, delta_total_comments`

func (r *ChannelRepo) GetChannel(id int64) (*Channel, error) {
	row := r.db.QueryRow(`SELECT `+channelColumns+` FROM channels WHERE id = ?`, id)
	return scanChannel(row)
}

func (r *ChannelRepo) GetChannelByURL(url string) (*Channel, error) {
	row := r.db.QueryRow(`SELECT `+channelColumns+` FROM channels WHERE url = ?`, url)
	return scanChannel(row)
}

func (r *ChannelRepo) ListChannels() ([]Channel, error) {
	rows, err := r.db.Query(`SELECT ` + channelColumns + ` FROM channels ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		channel, err := scanChannelRow(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *channel)
	}
	return channels, rows.Err()
}

func (r *ChannelRepo) CreateChannel(title, url string) (*Channel, error) {
	result, err := r.db.Exec(`
		INSERT INTO channels (title, url, created_at)
		VALUES (?, ?, ?)
	`, title, url, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read channel id: %w", err)
	}
	return r.GetChannel(id)
}

func (r *ChannelRepo) DeleteChannel(id int64) error {
	// Videos and snapshots are removed via ON DELETE CASCADE.
	_, err := r.db.Exec(`DELETE FROM channels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

func (r *ChannelRepo) SetLastError(id int64, message string) error {
	_, err := r.db.Exec(`UPDATE channels SET last_error = ? WHERE id = ?`, message, id)
	if err != nil {
		return fmt.Errorf("failed to record channel error: %w", err)
	}
	return nil
}

// CommitRefresh applies a successful refresh in a single transaction: the
// channel's video rows are fully replaced by the reconciled set, channel
// fields and deltas are updated, and a snapshot is recorded unless the latest
// one is younger than 24 hours. Any failure rolls everything back.
func (r *ChannelRepo) CommitRefresh(channelID int64, update ChannelUpdate, videos []Video, snapshot ChannelSnapshot) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin refresh transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE channels SET
			title = COALESCE(?, title),
			url = COALESCE(?, url),
			avatar_url = COALESCE(?, avatar_url),
			subscriber_count = COALESCE(?, subscriber_count),
			last_refreshed_at = ?,
			last_error = NULL,
			delta_total_views = ?,
			delta_avg_views = ?,
			delta_median_views = ?,
			delta_top_video_views = ?,
			delta_total_likes = ?,
			delta_total_comments = ?
		WHERE id = ?
	`, update.Title, update.URL, update.AvatarURL, update.SubscriberCount,
		update.LastRefreshedAt,
		update.DeltaTotalViews, update.DeltaAvgViews, update.DeltaMedianViews,
		update.DeltaTopVideoViews, update.DeltaTotalLikes, update.DeltaTotalComments,
		channelID)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM videos WHERE channel_id = ?`, channelID); err != nil {
		return fmt.Errorf("failed to clear channel videos: %w", err)
	}

	for _, video := range videos {
		_, err := tx.Exec(`
			INSERT INTO videos (
				channel_id, title, url, upload_date, duration_seconds,
				view_count, like_count, comment_count,
				view_delta, like_delta, comment_delta,
				thumbnail_url, extracted_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, channelID, video.Title, video.URL, video.UploadDate, video.DurationSeconds,
			video.ViewCount, video.LikeCount, video.CommentCount,
			video.ViewDelta, video.LikeDelta, video.CommentDelta,
			video.ThumbnailURL, video.ExtractedAt)
		if err != nil {
			return fmt.Errorf("failed to insert video: %w", err)
		}
	}

	if err := recordSnapshotTx(tx, channelID, snapshot); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit refresh: %w", err)
	}
	return nil
}

func scanChannel(row *sql.Row) (*Channel, error) {
	channel, err := scanChannelFrom(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return channel, err
}

func scanChannelRow(rows *sql.Rows) (*Channel, error) {
	return scanChannelFrom(rows.Scan)
}

func scanChannelFrom(scan func(dest ...any) error) (*Channel, error) {
	var channel Channel
	var avatarURL, lastError sql.NullString
	var subscriberCount sql.NullInt64
	var lastRefreshedAt sql.NullTime
	var dTotal, dAvg, dMedian, dTop, dLikes, dComments sql.NullInt64

	err := scan(
		&channel.ID, &channel.Title, &channel.URL, &avatarURL, &subscriberCount,
		&channel.CreatedAt, &lastRefreshedAt, &lastError,
		&dTotal, &dAvg, &dMedian, &dTop, &dLikes, &dComments,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan channel: %w", err)
	}

	channel.AvatarURL = nullableString(avatarURL)
	channel.LastError = nullableString(lastError)
	channel.SubscriberCount = nullableInt(subscriberCount)
	channel.LastRefreshedAt = nullableTime(lastRefreshedAt)
	channel.DeltaTotalViews = nullableInt(dTotal)
	channel.DeltaAvgViews = nullableInt(dAvg)
	channel.DeltaMedianViews = nullableInt(dMedian)
	channel.DeltaTopVideoViews = nullableInt(dTop)
	channel.DeltaTotalLikes = nullableInt(dLikes)
	channel.DeltaTotalComments = nullableInt(dComments)
	return &channel, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
