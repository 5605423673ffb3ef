package database

import (
	"database/sql"
	"fmt"
)

var _ VideoRepository = (*VideoRepo)(nil)

// videoSortColumns whitelists the dashboard sort keys. Anything else falls
// back to upload date.
var videoSortColumns = map[string]string{
	"upload_date": "upload_date",
	"views":       "view_count",
	"likes":       "like_count",
	"comments":    "comment_count",
	"title":       "title",
}

type VideoRepo struct {
	db *DB
}

func NewVideoRepository(db *DB) *VideoRepo {
	return &VideoRepo{db: db}
}

func (r *VideoRepo) GetVideos(channelID int64) ([]Video, error) {
	return r.GetVideosSorted(channelID, "upload_date", "desc")
}

// GetVideosSorted returns the channel's videos ordered by a whitelisted sort
// key. NULL sort values go last either way; id breaks ties for a stable
// order.
func (r *VideoRepo) GetVideosSorted(channelID int64, sortKey, order string) ([]Video, error) {
	column, ok := videoSortColumns[sortKey]
	if !ok {
		column = "upload_date"
	}
	direction := "DESC"
	if order == "asc" {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT id, channel_id, title, url, upload_date, duration_seconds,
			view_count, like_count, comment_count,
			view_delta, like_delta, comment_delta,
			thumbnail_url, extracted_at
		FROM videos
		WHERE channel_id = ?
		ORDER BY %s IS NULL, %s %s, id DESC
	`, column, column, direction)

	rows, err := r.db.Query(query, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var video Video
		var uploadDate sql.NullTime
		var duration, viewCount, likeCount, commentCount sql.NullInt64
		var viewDelta, likeDelta, commentDelta sql.NullInt64
		var thumbnailURL sql.NullString

		err := rows.Scan(
			&video.ID, &video.ChannelID, &video.Title, &video.URL,
			&uploadDate, &duration, &viewCount, &likeCount, &commentCount,
			&viewDelta, &likeDelta, &commentDelta,
			&thumbnailURL, &video.ExtractedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}

		video.UploadDate = nullableTime(uploadDate)
		video.DurationSeconds = nullableInt(duration)
		video.ViewCount = nullableInt(viewCount)
		video.LikeCount = nullableInt(likeCount)
		video.CommentCount = nullableInt(commentCount)
		video.ViewDelta = nullableInt(viewDelta)
		video.LikeDelta = nullableInt(likeDelta)
		video.CommentDelta = nullableInt(commentDelta)
		video.ThumbnailURL = nullableString(thumbnailURL)
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

func (r *VideoRepo) GetVideoCount(channelID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM videos WHERE channel_id = ?`, channelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return count, nil
}
