package api

import (
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okatenko/channelpulse/app/analytics"
	"github.com/okatenko/channelpulse/app/database"
	"github.com/okatenko/channelpulse/app/fetch"
	"github.com/okatenko/channelpulse/app/platform"
	"github.com/okatenko/channelpulse/app/refresh"
)

func NewHandler(channelRepo database.ChannelRepository, videoRepo database.VideoRepository,
	snapshotRepo database.SnapshotRepository, refresher RefresherInterface,
	jobs *refresh.JobManager) *Handler {
	return &Handler{
		channelRepo:  channelRepo,
		videoRepo:    videoRepo,
		snapshotRepo: snapshotRepo,
		refresher:    refresher,
		jobs:         jobs,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if channels, err := h.channelRepo.ListChannels(); err == nil {
		health["channels"] = len(channels)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListChannels(c *gin.Context) {
	channels, err := h.channelRepo.ListChannels()
	if err != nil {
		slog.Error("Database error", "operation", "list_channels", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	responses := make([]channelResponse, 0, len(channels))
	for _, channel := range channels {
		videos, err := h.videoRepo.GetVideos(channel.ID)
		if err != nil {
			slog.Error("Database error", "operation", "get_videos", "channel_id", channel.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		responses = append(responses, buildChannelResponse(channel, videos))
	}

	c.JSON(http.StatusOK, gin.H{
		"channels": responses,
		"total":    len(responses),
	})
}

type createChannelRequest struct {
	URL string `json:"url" binding:"required"`
}

func (h *Handler) CreateChannel(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must contain a url"})
		return
	}

	channelURL := fetch.NormalizeChannelURL(req.URL)
	if channelURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel URL"})
		return
	}

	if existing, err := h.channelRepo.GetChannelByURL(channelURL); err == nil && existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Channel is already tracked", "id": existing.ID})
		return
	}

	channel, err := h.channelRepo.CreateChannel(channelURL, channelURL)
	if err != nil {
		slog.Error("Failed to create channel", "url", channelURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create channel"})
		return
	}

	result := h.refresher.RefreshChannel(c.Request.Context(), channel.ID, true)

	refreshed, err := h.channelRepo.GetChannel(channel.ID)
	if err != nil || refreshed == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	videos, _ := h.videoRepo.GetVideos(channel.ID)

	c.JSON(http.StatusCreated, gin.H{
		"channel": buildChannelResponse(*refreshed, videos),
		"refresh": gin.H{
			"outcome": result.Outcome.String(),
			"message": result.Message,
		},
	})
}

func (h *Handler) DeleteChannel(c *gin.Context) {
	channelID, ok := parseChannelID(c)
	if !ok {
		return
	}

	if ok := h.channelExists(c, channelID); !ok {
		return
	}
	if err := h.channelRepo.DeleteChannel(channelID); err != nil {
		slog.Error("Failed to delete channel", "channel_id", channelID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete channel"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) GetChannelVideos(c *gin.Context) {
	channelID, ok := parseChannelID(c)
	if !ok {
		return
	}
	if ok := h.channelExists(c, channelID); !ok {
		return
	}

	sortKey := c.DefaultQuery("sort", "upload_date")
	order := c.DefaultQuery("order", "desc")
	videos, err := h.videoRepo.GetVideosSorted(channelID, sortKey, order)
	if err != nil {
		slog.Error("Database error", "operation", "get_videos", "channel_id", channelID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	responses := make([]videoResponse, 0, len(videos))
	for _, video := range videos {
		responses = append(responses, buildVideoResponse(video))
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": responses,
		"total":  len(responses),
	})
}

func (h *Handler) RefreshChannel(c *gin.Context) {
	channelID, ok := parseChannelID(c)
	if !ok {
		return
	}
	if ok := h.channelExists(c, channelID); !ok {
		return
	}

	result := h.refresher.RefreshChannel(c.Request.Context(), channelID, boolQuery(c, "force"))

	status := http.StatusOK
	if result.Outcome == refresh.OutcomeFailed {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"outcome": result.Outcome.String(),
		"message": result.Message,
	})
}

func (h *Handler) StartRefreshAll(c *gin.Context) {
	channels, err := h.channelRepo.ListChannels()
	if err != nil {
		slog.Error("Database error", "operation", "list_channels", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	channelIDs := make([]int64, 0, len(channels))
	for _, channel := range channels {
		channelIDs = append(channelIDs, channel.ID)
	}

	jobID := h.jobs.StartJob(channelIDs, boolQuery(c, "force"))
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "total": len(channelIDs)})
}

func (h *Handler) GetJob(c *gin.Context) {
	status, err := h.jobs.GetStatus(c.Param("id"))
	if err != nil {
		if errors.Is(err, refresh.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read job status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) StopJob(c *gin.Context) {
	if err := h.jobs.RequestCancel(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cancellation requested"})
}

func (h *Handler) GetStats24h(c *gin.Context) {
	channels, err := h.channelRepo.ListChannels()
	if err != nil {
		slog.Error("Database error", "operation", "list_channels", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	rows := make([]stats24hResponse, 0, len(channels))
	for _, channel := range channels {
		resolved := platform.Resolve(channel.URL)
		row := stats24hResponse{
			ChannelID: channel.ID,
			Title:     analytics.DisplayTitle(channel.Title, resolved),
			Platform:  string(resolved),
		}

		baseline, err := h.snapshotRepo.GetBaseline(channel.ID, cutoff)
		if err != nil {
			slog.Error("Database error", "operation", "get_baseline", "channel_id", channel.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		videos, err := h.videoRepo.GetVideos(channel.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		if stats := analytics.Compute24hDelta(baseline, analytics.ComputeAggregates(videos), channel.SubscriberCount); stats != nil {
			row.HasBaseline = true
			row.BaselineAt = &stats.BaselineAt
			row.ViewsDelta = &stats.ViewsDelta
			row.LikesDelta = &stats.LikesDelta
			row.CommentsDelta = &stats.CommentsDelta
			row.SubscriberDelta = stats.SubscriberDelta
		}
		rows = append(rows, row)
	}

	c.JSON(http.StatusOK, gin.H{"stats": rows, "total": len(rows)})
}

func (h *Handler) ExportCSV(c *gin.Context) {
	channels, err := h.channelRepo.ListChannels()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="channels.csv"`)

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	header := []string{
		"channel_id", "channel_title", "platform", "channel_url", "subscriber_count",
		"total_views", "avg_views", "median_views", "top_video_views", "total_likes", "total_comments",
		"video_title", "video_url", "upload_date", "view_count", "like_count", "comment_count",
	}
	if err := writer.Write(header); err != nil {
		return
	}

	for _, channel := range channels {
		videos, err := h.videoRepo.GetVideos(channel.ID)
		if err != nil {
			slog.Error("Database error", "operation", "get_videos", "channel_id", channel.ID, "error", err)
			return
		}
		aggregates := analytics.ComputeAggregates(videos)
		resolved := platform.Resolve(channel.URL)

		channelCells := []string{
			strconv.FormatInt(channel.ID, 10),
			analytics.DisplayTitle(channel.Title, resolved),
			string(resolved),
			channel.URL,
			csvInt64Ptr(channel.SubscriberCount),
			strconv.FormatInt(aggregates.TotalViews, 10),
			strconv.FormatInt(aggregates.AvgViews, 10),
			strconv.FormatInt(aggregates.MedianViews, 10),
			strconv.FormatInt(aggregates.TopVideoViews, 10),
			strconv.FormatInt(aggregates.TotalLikes, 10),
			strconv.FormatInt(aggregates.TotalComments, 10),
		}

		if len(videos) == 0 {
			record := append(append([]string{}, channelCells...), "", "", "", "", "", "")
			if err := writer.Write(record); err != nil {
				return
			}
			continue
		}
		for _, video := range videos {
			record := append(append([]string{}, channelCells...),
				video.Title,
				video.URL,
				csvTimePtr(video.UploadDate),
				csvInt64Ptr(video.ViewCount),
				csvInt64Ptr(video.LikeCount),
				csvInt64Ptr(video.CommentCount),
			)
			if err := writer.Write(record); err != nil {
				return
			}
		}
	}
}

func buildChannelResponse(channel database.Channel, videos []database.Video) channelResponse {
	aggregates := analytics.ComputeAggregates(videos)
	resolved := platform.Resolve(channel.URL)

	return channelResponse{
		ID:              channel.ID,
		Title:           channel.Title,
		DisplayTitle:    analytics.DisplayTitle(channel.Title, resolved),
		URL:             channel.URL,
		Platform:        string(resolved),
		AvatarURL:       channel.AvatarURL,
		SubscriberCount: channel.SubscriberCount,
		VideoCount:      len(videos),
		LastRefreshedAt: channel.LastRefreshedAt,
		LastError:       channel.LastError,

		TotalViews:    aggregates.TotalViews,
		AvgViews:      aggregates.AvgViews,
		MedianViews:   aggregates.MedianViews,
		TopVideoViews: aggregates.TopVideoViews,
		TotalLikes:    aggregates.TotalLikes,
		TotalComments: aggregates.TotalComments,

		DeltaTotalViews:    channel.DeltaTotalViews,
		DeltaAvgViews:      channel.DeltaAvgViews,
		DeltaMedianViews:   channel.DeltaMedianViews,
		DeltaTopVideoViews: channel.DeltaTopVideoViews,
		DeltaTotalLikes:    channel.DeltaTotalLikes,
		DeltaTotalComments: channel.DeltaTotalComments,
	}
}

func buildVideoResponse(video database.Video) videoResponse {
	return videoResponse{
		ID:              video.ID,
		Title:           video.Title,
		URL:             video.URL,
		UploadDate:      video.UploadDate,
		DurationSeconds: video.DurationSeconds,
		ViewCount:       video.ViewCount,
		LikeCount:       video.LikeCount,
		CommentCount:    video.CommentCount,
		ViewDelta:       video.ViewDelta,
		LikeDelta:       video.LikeDelta,
		CommentDelta:    video.CommentDelta,
		ThumbnailURL:    video.ThumbnailURL,
		ExtractedAt:     video.ExtractedAt,
	}
}

// channelExists answers the request itself when the channel is missing or
// the lookup fails.
func (h *Handler) channelExists(c *gin.Context, channelID int64) bool {
	channel, err := h.channelRepo.GetChannel(channelID)
	if err != nil {
		slog.Error("Database error", "operation", "get_channel", "channel_id", channelID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return false
	}
	if channel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return false
	}
	return true
}

func parseChannelID(c *gin.Context) (int64, bool) {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel id"})
		return 0, false
	}
	return channelID, true
}

func boolQuery(c *gin.Context, name string) bool {
	value := c.Query(name)
	return value == "1" || value == "true"
}

func csvInt64Ptr(value *int64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatInt(*value, 10)
}

func csvTimePtr(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
