package database

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }

func TestChannelRepo_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewChannelRepository(db)

	channel, err := repo.CreateChannel("Pending refresh", "https://www.youtube.com/@somehandle")
	if err != nil {
		t.Fatalf("CreateChannel failed: %v", err)
	}
	if channel.ID == 0 {
		t.Error("Expected a non-zero channel id")
	}
	if channel.LastRefreshedAt != nil {
		t.Error("New channel should have no last_refreshed_at")
	}
	if channel.DeltaTotalViews != nil {
		t.Error("New channel should have NULL delta fields")
	}

	byURL, err := repo.GetChannelByURL("https://www.youtube.com/@somehandle")
	if err != nil {
		t.Fatalf("GetChannelByURL failed: %v", err)
	}
	if byURL == nil || byURL.ID != channel.ID {
		t.Error("GetChannelByURL should find the created channel")
	}

	missing, err := repo.GetChannel(9999)
	if err != nil {
		t.Fatalf("GetChannel failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown channel id")
	}
}

func TestChannelRepo_DuplicateURLRejected(t *testing.T) {
	db := openTestDB(t)
	repo := NewChannelRepository(db)

	if _, err := repo.CreateChannel("First", "https://www.tiktok.com/@someuser"); err != nil {
		t.Fatalf("CreateChannel failed: %v", err)
	}
	if _, err := repo.CreateChannel("Second", "https://www.tiktok.com/@someuser"); err == nil {
		t.Error("Expected unique constraint violation for duplicate URL")
	}
}

func TestChannelRepo_CommitRefreshReplacesVideos(t *testing.T) {
	db := openTestDB(t)
	channels := NewChannelRepository(db)
	videos := NewVideoRepository(db)

	channel, err := channels.CreateChannel("Pending refresh", "https://www.youtube.com/@somehandle")
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	first := []Video{
		{ChannelID: channel.ID, Title: "Old video", URL: "https://example.com/v1", ViewCount: int64Ptr(100), ExtractedAt: now},
		{ChannelID: channel.ID, Title: "Stale video", URL: "https://example.com/v2", ViewCount: int64Ptr(50), ExtractedAt: now},
	}
	update := ChannelUpdate{
		Title:           strPtr("Some Channel"),
		SubscriberCount: int64Ptr(1000),
		LastRefreshedAt: now,
	}
	snapshot := ChannelSnapshot{ChannelID: channel.ID, CapturedAt: now, TotalViews: 150}

	if err := channels.CommitRefresh(channel.ID, update, first, snapshot); err != nil {
		t.Fatalf("CommitRefresh failed: %v", err)
	}

	second := []Video{
		{ChannelID: channel.ID, Title: "New video", URL: "https://example.com/v3", ViewCount: int64Ptr(10), ExtractedAt: now},
	}
	if err := channels.CommitRefresh(channel.ID, update, second, snapshot); err != nil {
		t.Fatalf("Second CommitRefresh failed: %v", err)
	}

	stored, err := videos.GetVideos(channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("Expected the video set to be fully replaced, got %d rows", len(stored))
	}
	if stored[0].URL != "https://example.com/v3" {
		t.Errorf("Expected replacement video, got %s", stored[0].URL)
	}

	refreshed, err := channels.GetChannel(channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.Title != "Some Channel" {
		t.Errorf("Expected channel title update, got %q", refreshed.Title)
	}
	if refreshed.SubscriberCount == nil || *refreshed.SubscriberCount != 1000 {
		t.Error("Expected subscriber count update")
	}
	if refreshed.LastError != nil {
		t.Error("CommitRefresh should clear last_error")
	}
}

func TestChannelRepo_CommitRefreshKeepsFieldsOnNil(t *testing.T) {
	db := openTestDB(t)
	channels := NewChannelRepository(db)

	channel, err := channels.CreateChannel("Known title", "https://www.youtube.com/@somehandle")
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	update := ChannelUpdate{LastRefreshedAt: now} // all optional fields nil
	snapshot := ChannelSnapshot{ChannelID: channel.ID, CapturedAt: now}

	if err := channels.CommitRefresh(channel.ID, update, nil, snapshot); err != nil {
		t.Fatal(err)
	}

	refreshed, err := channels.GetChannel(channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.Title != "Known title" {
		t.Errorf("Nil title should keep the stored value, got %q", refreshed.Title)
	}
	if refreshed.URL != "https://www.youtube.com/@somehandle" {
		t.Errorf("Nil url should keep the stored value, got %q", refreshed.URL)
	}
}

func TestSnapshotRepo_ThrottlesWithin24h(t *testing.T) {
	db := openTestDB(t)
	channels := NewChannelRepository(db)
	snapshots := NewSnapshotRepository(db)

	channel, err := channels.CreateChannel("Some Channel", "https://www.youtube.com/@somehandle")
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	if err := snapshots.RecordSnapshot(channel.ID, 100, 10, 1, nil, now); err != nil {
		t.Fatal(err)
	}
	if err := snapshots.RecordSnapshot(channel.ID, 200, 20, 2, nil, now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	latest, err := snapshots.GetLatest(channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.TotalViews != 100 {
		t.Error("Second snapshot within 24h should have been dropped")
	}

	if err := snapshots.RecordSnapshot(channel.ID, 300, 30, 3, int64Ptr(5000), now.Add(25*time.Hour)); err != nil {
		t.Fatal(err)
	}
	latest, err = snapshots.GetLatest(channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.TotalViews != 300 {
		t.Error("Snapshot after 24h should have been recorded")
	}
}

func TestSnapshotRepo_GetBaseline(t *testing.T) {
	db := openTestDB(t)
	channels := NewChannelRepository(db)
	snapshots := NewSnapshotRepository(db)

	channel, err := channels.CreateChannel("Some Channel", "https://www.youtube.com/@somehandle")
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	if err := snapshots.RecordSnapshot(channel.ID, 100, 0, 0, nil, now.Add(-48*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := snapshots.RecordSnapshot(channel.ID, 200, 0, 0, nil, now); err != nil {
		t.Fatal(err)
	}

	baseline, err := snapshots.GetBaseline(channel.ID, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if baseline == nil || baseline.TotalViews != 100 {
		t.Error("Baseline should be the snapshot at or before now-24h")
	}

	none, err := snapshots.GetBaseline(channel.ID, now.Add(-72*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Error("Expected no baseline before the first snapshot")
	}
}
