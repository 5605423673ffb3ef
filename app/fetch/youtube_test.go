package fetch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

func TestParseAbbreviatedCount(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		none  bool
	}{
		{"1.23M subscribers", 1_230_000, false},
		{"894K subscribers", 894_000, false},
		{"1,234 subscribers", 1234, false},
		{"2B views", 2_000_000_000, false},
		{"42", 42, false},
		{"", 0, true},
		{"subscribers", 0, true},
	}
	for _, tt := range tests {
		got := parseAbbreviatedCount(tt.input)
		if tt.none {
			if got != nil {
				t.Errorf("parseAbbreviatedCount(%q) = %d, want nil", tt.input, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("parseAbbreviatedCount(%q) = %v, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseViewCountText(t *testing.T) {
	if got := parseViewCountText("12,345 views"); got == nil || *got != 12345 {
		t.Errorf("parseViewCountText = %v, want 12345", got)
	}
	if got := parseViewCountText("No views"); got == nil || *got != 0 {
		t.Errorf("parseViewCountText(No views) = %v, want 0", got)
	}
	if got := parseViewCountText(""); got != nil {
		t.Errorf("parseViewCountText(empty) = %v, want nil", got)
	}
}

func TestParseDurationText(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		none  bool
	}{
		{"1:23", 83, false},
		{"1:02:03", 3723, false},
		{"0:59", 59, false},
		{"", 0, true},
		{"LIVE", 0, true},
	}
	for _, tt := range tests {
		got := parseDurationText(tt.input)
		if tt.none {
			if got != nil {
				t.Errorf("parseDurationText(%q) = %d, want nil", tt.input, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("parseDurationText(%q) = %v, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseUploadDate(t *testing.T) {
	got := parseUploadDate("", "2024-03-15")
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Errorf("parseUploadDate = %v, want %v", got, want)
	}
	if parseUploadDate("", "not a date") != nil {
		t.Error("unparseable dates should stay nil")
	}
}

func TestNeedsVideoDetails(t *testing.T) {
	now := time.Now()
	complete := VideoPayload{
		UploadDate:   &now,
		ViewCount:    int64Ptr(100),
		LikeCount:    int64Ptr(10),
		ThumbnailURL: strPtr("https://example.com/t.jpg"),
	}
	if needsVideoDetails(complete) {
		t.Error("a complete listing entry should not need a detail call")
	}

	noDate := complete
	noDate.UploadDate = nil
	if !needsVideoDetails(noDate) {
		t.Error("a missing upload date should trigger a detail call")
	}

	noEngagement := complete
	noEngagement.LikeCount = nil
	noEngagement.CommentCount = nil
	if !needsVideoDetails(noEngagement) {
		t.Error("missing both like and comment counts should trigger a detail call")
	}

	likeOnly := complete
	likeOnly.CommentCount = nil
	if needsVideoDetails(likeOnly) {
		t.Error("one engagement count present should be enough")
	}
}

func TestBrowseRespVideoRenderers(t *testing.T) {
	raw := `{
	  "contents": {"twoColumnBrowseResultsRenderer": {"tabs": [
	    {"tabRenderer": {"selected": true, "content": {"richGridRenderer": {"contents": [
	      {"richItemRenderer": {"content": {"videoRenderer": {
	        "videoId": "abc123",
	        "title": {"runs": [{"text": "First "}, {"text": "video"}]},
	        "viewCountText": {"simpleText": "1,024 views"},
	        "lengthText": {"simpleText": "10:01"},
	        "thumbnail": {"thumbnails": [{"url": "https://i.ytimg.com/vi/abc123/hq720.jpg", "width": 720, "height": 404}]}
	      }}}},
	      {"richItemRenderer": {"content": {}}}
	    ]}}}},
	    {"tabRenderer": {}}
	  ]}}
	}`

	var resp ytBrowseResp
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	renderers := resp.videoRenderers()
	if len(renderers) != 1 {
		t.Fatalf("got %d renderers, want 1", len(renderers))
	}

	video := videoFromRenderer(renderers[0])
	if video.Title != "First video" {
		t.Errorf("Title = %q, want runs joined", video.Title)
	}
	if video.URL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("URL = %q", video.URL)
	}
	if video.ViewCount == nil || *video.ViewCount != 1024 {
		t.Errorf("ViewCount = %v, want 1024", video.ViewCount)
	}
	if video.DurationSeconds == nil || *video.DurationSeconds != 601 {
		t.Errorf("DurationSeconds = %v, want 601", video.DurationSeconds)
	}
	if video.ThumbnailURL == nil {
		t.Error("ThumbnailURL should come from the listing thumbnail")
	}
}

func TestYouTubeFeedPayloadRespectsMaxVideos(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Some Channel</title>
  <link rel="alternate" href="https://www.youtube.com/channel/UCabc"/>
  <entry>
    <title>First</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=a"/>
    <published>2026-08-01T00:00:00+00:00</published>
  </entry>
  <entry>
    <title>Second</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=b"/>
    <published>2026-07-01T00:00:00+00:00</published>
  </entry>
  <entry>
    <title>Third</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=c"/>
    <published>2026-06-01T00:00:00+00:00</published>
  </entry>
</feed>`

	feed, err := gofeed.NewParser().ParseString(raw)
	if err != nil {
		t.Fatalf("parse feed: %v", err)
	}

	payload := youTubeFeedPayload(feed, "https://www.youtube.com/@creator", 2)
	if payload.Title != "Some Channel" {
		t.Errorf("Title = %q", payload.Title)
	}
	if len(payload.Videos) != 2 {
		t.Fatalf("got %d videos, want the configured cap of 2", len(payload.Videos))
	}
	if payload.Videos[0].Title != "First" || payload.Videos[1].Title != "Second" {
		t.Errorf("videos = %q, %q, want the newest entries kept", payload.Videos[0].Title, payload.Videos[1].Title)
	}
	if payload.Videos[0].UploadDate == nil {
		t.Error("UploadDate should come from the published element")
	}
}

func TestNormalizeChannelURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"@somecreator", "https://www.youtube.com/@somecreator"},
		{"www.youtube.com/@somecreator", "https://www.youtube.com/@somecreator"},
		{"https://www.tiktok.com/@x", "https://www.tiktok.com/@x"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeChannelURL(tt.input); got != tt.want {
			t.Errorf("NormalizeChannelURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
