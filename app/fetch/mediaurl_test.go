package fetch

import (
	"testing"
)

func TestNormalizeMediaURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		none  bool
	}{
		{"plain https", "https://example.com/a.jpg", "https://example.com/a.jpg", false},
		{"protocol relative", "//example.com/a.jpg", "https://example.com/a.jpg", false},
		{"escaped slashes", `https:\/\/example.com\/a.jpg`, "https://example.com/a.jpg", false},
		{"unicode escape", `https://example.com/a.jpg?x=1&y=2`, "https://example.com/a.jpg?x=1&y=2", false},
		{"javascript scheme", "javascript:alert(1)", "", true},
		{"data scheme", "data:image/png;base64,AAAA", "", true},
		{"empty", "   ", "", true},
		{"relative path", "/images/a.jpg", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMediaURL(tt.input)
			if tt.none {
				if got != nil {
					t.Errorf("NormalizeMediaURL(%q) = %q, want nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("NormalizeMediaURL(%q) = nil, want %q", tt.input, tt.want)
			}
			if *got != tt.want {
				t.Errorf("NormalizeMediaURL(%q) = %q, want %q", tt.input, *got, tt.want)
			}
		})
	}
}

func TestPickBestThumbnail(t *testing.T) {
	thumbnails := []thumbnail{
		{URL: "https://example.com/small.jpg", Width: 120, Height: 90},
		{URL: "https://example.com/big.jpg", Width: 1280, Height: 720},
		{URL: "javascript:alert(1)", Width: 9999, Height: 9999},
	}
	got := pickBestThumbnail(thumbnails)
	if got == nil || *got != "https://example.com/big.jpg" {
		t.Errorf("pickBestThumbnail = %v, want big.jpg", got)
	}

	if pickBestThumbnail(nil) != nil {
		t.Error("pickBestThumbnail(nil) should be nil")
	}
}

func TestPickAvatarThumbnail(t *testing.T) {
	thumbnails := []thumbnail{
		{URL: "https://example.com/cover.jpg", Width: 1280, Height: 720},
		{URL: "https://example.com/avatar.jpg", Width: 176, Height: 176},
		{URL: "https://example.com/avatar-big.jpg", Width: 800, Height: 800},
	}
	got := pickAvatarThumbnail(thumbnails)
	if got == nil || *got != "https://example.com/avatar-big.jpg" {
		t.Errorf("pickAvatarThumbnail = %v, want the largest square image", got)
	}
}

func TestChannelAvatar(t *testing.T) {
	mixed := []thumbnail{
		{URL: "https://example.com/cover.jpg", Width: 1280, Height: 720},
		{URL: "https://example.com/avatar.jpg", Width: 176, Height: 176},
	}
	got := channelAvatar(mixed)
	if got == nil || *got != "https://example.com/avatar.jpg" {
		t.Errorf("channelAvatar = %v, want the square image", got)
	}

	coversOnly := []thumbnail{
		{URL: "https://example.com/cover.jpg", Width: 1280, Height: 720},
	}
	got = channelAvatar(coversOnly)
	if got == nil || *got != "https://example.com/cover.jpg" {
		t.Errorf("channelAvatar = %v, want the largest image when nothing is square", got)
	}
}

func TestPickFirstURL(t *testing.T) {
	got := pickFirstURL("", "javascript:x", "//example.com/a.jpg", "https://example.com/b.jpg")
	if got == nil || *got != "https://example.com/a.jpg" {
		t.Errorf("pickFirstURL = %v, want first usable URL", got)
	}
}
