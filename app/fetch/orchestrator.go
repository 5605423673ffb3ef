package fetch

import (
	"context"
	"errors"
	"strings"

	"github.com/okatenko/channelpulse/app/platform"
)

// Orchestrator dispatches channel fetches to the platform adapters and
// guarantees every failure surfaces as a *FetchError.
type Orchestrator struct {
	client     *Client
	cookieFile string
	maxVideos  int
}

func NewOrchestrator(client *Client, instagramCookieFile string, maxVideos int) *Orchestrator {
	return &Orchestrator{
		client:     client,
		cookieFile: instagramCookieFile,
		maxVideos:  maxVideos,
	}
}

// Fetch normalizes the URL, picks the adapter for its platform and returns
// the canonical payload. Platforms without a dedicated adapter go through the
// default resolution path, which handles YouTube-compatible URLs.
func (o *Orchestrator) Fetch(ctx context.Context, rawURL string) (*ChannelPayload, platform.Platform, error) {
	channelURL := NormalizeChannelURL(rawURL)
	if channelURL == "" {
		return nil, platform.Other, newError(KindValidation, "empty channel URL")
	}
	resolved := platform.Resolve(channelURL)

	payload, err := o.dispatch(ctx, resolved, channelURL)
	if err != nil {
		return nil, resolved, ensureFetchError(err)
	}
	return payload, resolved, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, resolved platform.Platform, channelURL string) (*ChannelPayload, error) {
	switch resolved {
	case platform.Instagram:
		return o.client.FetchInstagram(ctx, channelURL, o.cookieFile, o.maxVideos)
	case platform.TikTok:
		return o.client.FetchTikTok(ctx, channelURL, o.maxVideos)
	default:
		return o.client.FetchYouTube(ctx, channelURL, o.maxVideos)
	}
}

// NormalizeChannelURL turns user input into a fetchable URL: bare @handles
// become YouTube handle URLs and a missing scheme is filled in.
func NormalizeChannelURL(rawURL string) string {
	value := strings.TrimSpace(rawURL)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "@") {
		return "https://www.youtube.com/" + value
	}
	if !strings.Contains(value, "://") {
		return "https://" + value
	}
	return value
}

// ensureFetchError keeps context cancellation untouched and wraps anything
// that is not already classified.
func ensureFetchError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	if status, ok := statusCodeOf(err); ok {
		switch {
		case status == 429:
			return wrapError(KindRateLimited, err, "rate limited upstream")
		case status == 401 || status == 403:
			return wrapError(KindRejected, err, "rejected upstream")
		case status >= 500:
			return wrapError(KindTransient, err, "upstream failure")
		default:
			return wrapError(KindRejected, err, "upstream answered %d", status)
		}
	}
	return wrapError(KindUnexpected, err, "unexpected fetch error")
}
