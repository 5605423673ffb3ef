package fetch

import (
	"context"
)

// YouTube Innertube API — constants, request/response types and low-level
// calls. Every response field is optional: the API reshapes itself without
// notice, so the adapter in youtube.go treats absence as "not provided".

const (
	ytResolveURL = "https://www.youtube.com/youtubei/v1/navigation/resolve_url"
	ytBrowseURL  = "https://www.youtube.com/youtubei/v1/browse"
	ytPlayerURL  = "https://www.youtube.com/youtubei/v1/player"

	ytWebVersion     = "2.20250222.10.00"
	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"

	// Pre-encoded params selecting the channel's Videos tab.
	ytVideosTabParams = "EgZ2aWRlb3PyBgQKAjoA"
)

type ytClientCtx struct {
	Client ytClient `json:"client"`
}

type ytClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

func ytWebContext() ytClientCtx {
	return ytClientCtx{Client: ytClient{ClientName: "WEB", ClientVersion: ytWebVersion, Hl: "en", Gl: "US"}}
}

func ytAndroidContext() ytClientCtx {
	return ytClientCtx{Client: ytClient{ClientName: "ANDROID", ClientVersion: ytAndroidVersion, AndroidSdkVersion: 30, Hl: "en", Gl: "US"}}
}

type ytResolveReq struct {
	URL     string      `json:"url"`
	Context ytClientCtx `json:"context"`
}

type ytResolveResp struct {
	Endpoint *struct {
		BrowseEndpoint *struct {
			BrowseID string `json:"browseId"`
			Params   string `json:"params"`
		} `json:"browseEndpoint"`
	} `json:"endpoint"`
}

type ytBrowseReq struct {
	BrowseID string      `json:"browseId"`
	Params   string      `json:"params,omitempty"`
	Context  ytClientCtx `json:"context"`
}

type ytTextRuns struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t *ytTextRuns) text() string {
	if t == nil {
		return ""
	}
	if t.SimpleText != "" {
		return t.SimpleText
	}
	combined := ""
	for _, run := range t.Runs {
		combined += run.Text
	}
	return combined
}

type ytVideoRenderer struct {
	VideoID       string      `json:"videoId"`
	Title         *ytTextRuns `json:"title"`
	ViewCountText *ytTextRuns `json:"viewCountText"`
	PublishedTime *ytTextRuns `json:"publishedTimeText"`
	LengthText    *ytTextRuns `json:"lengthText"`
	Thumbnail     *struct {
		Thumbnails []thumbnail `json:"thumbnails"`
	} `json:"thumbnail"`
}

type ytBrowseResp struct {
	Header *struct {
		C4TabbedHeaderRenderer *struct {
			Title  string `json:"title"`
			Avatar *struct {
				Thumbnails []thumbnail `json:"thumbnails"`
			} `json:"avatar"`
			SubscriberCountText *ytTextRuns `json:"subscriberCountText"`
		} `json:"c4TabbedHeaderRenderer"`
	} `json:"header"`
	Metadata *struct {
		ChannelMetadataRenderer *struct {
			Title      string `json:"title"`
			ChannelURL string `json:"channelUrl"`
			VanityURL  string `json:"vanityChannelUrl"`
			Avatar     *struct {
				Thumbnails []thumbnail `json:"thumbnails"`
			} `json:"avatar"`
		} `json:"channelMetadataRenderer"`
	} `json:"metadata"`
	Contents *struct {
		TwoColumnBrowseResultsRenderer *struct {
			Tabs []struct {
				TabRenderer *struct {
					Selected bool `json:"selected"`
					Content  *struct {
						RichGridRenderer *struct {
							Contents []struct {
								RichItemRenderer *struct {
									Content struct {
										VideoRenderer *ytVideoRenderer `json:"videoRenderer"`
									} `json:"content"`
								} `json:"richItemRenderer"`
							} `json:"contents"`
						} `json:"richGridRenderer"`
					} `json:"content"`
				} `json:"tabRenderer"`
			} `json:"tabs"`
		} `json:"twoColumnBrowseResultsRenderer"`
	} `json:"contents"`
}

// videoRenderers walks the tab grid and returns the flat listing entries.
func (r *ytBrowseResp) videoRenderers() []ytVideoRenderer {
	if r.Contents == nil || r.Contents.TwoColumnBrowseResultsRenderer == nil {
		return nil
	}
	var renderers []ytVideoRenderer
	for _, tab := range r.Contents.TwoColumnBrowseResultsRenderer.Tabs {
		if tab.TabRenderer == nil || tab.TabRenderer.Content == nil || tab.TabRenderer.Content.RichGridRenderer == nil {
			continue
		}
		for _, item := range tab.TabRenderer.Content.RichGridRenderer.Contents {
			if item.RichItemRenderer != nil && item.RichItemRenderer.Content.VideoRenderer != nil {
				renderers = append(renderers, *item.RichItemRenderer.Content.VideoRenderer)
			}
		}
	}
	return renderers
}

type ytPlayerReq struct {
	VideoID        string      `json:"videoId"`
	Context        ytClientCtx `json:"context"`
	RacyCheckOk    bool        `json:"racyCheckOk"`
	ContentCheckOk bool        `json:"contentCheckOk"`
}

type ytPlayerResp struct {
	VideoDetails *struct {
		VideoID       string `json:"videoId"`
		Title         string `json:"title"`
		LengthSeconds string `json:"lengthSeconds"`
		ViewCount     string `json:"viewCount"`
		Thumbnail     *struct {
			Thumbnails []thumbnail `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
	Microformat *struct {
		PlayerMicroformatRenderer *struct {
			PublishDate      string `json:"publishDate"`
			UploadDate       string `json:"uploadDate"`
			LikeCount        string `json:"likeCount"`
			OwnerChannelName string `json:"ownerChannelName"`
			Thumbnail        *struct {
				Thumbnails []thumbnail `json:"thumbnails"`
			} `json:"thumbnail"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
}

func (c *Client) ytResolve(ctx context.Context, channelURL string) (*ytResolveResp, error) {
	var resp ytResolveResp
	err := c.postJSON(ctx, ytResolveURL, ytResolveReq{URL: channelURL, Context: ytWebContext()}, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ytBrowse(ctx context.Context, browseID, params string) (*ytBrowseResp, error) {
	var resp ytBrowseResp
	err := c.postJSON(ctx, ytBrowseURL, ytBrowseReq{BrowseID: browseID, Params: params, Context: ytWebContext()}, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ytPlayer(ctx context.Context, videoID string) (*ytPlayerResp, error) {
	var resp ytPlayerResp
	headers := map[string]string{"User-Agent": ytAndroidUA}
	err := c.postJSON(ctx, ytPlayerURL, ytPlayerReq{VideoID: videoID, Context: ytAndroidContext(), RacyCheckOk: true, ContentCheckOk: true}, headers, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
