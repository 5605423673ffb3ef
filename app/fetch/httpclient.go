package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBytes = 10 << 20 // 10 MiB

// Client is the shared upstream HTTP client. All adapter traffic goes through
// it so network errors get classified in exactly one place.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient(userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// get fetches a URL and returns the body. A non-nil jar attaches cookies for
// authenticated endpoints. Non-2xx responses return an *httpStatusError so
// adapters can map specific codes.
func (c *Client) get(ctx context.Context, url string, headers map[string]string, jar http.CookieJar) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, wrapError(KindValidation, err, "invalid request URL %q", url)
	}
	return c.do(req, headers, jar)
}

func (c *Client) getJSON(ctx context.Context, url string, headers map[string]string, jar http.CookieJar, out any) error {
	body, err := c.get(ctx, url, headers, jar)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return wrapError(KindUnexpected, err, "failed to decode response from %s", url)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any, headers map[string]string, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return wrapError(KindUnexpected, err, "failed to encode request for %s", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return wrapError(KindValidation, err, "invalid request URL %q", url)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, headers, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return wrapError(KindUnexpected, err, "failed to decode response from %s", url)
	}
	return nil
}

func (c *Client) do(req *http.Request, headers map[string]string, jar http.CookieJar) ([]byte, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	httpClient := c.httpClient
	if jar != nil {
		clientWithJar := *c.httpClient
		clientWithJar.Jar = jar
		httpClient = &clientWithJar
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, classifyNetworkError(err, fmt.Sprintf("%s %s", req.Method, req.URL.Host))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyNetworkError(err, fmt.Sprintf("read %s", req.URL.Host))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &httpStatusError{StatusCode: resp.StatusCode}
	}
	return body, nil
}
