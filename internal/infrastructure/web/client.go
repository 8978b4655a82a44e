package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Config struct {
	UserAgent      string
	Timeout        time.Duration
	SearchEndpoint string
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64
}

func DefaultConfig() Config {
	return Config{
		UserAgent:      defaultUserAgent,
		Timeout:        15 * time.Second,
		SearchEndpoint: "https://html.duckduckgo.com/html/",
		MaxBodyBytes:   10 << 20,
	}
}

// httpClient is shared by the searcher, fetcher and HTTP page loader.
type httpClient struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

func newHTTPClient(cfg Config) *httpClient {
	return &httpClient{
		client:       &http.Client{Timeout: cfg.Timeout},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// get performs a GET and returns the response with its body already read.
func (c *httpClient) get(ctx context.Context, url string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
