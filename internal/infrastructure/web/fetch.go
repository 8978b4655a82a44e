package web

import (
	"context"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"
)

var _ output.WebFetcher = (*Fetcher)(nil)

// Fetcher returns raw response bodies. Non-2xx statuses are data, not errors.
type Fetcher struct {
	http *httpClient
}

func NewFetcher(cfg Config) *Fetcher {
	return &Fetcher{http: newHTTPClient(cfg)}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*entity.FetchResult, error) {
	resp, body, err := f.http.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return &entity.FetchResult{
		URL:         url,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Text:        string(body),
	}, nil
}
