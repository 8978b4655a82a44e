package web

import (
	"context"
	"fmt"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"
)

var _ output.PageLoader = (*HTTPPageLoader)(nil)

type HTTPPageLoader struct {
	http *httpClient
}

func NewHTTPPageLoader(cfg Config) *HTTPPageLoader {
	return &HTTPPageLoader{http: newHTTPClient(cfg)}
}

func (l *HTTPPageLoader) Load(ctx context.Context, url string) (*entity.PageContent, error) {
	resp, body, err := l.http.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("fetch %s: http %d", url, resp.StatusCode)
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &entity.PageContent{
		URL:         finalURL,
		HTML:        string(body),
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (l *HTTPPageLoader) Close() {}
