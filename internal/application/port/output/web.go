package output

import (
	"context"

	"web-agent/internal/domain/entity"
)

type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]entity.SearchResult, error)
}

type WebFetcher interface {
	Fetch(ctx context.Context, url string) (*entity.FetchResult, error)
}

type WebExtractor interface {
	Extract(ctx context.Context, url string) (*entity.ExtractResult, error)
}

// PageLoader retrieves the HTML of a page, either over plain HTTP or through
// a rendering browser.
type PageLoader interface {
	Load(ctx context.Context, url string) (*entity.PageContent, error)
	Close()
}
