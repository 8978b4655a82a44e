package web

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"

	"golang.org/x/net/html"
)

var _ output.WebSearcher = (*DuckDuckGo)(nil)

// DuckDuckGo scrapes the HTML results page.
type DuckDuckGo struct {
	http     *httpClient
	endpoint string
}

func NewDuckDuckGo(cfg Config) *DuckDuckGo {
	return &DuckDuckGo{http: newHTTPClient(cfg), endpoint: cfg.SearchEndpoint}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]entity.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}

	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	resp, body, err := d.http.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return parseResults(doc, maxResults), nil
}

// parseResults walks ".result__title a.result__a" links in document order and
// pairs each with the ".result__snippet" of its enclosing ".result".
func parseResults(doc *html.Node, maxResults int) []entity.SearchResult {
	var results []entity.SearchResult

	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if len(results) >= maxResults {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") && closest(n, "result__title") != nil {
			href := attr(n, "href")
			title := collapseSpaces(textContent(n))
			container := closest(n, "result")
			if container != nil && hasClass(container, "result--ad") {
				return true
			}
			if href != "" && title != "" {
				r := entity.SearchResult{Title: title, URL: unwrapRedirect(href)}
				if container != nil {
					if s := findFirst(container, func(c *html.Node) bool { return hasClass(c, "result__snippet") }); s != nil {
						r.Snippet = collapseSpaces(textContent(s))
					}
				}
				results = append(results, r)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)

	return results
}

// unwrapRedirect turns DuckDuckGo's "/l/?uddg=<target>" links into the
// target URL.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") || u.Host == "" {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}
