package web

import (
	"context"
	"fmt"
	"strings"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"

	"github.com/tmc/langchaingo/documentloaders"
	"golang.org/x/net/html"
)

var _ output.WebExtractor = (*Extractor)(nil)

// Tags whose subtree never contributes to the readable text.
var skippedTags = []string{
	"script", "style", "noscript", "svg", "iframe", "template",
	"nav", "header", "footer", "aside", "form", "button",
	"head", "title",
}

var blockTags = []string{
	"p", "div", "section", "article", "main", "li", "ul", "ol",
	"h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote",
	"tr", "table", "br", "hr", "figcaption", "dd", "dt",
}

// Extractor pulls the title and main readable text out of a page.
type Extractor struct {
	loader output.PageLoader
}

func NewExtractor(loader output.PageLoader) *Extractor {
	return &Extractor{loader: loader}
}

func (e *Extractor) Extract(ctx context.Context, url string) (*entity.ExtractResult, error) {
	page, err := e.loader.Load(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	title := page.Title
	if title == "" {
		title = documentTitle(doc)
	}
	if title == "" {
		title = url
	}

	text := readableText(mainContent(doc))
	if text == "" {
		text, err = loaderText(ctx, page.HTML)
		if err != nil {
			return nil, fmt.Errorf("extract text: %w", err)
		}
	}

	resultURL := page.URL
	if resultURL == "" {
		resultURL = url
	}
	return &entity.ExtractResult{Title: title, URL: resultURL, Text: text}, nil
}

func documentTitle(doc *html.Node) string {
	if t := findElement(doc, "title"); t != nil {
		if s := collapseSpaces(textContent(t)); s != "" {
			return s
		}
	}
	og := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "meta" && attr(n, "property") == "og:title"
	})
	if og != nil {
		return collapseSpaces(attr(og, "content"))
	}
	return ""
}

// mainContent picks the most specific content container the page offers.
func mainContent(doc *html.Node) *html.Node {
	for _, match := range []func(*html.Node) bool{
		func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "article" },
		func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "main" },
		func(n *html.Node) bool { return n.Type == html.ElementNode && attr(n, "role") == "main" },
		func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "body" },
	} {
		if n := findFirst(doc, match); n != nil {
			return n
		}
	}
	return doc
}

// readableText renders visible text with one line per block element.
func readableText(root *html.Node) string {
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.CommentNode:
			return
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if isOneOf(n.Data, skippedTags...) || hasAttr(n, "hidden") || attr(n, "aria-hidden") == "true" {
				return
			}
		}

		block := n.Type == html.ElementNode && isOneOf(n.Data, blockTags...)
		if block {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteByte('\n')
		}
	}
	walk(root)

	lines := strings.Split(sb.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = collapseSpaces(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// loaderText is the fallback for pages whose structure yields nothing.
func loaderText(ctx context.Context, rawHTML string) (string, error) {
	docs, err := documentloaders.NewHTML(strings.NewReader(rawHTML)).Load(ctx)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if s := strings.TrimSpace(d.PageContent); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n"), nil
}
