package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"

	"github.com/google/jsonschema-go/jsonschema"
)

const (
	defaultMaxResults = 5
	maxTextLen        = 4000
)

var (
	_ output.ToolPort = (*SearchTool)(nil)
	_ output.ToolPort = (*FetchTool)(nil)
	_ output.ToolPort = (*ExtractTool)(nil)
)

var errInputNotObject = errors.New("input must be a JSON object")

type SearchTool struct {
	searcher output.WebSearcher
	logger   output.LoggerPort
	schema   *inputSchema
}

func NewSearchTool(searcher output.WebSearcher, logger output.LoggerPort) *SearchTool {
	return &SearchTool{searcher: searcher, logger: logger, schema: mustSchemaFor[entity.SearchInput]()}
}

func (t *SearchTool) Name() entity.ToolName { return entity.ToolWebSearch }
func (t *SearchTool) Description() string  { return "Search the web." }
func (t *SearchTool) Parameters() *jsonschema.Schema {
	return t.schema.schema
}

func (t *SearchTool) Validate(input json.RawMessage) error {
	_, err := t.decode(input)
	return err
}

func (t *SearchTool) decode(input json.RawMessage) (*entity.SearchInput, error) {
	var in entity.SearchInput
	if err := t.schema.decode(input, &in); err != nil {
		return nil, err
	}
	if in.MaxResults != nil && *in.MaxResults < 1 {
		return nil, fmt.Errorf("maxResults must be at least 1, got %d", *in.MaxResults)
	}
	return &in, nil
}

func (t *SearchTool) Execute(ctx context.Context, input json.RawMessage) (entity.ToolResult, error) {
	in, err := t.decode(input)
	if err != nil {
		return entity.ToolResult{}, err
	}
	maxResults := defaultMaxResults
	if in.MaxResults != nil {
		maxResults = *in.MaxResults
	}

	t.logger.Debug("Searching the web", "query", in.Query, "maxResults", maxResults)
	results, err := t.searcher.Search(ctx, in.Query, maxResults)
	if err != nil {
		return entity.ToolResult{}, err
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	lines := make([]string, 0, len(results))
	for i, r := range results {
		line := fmt.Sprintf("%d. %s — %s", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			line += "\n   " + r.Snippet
		}
		lines = append(lines, line)
	}

	return entity.ToolResult{
		Payload:   results,
		Summary:   "Tool result for web.search:\n" + strings.Join(lines, "\n"),
		Narration: "Processing results...",
	}, nil
}

type FetchTool struct {
	fetcher output.WebFetcher
	logger  output.LoggerPort
	schema  *inputSchema
}

func NewFetchTool(fetcher output.WebFetcher, logger output.LoggerPort) *FetchTool {
	return &FetchTool{fetcher: fetcher, logger: logger, schema: mustSchemaFor[entity.FetchInput]()}
}

func (t *FetchTool) Name() entity.ToolName { return entity.ToolWebFetch }
func (t *FetchTool) Description() string  { return "Fetch a URL and return raw text." }
func (t *FetchTool) Parameters() *jsonschema.Schema {
	return t.schema.schema
}

func (t *FetchTool) Validate(input json.RawMessage) error {
	_, err := t.decode(input)
	return err
}

func (t *FetchTool) decode(input json.RawMessage) (*entity.FetchInput, error) {
	var in entity.FetchInput
	if err := t.schema.decode(input, &in); err != nil {
		return nil, err
	}
	if err := validateURL(in.URL); err != nil {
		return nil, err
	}
	return &in, nil
}

func (t *FetchTool) Execute(ctx context.Context, input json.RawMessage) (entity.ToolResult, error) {
	in, err := t.decode(input)
	if err != nil {
		return entity.ToolResult{}, err
	}

	t.logger.Debug("Fetching URL", "url", in.URL)
	res, err := t.fetcher.Fetch(ctx, in.URL)
	if err != nil {
		return entity.ToolResult{}, err
	}

	return entity.ToolResult{
		Payload:   res,
		Summary:   fmt.Sprintf("Tool result for web.fetch (%d %s):\n%s", res.Status, res.ContentType, truncate(res.Text, maxTextLen)),
		Narration: "Fetched content.",
	}, nil
}

type ExtractTool struct {
	extractor output.WebExtractor
	logger    output.LoggerPort
	schema    *inputSchema
}

func NewExtractTool(extractor output.WebExtractor, logger output.LoggerPort) *ExtractTool {
	return &ExtractTool{extractor: extractor, logger: logger, schema: mustSchemaFor[entity.ExtractInput]()}
}

func (t *ExtractTool) Name() entity.ToolName { return entity.ToolWebExtract }
func (t *ExtractTool) Description() string {
	return "Fetch a URL and extract main article text."
}
func (t *ExtractTool) Parameters() *jsonschema.Schema {
	return t.schema.schema
}

func (t *ExtractTool) Validate(input json.RawMessage) error {
	_, err := t.decode(input)
	return err
}

func (t *ExtractTool) decode(input json.RawMessage) (*entity.ExtractInput, error) {
	var in entity.ExtractInput
	if err := t.schema.decode(input, &in); err != nil {
		return nil, err
	}
	if err := validateURL(in.URL); err != nil {
		return nil, err
	}
	return &in, nil
}

func (t *ExtractTool) Execute(ctx context.Context, input json.RawMessage) (entity.ToolResult, error) {
	in, err := t.decode(input)
	if err != nil {
		return entity.ToolResult{}, err
	}

	t.logger.Debug("Extracting article", "url", in.URL)
	res, err := t.extractor.Extract(ctx, in.URL)
	if err != nil {
		return entity.ToolResult{}, err
	}

	return entity.ToolResult{
		Payload:   res,
		Summary:   fmt.Sprintf("Tool result for web.extract from %s (%s):\n%s", res.Title, res.URL, truncate(res.Text, maxTextLen)),
		Narration: "Extracted article.",
	}, nil
}

// inputSchema pairs a generated schema with its resolved form so argument
// objects can be validated before they are decoded.
type inputSchema struct {
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

func mustSchemaFor[T any]() *inputSchema {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("schema for %T: %v", *new(T), err))
	}
	// Unknown members are ignored rather than rejected.
	s.AdditionalProperties = nil

	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("resolve schema for %T: %v", *new(T), err))
	}
	return &inputSchema{schema: s, resolved: resolved}
}

func (s *inputSchema) decode(input json.RawMessage, dst any) error {
	var instance any
	if err := json.Unmarshal(input, &instance); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	if _, ok := instance.(map[string]any); !ok {
		return errInputNotObject
	}
	if err := s.resolved.Validate(instance); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(input))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
		return fmt.Errorf("invalid url %q: must be absolute", raw)
	}
	return nil
}

func truncate(s string, maxRunes int) string {
	if len(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
