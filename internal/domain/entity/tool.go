package entity

import "encoding/json"

type ToolName string

const (
	ToolWebSearch  ToolName = "web.search"
	ToolWebFetch   ToolName = "web.fetch"
	ToolWebExtract ToolName = "web.extract"
)

func (t ToolName) String() string {
	return string(t)
}

// ToolRequest is a tool call decoded from a model reply. Input is kept as the
// raw JSON object and decoded by the tool that owns its shape.
type ToolRequest struct {
	Name  ToolName
	Input json.RawMessage
}

type SearchInput struct {
	Query      string `json:"query" jsonschema:"search query"`
	MaxResults *int   `json:"maxResults,omitempty" jsonschema:"maximum number of results (at least 1)"`
}

type FetchInput struct {
	URL string `json:"url" jsonschema:"absolute http(s) URL to fetch"`
}

type ExtractInput struct {
	URL string `json:"url" jsonschema:"absolute http(s) URL of the article"`
}

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

type FetchResult struct {
	URL         string `json:"url"`
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Text        string `json:"text"`
}

type ExtractResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

// ToolResult is the outcome of one invocation. Exactly one of Payload or Err
// is meaningful: a non-nil Err marks a failure.
type ToolResult struct {
	Name ToolName
	// Payload is []SearchResult, *FetchResult or *ExtractResult.
	Payload any
	// Summary is the text folded into the conversation.
	Summary string
	// Narration is the short line shown to the observer on success.
	Narration string
	Err       error
}

func (r ToolResult) Failed() bool {
	return r.Err != nil
}
