package prompts

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"

	"github.com/google/jsonschema-go/jsonschema"
)

type mockTool struct {
	name        entity.ToolName
	description string
	schema      *jsonschema.Schema
}

func (m *mockTool) Name() entity.ToolName                { return m.name }
func (m *mockTool) Description() string                  { return m.description }
func (m *mockTool) Parameters() *jsonschema.Schema       { return m.schema }
func (m *mockTool) Validate(input json.RawMessage) error { return nil }
func (m *mockTool) Execute(ctx context.Context, input json.RawMessage) (entity.ToolResult, error) {
	return entity.ToolResult{}, nil
}

type mockToolRegistry struct {
	tools []output.ToolPort
}

func (r *mockToolRegistry) Register(tool output.ToolPort) {
	r.tools = append(r.tools, tool)
}

func (r *mockToolRegistry) Get(name entity.ToolName) (output.ToolPort, bool) {
	for _, t := range r.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

func (r *mockToolRegistry) All() []output.ToolPort {
	return r.tools
}

func (r *mockToolRegistry) Invoke(ctx context.Context, req entity.ToolRequest) entity.ToolResult {
	return entity.ToolResult{}
}

type searchArgs struct {
	Query      string `json:"query"`
	MaxResults *int   `json:"maxResults,omitempty"`
}

type urlArgs struct {
	URL string `json:"url"`
}

func schemaFor[T any](t *testing.T) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.For[T](nil)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func TestGenerateToolsPrompt(t *testing.T) {
	registry := &mockToolRegistry{}
	registry.Register(&mockTool{name: "web.search", description: "Search the web.", schema: schemaFor[searchArgs](t)})
	registry.Register(&mockTool{name: "web.fetch", description: "Fetch a URL and return raw text.", schema: schemaFor[urlArgs](t)})

	result, err := GenerateToolsPrompt(ToolsTemplate, registry)
	if err != nil {
		t.Fatalf("GenerateToolsPrompt failed: %v", err)
	}

	if !strings.Contains(result, "- web.search: Search the web. input: { query: string, maxResults?: integer }") {
		t.Errorf("Result should document web.search, got:\n%s", result)
	}
	if !strings.Contains(result, "- web.fetch: Fetch a URL and return raw text. input: { url: string }") {
		t.Errorf("Result should document web.fetch, got:\n%s", result)
	}
	if strings.Index(result, "web.fetch:") > strings.Index(result, "web.search:") {
		t.Error("Tools should be listed by name")
	}
	if !strings.Contains(result, `JSON schema: { "name": string, "input": object }`) {
		t.Error("Result should end with the call schema")
	}
}

func TestGenerateToolsPromptEmptyRegistry(t *testing.T) {
	result, err := GenerateToolsPrompt(ToolsTemplate, &mockToolRegistry{})
	if err != nil {
		t.Fatalf("GenerateToolsPrompt failed: %v", err)
	}

	if !strings.Contains(result, "You have access to the following tools.") {
		t.Error("Result should contain base template text")
	}
}

func TestGenerateToolsPromptInvalidTemplate(t *testing.T) {
	registry := &mockToolRegistry{}
	registry.Register(&mockTool{name: "web.fetch", description: "Test tool", schema: schemaFor[urlArgs](t)})

	if _, err := GenerateToolsPrompt(`Test {{.InvalidField}}`, registry); err == nil {
		t.Error("Expected error for invalid template, got nil")
	}
	if _, err := GenerateToolsPrompt(`Test {{range}}`, registry); err == nil {
		t.Error("Expected error for unparsable template, got nil")
	}
}

func TestSignatureWithoutProperties(t *testing.T) {
	if got := signature(nil); got != "" {
		t.Errorf("signature(nil) = %q, want empty", got)
	}
	if got := signature(&jsonschema.Schema{Type: "object"}); got != "" {
		t.Errorf("signature(empty object) = %q, want empty", got)
	}
}

func TestDefaultSystemPrompt(t *testing.T) {
	if !strings.HasPrefix(DefaultSystemPrompt, "You are an autonomous AI agent") {
		t.Errorf("unexpected system prompt: %q", DefaultSystemPrompt)
	}
	if strings.HasSuffix(DefaultSystemPrompt, "\n") {
		t.Error("system prompt should be trimmed")
	}
}
