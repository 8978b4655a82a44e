// Package classifier decides whether a model reply is a tool call or a final
// answer.
//
// A reply is a tool call only when it is a JSON object of the form
// {"name": <registered tool>, "input": {...}} whose input passes the tool's
// own validation. Anything else, including well-formed JSON that fails
// validation, is a final answer.
package classifier

import (
	"encoding/json"
	"strings"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"
)

type Classifier struct {
	tools output.ToolRegistry
}

func New(tools output.ToolRegistry) *Classifier {
	return &Classifier{tools: tools}
}

// Classify returns the tool request encoded in raw, if any. raw itself is
// never altered.
func (c *Classifier) Classify(raw string) (*entity.ToolRequest, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate(raw)), &obj); err != nil || obj == nil {
		return nil, false
	}

	var name string
	if err := json.Unmarshal(obj["name"], &name); err != nil {
		return nil, false
	}
	tool, ok := c.tools.Get(entity.ToolName(name))
	if !ok {
		return nil, false
	}

	input, ok := obj["input"]
	if !ok || tool.Validate(input) != nil {
		return nil, false
	}

	return &entity.ToolRequest{Name: tool.Name(), Input: input}, true
}

// candidate picks the text to parse: the whole trimmed reply when it opens
// with a brace, otherwise only its first line.
func candidate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	first, _, _ := strings.Cut(trimmed, "\n")
	return first
}
