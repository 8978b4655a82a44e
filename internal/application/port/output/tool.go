package output

import (
	"context"
	"encoding/json"

	"web-agent/internal/domain/entity"

	"github.com/google/jsonschema-go/jsonschema"
)

type ToolPort interface {
	Name() entity.ToolName
	Description() string
	Parameters() *jsonschema.Schema
	// Validate reports whether input is an acceptable argument object for
	// this tool. It must not perform I/O.
	Validate(input json.RawMessage) error
	Execute(ctx context.Context, input json.RawMessage) (entity.ToolResult, error)
}

// ToolRegistry is the capability set the executor dispatches through.
type ToolRegistry interface {
	Register(tool ToolPort)
	Get(name entity.ToolName) (ToolPort, bool)
	// All returns the tools ordered by name.
	All() []ToolPort
	// Invoke never returns an error: failures are carried in the result.
	Invoke(ctx context.Context, req entity.ToolRequest) entity.ToolResult
}
