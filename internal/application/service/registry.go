package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"
)

var ErrUnknownTool = errors.New("unknown tool")

var _ output.ToolRegistry = (*ToolRegistryImpl)(nil)

type ToolRegistryImpl struct {
	tools  map[entity.ToolName]output.ToolPort
	logger output.LoggerPort
}

func NewToolRegistry(logger output.LoggerPort) *ToolRegistryImpl {
	return &ToolRegistryImpl{
		tools:  make(map[entity.ToolName]output.ToolPort),
		logger: logger,
	}
}

func (r *ToolRegistryImpl) Register(tool output.ToolPort) {
	r.tools[tool.Name()] = tool
}

func (r *ToolRegistryImpl) Get(name entity.ToolName) (output.ToolPort, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

func (r *ToolRegistryImpl) All() []output.ToolPort {
	result := make([]output.ToolPort, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

func (r *ToolRegistryImpl) Invoke(ctx context.Context, req entity.ToolRequest) (result entity.ToolResult) {
	tool, ok := r.tools[req.Name]
	if !ok {
		r.logger.Warn("Unknown tool called", "name", req.Name)
		return entity.ToolResult{Name: req.Name, Err: fmt.Errorf("%w '%s'", ErrUnknownTool, req.Name)}
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Tool panicked", "name", req.Name, "panic", p)
			result = entity.ToolResult{Name: req.Name, Err: fmt.Errorf("%s panicked: %v", req.Name, p)}
		}
	}()

	res, err := tool.Execute(ctx, req.Input)
	if err != nil {
		r.logger.Error("Tool execution failed", "name", req.Name, "error", err)
		return entity.ToolResult{Name: req.Name, Err: err}
	}
	res.Name = req.Name
	return res
}
