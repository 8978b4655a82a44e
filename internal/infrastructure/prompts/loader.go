package prompts

import (
	_ "embed"
	"strings"
)

//go:embed system.txt
var systemPrompt string

//go:embed tools.tmpl
var ToolsTemplate string

// DefaultSystemPrompt is the fixed instruction every run starts with.
var DefaultSystemPrompt = strings.TrimSpace(systemPrompt)
