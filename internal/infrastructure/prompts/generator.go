package prompts

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"strings"
	"text/template"

	"web-agent/internal/application/port/output"

	"github.com/google/jsonschema-go/jsonschema"
)

type ToolInfo struct {
	Name        string
	Description string
	Signature   string
}

type ToolsPromptData struct {
	Tools []ToolInfo
}

// GenerateToolsPrompt renders the tool documentation for every registered
// tool, ordered by name.
func GenerateToolsPrompt(baseTemplate string, registry output.ToolRegistry) (string, error) {
	tools := registry.All()
	infos := make([]ToolInfo, 0, len(tools))

	for _, tool := range tools {
		infos = append(infos, ToolInfo{
			Name:        tool.Name().String(),
			Description: tool.Description(),
			Signature:   signature(tool.Parameters()),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	tmpl, err := template.New("tools").Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ToolsPromptData{Tools: infos}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// signature renders an object schema as "a: string, b?: integer", required
// members first.
func signature(s *jsonschema.Schema) string {
	if s == nil || len(s.Properties) == 0 {
		return ""
	}

	names := slices.Clone(s.Required)
	var optional []string
	for name := range s.Properties {
		if !slices.Contains(s.Required, name) {
			optional = append(optional, name)
		}
	}
	sort.Strings(optional)
	names = append(names, optional...)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		prop, ok := s.Properties[name]
		if !ok {
			continue
		}
		marker := ""
		if !slices.Contains(s.Required, name) {
			marker = "?"
		}
		parts = append(parts, fmt.Sprintf("%s%s: %s", name, marker, typeName(prop)))
	}
	return strings.Join(parts, ", ")
}

func typeName(s *jsonschema.Schema) string {
	if s.Type != "" {
		return s.Type
	}
	for _, t := range s.Types {
		if t != "null" {
			return t
		}
	}
	return "any"
}
