package userinteraction

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.EventEmitter = (*ConsolePrinter)(nil)

// ConsolePrinter renders display events for a terminal. A terminal cannot
// rewrite earlier lines, so replace_last events are printed as follow-ups.
type ConsolePrinter struct {
	out io.Writer
}

func NewConsolePrinter(w io.Writer) *ConsolePrinter {
	if w == nil {
		w = color.Output
	}
	return &ConsolePrinter{out: w}
}

func (p *ConsolePrinter) Emit(event entity.DisplayEvent) {
	switch {
	case event.Role == entity.RoleTool:
		p.showToolStart(event.Content)
	case event.Kind == entity.EventAppend:
		p.showStatus(event.Content)
	default:
		p.showUpdate(event.Content)
	}
}

// ShowGoal prints the run header.
func (p *ConsolePrinter) ShowGoal(goal string, steps int) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(p.out, "\n━━━ %s (up to %d steps) ━━━\n", goal, steps)
}

func (p *ConsolePrinter) ShowSummary(res *entity.RunResult) {
	dim := color.New(color.Faint)
	suffix := ""
	if res.Forced {
		suffix = ", step budget exhausted"
	}
	dim.Fprintf(p.out, "\n%d step(s), %d tool call(s)%s\n", res.Steps, res.ToolCalls, suffix)
}

func (p *ConsolePrinter) ShowError(err error) {
	red := color.New(color.FgRed)
	red.Fprint(p.out, "❌ Error: ")
	fmt.Fprintln(p.out, err)
}

func (p *ConsolePrinter) showStatus(content string) {
	blue := color.New(color.FgBlue)
	blue.Fprint(p.out, "💭 ")

	dim := color.New(color.Faint)
	dim.Fprintln(p.out, content)
}

func (p *ConsolePrinter) showUpdate(content string) {
	green := color.New(color.FgGreen)
	green.Fprint(p.out, "✓ ")
	fmt.Fprintln(p.out, content)
}

func (p *ConsolePrinter) showToolStart(content string) {
	name, arguments, _ := strings.Cut(content, " ")
	icon, label := getToolDisplay(name)

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(p.out, "%s %s\n", icon, label)

	if summary := formatToolArguments(name, arguments); summary != "" {
		dim := color.New(color.Faint)
		dim.Fprintf(p.out, "   %s\n", summary)
	}
}

func getToolDisplay(toolName string) (string, string) {
	displays := map[string][2]string{
		entity.ToolWebSearch.String():  {"🔎", "Search"},
		entity.ToolWebFetch.String():   {"🌐", "Fetch"},
		entity.ToolWebExtract.String(): {"📄", "Extract"},
	}

	if display, ok := displays[toolName]; ok {
		return display[0], display[1]
	}
	return "🔧", toolName
}

func formatToolArguments(toolName, arguments string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return ""
	}

	switch entity.ToolName(toolName) {
	case entity.ToolWebSearch:
		query, _ := args["query"].(string)
		if n, ok := args["maxResults"].(float64); ok {
			return fmt.Sprintf("Query: %s (max %d)", truncate(query, 80), int(n))
		}
		return fmt.Sprintf("Query: %s", truncate(query, 80))

	case entity.ToolWebFetch, entity.ToolWebExtract:
		if url, ok := args["url"].(string); ok {
			return fmt.Sprintf("URL: %s", truncate(url, 100))
		}
	}

	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
