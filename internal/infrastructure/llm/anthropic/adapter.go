package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var _ output.LLMPort = (*AnthropicAdapter)(nil)

type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:    apiKey,
		Model:     model,
		MaxTokens: 2048,
		Timeout:   120 * time.Second,
	}
}

type AnthropicAdapter struct {
	client    anthropicsdk.Client
	model     string
	apiKey    string
	maxTokens int
}

func NewAnthropicAdapter(cfg Config) *AnthropicAdapter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicAdapter{
		client:    anthropicsdk.NewClient(opts...),
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		maxTokens: cfg.MaxTokens,
	}
}

func (a *AnthropicAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("anthropic: %w", output.ErrMissingAPIKey)
	}

	system, messages := convertMessages(req.Messages)
	params := anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(a.model),
		MaxTokens:   int64(a.maxTokens),
		Messages:    messages,
		Temperature: anthropicsdk.Float(float64(req.Temperature)),
	}
	if system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("messages request failed: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}

	return &output.ChatResponse{
		Message: entity.Message{Role: entity.RoleAssistant, Content: b.String()},
	}, nil
}

// convertMessages lifts system messages into the system prompt and merges
// consecutive turns of the same role, which the Messages API requires to
// alternate.
func convertMessages(messages []entity.Message) (string, []anthropicsdk.MessageParam) {
	var system []string
	type turn struct {
		role entity.MessageRole
		text []string
	}
	var turns []turn

	for _, msg := range messages {
		switch msg.Role {
		case entity.RoleSystem:
			system = append(system, msg.Content)
			continue
		case entity.RoleUser, entity.RoleAssistant:
		default:
			continue
		}
		if n := len(turns); n > 0 && turns[n-1].role == msg.Role {
			turns[n-1].text = append(turns[n-1].text, msg.Content)
			continue
		}
		turns = append(turns, turn{role: msg.Role, text: []string{msg.Content}})
	}

	result := make([]anthropicsdk.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := anthropicsdk.NewTextBlock(strings.Join(t.text, "\n\n"))
		if t.role == entity.RoleAssistant {
			result = append(result, anthropicsdk.NewAssistantMessage(block))
		} else {
			result = append(result, anthropicsdk.NewUserMessage(block))
		}
	}
	return strings.Join(system, "\n\n"), result
}
