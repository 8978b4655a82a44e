package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"

	ollamaapi "github.com/ollama/ollama/api"
)

var _ output.LLMPort = (*OllamaAdapter)(nil)

type Config struct {
	Host    string
	Model   string
	Timeout time.Duration
}

func DefaultConfig(model string) Config {
	return Config{
		Host:    "http://localhost:11434",
		Model:   model,
		Timeout: 300 * time.Second,
	}
}

type OllamaAdapter struct {
	client *ollamaapi.Client
	model  string
}

func NewOllamaAdapter(cfg Config) (*OllamaAdapter, error) {
	u, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.Host, err)
	}

	return &OllamaAdapter{
		client: ollamaapi.NewClient(u, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
	}, nil
}

func (a *OllamaAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	messages := make([]ollamaapi.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, ollamaapi.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	stream := false
	var text strings.Builder
	err := a.client.Chat(ctx, &ollamaapi.ChatRequest{
		Model:    a.model,
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]any{"temperature": req.Temperature},
	}, func(resp ollamaapi.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}

	return &output.ChatResponse{
		Message: entity.Message{Role: entity.RoleAssistant, Content: text.String()},
	}, nil
}
