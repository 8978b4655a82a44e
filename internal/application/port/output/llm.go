package output

import (
	"context"
	"errors"

	"web-agent/internal/domain/entity"
)

// ErrMissingAPIKey is returned by providers that need a credential and were
// configured without one.
var ErrMissingAPIKey = errors.New("api key not set")

// LLMPort turns an ordered conversation into a single reply text.
type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Temperature float32
}

type ChatResponse struct {
	Message entity.Message
}
