package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"web-agent/internal/application/port/input"
	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"
	"web-agent/internal/usecase/classifier"

	"github.com/google/uuid"
)

var _ input.RunExecutor = (*UseCase)(nil)

const (
	DefaultTemperature = 0.2
	maxObservationLen  = 4000

	finalAnswerPrompt = "Please provide a concise final answer now."

	thinkingText   = "Thinking..."
	recoveringText = "Tool failed, recovering..."
	toolDoneText   = "Tool completed."
)

// ErrSequenceConsumed is yielded when an event sequence is iterated twice.
var ErrSequenceConsumed = errors.New("event sequence already consumed")

type UseCase struct {
	llm          output.LLMPort
	tools        output.ToolRegistry
	classifier   *classifier.Classifier
	logger       output.LoggerPort
	systemPrompt string
	toolsPrompt  string
	temperature  float32
}

type Option func(*UseCase)

func WithTemperature(t float32) Option {
	return func(uc *UseCase) {
		uc.temperature = t
	}
}

func New(
	llm output.LLMPort,
	tools output.ToolRegistry,
	logger output.LoggerPort,
	systemPrompt string,
	toolsPrompt string,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		llm:          llm,
		tools:        tools,
		classifier:   classifier.New(tools),
		logger:       logger,
		systemPrompt: systemPrompt,
		toolsPrompt:  toolsPrompt,
		temperature:  DefaultTemperature,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *UseCase) Run(ctx context.Context, goal string, steps int, emitter output.EventEmitter) (*entity.RunResult, error) {
	if emitter == nil {
		emitter = output.DiscardEmitter
	}

	runID, ok := input.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
	}

	state := &entity.RunState{
		ID:         runID,
		Goal:       goal,
		StepBudget: entity.ClampSteps(steps),
		Status:     entity.RunStatusRunning,
		Conversation: entity.NewConversation(
			entity.Message{Role: entity.RoleSystem, Content: uc.systemPrompt},
			entity.Message{Role: entity.RoleUser, Content: goalMessage(goal, uc.toolsPrompt)},
		),
	}
	log := uc.logger.WithField("run_id", state.ID)
	start := time.Now()
	toolCalls := 0

	log.Info("Run started", "goal", goal, "stepBudget", state.StepBudget)
	emitter.Emit(entity.AppendEvent(entity.RoleAssistant, thinkingText))

	for ; state.StepIndex < state.StepBudget; state.StepIndex++ {
		log.Debug("Starting step", "step", state.StepIndex)

		reply, err := uc.complete(ctx, state)
		if err != nil {
			return nil, uc.fail(log, state, err)
		}

		req, ok := uc.classifier.Classify(reply)
		if !ok {
			emitter.Emit(entity.ReplaceLastEvent(entity.RoleAssistant, reply))
			return uc.finish(log, state, start, reply, state.StepIndex+1, toolCalls, false), nil
		}

		toolCalls++
		uc.executeTool(ctx, log, state, emitter, reply, req)
	}

	log.Info("Step budget exhausted, requesting final answer", "stepBudget", state.StepBudget)
	state.Conversation.Append(entity.Message{Role: entity.RoleUser, Content: finalAnswerPrompt})

	reply, err := uc.complete(ctx, state)
	if err != nil {
		return nil, uc.fail(log, state, err)
	}
	emitter.Emit(entity.ReplaceLastEvent(entity.RoleAssistant, reply))

	return uc.finish(log, state, start, reply, state.StepBudget, toolCalls, true), nil
}

// Events runs the goal lazily: nothing happens until the sequence is ranged
// over. Breaking out of the loop cancels the run at its next suspension point.
func (uc *UseCase) Events(ctx context.Context, goal string, steps int) iter.Seq2[entity.DisplayEvent, error] {
	var used atomic.Bool

	return func(yield func(entity.DisplayEvent, error) bool) {
		if used.Swap(true) {
			yield(entity.DisplayEvent{}, ErrSequenceConsumed)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		emitter := output.EmitterFunc(func(event entity.DisplayEvent) {
			if stopped {
				return
			}
			if !yield(event, nil) {
				stopped = true
				cancel()
			}
		})

		if _, err := uc.Run(ctx, goal, steps, emitter); err != nil && !stopped {
			yield(entity.DisplayEvent{}, err)
		}
	}
}

func (uc *UseCase) complete(ctx context.Context, state *entity.RunState) (string, error) {
	resp, err := uc.llm.Chat(ctx, output.ChatRequest{
		Messages:    state.Conversation.Messages(),
		Temperature: uc.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	return resp.Message.Content, nil
}

func (uc *UseCase) executeTool(
	ctx context.Context,
	log output.LoggerPort,
	state *entity.RunState,
	emitter output.EventEmitter,
	reply string,
	req *entity.ToolRequest,
) {
	emitter.Emit(entity.ReplaceLastEvent(entity.RoleAssistant, fmt.Sprintf("Using %s...", req.Name)))
	emitter.Emit(entity.AppendEvent(entity.RoleTool, fmt.Sprintf("%s %s", req.Name, compactJSON(req.Input))))

	log.Info("Executing tool", "step", state.StepIndex, "name", req.Name, "input", string(req.Input))
	start := time.Now()
	result := uc.tools.Invoke(ctx, *req)

	if result.Failed() {
		log.Warn("Tool failed", "step", state.StepIndex, "name", req.Name, "error", result.Err, "durationMs", time.Since(start).Milliseconds())
		state.Conversation.Append(
			entity.Message{Role: entity.RoleAssistant, Content: reply},
			entity.Message{Role: entity.RoleUser, Content: "Tool error: " + result.Err.Error()},
		)
		emitter.Emit(entity.AppendEvent(entity.RoleAssistant, recoveringText))
		return
	}

	observation := truncateObservation(result.Summary)
	log.Debug("Tool completed", "step", state.StepIndex, "name", req.Name, "resultLen", len(observation), "durationMs", time.Since(start).Milliseconds())
	state.Conversation.Append(
		entity.Message{Role: entity.RoleAssistant, Content: reply},
		entity.Message{Role: entity.RoleUser, Content: observation},
	)

	narration := result.Narration
	if narration == "" {
		narration = toolDoneText
	}
	emitter.Emit(entity.AppendEvent(entity.RoleAssistant, narration))
}

func (uc *UseCase) finish(
	log output.LoggerPort,
	state *entity.RunState,
	start time.Time,
	answer string,
	steps, toolCalls int,
	forced bool,
) *entity.RunResult {
	state.Status = entity.RunStatusCompleted
	log.Info("Run completed",
		"steps", steps,
		"toolCalls", toolCalls,
		"forced", forced,
		"messages", state.Conversation.Len(),
		"durationMs", time.Since(start).Milliseconds())

	return &entity.RunResult{
		RunID:        state.ID,
		Answer:       answer,
		Steps:        steps,
		ToolCalls:    toolCalls,
		Forced:       forced,
		Conversation: state.Conversation.Messages(),
	}
}

func (uc *UseCase) fail(log output.LoggerPort, state *entity.RunState, err error) error {
	state.Status = entity.RunStatusFailed
	log.Error("Run failed", "step", state.StepIndex, "error", err)
	return err
}

func goalMessage(goal, toolsPrompt string) string {
	return fmt.Sprintf("Goal: %s\n\nTools:\n%s", goal, toolsPrompt)
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func truncateObservation(s string) string {
	if len(s) <= maxObservationLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxObservationLen {
		return s
	}
	return string(runes[:maxObservationLen])
}
