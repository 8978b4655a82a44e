package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"web-agent/internal/adapter/tool"
	"web-agent/internal/application/port/input"
	"web-agent/internal/application/port/output"
	"web-agent/internal/application/service"
	"web-agent/internal/domain/entity"
	"web-agent/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testSystemPrompt = "You are a test agent."
	testToolsPrompt  = "- web.search: Search the web."

	searchCall  = `{"name":"web.search","input":{"query":"capital of France"}}`
	extractCall = `{"name":"web.extract","input":{"url":"https://en.wikipedia.org/wiki/Paris"}}`
)

// scriptedLLM replays replies in order and repeats the last one forever.
type scriptedLLM struct {
	mu       sync.Mutex
	replies  []string
	failAt   int
	err      error
	requests []output.ChatRequest
}

func newScriptedLLM(replies ...string) *scriptedLLM {
	return &scriptedLLM{replies: replies, failAt: -1}
}

func (s *scriptedLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.requests)
	s.requests = append(s.requests, req)
	if idx == s.failAt {
		return nil, s.err
	}

	reply := s.replies[min(idx, len(s.replies)-1)]
	return &output.ChatResponse{Message: entity.Message{Role: entity.RoleAssistant, Content: reply}}, nil
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type fakeSearcher struct {
	results []entity.SearchResult
	err     error
	onCall  func()
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]entity.SearchResult, error) {
	if f.onCall != nil {
		f.onCall()
	}
	return f.results, f.err
}

type fakeFetcher struct{}

func (fakeFetcher) Fetch(ctx context.Context, url string) (*entity.FetchResult, error) {
	return &entity.FetchResult{URL: url, Status: 200, ContentType: "text/plain", Text: "ok"}, nil
}

type fakeExtractor struct {
	text string
}

func (f fakeExtractor) Extract(ctx context.Context, url string) (*entity.ExtractResult, error) {
	return &entity.ExtractResult{Title: "Paris", URL: url, Text: f.text}, nil
}

type recorder struct {
	events []entity.DisplayEvent
}

func (r *recorder) Emit(event entity.DisplayEvent) {
	r.events = append(r.events, event)
}

func parisResults() []entity.SearchResult {
	return []entity.SearchResult{{Title: "Paris - Wikipedia", URL: "https://en.wikipedia.org/wiki/Paris", Snippet: "Paris is the capital of France."}}
}

func newUseCase(llm output.LLMPort, searcher output.WebSearcher, opts ...Option) *UseCase {
	return newUseCaseWithLogger(llm, searcher, logger.NewNop(), opts...)
}

func newUseCaseWithLogger(llm output.LLMPort, searcher output.WebSearcher, log output.LoggerPort, opts ...Option) *UseCase {
	registry := service.NewToolRegistry(log)
	registry.Register(tool.NewSearchTool(searcher, log))
	registry.Register(tool.NewFetchTool(fakeFetcher{}, log))
	registry.Register(tool.NewExtractTool(fakeExtractor{text: strings.Repeat("x", 5000)}, log))
	return New(llm, registry, log, testSystemPrompt, testToolsPrompt, opts...)
}

func TestRun_DirectAnswer(t *testing.T) {
	llm := newScriptedLLM("Paris.")
	uc := newUseCase(llm, &fakeSearcher{})
	rec := &recorder{}

	res, err := uc.Run(context.Background(), "What is the capital of France?", 6, rec)
	require.NoError(t, err)

	assert.Equal(t, []entity.DisplayEvent{
		entity.AppendEvent(entity.RoleAssistant, "Thinking..."),
		entity.ReplaceLastEvent(entity.RoleAssistant, "Paris."),
	}, rec.events)
	assert.Equal(t, 1, llm.calls())
	assert.Equal(t, "Paris.", res.Answer)
	assert.Equal(t, 1, res.Steps)
	assert.Zero(t, res.ToolCalls)
	assert.False(t, res.Forced)

	require.Len(t, llm.requests[0].Messages, 2)
	assert.Equal(t, entity.Message{Role: entity.RoleSystem, Content: testSystemPrompt}, llm.requests[0].Messages[0])
	assert.Equal(t, entity.Message{
		Role:    entity.RoleUser,
		Content: "Goal: What is the capital of France?\n\nTools:\n" + testToolsPrompt,
	}, llm.requests[0].Messages[1])
	assert.InDelta(t, DefaultTemperature, llm.requests[0].Temperature, 1e-6)

	// The final answer is not folded back into the conversation.
	assert.Len(t, res.Conversation, 2)
}

func TestRun_SearchThenAnswer(t *testing.T) {
	llm := newScriptedLLM(searchCall, "Paris is the capital of France.")
	uc := newUseCase(llm, &fakeSearcher{results: parisResults()})
	rec := &recorder{}

	res, err := uc.Run(context.Background(), "capital of France?", 6, rec)
	require.NoError(t, err)

	assert.Equal(t, []entity.DisplayEvent{
		entity.AppendEvent(entity.RoleAssistant, "Thinking..."),
		entity.ReplaceLastEvent(entity.RoleAssistant, "Using web.search..."),
		entity.AppendEvent(entity.RoleTool, `web.search {"query":"capital of France"}`),
		entity.AppendEvent(entity.RoleAssistant, "Processing results..."),
		entity.ReplaceLastEvent(entity.RoleAssistant, "Paris is the capital of France."),
	}, rec.events)
	assert.Equal(t, 2, llm.calls())
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, 1, res.ToolCalls)

	second := llm.requests[1].Messages
	require.Len(t, second, 4)
	assert.Equal(t, entity.Message{Role: entity.RoleAssistant, Content: searchCall}, second[2])
	assert.Equal(t, entity.RoleUser, second[3].Role)
	assert.Equal(t, "Tool result for web.search:\n"+
		"1. Paris - Wikipedia — https://en.wikipedia.org/wiki/Paris\n"+
		"   Paris is the capital of France.", second[3].Content)
}

func TestRun_ForcedSummaryAtBudgetOne(t *testing.T) {
	llm := newScriptedLLM(searchCall, "Summary: Paris.")
	uc := newUseCase(llm, &fakeSearcher{results: parisResults()})
	rec := &recorder{}

	res, err := uc.Run(context.Background(), "capital of France?", 1, rec)
	require.NoError(t, err)

	assert.Equal(t, 2, llm.calls())
	assert.True(t, res.Forced)
	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, "Summary: Paris.", res.Answer)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, entity.ReplaceLastEvent(entity.RoleAssistant, "Summary: Paris."), last)

	final := llm.requests[1].Messages
	require.Len(t, final, 5)
	assert.Equal(t, entity.Message{Role: entity.RoleUser, Content: "Please provide a concise final answer now."}, final[4])
}

func TestRun_ForcedSummaryEvenWhenModelKeepsCallingTools(t *testing.T) {
	llm := newScriptedLLM(searchCall)
	uc := newUseCase(llm, &fakeSearcher{results: parisResults()})
	rec := &recorder{}

	res, err := uc.Run(context.Background(), "goal", 2, rec)
	require.NoError(t, err)

	// The summary reply is final content even though it looks like a tool call.
	assert.True(t, res.Forced)
	assert.Equal(t, searchCall, res.Answer)
	assert.Equal(t, entity.ReplaceLastEvent(entity.RoleAssistant, searchCall), rec.events[len(rec.events)-1])
}

func TestRun_ModelCallBound(t *testing.T) {
	for budget := entity.MinStepBudget; budget <= entity.MaxStepBudget; budget++ {
		t.Run(fmt.Sprintf("budget_%d", budget), func(t *testing.T) {
			llm := newScriptedLLM(searchCall)
			uc := newUseCase(llm, &fakeSearcher{results: parisResults()})

			res, err := uc.Run(context.Background(), "goal", budget, nil)
			require.NoError(t, err)

			assert.Equal(t, budget+1, llm.calls())
			assert.Equal(t, budget, res.ToolCalls)
		})
	}
}

func TestRun_StepBudgetIsClamped(t *testing.T) {
	tests := []struct {
		steps     int
		wantCalls int
	}{
		{0, 2},
		{-3, 2},
		{25, 21},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("steps_%d", tt.steps), func(t *testing.T) {
			llm := newScriptedLLM(searchCall)
			uc := newUseCase(llm, &fakeSearcher{results: parisResults()})

			_, err := uc.Run(context.Background(), "goal", tt.steps, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, llm.calls())
		})
	}
}

func TestRun_TwoEventsBeforeEachToolExecution(t *testing.T) {
	llm := newScriptedLLM(searchCall, searchCall, "done")
	rec := &recorder{}
	var seenAtCall [][]entity.DisplayEvent
	searcher := &fakeSearcher{results: parisResults()}
	searcher.onCall = func() {
		seenAtCall = append(seenAtCall, append([]entity.DisplayEvent(nil), rec.events...))
	}
	uc := newUseCase(llm, searcher)

	_, err := uc.Run(context.Background(), "goal", 6, rec)
	require.NoError(t, err)

	require.Len(t, seenAtCall, 2)
	for _, events := range seenAtCall {
		require.GreaterOrEqual(t, len(events), 2)
		tail := events[len(events)-2:]
		assert.Equal(t, entity.ReplaceLastEvent(entity.RoleAssistant, "Using web.search..."), tail[0])
		assert.Equal(t, entity.AppendEvent(entity.RoleTool, `web.search {"query":"capital of France"}`), tail[1])
	}
}

func TestRun_SchemaFailureIsFinalAnswer(t *testing.T) {
	replies := []string{
		`{"name":"web.search","input":{}}`,
		`{"name":"web.browse","input":{"url":"https://go.dev"}}`,
		`{"name":"web.fetch","input":{"url":"go.dev"}}`,
		`{"name":"web.search","input":{"query":"x","maxResults":0}}`,
	}
	for _, reply := range replies {
		t.Run(reply, func(t *testing.T) {
			llm := newScriptedLLM(reply)
			uc := newUseCase(llm, &fakeSearcher{})
			rec := &recorder{}

			res, err := uc.Run(context.Background(), "goal", 6, rec)
			require.NoError(t, err)

			assert.Equal(t, 1, llm.calls())
			assert.Equal(t, reply, res.Answer)
			assert.Equal(t, entity.ReplaceLastEvent(entity.RoleAssistant, reply), rec.events[len(rec.events)-1])
		})
	}
}

func TestRun_ToolFailureContinues(t *testing.T) {
	llm := newScriptedLLM(searchCall, "I could not search, but Paris.")
	uc := newUseCase(llm, &fakeSearcher{err: errors.New("duckduckgo http 503")})
	rec := &recorder{}

	res, err := uc.Run(context.Background(), "goal", 6, rec)
	require.NoError(t, err)

	assert.Equal(t, 2, llm.calls())
	assert.Equal(t, "I could not search, but Paris.", res.Answer)
	assert.Contains(t, rec.events, entity.AppendEvent(entity.RoleAssistant, "Tool failed, recovering..."))

	second := llm.requests[1].Messages
	require.Len(t, second, 4)
	assert.Equal(t, entity.Message{Role: entity.RoleAssistant, Content: searchCall}, second[2])
	assert.Equal(t, entity.Message{Role: entity.RoleUser, Content: "Tool error: duckduckgo http 503"}, second[3])
}

func TestRun_ObservationIsTruncated(t *testing.T) {
	llm := newScriptedLLM(extractCall, "done")
	uc := newUseCase(llm, &fakeSearcher{})

	_, err := uc.Run(context.Background(), "goal", 6, nil)
	require.NoError(t, err)

	observation := llm.requests[1].Messages[3].Content
	assert.Equal(t, maxObservationLen, len([]rune(observation)))
	assert.True(t, strings.HasPrefix(observation, "Tool result for web.extract from Paris (https://en.wikipedia.org/wiki/Paris):\n"))
}

func TestRun_ConversationNeverShrinks(t *testing.T) {
	llm := newScriptedLLM(searchCall, extractCall, searchCall)
	uc := newUseCase(llm, &fakeSearcher{err: errors.New("flaky")})

	res, err := uc.Run(context.Background(), "goal", 3, nil)
	require.NoError(t, err)

	prev := []entity.Message{}
	for i, req := range llm.requests {
		require.GreaterOrEqual(t, len(req.Messages), len(prev), "request %d shrank", i)
		assert.Equal(t, prev, req.Messages[:len(prev)], "request %d rewrote history", i)
		prev = req.Messages
	}
	assert.Equal(t, prev, res.Conversation)
}

func TestRun_ModelFailureIsFatal(t *testing.T) {
	upstream := errors.New("503 service unavailable")
	llm := newScriptedLLM(searchCall)
	llm.failAt = 1
	llm.err = upstream
	uc := newUseCase(llm, &fakeSearcher{results: parisResults()})
	rec := &recorder{}

	res, err := uc.Run(context.Background(), "goal", 6, rec)

	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), "llm request failed")
	for _, ev := range rec.events {
		assert.NotContains(t, ev.Content, "503")
	}
}

func TestRun_ForcedSummaryFailureIsFatal(t *testing.T) {
	upstream := errors.New("timeout")
	llm := newScriptedLLM(searchCall)
	llm.failAt = 1
	llm.err = upstream
	uc := newUseCase(llm, &fakeSearcher{results: parisResults()})

	_, err := uc.Run(context.Background(), "goal", 1, nil)
	assert.ErrorIs(t, err, upstream)
}

func TestRun_UsesRunIDFromContext(t *testing.T) {
	uc := newUseCase(newScriptedLLM("ok"), &fakeSearcher{})

	res, err := uc.Run(input.WithRunID(context.Background(), "run-123"), "goal", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "run-123", res.RunID)

	res, err = uc.Run(context.Background(), "goal", 1, nil)
	require.NoError(t, err)
	assert.Len(t, res.RunID, 36)
}

func TestRun_WithTemperature(t *testing.T) {
	llm := newScriptedLLM("ok")
	uc := newUseCase(llm, &fakeSearcher{}, WithTemperature(0.9))

	_, err := uc.Run(context.Background(), "goal", 1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, llm.requests[0].Temperature, 1e-6)
}

func TestRun_LogsCompletion(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := logger.New(zap.New(core))
	uc := newUseCaseWithLogger(newScriptedLLM(searchCall, "done"), &fakeSearcher{results: parisResults()}, log)

	res, err := uc.Run(context.Background(), "goal", 6, nil)
	require.NoError(t, err)

	completed := logs.FilterMessage("Run completed").All()
	require.Len(t, completed, 1)
	fields := completed[0].ContextMap()
	assert.Equal(t, res.RunID, fields["run_id"])
	assert.EqualValues(t, 1, fields["toolCalls"])
	assert.Equal(t, false, fields["forced"])
}

func TestEvents_YieldsSameSequenceAsRun(t *testing.T) {
	llm := newScriptedLLM(searchCall, "Paris.")
	uc := newUseCase(llm, &fakeSearcher{results: parisResults()})

	var events []entity.DisplayEvent
	for ev, err := range uc.Events(context.Background(), "goal", 6) {
		require.NoError(t, err)
		events = append(events, ev)
	}

	require.Len(t, events, 5)
	assert.Equal(t, entity.AppendEvent(entity.RoleAssistant, "Thinking..."), events[0])
	assert.Equal(t, entity.ReplaceLastEvent(entity.RoleAssistant, "Paris."), events[4])
}

func TestEvents_IsLazy(t *testing.T) {
	llm := newScriptedLLM("ok")
	uc := newUseCase(llm, &fakeSearcher{})

	seq := uc.Events(context.Background(), "goal", 6)
	assert.Zero(t, llm.calls())

	for range seq {
	}
	assert.Equal(t, 1, llm.calls())
}

func TestEvents_BreakCancelsRun(t *testing.T) {
	llm := newScriptedLLM(searchCall)
	uc := newUseCase(llm, &fakeSearcher{results: parisResults()})

	for range uc.Events(context.Background(), "goal", 20) {
		break
	}

	// Stopped right after "Thinking...", before the first completion.
	assert.Zero(t, llm.calls())
}

func TestEvents_FatalErrorIsLast(t *testing.T) {
	upstream := errors.New("boom")
	llm := newScriptedLLM("unused")
	llm.failAt = 0
	llm.err = upstream
	uc := newUseCase(llm, &fakeSearcher{})

	var events []entity.DisplayEvent
	var errs []error
	for ev, err := range uc.Events(context.Background(), "goal", 6) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, ev)
	}

	assert.Equal(t, []entity.DisplayEvent{entity.AppendEvent(entity.RoleAssistant, "Thinking...")}, events)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], upstream)
}

func TestEvents_SecondIteration(t *testing.T) {
	uc := newUseCase(newScriptedLLM("ok"), &fakeSearcher{})
	seq := uc.Events(context.Background(), "goal", 6)

	for range seq {
	}

	var errs []error
	for _, err := range seq {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrSequenceConsumed)
}
