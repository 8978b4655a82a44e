package di

import (
	"context"
	"fmt"

	"web-agent/internal/adapter/tool"
	"web-agent/internal/application/port/input"
	"web-agent/internal/application/port/output"
	"web-agent/internal/application/service"
	"web-agent/internal/infrastructure/browser/rod"
	"web-agent/internal/infrastructure/llm/anthropic"
	"web-agent/internal/infrastructure/llm/ollama"
	"web-agent/internal/infrastructure/llm/openai"
	"web-agent/internal/infrastructure/logger"
	"web-agent/internal/infrastructure/prompts"
	"web-agent/internal/infrastructure/web"
	"web-agent/internal/usecase/executor"
)

type Container struct {
	Config      Config
	LLM         output.LLMPort
	Logger      output.LoggerPort
	Tools       output.ToolRegistry
	PageLoader  output.PageLoader
	RunExecutor input.RunExecutor
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.NewLoggerAdapter(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return newContainer(ctx, cfg, log)
}

// newContainer wires everything behind an already built logger.
func newContainer(ctx context.Context, cfg Config, log output.LoggerPort) (*Container, error) {
	llm, err := newLLM(cfg, log)
	if err != nil {
		log.Close()
		return nil, err
	}

	loader, err := newPageLoader(ctx, cfg)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create page loader: %w", err)
	}

	tools := service.NewToolRegistry(log)
	registerWebTools(tools, cfg.Web, loader, log)

	toolsPrompt, err := prompts.GenerateToolsPrompt(prompts.ToolsTemplate, tools)
	if err != nil {
		loader.Close()
		log.Close()
		return nil, fmt.Errorf("failed to render tools prompt: %w", err)
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompts.DefaultSystemPrompt
	}

	uc := executor.New(llm, tools, log, systemPrompt, toolsPrompt,
		executor.WithTemperature(cfg.LLMTemperature))

	log.Info("Container ready",
		"provider", cfg.LLMProvider,
		"model", cfg.model(),
		"renderer", cfg.WebRenderer,
		"tools", len(tools.All()))

	return &Container{
		Config:      cfg,
		LLM:         llm,
		Logger:      log,
		Tools:       tools,
		PageLoader:  loader,
		RunExecutor: uc,
	}, nil
}

func (c *Container) Close() {
	if c.PageLoader != nil {
		c.PageLoader.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}

func newLLM(cfg Config, log output.LoggerPort) (output.LLMPort, error) {
	switch cfg.LLMProvider {
	case ProviderOpenAI:
		llmCfg := openai.DefaultConfig(cfg.OpenAIAPIKey, cfg.model())
		if cfg.LLMBaseURL != "" {
			llmCfg.BaseURL = cfg.LLMBaseURL
		}
		llmCfg.Logger = log
		return openai.NewOpenAIAdapter(llmCfg), nil

	case ProviderAnthropic:
		llmCfg := anthropic.DefaultConfig(cfg.AnthropicAPIKey, cfg.model())
		llmCfg.BaseURL = cfg.LLMBaseURL
		return anthropic.NewAnthropicAdapter(llmCfg), nil

	case ProviderOllama:
		llmCfg := ollama.DefaultConfig(cfg.model())
		llmCfg.Host = cfg.OllamaHost
		return ollama.NewOllamaAdapter(llmCfg)
	}
	return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
}

func newPageLoader(ctx context.Context, cfg Config) (output.PageLoader, error) {
	if cfg.WebRenderer == RendererBrowser {
		browserCfg := rod.DefaultConfig()
		browserCfg.Timeout = cfg.Web.Timeout
		return rod.NewBrowserAdapter(ctx, browserCfg)
	}
	return web.NewHTTPPageLoader(cfg.Web), nil
}

func registerWebTools(registry *service.ToolRegistryImpl, cfg web.Config, loader output.PageLoader, log output.LoggerPort) {
	registry.Register(tool.NewSearchTool(web.NewDuckDuckGo(cfg), log))
	registry.Register(tool.NewFetchTool(web.NewFetcher(cfg), log))
	registry.Register(tool.NewExtractTool(web.NewExtractor(loader), log))
}
