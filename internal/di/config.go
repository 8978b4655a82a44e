package di

import (
	"fmt"
	"strings"
	"time"

	"web-agent/internal/application/port/output"
	"web-agent/internal/infrastructure/logger"
	"web-agent/internal/infrastructure/web"
	"web-agent/internal/usecase/executor"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"

	RendererHTTP    = "http"
	RendererBrowser = "browser"
)

var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderOllama:    "llama3.1",
}

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	LLMProvider     string
	LLMModel        string
	LLMBaseURL      string
	LLMTemperature  float32
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string

	WebRenderer string
	Web         web.Config

	Log logger.Config

	// SystemPrompt overrides the embedded system prompt when set.
	SystemPrompt string
}

func ConfigFromEnv(env output.ConfigPort) Config {
	webCfg := web.DefaultConfig()
	webCfg.Timeout = env.GetDuration("WEB_TIMEOUT", webCfg.Timeout)
	webCfg.UserAgent = env.GetWithDefault("WEB_USER_AGENT", webCfg.UserAgent)
	webCfg.SearchEndpoint = env.GetWithDefault("SEARCH_ENDPOINT", webCfg.SearchEndpoint)

	logCfg := logger.DefaultConfig()
	logCfg.Level = env.GetWithDefault("LOG_LEVEL", logCfg.Level)
	logCfg.Format = env.GetWithDefault("LOG_FORMAT", logCfg.Format)
	logCfg.File = env.GetWithDefault("LOG_FILE", logCfg.File)

	return Config{
		HTTPAddr:        env.GetWithDefault("HTTP_ADDR", ":3000"),
		ShutdownTimeout: env.GetDuration("SHUTDOWN_TIMEOUT", 5*time.Second),

		LLMProvider:     strings.ToLower(env.GetWithDefault("LLM_PROVIDER", ProviderOpenAI)),
		LLMModel:        env.Get("LLM_MODEL"),
		LLMBaseURL:      env.Get("LLM_BASE_URL"),
		LLMTemperature:  float32(env.GetFloat("LLM_TEMPERATURE", executor.DefaultTemperature)),
		OpenAIAPIKey:    env.Get("OPENAI_API_KEY"),
		AnthropicAPIKey: env.Get("ANTHROPIC_API_KEY"),
		OllamaHost:      env.GetWithDefault("OLLAMA_HOST", "http://localhost:11434"),

		WebRenderer: strings.ToLower(env.GetWithDefault("WEB_RENDERER", RendererHTTP)),
		Web:         webCfg,

		Log: logCfg,
	}
}

func (c Config) model() string {
	if c.LLMModel != "" {
		return c.LLMModel
	}
	return defaultModels[c.LLMProvider]
}

func (c Config) Validate() error {
	if _, ok := defaultModels[c.LLMProvider]; !ok {
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.WebRenderer != RendererHTTP && c.WebRenderer != RendererBrowser {
		return fmt.Errorf("unsupported WEB_RENDERER %q", c.WebRenderer)
	}
	return nil
}
