// Package llm is the single entry point to the hosted chat-completion
// providers. OpenAI and Groq are both reached through the OpenAI-compatible
// eino chat model; Groq only differs by base URL, key and model.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"studynotes/config"
	"studynotes/logger"
	"studynotes/metrics"
)

const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"

	SystemInstruction  = "You are an expert AI tutor. Explain clearly in simple terms."
	DefaultTemperature = float32(0.7)
	MaxOutputTokens    = 1200
)

// Providers is the whitelist accepted from forms and configuration.
var Providers = []string{ProviderOpenAI, ProviderGroq}

// IsSupported reports whether provider is one of Providers.
func IsSupported(provider string) bool {
	p := normalize(provider)
	for _, s := range Providers {
		if p == s {
			return true
		}
	}
	return false
}

// Generator is the part of an eino chat model the adapter needs.
type Generator interface {
	Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ModelFactory builds a Generator for one request. Tests swap it for a stub.
type ModelFactory func(ctx context.Context, cfg *openai.ChatModelConfig) (Generator, error)

func OpenAIFactory(ctx context.Context, cfg *openai.ChatModelConfig) (Generator, error) {
	m, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Request is one prompt plus optional per-call overrides of the configured
// provider, key, model and temperature.
type Request struct {
	Prompt   string
	Provider string // empty: configured default
	APIKey   string // empty: provider key from the environment
	Model    string // empty: provider model from the environment
	// Temperature nil means DefaultTemperature.
	Temperature *float32
}

// Completion is a successful answer.
type Completion struct {
	Text     string
	Provider string
	Model    string
	Duration time.Duration
}

// Client sends prompts to OpenAI-compatible chat APIs.
type Client struct {
	cfg     config.LLMConfig
	factory ModelFactory
	log     *logger.Logger
}

// NewClient builds models with OpenAIFactory.
func NewClient(cfg config.LLMConfig, log *logger.Logger) *Client {
	return &Client{cfg: cfg, factory: OpenAIFactory, log: log}
}

// WithFactory returns a copy of the client that builds models with f.
func (c *Client) WithFactory(f ModelFactory) *Client {
	cp := *c
	cp.factory = f
	return &cp
}

// DefaultProvider is the provider used when a request names none.
func (c *Client) DefaultProvider() string {
	if p := normalize(c.cfg.DefaultProvider); p != "" {
		return p
	}
	return ProviderOpenAI
}

// Resolve fills in provider, key and model from configuration. Nothing is
// sent over the network.
func (c *Client) Resolve(req Request) (provider, apiKey, modelName string, err error) {
	provider = normalize(req.Provider)
	if provider == "" {
		provider = c.DefaultProvider()
	}
	if !IsSupported(provider) {
		return provider, "", "", &Error{Kind: KindInvalidProvider, Provider: provider}
	}

	pc := c.cfg.Providers[provider]

	apiKey = strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		apiKey = pc.APIKey
	}
	if apiKey == "" {
		return provider, "", "", &Error{Kind: KindMissingKey, Provider: provider}
	}

	modelName = strings.TrimSpace(req.Model)
	if modelName == "" {
		modelName = pc.Model
	}
	return provider, apiKey, modelName, nil
}

// Complete issues exactly one chat-completion request and returns the
// trimmed text of the first choice. Provider and key problems are reported
// before any client is built.
func (c *Client) Complete(ctx context.Context, req Request) (*Completion, error) {
	provider, apiKey, modelName, err := c.Resolve(req)
	if err != nil {
		label := provider
		if !IsSupported(provider) {
			label = "invalid"
		}
		metrics.ObserveLLMRequest(label, outcome(err), 0)
		c.log.Warn("llm request rejected", "provider", label, "error", err)
		return nil, err
	}

	temperature := DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := MaxOutputTokens

	start := time.Now()
	text, err := c.generate(ctx, &openai.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     c.cfg.Providers[provider].BaseURL,
		Model:       modelName,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Timeout:     c.cfg.Timeout,
	}, req.Prompt)
	elapsed := time.Since(start)

	if err != nil {
		wrapped := &Error{Kind: KindUpstream, Provider: provider, Err: err}
		if err == ErrEmptyResponse {
			wrapped = &Error{Kind: KindEmptyResponse, Provider: provider}
		}
		metrics.ObserveLLMRequest(provider, outcome(wrapped), elapsed)
		c.log.Error("llm request failed",
			"provider", provider,
			"model", modelName,
			"duration", elapsed.String(),
			"error", err,
		)
		return nil, wrapped
	}

	metrics.ObserveLLMRequest(provider, "ok", elapsed)
	c.log.Info("llm request completed",
		"provider", provider,
		"model", modelName,
		"duration", elapsed.String(),
		"chars", len(text),
	)

	return &Completion{Text: text, Provider: provider, Model: modelName, Duration: elapsed}, nil
}

func (c *Client) generate(ctx context.Context, cfg *openai.ChatModelConfig, prompt string) (string, error) {
	chatModel, err := c.factory(ctx, cfg)
	if err != nil {
		return "", err
	}

	out, err := chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(SystemInstruction),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(out.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func outcome(err error) string {
	e, ok := err.(*Error)
	if !ok {
		return "error"
	}
	switch e.Kind {
	case KindInvalidProvider:
		return "invalid_provider"
	case KindMissingKey:
		return "missing_key"
	case KindEmptyResponse:
		return "empty"
	default:
		return "error"
	}
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
