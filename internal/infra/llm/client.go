// Package llm sends quiz prompts to a language model through langchaingo.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

var errEmptyCompletion = errors.New("model returned no choices")

var usageKeys = []string{"PromptTokens", "CompletionTokens", "TotalTokens"}

// Config selects and tunes the model backend.
type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Temperature float64
}

// Factory builds a model handle for one model id.
type Factory func(model string) (llms.Model, error)

// Client implements app.Generator. Model handles are created lazily and
// reused per model id.
type Client struct {
	factory     Factory
	temperature float64
	log         zerolog.Logger

	mu     sync.Mutex
	models map[string]llms.Model
}

func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	factory, err := providerFactory(cfg)
	if err != nil {
		return nil, err
	}
	return NewClientWithFactory(factory, cfg.Temperature, log), nil
}

func NewClientWithFactory(factory Factory, temperature float64, log zerolog.Logger) *Client {
	return &Client{
		factory:     factory,
		temperature: temperature,
		log:         log.With().Str("component", "llm").Logger(),
		models:      make(map[string]llms.Model),
	}
}

func providerFactory(cfg Config) (Factory, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOllama:
		return func(model string) (llms.Model, error) {
			opts := []ollama.Option{ollama.WithModel(model)}
			if cfg.BaseURL != "" {
				opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
			}
			return ollama.New(opts...)
		}, nil
	case ProviderOpenAI:
		return func(model string) (llms.Model, error) {
			opts := []openai.Option{openai.WithModel(model), openai.WithToken(cfg.APIKey)}
			if cfg.BaseURL != "" {
				opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
			}
			return openai.New(opts...)
		}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Generate sends prompt as a single user message and returns the text of
// the first choice.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	m, err := c.model(model)
	if err != nil {
		return "", err
	}

	resp, err := m.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithTemperature(c.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", model, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("call %s: %w", model, errEmptyCompletion)
	}

	choice := resp.Choices[0]
	c.log.Debug().
		Str("model", model).
		Int("prompt_chars", len(prompt)).
		Int("response_chars", len(choice.Content)).
		Interface("usage", lo.PickByKeys(choice.GenerationInfo, usageKeys)).
		Msg("completion received")
	return choice.Content, nil
}

func (c *Client) model(id string) (llms.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[id]; ok {
		return m, nil
	}
	m, err := c.factory(id)
	if err != nil {
		return nil, fmt.Errorf("init model %s: %w", id, err)
	}
	c.models[id] = m
	return m, nil
}
