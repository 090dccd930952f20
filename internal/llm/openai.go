package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// Client defines the advisory-generation dependency of the triage pipeline.
// Advise takes a role-specific system instruction plus the composed patient
// prompt and returns the free-text advisory.
type Client interface {
	Advise(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAIClient calls an OpenAI-compatible chat completion API for advisory
// generation. Pointing BaseURL at a compatible provider (the deployment in
// front of this code uses Cerebras) works unchanged.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// Config carries the settings for an OpenAIClient.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewOpenAIClient constructs an advisory client. An empty BaseURL keeps the
// default OpenAI endpoint.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: 0.7,
		maxTokens:   500,
	}
}

// Advise sends the system instruction and user prompt to the chat
// completion API and returns the advisory text.
func (c *OpenAIClient) Advise(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.client == nil {
		return "", errors.New("llm client not initialized")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
