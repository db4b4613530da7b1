package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// ErrMissingAPIKey is returned when an analysis is requested without an LLM key.
var ErrMissingAPIKey = errors.New("DeepSeek API key is required - set deepseek_api_key in config.toml or the DEEPSEEK_API_KEY environment variable")

// ChatClient sends a system and user message and returns the reply text.
// With jsonMode set the model is asked for a JSON object.
type ChatClient interface {
	Complete(ctx context.Context, model, system, user string, jsonMode bool) (string, error)
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a client for baseURL. An empty baseURL uses OpenAI's.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client}
}

// Complete implements ChatClient
func (c *OpenAIClient) Complete(ctx context.Context, model, system, user string, jsonMode bool) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.3),
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from %s", model)
	}
	return resp.Choices[0].Message.Content, nil
}

const analystSystemPrompt = "You are DeepRead, an analyst that turns video transcripts into structured study material. Always answer with valid JSON matching the requested shape."

// AI runs analysis prompts against the configured model
type AI struct {
	client     ChatClient
	model      string
	baseURL    string
	timeout    time.Duration
	apiKey     string
	clientOnce sync.Once
}

// NewAI creates an AI with an explicit client, mostly for tests
func NewAI(client ChatClient, model string, timeout time.Duration) *AI {
	return &AI{
		client:  client,
		model:   model,
		timeout: timeout,
	}
}

// NewAIWithKey creates an AI whose client is built on first use
func NewAIWithKey(apiKey, baseURL, model string, timeout time.Duration) *AI {
	return &AI{
		model:   model,
		baseURL: baseURL,
		timeout: timeout,
		apiKey:  apiKey,
	}
}

// ensureClient initializes the client if needed
func (ai *AI) ensureClient() error {
	ai.clientOnce.Do(func() {
		if ai.client == nil && ai.apiKey != "" {
			ai.client = NewOpenAIClient(ai.apiKey, ai.baseURL)
		}
	})
	if ai.client == nil {
		return ErrMissingAPIKey
	}
	return nil
}

// JSON sends prompt in JSON mode and returns the raw reply
func (ai *AI) JSON(ctx context.Context, prompt string) (string, error) {
	if err := ai.ensureClient(); err != nil {
		return "", err
	}

	if ai.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ai.timeout)
		defer cancel()
	}

	content, err := ai.client.Complete(ctx, ai.model, analystSystemPrompt, prompt, true)
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}
	return content, nil
}
