package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const freeTierTemperature = 0.2

// OpenRouterProvider is the text-only backend. OpenRouter exposes an
// OpenAI-compatible chat completions API, so the go-openai client is reused
// with a different base URL.
type OpenRouterProvider struct {
	client *openai.Client
	model  string
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg VendorConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	baseURL := defaultOpenRouterBaseURL
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultFreeModel
	}

	return &OpenRouterProvider{
		client: newOpenRouterClient(cfg.APIKey, baseURL),
		model:  model,
	}, nil
}

func newOpenRouterClient(apiKey, baseURL string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	config.HTTPClient = newErrorBodyClient()
	return openai.NewClientWithConfig(config)
}

func (p *OpenRouterProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if len(req.Files) > 0 {
		return nil, &ConfigError{
			Provider: p.Name(),
			Msg:      msgFreeTierText,
		}
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = freeTierTemperature
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       modelOr(req, p.model),
		Messages:    buildOpenRouterMessages(req),
		Temperature: float32(temperature),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	ctx, raw := withErrorBody(ctx)
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, mapOpenRouterError(err, raw.String())
	}

	out := &Response{
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Model:      resp.Model,
		StopReason: "end",
	}
	if len(resp.Choices) > 0 {
		out.Text = strings.TrimSpace(resp.Choices[0].Message.Content)
		out.StopReason = mapFinishReason(resp.Choices[0].FinishReason)
	}
	return out, nil
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) ModelID() string { return p.model }

func buildOpenRouterMessages(req Request) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.FlatPrompt(),
	})
}

func mapFinishReason(reason openai.FinishReason) string {
	switch reason {
	case openai.FinishReasonLength:
		return "max_tokens"
	default:
		return "end"
	}
}

// mapOpenRouterError prefers the raw response body over the decoded
// message so callers see exactly what the service returned.
func mapOpenRouterError(err error, body string) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if body == "" {
			body = apiErr.Message
		}
		return newBackendError("openrouter", apiErr.HTTPStatusCode, body, nil, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if body == "" {
			body = string(reqErr.Body)
		}
		return newBackendError("openrouter", reqErr.HTTPStatusCode, body, nil, err)
	}
	return newBackendError("openrouter", 0, "", nil, err)
}
