package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/sozercan/insight-gateway/internal/config"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// OpenAI talks to OpenAI or an Azure OpenAI deployment.
type OpenAI struct {
	client   *openai.Client
	cfg      config.LLMConfig
	provider string
}

func NewOpenAI(cfg config.LLMConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s api key is required", cfg.Provider)
	}

	var client *openai.Client

	switch cfg.Provider {
	case "azure":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("azure endpoint is required")
		}
		client = openai.NewClient(
			azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
			option.WithMaxRetries(0),
		)
	default: // "openai"
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOpenAIEndpoint
		}
		client = openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(endpoint),
			option.WithMaxRetries(0),
		)
	}

	return &OpenAI{
		client:   client,
		cfg:      cfg,
		provider: cfg.Provider,
	}, nil
}

func (o *OpenAI) Name() string {
	return o.provider
}

func (o *OpenAI) Complete(ctx context.Context, prompt string, opts ...Option) (*Response, error) {
	options := applyOptions(Options{
		Model:       o.cfg.Model,
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
	}, opts)

	messages := []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)}

	params := openai.ChatCompletionNewParams{
		Model:       openai.F(options.Model),
		Messages:    openai.F(messages),
		Temperature: openai.F(options.Temperature),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.F(options.MaxTokens)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", o.provider, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
