package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/korolevd/textifier/internal/model"
)

// OpenAIProvider implements Provider over the Chat Completions API.
type OpenAIProvider struct {
	client *openai.Client
	cfg    model.LLMConfig
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates an OpenAI-backed provider.
func NewOpenAIProvider(cfg model.LLMConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Summarize generates a summary of the rendered entity text.
func (p *OpenAIProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req)
	}

	chatModel := p.cfg.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.cfg.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1000
	}

	timeout := time.Duration(p.cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You summarize knowledge-base entities using only the facts provided.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai completion: empty response")
	}

	return &SummarizeResponse{
		Summary:    resp.Choices[0].Message.Content,
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
