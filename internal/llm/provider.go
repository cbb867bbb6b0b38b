// Package llm provides the optional entity summarizer. It sits strictly
// after rendering and never feeds back into normalization.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/korolevd/textifier/internal/model"
)

// Provider generates a natural-language summary from a rendered entity text.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)
}

// SummarizeRequest carries the prose rendering of one entity.
type SummarizeRequest struct {
	EntityID  string
	Text      string
	Lang      string
	Prompt    string
	MaxTokens int
}

// SummarizeResponse is the generated summary.
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// NewProvider builds a provider from configuration. An empty provider name
// means summarization is disabled (nil, nil).
func NewProvider(cfg model.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		p, err := NewOpenAIProvider(cfg)
		if err != nil {
			// A bare nil, not a typed-nil *OpenAIProvider inside the
			// interface; callers nil-check the interface.
			return nil, err
		}
		return p, nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", cfg.Provider)
	}
}

// BuildPrompt constructs the default summarization prompt. The model is told
// to stay inside the rendered facts; it must not add outside knowledge.
func BuildPrompt(req SummarizeRequest) string {
	return fmt.Sprintf(`Summarize the following knowledge-base entity in plain %s prose.

RULES:
1. Use ONLY the facts listed below. Do not add outside knowledge.
2. If an attribute is marked [deprecated], mention it only as historical.
3. Keep the summary to a few sentences.

Entity %s:
%s`, req.Lang, req.EntityID, req.Text)
}
