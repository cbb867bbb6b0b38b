package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korolevd/textifier/internal/model"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(model.LLMConfig{})
	require.NoError(t, err)
	assert.Nil(t, p, "no provider name means summarization is off")
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(model.LLMConfig{Provider: "oracle"})
	assert.Error(t, err)
}

func TestNewProviderOpenAIRequiresKey(t *testing.T) {
	p, err := NewProvider(model.LLMConfig{Provider: "openai"})
	assert.Error(t, err)
	// The interface itself must be nil, not a typed-nil implementation:
	// callers guard summarization with a plain == nil check.
	assert.True(t, p == nil, "error path returned a non-nil interface: %#v", p)

	p, err = NewProvider(model.LLMConfig{Provider: "openai", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(SummarizeRequest{
		EntityID: "Q42",
		Text:     "Douglas Adams, English writer",
		Lang:     "en",
	})
	assert.Contains(t, prompt, "Entity Q42:")
	assert.Contains(t, prompt, "Douglas Adams, English writer")
	assert.Contains(t, prompt, "Do not add outside knowledge")
}
