package owner

import (
	"context"

	"github.com/ppiankov/mapleads/internal/llm"
	"github.com/rotisserie/eris"
)

// Service answers one owner question. Implementations return the raw model
// text; validation happens in the queue.
type Service interface {
	Lookup(ctx context.Context, q Query, aggressive bool) (string, error)
}

// LLMService asks an llm.Provider
type LLMService struct {
	provider  llm.Provider
	webSearch bool
	maxTokens int
}

// NewLLMService wraps a provider. webSearch enables search grounding on
// providers that support it.
func NewLLMService(provider llm.Provider, webSearch bool, maxTokens int) *LLMService {
	return &LLMService{provider: provider, webSearch: webSearch, maxTokens: maxTokens}
}

// Lookup implements Service
func (s *LLMService) Lookup(ctx context.Context, q Query, aggressive bool) (string, error) {
	prompt := conservativePrompt(q)
	if aggressive {
		prompt = aggressivePrompt(q)
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: s.maxTokens,
		WebSearch: s.webSearch,
	})
	if err != nil {
		return "", eris.Wrapf(err, "owner: %s lookup", s.provider.Name())
	}
	return resp.Text, nil
}
