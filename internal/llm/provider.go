package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ppiankov/mapleads/internal/util"
	"github.com/rotisserie/eris"
)

// ErrRateLimited is wrapped by every provider when the upstream API answers 429
var ErrRateLimited = eris.New("llm: rate limited")

// IsRateLimited reports whether err carries ErrRateLimited
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate runs a single prompt and returns the model's text answer
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Request is one prompt
type Request struct {
	// System is the optional system instruction
	System string

	// Prompt is the user message
	Prompt string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// WebSearch asks providers that support it to ground the answer in live search results
	WebSearch bool
}

// Response contains the model output
type Response struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "gemini", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, proxies, tests)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   60,
		MaxTokens: 300,
	}
}

func maxTokensOr(req Request, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 300
}

func modelOr(req Request, cfg Config, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if cfg.Model != "" {
		return cfg.Model
	}
	return fallback
}

// proxiedClient returns an HTTP client that honors the configured proxies.
// timeout 0 leaves deadlines to the caller's context.
func proxiedClient(cfg Config, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	return &http.Client{Timeout: timeout, Transport: transport}
}
