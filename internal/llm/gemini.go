package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements the Provider interface for Google Gemini models.
// It is the only provider that grounds answers in live Google Search.
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, eris.New("Gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     strings.TrimSpace(config.APIKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: proxiedClient(config, 0),
	}
	if strings.TrimSpace(config.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(config.BaseURL)
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	return &GeminiProvider{
		client: client,
		config: config,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Generate runs the prompt through GenerateContent, with the Google Search
// tool attached when the request asks for web grounding.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	model := modelOr(req, p.config, defaultGeminiModel)
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}

	cfg := &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: int32(maxTokensOr(req, p.config)),
	}
	if req.WebSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, classifyGeminiErr(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, eris.New("gemini: empty response")
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &Response{Text: text, Model: model, TokensUsed: tokens}, nil
}

func classifyGeminiErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return eris.Wrapf(ErrRateLimited, "gemini: %v", err)
	}
	return eris.Wrap(err, "gemini: generate content")
}
