package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	ollamaDefaultURL     = "http://localhost:11434"
	ollamaDefaultTimeout = 120 * time.Second // local models load slowly on first use
	ollamaMaxErrorBody   = 4 << 10
)

// OllamaProvider talks to a local Ollama server through its chat endpoint.
// Local models have no web search; WebSearch is ignored.
type OllamaProvider struct {
	endpoint   string
	httpClient *http.Client
	config     Config
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	base := strings.TrimSuffix(config.BaseURL, "/")
	if base == "" {
		base = ollamaDefaultURL
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = ollamaDefaultTimeout
	}

	return &OllamaProvider{
		endpoint:   base + "/api/chat",
		httpClient: proxiedClient(config, timeout),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Generate runs one non-streaming chat turn
func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	model := modelOr(req, p.config, "")
	if model == "" {
		return nil, eris.New("ollama: model must be specified (e.g. llama3.1:8b)")
	}

	messages := make([]ollamaMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Options: map[string]any{
			"temperature": 0.2,
			"num_predict": maxTokensOr(req, p.config),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "ollama: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "ollama: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "ollama: execute request")
	}
	defer func() { _ = httpResp.Body.Close() }()

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, eris.Wrap(ErrRateLimited, "ollama")
	case httpResp.StatusCode != http.StatusOK:
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, ollamaMaxErrorBody))
		var apiErr ollamaChatResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return nil, eris.Errorf("ollama: status %d: %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, eris.Errorf("ollama: status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var resp ollamaChatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, eris.Wrap(err, "ollama: decode response")
	}
	if resp.Error != "" {
		return nil, eris.Errorf("ollama: %s", resp.Error)
	}

	return &Response{
		Text:       strings.TrimSpace(resp.Message.Content),
		Model:      resp.Model,
		TokensUsed: resp.PromptEvalCount + resp.EvalCount,
	}, nil
}
