// Package verify checks e-mail deliverability against a third-party
// verification API whose key is discovered at runtime.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/mapleads/internal/normalize"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrUnauthorized means the service rejected the current key
var ErrUnauthorized = eris.New("verify: unauthorized")

// MXLookup is satisfied by MXChecker
type MXLookup interface {
	HasMX(ctx context.Context, domain string) (bool, error)
}

// undeliverable statuses; everything else counts as deliverable
var undeliverable = map[string]bool{
	"invalid":       true,
	"undeliverable": true,
	"disposable":    true,
}

// Client verifies addresses. It fails open: only a definite negative answer
// marks an address undeliverable.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cred       *Credential
	mx         MXLookup
	log        *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMXLookup enables the DNS pre-check
func WithMXLookup(mx MXLookup) Option {
	return func(c *Client) { c.mx = mx }
}

// NewClient creates a verification client for baseURL sharing cred
func NewClient(baseURL string, cred *Credential, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
		cred:       cred,
		log:        zap.L().Named("verify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type verifyResponse struct {
	Status string `json:"status"`
	Result string `json:"result"`
}

func (r verifyResponse) status() string {
	if r.Status != "" {
		return strings.ToLower(r.Status)
	}
	return strings.ToLower(r.Result)
}

// Verify reports whether email is deliverable. On a rejected key the
// credential is refreshed and the call retried exactly once; any other
// failure returns true.
func (c *Client) Verify(ctx context.Context, email string) bool {
	addr := normalize.Email(email)
	if addr == "" {
		return false
	}

	if c.mx != nil {
		domain := addr[strings.LastIndex(addr, "@")+1:]
		ok, err := c.mx.HasMX(ctx, domain)
		switch {
		case err != nil:
			c.log.Debug("mx precheck failed, continuing", zap.String("domain", domain), zap.Error(err))
		case !ok:
			return false
		}
	}

	key, err := c.cred.Get(ctx)
	if err != nil {
		c.log.Warn("no verification key, failing open", zap.Error(err))
		return true
	}

	status, err := c.check(ctx, addr, key)
	if errors.Is(err, ErrUnauthorized) {
		c.log.Info("verification key rejected, refreshing")
		c.cred.Invalidate(key)
		if key, err = c.cred.Get(ctx); err != nil {
			c.log.Warn("key refresh failed, failing open", zap.Error(err))
			return true
		}
		status, err = c.check(ctx, addr, key)
	}
	if err != nil {
		c.log.Warn("verification failed, failing open", zap.String("email", addr), zap.Error(err))
		return true
	}

	return !undeliverable[status]
}

func (c *Client) check(ctx context.Context, email, key string) (string, error) {
	q := url.Values{}
	q.Set("email", email)
	q.Set("api_key", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", eris.Wrap(err, "verify: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "verify: request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", eris.Wrapf(ErrUnauthorized, "verify: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", eris.Errorf("verify: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", eris.Wrap(err, "verify: decode response")
	}
	return out.status(), nil
}
