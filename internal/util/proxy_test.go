package util

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proxyFor(t *testing.T, fn func(*http.Request) (*url.URL, error), rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	p, err := fn(&http.Request{URL: u})
	require.NoError(t, err)
	if p == nil {
		return ""
	}
	return p.String()
}

func TestNewProxyFunc(t *testing.T) {
	fn := NewProxyFunc("http://proxy:8080", "http://secure-proxy:8443", "internal.example, .corp.local")

	assert.Equal(t, "http://proxy:8080", proxyFor(t, fn, "http://joesbakery.com/"))
	assert.Equal(t, "http://secure-proxy:8443", proxyFor(t, fn, "https://joesbakery.com/"))
	assert.Equal(t, "", proxyFor(t, fn, "https://internal.example/"))
	assert.Equal(t, "", proxyFor(t, fn, "https://api.corp.local/"))
	assert.Equal(t, "", proxyFor(t, fn, "http://127.0.0.1:9000/"))
}
