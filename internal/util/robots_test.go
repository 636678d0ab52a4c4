package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUA = "mapleads/0.1 (+https://github.com/ppiankov/mapleads)"

func robotsServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			return
		}
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	server, hits := robotsServer(t, http.StatusOK, "User-agent: mapleads\nDisallow: /private\nCrawl-delay: 2\n")
	rc := NewRobotsChecker(testUA, 5*time.Second, nil)

	allowed, delay, err := rc.CanFetch(context.Background(), server.URL+"/contact")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	allowed, _, err = rc.CanFetch(context.Background(), server.URL+"/private/team")
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.Equal(t, int32(1), hits.Load(), "robots.txt should be fetched once per host")
}

func TestRobotsChecker_ConcurrentCallersShareFetch(t *testing.T) {
	server, hits := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow:\n")
	rc := NewRobotsChecker(testUA, 5*time.Second, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _, err := rc.CanFetch(context.Background(), server.URL+"/about")
			assert.NoError(t, err)
			assert.True(t, allowed)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, hits.Load(), int32(2))
}

func TestRobotsChecker_CapsCrawlDelay(t *testing.T) {
	server, _ := robotsServer(t, http.StatusOK, "User-agent: *\nCrawl-delay: 120\n")
	rc := NewRobotsChecker(testUA, 5*time.Second, nil)

	_, delay, err := rc.CanFetch(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, MaxCrawlDelay, delay)
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server, _ := robotsServer(t, http.StatusNotFound, "")
	rc := NewRobotsChecker(testUA, 5*time.Second, nil)

	allowed, delay, err := rc.CanFetch(context.Background(), server.URL+"/about")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, delay)
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	rc := NewRobotsChecker(testUA, time.Second, nil)

	allowed, _, err := rc.CanFetch(context.Background(), "http://127.0.0.1:1/contact")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRobotsChecker_BadURL(t *testing.T) {
	rc := NewRobotsChecker(testUA, time.Second, nil)

	_, _, err := rc.CanFetch(context.Background(), "/relative")
	assert.Error(t, err)
}

func TestProductToken(t *testing.T) {
	assert.Equal(t, "mapleads", productToken(testUA))
	assert.Equal(t, "curl", productToken("curl"))
	assert.Equal(t, "", productToken(""))
}
