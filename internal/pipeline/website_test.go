package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/mapleads/internal/util"
	"github.com/ppiankov/mapleads/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteServer(t *testing.T, robots string, privateHits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		if robots == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, robots)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, `<html><body>
			<a href="/private/contact">Contact</a>
			<a href="/about">About us</a>
			<p>Jane Doe, Owner</p>
			<a href="https://facebook.com/joesbakery">Facebook</a>
		</body></html>`)
	})
	mux.HandleFunc("/private/contact", func(w http.ResponseWriter, r *http.Request) {
		privateHits.Add(1)
		_, _ = fmt.Fprint(w, `<a href="mailto:secret@joesbakery.com">mail</a>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<p>Write to hello@joesbakery.com</p>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testFetcher() *Fetcher {
	return NewFetcher(5*time.Second, "mapleads/0.1 (test)", 1<<20, false, "", "", "")
}

func TestWebsiteCrawler_MergesPages(t *testing.T) {
	var hits atomic.Int32
	srv := siteServer(t, "", &hits)

	c := NewWebsiteCrawler(testFetcher(), nil, worker.NewLimiter(100, 10), 4)
	signal, err := c.Crawl(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe (Owner)", signal.OwnerName)
	assert.Equal(t, "https://facebook.com/joesbakery", signal.FacebookURL)
	// The first candidate page wins and stops the crawl
	assert.Equal(t, "secret@joesbakery.com", signal.Email)
	assert.Equal(t, int32(1), hits.Load())
}

func TestWebsiteCrawler_RespectsRobots(t *testing.T) {
	var hits atomic.Int32
	srv := siteServer(t, "User-agent: *\nDisallow: /private\n", &hits)

	robots := util.NewRobotsChecker("mapleads/0.1 (test)", 5*time.Second, nil)
	c := NewWebsiteCrawler(testFetcher(), robots, nil, 4)
	signal, err := c.Crawl(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, int32(0), hits.Load())
	assert.Equal(t, "hello@joesbakery.com", signal.Email)
}

func TestWebsiteCrawler_HomePageLimit(t *testing.T) {
	var hits atomic.Int32
	srv := siteServer(t, "", &hits)

	c := NewWebsiteCrawler(testFetcher(), nil, nil, 1)
	signal, err := c.Crawl(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Empty(t, signal.Email)
	assert.Equal(t, int32(0), hits.Load())
}

func TestWebsiteCrawler_HomePageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewWebsiteCrawler(testFetcher(), nil, nil, 4).Crawl(context.Background(), srv.URL)
	assert.Error(t, err)

	_, err = NewWebsiteCrawler(testFetcher(), nil, nil, 4).Crawl(context.Background(), "not a site")
	assert.Error(t, err)
}
