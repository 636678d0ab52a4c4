package worker

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Limiter paces requests per website host so that a batch hitting several
// pages of one small site does not hammer it. A site and its "www." alias
// share one bucket.
type Limiter struct {
	mu           sync.Mutex
	hosts        map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter allowing requestsPerSecond per host.
// requestsPerSecond <= 0 disables pacing.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{
		hosts:        make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until a request to rawURL may be sent
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	return l.WaitCrawl(ctx, rawURL, 0)
}

// WaitCrawl is Wait for a host whose robots.txt asks for crawlDelay between
// requests. The host's rate is lowered to honor it and never raised again.
func (l *Limiter) WaitCrawl(ctx context.Context, rawURL string, crawlDelay time.Duration) error {
	host, err := hostKey(rawURL)
	if err != nil {
		return err
	}
	lim := l.forHost(host, crawlDelay)
	if err := lim.Wait(ctx); err != nil {
		return eris.Wrapf(err, "limiter: wait for %s", host)
	}
	return nil
}

func (l *Limiter) forHost(host string, crawlDelay time.Duration) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.hosts[host]
	if !ok {
		lim = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.hosts[host] = lim
	}
	if crawlDelay > 0 {
		if polite := rate.Every(crawlDelay); polite < lim.Limit() {
			lim.SetLimit(polite)
			lim.SetBurst(1)
		}
	}
	return lim
}

// hostKey returns the lowercased host of rawURL with "www." folded
func hostKey(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "limiter: parse %q", rawURL)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", eris.Errorf("limiter: no host in %q", rawURL)
	}
	return strings.TrimPrefix(host, "www."), nil
}
