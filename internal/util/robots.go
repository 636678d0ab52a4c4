package util

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MaxCrawlDelay caps what a robots.txt can ask for, so one site cannot stall a run
const MaxCrawlDelay = 10 * time.Second

// hostRules is the parsed robots.txt group that applies to our agent
type hostRules struct {
	data  *robotstxt.RobotsData
	delay time.Duration
}

// RobotsChecker answers robots.txt questions for business websites. Each
// origin's robots.txt is fetched once, even under concurrent callers.
type RobotsChecker struct {
	httpClient *http.Client
	agent      string
	log        *zap.Logger

	mu     sync.RWMutex
	hosts  map[string]hostRules
	flight singleflight.Group
}

// NewRobotsChecker creates a new robots.txt checker. Matching uses the
// product token of userAgent ("mapleads" for "mapleads/0.1 (...)").
// proxy may be nil.
func NewRobotsChecker(userAgent string, timeout time.Duration, proxy func(*http.Request) (*url.URL, error)) *RobotsChecker {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		transport.Proxy = proxy
	}
	return &RobotsChecker{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		agent:      productToken(userAgent),
		log:        zap.L().Named("robots"),
		hosts:      make(map[string]hostRules),
	}
}

// CanFetch reports whether rawURL may be fetched and the crawl delay the site
// asks for. An unreachable robots.txt allows everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false, 0, eris.Errorf("robots: bad URL %q", rawURL)
	}

	rules, err := r.rulesFor(ctx, u)
	if err != nil {
		r.log.Debug("robots.txt unavailable, allowing", zap.String("host", u.Host), zap.Error(err))
		return true, 0, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.data.TestAgent(path, r.agent), rules.delay, nil
}

func (r *RobotsChecker) rulesFor(ctx context.Context, u *url.URL) (hostRules, error) {
	origin := strings.ToLower(u.Scheme + "://" + u.Host)

	r.mu.RLock()
	rules, ok := r.hosts[origin]
	r.mu.RUnlock()
	if ok {
		return rules, nil
	}

	v, err, _ := r.flight.Do(origin, func() (any, error) {
		rules, err := r.fetch(ctx, origin)
		if err != nil {
			return hostRules{}, err
		}
		r.mu.Lock()
		r.hosts[origin] = rules
		r.mu.Unlock()
		return rules, nil
	})
	if err != nil {
		return hostRules{}, err
	}
	return v.(hostRules), nil
}

func (r *RobotsChecker) fetch(ctx context.Context, origin string) (hostRules, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return hostRules{}, eris.Wrap(err, "robots: create request")
	}
	req.Header.Set("User-Agent", r.agent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return hostRules{}, eris.Wrap(err, "robots: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	// 4xx allows everything, 5xx disallows everything
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return hostRules{}, eris.Wrap(err, "robots: parse")
	}

	rules := hostRules{data: data}
	if group := data.FindGroup(r.agent); group != nil {
		rules.delay = min(group.CrawlDelay, MaxCrawlDelay)
		if group.CrawlDelay > MaxCrawlDelay {
			r.log.Debug("crawl-delay capped", zap.String("origin", origin), zap.Duration("asked", group.CrawlDelay))
		}
	}
	return rules, nil
}

func productToken(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	token, _, _ := strings.Cut(parts[0], "/")
	return token
}
