package pipeline

import (
	"context"
	"time"

	"github.com/ppiankov/mapleads/internal/extract"
	"github.com/ppiankov/mapleads/internal/model"
	"github.com/ppiankov/mapleads/internal/normalize"
	"github.com/ppiankov/mapleads/internal/worker"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrDisallowed means robots.txt forbids the page
var ErrDisallowed = eris.New("disallowed by robots.txt")

// PageFetcher fetches one web page
type PageFetcher interface {
	FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error)
}

// RobotsPolicy answers robots.txt questions
type RobotsPolicy interface {
	CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error)
}

// WebsiteCrawler visits a business website's home page and a few of its
// contact-like pages, merging what they reveal
type WebsiteCrawler struct {
	fetcher   PageFetcher
	robots    RobotsPolicy // nil = ignore robots.txt
	limiter   *worker.Limiter
	extractor *extract.WebsiteExtractor
	maxPages  int
	log       *zap.Logger
}

// NewWebsiteCrawler creates a crawler. robots and limiter may be nil.
func NewWebsiteCrawler(fetcher PageFetcher, robots RobotsPolicy, limiter *worker.Limiter, maxPages int) *WebsiteCrawler {
	if maxPages <= 0 {
		maxPages = 1
	}
	return &WebsiteCrawler{
		fetcher:   fetcher,
		robots:    robots,
		limiter:   limiter,
		extractor: extract.NewWebsiteExtractor(),
		maxPages:  maxPages,
		log:       zap.L().Named("crawler"),
	}
}

// Crawl returns the merged signal. Only a home page failure is an error;
// failing sub-pages are skipped.
func (c *WebsiteCrawler) Crawl(ctx context.Context, website string) (model.WebsiteSignal, error) {
	home := normalize.WebsiteURL(website)
	if home == "" {
		return model.WebsiteSignal{}, eris.Errorf("not a website: %q", website)
	}

	page, err := c.visit(ctx, home)
	if err != nil {
		return model.WebsiteSignal{}, eris.Wrapf(err, "crawl %s", home)
	}

	signal := page.Signal
	queue := page.Links
	visited := map[string]bool{home: true}

	for pages := 1; pages < c.maxPages && len(queue) > 0; {
		if signal.Email != "" && signal.OwnerName != "" {
			break
		}
		next := queue[0]
		queue = queue[1:]
		if visited[next] {
			continue
		}
		visited[next] = true
		pages++

		sub, err := c.visit(ctx, next)
		if err != nil {
			if ctx.Err() != nil {
				return signal, nil
			}
			c.log.Debug("sub-page skipped", zap.String("url", next), zap.Error(err))
			continue
		}
		signal = signal.Merge(sub.Signal)
	}

	return signal, nil
}

func (c *WebsiteCrawler) visit(ctx context.Context, pageURL string) (extract.Page, error) {
	var delay time.Duration
	if c.robots != nil {
		allowed, crawlDelay, err := c.robots.CanFetch(ctx, pageURL)
		if err != nil {
			return extract.Page{}, err
		}
		if !allowed {
			return extract.Page{}, ErrDisallowed
		}
		delay = crawlDelay
	}

	if c.limiter != nil {
		if err := c.limiter.WaitCrawl(ctx, pageURL, delay); err != nil {
			return extract.Page{}, err
		}
	}

	res, err := c.fetcher.FetchWithRetry(ctx, pageURL)
	if err != nil {
		return extract.Page{}, err
	}
	return c.extractor.Extract(res.HTML, res.FinalURL)
}
