package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ppiankov/mapleads/internal/discover"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const readyPollInterval = 500 * time.Millisecond

const (
	readyFeed  = "feed"
	readyPlace = "place"
)

// SearchSession is one open results panel
type SearchSession struct {
	b      *Browser
	ctx    context.Context
	cancel context.CancelFunc

	// direct is set when the search resolved to a single listing page
	direct string
}

// OpenSearch implements discover.SessionOpener
func (b *Browser) OpenSearch(ctx context.Context, query string) (discover.Session, error) {
	tabCtx, cancel := b.tab(ctx, 0)

	u := searchURL(b.sel, query, b.cfg.Language)
	b.log.Info("opening search", zap.String("query", query), zap.String("url", u))

	if err := chromedp.Run(tabCtx, chromedp.Navigate(u)); err != nil {
		cancel()
		return nil, eris.Wrapf(err, "browser: navigate %s", u)
	}

	mode, err := b.waitReady(tabCtx)
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, eris.Wrapf(discover.ErrSearchUnavailable, "query %q: %v", query, err)
	}

	s := &SearchSession{b: b, ctx: tabCtx, cancel: cancel}
	if mode == readyPlace {
		var loc string
		if err := chromedp.Run(tabCtx, chromedp.Location(&loc)); err != nil {
			cancel()
			return nil, eris.Wrap(err, "browser: read place location")
		}
		s.direct = loc
		b.log.Info("search resolved to a single listing", zap.String("url", loc))
	}
	return s, nil
}

// waitReady polls until the feed or a place heading shows up
func (b *Browser) waitReady(ctx context.Context) (string, error) {
	timeout := b.cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	deadline := time.Now().Add(timeout)
	script := readyScript(b.sel)

	for {
		b.dismissConsent(ctx)

		var mode string
		if err := chromedp.Run(ctx, chromedp.Evaluate(script, &mode)); err != nil {
			b.log.Debug("ready probe failed", zap.Error(err))
		} else if mode == readyFeed || mode == readyPlace {
			return mode, nil
		}

		if time.Now().After(deadline) {
			return "", eris.Errorf("no results anchor after %s", timeout)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}
}

// VisibleListingURLs implements discover.Source
func (s *SearchSession) VisibleListingURLs(ctx context.Context) ([]string, error) {
	if s.direct != "" {
		return []string{s.direct}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var urls []string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(listingLinksScript(s.b.sel), &urls)); err != nil {
		return nil, eris.Wrap(err, "browser: read listing links")
	}
	return urls, nil
}

// LoadMore implements discover.Source
func (s *SearchSession) LoadMore(ctx context.Context) error {
	if s.direct != "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var scrolled bool
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(scrollScript(s.b.sel), &scrolled)); err != nil {
		return eris.Wrap(err, "browser: scroll results")
	}
	if !scrolled {
		s.b.log.Debug("results panel not found while scrolling")
	}
	return nil
}

// Close closes the tab
func (s *SearchSession) Close() {
	s.cancel()
}
