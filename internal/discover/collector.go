// Package discover collects listing URLs from an infinitely scrolling
// results panel.
package discover

import (
	"context"
	"time"

	"github.com/ppiankov/mapleads/internal/model"
	"github.com/ppiankov/mapleads/internal/normalize"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrSearchUnavailable means the results UI never rendered its anchors
var ErrSearchUnavailable = eris.New("discover: search results did not load")

// Source is an open results panel
type Source interface {
	// VisibleListingURLs returns every listing link currently rendered
	VisibleListingURLs(ctx context.Context) ([]string, error)

	// LoadMore asks the panel for the next page of results
	LoadMore(ctx context.Context) error
}

// Session is a Source that owns a browser tab
type Session interface {
	Source
	Close()
}

// SessionOpener runs a search and returns its results panel. It fails with
// ErrSearchUnavailable when the panel never appears.
type SessionOpener interface {
	OpenSearch(ctx context.Context, query string) (Session, error)
}

// Options bound the scroll loop
type Options struct {
	SettleInterval time.Duration // Wait after each LoadMore
	MaxNoProgress  int           // Consecutive empty iterations before giving up
	MaxIterations  int           // Hard ceiling on iterations
}

// DefaultOptions returns the collector defaults
func DefaultOptions() Options {
	return Options{
		SettleInterval: 1500 * time.Millisecond,
		MaxNoProgress:  7,
		MaxIterations:  200,
	}
}

// OptionsFromModel converts model.DiscoveryConfig to Options
func OptionsFromModel(cfg model.DiscoveryConfig) Options {
	opts := DefaultOptions()
	if cfg.SettleInterval > 0 {
		opts.SettleInterval = cfg.SettleInterval
	}
	if cfg.MaxNoProgress > 0 {
		opts.MaxNoProgress = cfg.MaxNoProgress
	}
	if cfg.MaxIterations > 0 {
		opts.MaxIterations = cfg.MaxIterations
	}
	return opts
}

// Collector drives the scroll loop
type Collector struct {
	opts  Options
	sleep func(ctx context.Context, d time.Duration) error
	log   *zap.Logger
}

// NewCollector creates a collector
func NewCollector(opts Options) *Collector {
	return &Collector{opts: opts, sleep: sleepCtx, log: zap.L().Named("discover")}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Collect scrolls src and returns URLs not already in seen, adding each to
// seen as it goes. It stops when maxNew URLs were found (maxNew <= 0 means no
// budget), after MaxNoProgress consecutive iterations without a new URL, at
// MaxIterations, or when ctx ends. Read and scroll errors count as iterations
// without progress.
func (c *Collector) Collect(ctx context.Context, src Source, maxNew int, seen *URLSet) ([]string, error) {
	var found []string
	budgetMet := func() bool { return maxNew > 0 && len(found) >= maxNew }

	noProgress := 0
	for i := 0; i < c.opts.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return found, eris.Wrap(err, "discover: collect")
		}

		added := 0
		urls, err := src.VisibleListingURLs(ctx)
		if err != nil {
			c.log.Debug("read listing links failed", zap.Int("iteration", i), zap.Error(err))
		}
		for _, u := range urls {
			if budgetMet() {
				break
			}
			if seen.Add(u) {
				found = append(found, normalize.ListingURL(u))
				added++
			}
		}

		if budgetMet() {
			c.log.Debug("discovery budget met", zap.Int("found", len(found)))
			return found, nil
		}

		if added == 0 {
			noProgress++
			if noProgress >= c.opts.MaxNoProgress {
				c.log.Debug("no new listings, stopping", zap.Int("iterations", i+1), zap.Int("found", len(found)))
				return found, nil
			}
		} else {
			noProgress = 0
		}

		if err := src.LoadMore(ctx); err != nil {
			c.log.Debug("scroll failed", zap.Int("iteration", i), zap.Error(err))
		}
		if err := c.sleep(ctx, c.opts.SettleInterval); err != nil {
			return found, eris.Wrap(err, "discover: collect")
		}
	}

	c.log.Debug("iteration ceiling reached", zap.Int("found", len(found)))
	return found, nil
}
