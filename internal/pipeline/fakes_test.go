package pipeline

import (
	"context"
	"sync"

	"github.com/ppiankov/mapleads/internal/discover"
	"github.com/ppiankov/mapleads/internal/model"
	"github.com/ppiankov/mapleads/internal/owner"
	"github.com/rotisserie/eris"
)

type fakeSession struct {
	urls []string
}

func (s *fakeSession) VisibleListingURLs(context.Context) ([]string, error) { return s.urls, nil }
func (s *fakeSession) LoadMore(context.Context) error                       { return nil }
func (s *fakeSession) Close()                                               {}

// fakeOpener serves one URL list per phase; phases past the list fail
type fakeOpener struct {
	mu      sync.Mutex
	phases  [][]string
	failAt  int // 1-based phase that fails; 0 = none
	queries []string
}

func (o *fakeOpener) OpenSearch(_ context.Context, query string) (discover.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries = append(o.queries, query)
	n := len(o.queries)
	if n == o.failAt || n > len(o.phases) {
		return nil, eris.Wrapf(discover.ErrSearchUnavailable, "query %q\nsecond line", query)
	}
	return &fakeSession{urls: o.phases[n-1]}, nil
}

type fakeListings struct {
	mu      sync.Mutex
	details map[string]model.RawListingDetail
	fetched []string
}

func (f *fakeListings) FetchListing(_ context.Context, u string) (model.RawListingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, u)
	d, ok := f.details[u]
	if !ok {
		return model.RawListingDetail{}, eris.New("listing did not render")
	}
	return d, nil
}

func (f *fakeListings) wasFetched(u string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.fetched {
		if x == u {
			return true
		}
	}
	return false
}

type fakeCrawler struct {
	mu      sync.Mutex
	signals map[string]model.WebsiteSignal
	err     error
	calls   int
}

func (c *fakeCrawler) Crawl(_ context.Context, website string) (model.WebsiteSignal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return model.WebsiteSignal{}, c.err
	}
	return c.signals[website], nil
}

type fakeResolver struct {
	mu      sync.Mutex
	res     model.OwnerResolution
	queries []owner.Query
}

func (r *fakeResolver) Resolve(_ context.Context, q owner.Query) model.OwnerResolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	return r.res
}

type fakeVerifier struct {
	bad map[string]bool
}

func (v *fakeVerifier) Verify(_ context.Context, email string) bool {
	return !v.bad[email]
}

type eventLog struct {
	mu     sync.Mutex
	events []model.Event
}

func (l *eventLog) Emit(ev model.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) ofType(t model.EventType) []model.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Event
	for _, ev := range l.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
