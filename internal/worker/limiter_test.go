package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewLimiter_Defaults(t *testing.T) {
	l := NewLimiter(10, -1)
	assert.Equal(t, 1, l.defaultBurst)
	assert.Equal(t, rate.Limit(10), l.defaultRate)

	assert.Equal(t, rate.Inf, NewLimiter(0, 2).defaultRate)
}

func TestHostKey(t *testing.T) {
	a, err := hostKey("https://WWW.JoesBakery.com/contact")
	require.NoError(t, err)
	b, err := hostKey("http://joesbakery.com:8080/")
	require.NoError(t, err)
	assert.Equal(t, "joesbakery.com", a)
	assert.Equal(t, a, b)

	_, err = hostKey("::invalid")
	assert.Error(t, err)
	_, err = hostKey("/relative/path")
	assert.Error(t, err)
}

func TestLimiter_SharesWWWAlias(t *testing.T) {
	l := NewLimiter(1, 1)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://www.joesbakery.com/"))

	lim := l.forHost("joesbakery.com", 0)
	assert.Less(t, lim.Tokens(), 1.0, "www alias should have drawn from the same bucket")
	assert.Len(t, l.hosts, 1)
}

func TestLimiter_HostsAreIndependent(t *testing.T) {
	l := NewLimiter(0.01, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, l.Wait(ctx, "https://joesbakery.com/"))
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://florashop.com/"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := NewLimiter(0.01, 1)
	require.NoError(t, l.Wait(context.Background(), "https://joesbakery.com/"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "https://joesbakery.com/about"))
}

func TestLimiter_CrawlDelayLowersRate(t *testing.T) {
	l := NewLimiter(10, 5)
	ctx := context.Background()

	require.NoError(t, l.WaitCrawl(ctx, "https://joesbakery.com/", 2*time.Second))
	lim := l.forHost("joesbakery.com", 0)
	assert.Equal(t, rate.Every(2*time.Second), lim.Limit())
	assert.Equal(t, 1, lim.Burst())

	// A shorter delay never speeds the host back up
	l.forHost("joesbakery.com", 100*time.Millisecond)
	assert.Equal(t, rate.Every(2*time.Second), lim.Limit())
}

func TestLimiter_CrawlDelayPaces(t *testing.T) {
	l := NewLimiter(0, 1)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.WaitCrawl(ctx, "https://joesbakery.com/", 60*time.Millisecond))
	require.NoError(t, l.WaitCrawl(ctx, "https://joesbakery.com/about", 60*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
