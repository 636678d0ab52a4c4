package browser

import (
	"context"
	"regexp"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// KeyScraper reads a public API key off a documentation page. It satisfies
// verify.KeySource.
type KeyScraper struct {
	b        *Browser
	docsURL  string
	selector string
	pattern  *regexp.Regexp
}

// NewKeyScraper compiles pattern and binds the scraper to b
func NewKeyScraper(b *Browser, docsURL, selector, pattern string) (*KeyScraper, error) {
	if docsURL == "" {
		return nil, eris.New("browser: docs URL is empty")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, eris.Wrapf(err, "browser: bad key pattern %q", pattern)
	}
	if selector == "" {
		selector = "body"
	}
	return &KeyScraper{b: b, docsURL: docsURL, selector: selector, pattern: re}, nil
}

// FetchKey renders the docs page and returns the first pattern match
func (k *KeyScraper) FetchKey(ctx context.Context) (string, error) {
	tabCtx, cancel := k.b.tab(ctx, k.b.cfg.PageTimeout)
	defer cancel()

	var texts []string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(k.docsURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(textsScript(k.selector), &texts),
	)
	if err != nil {
		return "", eris.Wrapf(err, "browser: load docs page %s", k.docsURL)
	}

	if key := matchKey(k.pattern, texts); key != "" {
		k.b.log.Info("api key discovered", zap.String("docs", k.docsURL))
		return key, nil
	}
	return "", eris.Errorf("browser: no key matching %s on %s", k.pattern, k.docsURL)
}

func matchKey(re *regexp.Regexp, texts []string) string {
	for _, t := range texts {
		if m := re.FindString(strings.TrimSpace(t)); m != "" {
			return m
		}
	}
	return ""
}
