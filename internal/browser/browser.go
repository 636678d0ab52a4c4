// Package browser drives a headless Chrome against the map directory.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ppiankov/mapleads/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNotRendered means a page never showed its primary element
var ErrNotRendered = eris.New("browser: page did not render")

// Browser owns one Chrome process. Every operation runs in its own tab.
type Browser struct {
	cfg model.BrowserConfig
	sel model.Selectors
	log *zap.Logger

	allocCancel context.CancelFunc
	rootCtx     context.Context
	rootCancel  context.CancelFunc
}

// New starts Chrome
func New(cfg model.BrowserConfig) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", cfg.Language),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	rootCtx, rootCancel := chromedp.NewContext(allocCtx)

	// The first Run launches the process
	if err := chromedp.Run(rootCtx); err != nil {
		rootCancel()
		allocCancel()
		return nil, eris.Wrap(err, "browser: start chrome")
	}

	return &Browser{
		cfg:         cfg,
		sel:         cfg.Selectors,
		log:         zap.L().Named("browser"),
		allocCancel: allocCancel,
		rootCtx:     rootCtx,
		rootCancel:  rootCancel,
	}, nil
}

// Close shuts Chrome down
func (b *Browser) Close() {
	b.rootCancel()
	b.allocCancel()
}

// tab opens a new tab that closes when ctx ends, when timeout elapses
// (0 = no timeout) or when the returned cancel is called.
func (b *Browser) tab(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	tabCtx, tabCancel := chromedp.NewContext(b.rootCtx)
	stop := context.AfterFunc(ctx, tabCancel)

	runCtx, runCancel := tabCtx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, runCancel = context.WithTimeout(tabCtx, timeout)
	}

	return runCtx, func() {
		stop()
		runCancel()
		tabCancel()
	}
}

// dismissConsent clicks through cookie walls. Absence of a dialog is fine.
func (b *Browser) dismissConsent(ctx context.Context) {
	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(consentScript(b.sel), &clicked)); err != nil {
		b.log.Debug("consent script failed", zap.Error(err))
		return
	}
	if clicked {
		b.log.Debug("consent dialog dismissed")
		_ = chromedp.Run(ctx, chromedp.Sleep(time.Second))
	}
}
