package browser

import (
	"context"
	"errors"

	"github.com/chromedp/chromedp"
	"github.com/ppiankov/mapleads/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FetchListing opens a listing page and scrapes its detail panel
func (b *Browser) FetchListing(ctx context.Context, listingURL string) (model.RawListingDetail, error) {
	tabCtx, cancel := b.tab(ctx, b.cfg.PageTimeout)
	defer cancel()

	var payload string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(listingURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			b.dismissConsent(ctx)
			return nil
		}),
		chromedp.WaitVisible(b.sel.PlaceHeading, chromedp.ByQuery),
		chromedp.Evaluate(detailScript(b.sel), &payload),
	)
	if err != nil {
		if ctx.Err() != nil {
			return model.RawListingDetail{}, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return model.RawListingDetail{}, eris.Wrapf(ErrNotRendered, "listing %s", listingURL)
		}
		return model.RawListingDetail{}, eris.Wrapf(err, "browser: fetch listing %s", listingURL)
	}

	detail, err := parseDetail(payload, listingURL)
	if err != nil {
		return model.RawListingDetail{}, err
	}
	b.log.Debug("listing scraped",
		zap.String("url", detail.MapsURL),
		zap.String("name", detail.BusinessName))
	return detail, nil
}
