package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/mapleads/internal/model"
	"github.com/ppiankov/mapleads/internal/normalize"
	"github.com/ppiankov/mapleads/internal/owner"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ListingSource loads one directory listing
type ListingSource interface {
	FetchListing(ctx context.Context, listingURL string) (model.RawListingDetail, error)
}

// SiteCrawler extracts contact signals from a business website
type SiteCrawler interface {
	Crawl(ctx context.Context, website string) (model.WebsiteSignal, error)
}

// OwnerResolver asks the AI service for a business owner
type OwnerResolver interface {
	Resolve(ctx context.Context, q owner.Query) model.OwnerResolution
}

// Enricher turns one listing URL into a merged record
type Enricher struct {
	listings ListingSource
	crawler  SiteCrawler   // nil = skip websites
	owners   OwnerResolver // nil = no AI enrichment
	ev       *events
	log      *zap.Logger
}

// NewEnricher creates an enricher. crawler and owners may be nil.
func NewEnricher(listings ListingSource, crawler SiteCrawler, owners OwnerResolver) *Enricher {
	return &Enricher{
		listings: listings,
		crawler:  crawler,
		owners:   owners,
		ev:       newEvents(Discard, ""),
		log:      zap.L().Named("enricher"),
	}
}

// withEvents returns a copy reporting to ev
func (e *Enricher) withEvents(ev *events) *Enricher {
	c := *e
	c.ev = ev
	return &c
}

// Process loads the listing at listingURL, crawls its website and, when
// asked to, resolves the owner through the AI queue. A listing without a name
// yields (nil, nil). Errors only concern this URL.
func (e *Enricher) Process(ctx context.Context, spec model.SearchSpec, listingURL string) (*model.Record, error) {
	detail, err := e.listings.FetchListing(ctx, listingURL)
	if err != nil {
		return nil, eris.Wrapf(err, "listing %s", listingURL)
	}

	name := normalize.BusinessName(detail.BusinessName)
	if name == "" {
		e.ev.log(model.LevelWarning, fmt.Sprintf("Listing without a business name skipped: %s", listingURL))
		return nil, nil
	}

	mapsURL := detail.MapsURL
	if mapsURL == "" {
		mapsURL = listingURL
	}

	rec := &model.Record{
		BusinessName:  name,
		Category:      spec.SearchTerm,
		StreetAddress: normalize.Address(detail.StreetAddress),
		Website:       normalize.WebsiteURL(detail.Website),
		Phone:         normalize.Phone(detail.Phone, spec.CountryCode),
		OwnerSource:   model.OwnerSourceNone,
		MapsURL:       normalize.ListingURL(mapsURL),
	}
	if spec.IndividualNameSearch {
		rec.Category = normalize.Clean(detail.ScrapedCategory)
	}

	if rec.Website != "" && e.crawler != nil {
		signal, err := e.crawler.Crawl(ctx, rec.Website)
		if err != nil {
			e.ev.log(model.LevelWarning, fmt.Sprintf("%s: website unavailable (%s)", name, firstLine(err)))
		} else {
			e.applySignal(rec, signal)
			if rec.Email == "" {
				e.ev.log(model.LevelWarning, fmt.Sprintf("%s: no e-mail on website", name))
			}
		}
	}

	if rec.OwnerName == "" && spec.EnrichOwners && e.owners != nil {
		location := rec.StreetAddress
		if location == "" {
			location = spec.AreaQuery
		}
		res := e.owners.Resolve(ctx, owner.Query{
			BusinessName: name,
			Location:     location,
			Website:      rec.Website,
			Category:     rec.Category,
		})
		rec.OwnerName = res.OwnerName
		rec.OwnerSource = res.Source
		if !res.Found() {
			e.ev.log(model.LevelInfo, fmt.Sprintf("%s: owner not found", name))
		}
	}

	e.log.Debug("listing enriched",
		zap.String("name", rec.BusinessName),
		zap.String("url", rec.MapsURL),
		zap.String("owner_source", string(rec.OwnerSource)))
	return rec, nil
}

func (e *Enricher) applySignal(rec *model.Record, signal model.WebsiteSignal) {
	rec.Email = normalize.Email(signal.Email)
	rec.InstagramURL = signal.InstagramURL
	rec.FacebookURL = signal.FacebookURL
	if owner := normalize.Clean(signal.OwnerName); owner != "" {
		rec.OwnerName = owner
		rec.OwnerSource = model.OwnerSourceWebsite
	}
}
