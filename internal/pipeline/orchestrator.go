// Package pipeline sequences discovery, enrichment and verification into one run.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ppiankov/mapleads/internal/discover"
	"github.com/ppiankov/mapleads/internal/model"
	"github.com/ppiankov/mapleads/internal/worker"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EmailVerifier checks deliverability. It fails open.
type EmailVerifier interface {
	Verify(ctx context.Context, email string) bool
}

// Options tune a Pipeline
type Options struct {
	BatchSize         int
	OverfetchFactor   int
	PhaseTemplates    []string // printf templates taking term and area
	VerifyConcurrency int

	// OnState observes lifecycle transitions
	OnState func(model.RunState)
}

// DefaultOptions returns the pipeline defaults
func DefaultOptions() Options {
	return Options{
		BatchSize:         4,
		OverfetchFactor:   3,
		PhaseTemplates:    []string{"%s in %s", "%s near %s", "best %s in %s"},
		VerifyConcurrency: 4,
	}
}

// OptionsFromModel converts model.Config to Options
func OptionsFromModel(cfg *model.Config) Options {
	opts := DefaultOptions()
	if cfg.Processing.BatchSize > 0 {
		opts.BatchSize = cfg.Processing.BatchSize
	}
	if cfg.Discovery.OverfetchFactor > 0 {
		opts.OverfetchFactor = cfg.Discovery.OverfetchFactor
	}
	if len(cfg.Discovery.PhaseTemplates) > 0 {
		opts.PhaseTemplates = cfg.Discovery.PhaseTemplates
	}
	if cfg.Verify.Concurrency > 0 {
		opts.VerifyConcurrency = cfg.Verify.Concurrency
	}
	return opts
}

// Pipeline runs searches end to end
type Pipeline struct {
	opener    discover.SessionOpener
	collector *discover.Collector
	enricher  *Enricher
	verifier  EmailVerifier // nil = verification unavailable
	opts      Options
	log       *zap.Logger
}

// NewPipeline creates a pipeline. verifier may be nil.
func NewPipeline(opener discover.SessionOpener, collector *discover.Collector, enricher *Enricher, verifier EmailVerifier, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.OverfetchFactor <= 0 {
		opts.OverfetchFactor = 1
	}
	if opts.VerifyConcurrency <= 0 {
		opts.VerifyConcurrency = 1
	}
	return &Pipeline{
		opener:    opener,
		collector: collector,
		enricher:  enricher,
		verifier:  verifier,
		opts:      opts,
		log:       zap.L().Named("pipeline"),
	}
}

// Run executes one search. Events go to out. On failure exactly one error
// event is emitted and the records gathered so far are returned with the error.
func (p *Pipeline) Run(ctx context.Context, spec model.SearchSpec, runID string, out Emitter) ([]model.Record, error) {
	ev := newEvents(out, runID)
	log := p.log.With(zap.String("run_id", runID))

	p.setState(model.StateCollecting)
	ev.log(model.LevelInfo, fmt.Sprintf("Searching for %q in %q", spec.SearchTerm, spec.AreaQuery))

	urls, err := p.discover(ctx, spec, ev)
	if err != nil {
		return nil, p.fail(ev, log, err)
	}
	if len(urls) == 0 {
		ev.log(model.LevelWarning, "No listings found")
	} else {
		ev.log(model.LevelInfo, fmt.Sprintf("Discovered %d listings", len(urls)))
	}

	p.setState(model.StateProcessing)
	records, err := p.process(ctx, spec, urls, ev)
	if err != nil {
		return records, p.fail(ev, log, err)
	}

	if spec.VerifyEmails {
		if p.verifier == nil {
			ev.log(model.LevelWarning, "E-mail verification requested but no verification service is configured")
		} else {
			p.setState(model.StateVerifying)
			if err := p.verifyEmails(ctx, records, ev); err != nil {
				return records, p.fail(ev, log, err)
			}
		}
	}

	p.setState(model.StateCompleted)
	log.Info("run completed", zap.Int("records", len(records)), zap.Int("discovered", len(urls)))
	ev.complete(records)
	return records, nil
}

func (p *Pipeline) setState(s model.RunState) {
	p.log.Debug("state", zap.String("state", string(s)))
	if p.opts.OnState != nil {
		p.opts.OnState(s)
	}
}

func (p *Pipeline) fail(ev *events, log *zap.Logger, err error) error {
	p.setState(model.StateFailed)
	log.Error("run failed", zap.Error(err))
	ev.fail(firstLine(err))
	return err
}

// phaseQueries lists the search queries in the order they are tried
func (p *Pipeline) phaseQueries(spec model.SearchSpec) []string {
	if spec.IndividualNameSearch || spec.AreaQuery == "" {
		return []string{strings.TrimSpace(spec.SearchTerm + " " + spec.AreaQuery)}
	}
	queries := make([]string, 0, len(p.opts.PhaseTemplates))
	for _, tmpl := range p.opts.PhaseTemplates {
		queries = append(queries, fmt.Sprintf(tmpl, spec.SearchTerm, spec.AreaQuery))
	}
	return queries
}

// discover runs the search phases until the budget is met. A phase failing
// before anything was found aborts the run; later failures end discovery.
func (p *Pipeline) discover(ctx context.Context, spec model.SearchSpec, ev *events) ([]string, error) {
	budget := 0
	if spec.Bounded() {
		budget = spec.Target * p.opts.OverfetchFactor
	}

	seen := discover.NewURLSet()
	queries := p.phaseQueries(spec)

	for i, query := range queries {
		remaining := 0
		if budget > 0 {
			remaining = budget - seen.Len()
			if remaining <= 0 {
				break
			}
		}

		sess, err := p.opener.OpenSearch(ctx, query)
		if err != nil {
			if seen.Len() == 0 || ctx.Err() != nil {
				return nil, eris.Wrapf(err, "search %q", query)
			}
			ev.log(model.LevelWarning, fmt.Sprintf("Search phase %q failed, continuing with %d listings: %s", query, seen.Len(), firstLine(err)))
			break
		}

		found, err := p.collector.Collect(ctx, sess, remaining, seen)
		sess.Close()
		if err != nil {
			return nil, eris.Wrapf(err, "collect %q", query)
		}

		ev.log(model.LevelInfo, fmt.Sprintf("Phase %d/%d %q: %d new listings (%d total)", i+1, len(queries), query, len(found), seen.Len()))
	}

	return seen.URLs(), nil
}

// recordExtractor binds the enricher to one run's spec
type recordExtractor struct {
	enricher *Enricher
	spec     model.SearchSpec
}

func (r recordExtractor) Extract(ctx context.Context, listingURL string) (*model.Record, error) {
	return r.enricher.Process(ctx, r.spec, listingURL)
}

// process enriches urls in fixed-size batches in discovery order and stops
// once the target is reached. Records past the target in the last batch are
// dropped.
func (p *Pipeline) process(ctx context.Context, spec model.SearchSpec, urls []string, ev *events) ([]model.Record, error) {
	batches := worker.NewBatchProcessor(recordExtractor{enricher: p.enricher.withEvents(ev), spec: spec}, p.opts.BatchSize)

	records := make([]model.Record, 0)
	keys := make(map[string]bool)
	processed := 0

	for start := 0; start < len(urls); {
		if spec.Bounded() && len(records) >= spec.Target {
			break
		}
		if err := ctx.Err(); err != nil {
			return records, eris.Wrap(err, "processing interrupted")
		}

		end := min(start+p.opts.BatchSize, len(urls))

		for _, res := range batches.ProcessURLs(ctx, urls[start:end]) {
			processed++
			if res.Error != nil {
				ev.log(model.LevelWarning, fmt.Sprintf("Skipped listing: %s", firstLine(res.Error)))
				continue
			}
			rec := res.Record
			if rec == nil || keys[rec.MapsURL] {
				continue
			}
			if spec.Excludes(rec.BusinessName) {
				ev.log(model.LevelInfo, fmt.Sprintf("Excluded: %s", rec.BusinessName))
				continue
			}
			if spec.Bounded() && len(records) >= spec.Target {
				continue
			}
			keys[rec.MapsURL] = true
			records = append(records, *rec)
			ev.log(model.LevelSuccess, fmt.Sprintf("Added: %s", rec.BusinessName))
		}
		start = end

		ev.progress(model.Progress{
			Processed:  processed,
			Discovered: len(urls),
			Added:      len(records),
			Target:     spec.Target,
		})
	}

	return records, nil
}

// verifyEmails checks record e-mails with bounded concurrency. Undeliverable
// addresses are cleared.
func (p *Pipeline) verifyEmails(ctx context.Context, records []model.Record, ev *events) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.VerifyConcurrency)

	var checked, rejected atomic.Int32
	for i := range records {
		if records[i].Email == "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			checked.Add(1)
			if p.verifier.Verify(gctx, records[i].Email) {
				records[i].EmailStatus = model.EmailDeliverable
				return nil
			}
			rejected.Add(1)
			ev.log(model.LevelWarning, fmt.Sprintf("%s: undeliverable e-mail %s removed", records[i].BusinessName, records[i].Email))
			records[i].Email = ""
			records[i].EmailStatus = model.EmailUndeliverable
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "verification interrupted")
	}

	ev.log(model.LevelInfo, fmt.Sprintf("Verified %d e-mails, %d undeliverable", checked.Load(), rejected.Load()))
	return nil
}

// firstLine keeps error messages single-line for the event stream
func firstLine(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = strings.TrimSpace(msg[:i])
	}
	return msg
}
