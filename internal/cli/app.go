package cli

import (
	"net/http"

	"github.com/ppiankov/mapleads/internal/browser"
	"github.com/ppiankov/mapleads/internal/discover"
	"github.com/ppiankov/mapleads/internal/llm"
	"github.com/ppiankov/mapleads/internal/model"
	"github.com/ppiankov/mapleads/internal/owner"
	"github.com/ppiankov/mapleads/internal/pipeline"
	"github.com/ppiankov/mapleads/internal/util"
	"github.com/ppiankov/mapleads/internal/verify"
	"github.com/ppiankov/mapleads/internal/worker"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// app holds the process-wide collaborators of one CLI invocation. The
// browser, owner queue and verification credential are shared by every run.
type app struct {
	browser  *browser.Browser
	queue    *owner.Queue
	verifier *verify.Client
	pipeline *pipeline.Pipeline
}

// newApp starts Chrome and wires the pipeline. The AI provider and the
// verification service are only set up when a run asks for them. Close must
// be called.
func newApp(cfg *model.Config, withOwners, withVerify bool) (*app, error) {
	b, err := browser.New(cfg.Browser)
	if err != nil {
		return nil, err
	}
	a := &app{browser: b}

	fetcher := pipeline.NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBytes,
		cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	var robots pipeline.RobotsPolicy
	if cfg.HTTP.RespectRobots {
		proxy := util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, proxy)
	}
	limiter := worker.NewLimiter(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst)
	crawler := pipeline.NewWebsiteCrawler(fetcher, robots, limiter, cfg.Processing.WebsiteMaxPages)

	var resolver pipeline.OwnerResolver
	if withOwners {
		if a.queue, err = newOwnerQueue(cfg); err != nil {
			a.Close()
			return nil, err
		}
		if a.queue != nil {
			resolver = a.queue
		} else {
			zap.L().Warn("owner enrichment requested but llm.provider is not set")
		}
	}

	var verifier pipeline.EmailVerifier
	if withVerify {
		if a.verifier, err = newVerifier(cfg, b); err != nil {
			a.Close()
			return nil, err
		}
		if a.verifier != nil {
			verifier = a.verifier
		}
	}

	enricher := pipeline.NewEnricher(b, crawler, resolver)
	collector := discover.NewCollector(discover.OptionsFromModel(cfg.Discovery))
	a.pipeline = pipeline.NewPipeline(b, collector, enricher, verifier, pipeline.OptionsFromModel(cfg))
	return a, nil
}

// Close stops the owner queue and Chrome
func (a *app) Close() {
	if a.queue != nil {
		a.queue.Close()
	}
	if a.browser != nil {
		a.browser.Close()
	}
}

// newOwnerQueue returns nil when no AI provider is configured
func newOwnerQueue(cfg *model.Config) (*owner.Queue, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, eris.Wrap(err, "owner enrichment")
	}
	if provider == nil {
		return nil, nil
	}
	zap.L().Info("owner enrichment enabled", zap.String("provider", provider.Name()))
	svc := owner.NewLLMService(provider, cfg.LLM.WebSearch, cfg.LLM.MaxTokens)
	return owner.NewQueue(svc, owner.OptionsFromModel(cfg.Owner)), nil
}

// newVerifier returns nil when no verification service is configured. The key
// comes from config or, failing that, from the service's documentation page.
func newVerifier(cfg *model.Config, b *browser.Browser) (*verify.Client, error) {
	vc := cfg.Verify
	if vc.BaseURL == "" {
		return nil, nil
	}

	var source verify.KeySource
	switch {
	case vc.APIKey != "":
		source = verify.StaticKey(vc.APIKey)
	case vc.DocsURL != "" && b != nil:
		scraper, err := browser.NewKeyScraper(b, vc.DocsURL, vc.KeySelector, vc.KeyPattern)
		if err != nil {
			return nil, eris.Wrap(err, "verify")
		}
		source = scraper
	default:
		return nil, eris.New("verify: base_url is set but neither api_key nor docs_url is")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	opts := []verify.Option{verify.WithHTTPClient(&http.Client{Timeout: vc.Timeout, Transport: transport})}
	if vc.MXPrecheck {
		opts = append(opts, verify.WithMXLookup(verify.NewMXChecker(vc.DNSServer, vc.Timeout)))
	}
	return verify.NewClient(vc.BaseURL, verify.NewCredential(source), opts...), nil
}
