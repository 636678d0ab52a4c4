package owner

import (
	"context"
	"sync"
	"time"

	"github.com/ppiankov/mapleads/internal/cache"
	"github.com/ppiankov/mapleads/internal/llm"
	"github.com/ppiankov/mapleads/internal/model"
	"go.uber.org/zap"
)

// QueueOptions configures pacing for the owner queue
type QueueOptions struct {
	InitialDelay      time.Duration // Before the conservative attempt
	RetryDelay        time.Duration // Before the aggressive attempt
	RateLimitCooldown time.Duration // Extra pause after a 429
	Cache             cache.Cache   // Optional; only found owners are stored
	CacheTTL          time.Duration
	Backlog           int // Channel buffer; callers block beyond it
}

// DefaultQueueOptions mirrors the pacing upstream AI services tolerate
func DefaultQueueOptions() QueueOptions {
	return QueueOptions{
		InitialDelay:      2 * time.Second,
		RetryDelay:        3 * time.Second,
		RateLimitCooldown: 5 * time.Second,
		Backlog:           64,
	}
}

// OptionsFromModel converts model.OwnerConfig to QueueOptions
func OptionsFromModel(cfg model.OwnerConfig) QueueOptions {
	opts := DefaultQueueOptions()
	opts.InitialDelay = cfg.InitialDelay
	opts.RetryDelay = cfg.RetryDelay
	opts.RateLimitCooldown = cfg.RateLimitCooldown
	opts.CacheTTL = cfg.CacheTTL
	if cfg.CacheTTL > 0 {
		opts.Cache = cache.New(cfg.CacheTTL, cfg.CacheDir)
	}
	return opts
}

type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type task struct {
	ctx    context.Context
	query  Query
	result chan model.OwnerResolution
}

// Queue serializes every AI owner lookup in the process through one worker,
// in arrival order. Concurrent callers block until their own task settles.
type Queue struct {
	svc   Service
	opts  QueueOptions
	sleep sleepFunc
	log   *zap.Logger

	tasks chan *task
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewQueue starts the worker. Call Close when the process is done with it.
func NewQueue(svc Service, opts QueueOptions) *Queue {
	return newQueue(svc, opts, sleepCtx)
}

func newQueue(svc Service, opts QueueOptions, sleep sleepFunc) *Queue {
	if opts.Backlog <= 0 {
		opts.Backlog = 64
	}
	q := &Queue{
		svc:   svc,
		opts:  opts,
		sleep: sleep,
		log:   zap.L().Named("owner"),
		tasks: make(chan *task, opts.Backlog),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

var notFound = model.OwnerResolution{Source: model.OwnerSourceAINotFound}

// Resolve enqueues a lookup and waits for it. It never returns an error: any
// failure, including a cancelled ctx, yields AI_Not_Found.
func (q *Queue) Resolve(ctx context.Context, query Query) model.OwnerResolution {
	t := &task{ctx: ctx, query: query, result: make(chan model.OwnerResolution, 1)}

	select {
	case q.tasks <- t:
	case <-ctx.Done():
		return notFound
	case <-q.quit:
		return notFound
	}

	select {
	case r := <-t.result:
		return r
	case <-ctx.Done():
		return notFound
	case <-q.done:
		return notFound
	}
}

// Close stops the worker. Tasks still waiting resolve as AI_Not_Found.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.quit) })
	<-q.done
}

func (q *Queue) pending() int {
	return len(q.tasks)
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.quit:
			for {
				select {
				case t := <-q.tasks:
					t.result <- notFound
				default:
					return
				}
			}
		case t := <-q.tasks:
			t.result <- q.handle(t)
		}
	}
}

func (q *Queue) handle(t *task) (res model.OwnerResolution) {
	res = notFound
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("owner lookup panicked", zap.String("business", t.query.BusinessName), zap.Any("panic", r))
			res = notFound
		}
	}()

	ctx := t.ctx
	if ctx.Err() != nil {
		return res
	}

	key := cache.Key("owner", t.query.BusinessName, t.query.Location)
	if q.opts.Cache != nil {
		var cached model.OwnerResolution
		if cache.GetJSON(q.opts.Cache, key, &cached) && cached.Found() {
			q.log.Debug("owner cache hit", zap.String("business", t.query.BusinessName))
			return cached
		}
	}

	if err := q.sleep(ctx, q.opts.InitialDelay); err != nil {
		return res
	}
	if name, ok := q.attempt(ctx, t.query, false); ok {
		return q.remember(key, model.OwnerResolution{OwnerName: name, Source: model.OwnerSourceAISearch})
	}

	if err := q.sleep(ctx, q.opts.RetryDelay); err != nil {
		return res
	}
	if name, ok := q.attempt(ctx, t.query, true); ok {
		return q.remember(key, model.OwnerResolution{OwnerName: name, Source: model.OwnerSourceAIRetry})
	}

	return res
}

func (q *Queue) attempt(ctx context.Context, query Query, aggressive bool) (string, bool) {
	text, err := q.svc.Lookup(ctx, query, aggressive)
	if err != nil {
		if llm.IsRateLimited(err) {
			q.log.Warn("owner lookup rate limited, cooling down",
				zap.String("business", query.BusinessName), zap.Duration("cooldown", q.opts.RateLimitCooldown))
			_ = q.sleep(ctx, q.opts.RateLimitCooldown)
		}
		q.log.Warn("owner lookup failed",
			zap.String("business", query.BusinessName), zap.Bool("aggressive", aggressive), zap.Error(err))
		return "", false
	}

	v := Sanitize(text)
	if !v.Valid {
		q.log.Debug("owner answer rejected",
			zap.String("business", query.BusinessName), zap.String("reason", v.Reason), zap.Bool("aggressive", aggressive))
		return "", false
	}
	return v.Name, true
}

func (q *Queue) remember(key string, res model.OwnerResolution) model.OwnerResolution {
	if q.opts.Cache != nil {
		if err := cache.SetJSON(q.opts.Cache, key, res, q.opts.CacheTTL); err != nil {
			q.log.Debug("owner cache write failed", zap.Error(err))
		}
	}
	return res
}
