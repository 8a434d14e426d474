// Package monitor runs the recurring check cycle: evict stale cache entries,
// walk every distinct product, obtain a determination, persist it and act on
// stock transitions.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/fiffu/stockwatch/config"
	"github.com/fiffu/stockwatch/lib/checkcache"
	"github.com/fiffu/stockwatch/lib/dispatch"
	"github.com/fiffu/stockwatch/lib/models"
	"github.com/fiffu/stockwatch/lib/provider"
	"github.com/fiffu/stockwatch/lib/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Engine struct {
	log        *zap.Logger
	store      *store.Store
	cache      *checkcache.Cache
	provider   provider.Provider
	dispatcher *dispatch.Dispatcher

	mu          sync.Mutex // serializes cycles; the next one waits for the previous
	concurrency int
	alarm       *alarmClock
}

func New(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *store.Store,
	cache *checkcache.Cache,
	prov provider.Provider,
	dispatcher *dispatch.Dispatcher,
) *Engine {
	engine := newEngine(log, db, cache, prov, dispatcher)
	engine.alarm = newAlarmClock(cfg.CheckInterval())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			engine.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop monitor engine")
			engine.Stop()
			return nil
		},
	})

	return engine
}

func newEngine(
	log *zap.Logger,
	db *store.Store,
	cache *checkcache.Cache,
	prov provider.Provider,
	dispatcher *dispatch.Dispatcher,
) *Engine {
	return &Engine{
		log:         log,
		store:       db,
		cache:       cache,
		provider:    prov,
		dispatcher:  dispatcher,
		concurrency: 5,
	}
}

func (e *Engine) Start(ctx context.Context) {
	c := e.alarm.Start(ctx)

	go func() {
		for wakeupTime := range c {
			e.RunCycle(context.Background(), wakeupTime)
		}
		e.log.Sugar().Info("Monitor engine stopped")
	}()
}

// Stop halts the alarm. A cycle already in flight finishes; RunCycle holds the
// engine mutex until every product and notification is done.
func (e *Engine) Stop() {
	e.alarm.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
}

// Determine resolves a determination through the cache, falling back to the
// provider and memoizing whatever it said.
func (e *Engine) Determine(ctx context.Context, locator, storeID string) models.Determination {
	key := checkcache.Key{Locator: locator, StoreID: storeID}
	if det, ok := e.cache.Lookup(key); ok {
		return det
	}
	det := e.provider.Check(ctx, locator, storeID)
	e.cache.Store(key, det, time.Now().UTC())
	return det
}
