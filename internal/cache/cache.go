// Package cache sits between the search service and the weather provider.
// It deduplicates concurrent identical requests, serves fresh responses from
// memory, drops idle entries and retries transient provider failures once.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/weather-search/internal/weather"
)

// Options tunes the cache. Zero FreshFor or MaxIdle fall back to the
// defaults; a zero RetryDelay retries immediately.
type Options struct {
	// FreshFor is how long a successful response is served without refetching.
	FreshFor time.Duration
	// MaxIdle is how long an entry survives without being read.
	MaxIdle time.Duration
	// RetryDelay is the pause before the single retry of a transient failure.
	RetryDelay time.Duration

	Logger  *slog.Logger
	Metrics *Metrics
	// Now overrides the clock used for freshness and idle checks.
	Now func() time.Time
}

const (
	DefaultFreshFor = 5 * time.Minute
	DefaultMaxIdle  = 30 * time.Minute
)

// Cache wraps a weather.Source. It is itself a weather.Source, so the search
// service works the same with or without it.
type Cache struct {
	source weather.Source
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	entries *gocache.Cache
	flights singleflight.Group
}

var (
	_ weather.Source    = (*Cache)(nil)
	_ weather.Forgetter = (*Cache)(nil)
)

// New creates a Cache in front of source.
func New(source weather.Source, opts Options) *Cache {
	if opts.FreshFor <= 0 {
		opts.FreshFor = DefaultFreshFor
	}
	if opts.MaxIdle <= 0 {
		opts.MaxIdle = DefaultMaxIdle
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		source:  source,
		opts:    opts,
		logger:  logger,
		entries: gocache.New(opts.MaxIdle, opts.MaxIdle/2),
	}
}

// Get returns the (kind, city) value, fetching it when absent, stale or failed.
// A blank city returns a NoData result without any network activity.
func (c *Cache) Get(ctx context.Context, kind Kind, city weather.CityQuery) (Result, error) {
	if city.IsEmpty() {
		c.opts.Metrics.request(kind, "disabled")
		return Result{Kind: kind, City: city, State: StateEmpty}, nil
	}

	key := entryKey(kind, city)

	c.mu.Lock()
	now := c.opts.Now()
	if e := c.lookup(key, now); e != nil && e.state(now, c.opts.FreshFor) == StateFresh {
		res := e.result(StateFresh)
		c.mu.Unlock()
		c.opts.Metrics.request(kind, "hit")
		return res, nil
	}
	c.mu.Unlock()
	c.opts.Metrics.request(kind, "miss")

	// The shared fetch outlives any single caller so a cancelled search does
	// not fail the others waiting on the same key. A caller whose context
	// ends stops waiting; the fetch still completes and fills the entry.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key, func() (interface{}, error) {
		return c.refresh(fetchCtx, key, kind, city)
	})

	select {
	case <-ctx.Done():
		c.logger.Debug("caller stopped waiting for fetch", "kind", kind, "city", city.String(), "error", ctx.Err())
		return Result{Kind: kind, City: city, State: StateFetching}, weather.NewError(weather.KindNetworkUnavailable, ctx.Err())
	case r := <-ch:
		if r.Shared {
			c.logger.Debug("joined in-flight fetch", "kind", kind, "city", city.String())
		}
		res, _ := r.Val.(Result)
		return res, r.Err
	}
}

// refresh runs inside the single flight for key.
func (c *Cache) refresh(ctx context.Context, key string, kind Kind, city weather.CityQuery) (Result, error) {
	c.mu.Lock()
	now := c.opts.Now()
	e := c.lookup(key, now)
	// A flight that finished just before this one started already did the work.
	if e != nil && e.state(now, c.opts.FreshFor) == StateFresh {
		res := e.result(StateFresh)
		c.mu.Unlock()
		return res, nil
	}
	if e == nil {
		e = &entry{kind: kind, city: city, lastAccess: now}
	}
	e.fetching = true
	c.entries.Set(key, e, gocache.DefaultExpiration)
	c.mu.Unlock()

	value, err := c.fetchWithRetry(ctx, kind, city)

	c.mu.Lock()
	defer c.mu.Unlock()

	now = c.opts.Now()
	e.fetching = false
	e.lastAccess = now
	if err != nil {
		e.err = err
		c.entries.Set(key, e, gocache.DefaultExpiration)
		return Result{Kind: kind, City: city, State: StateFailed}, err
	}

	e.city = city
	e.value = value
	e.hasValue = true
	e.err = nil
	e.fetchedAt = now
	c.entries.Set(key, e, gocache.DefaultExpiration)
	return e.result(StateFresh), nil
}

// fetchWithRetry calls the source and retries exactly once on a transient failure.
func (c *Cache) fetchWithRetry(ctx context.Context, kind Kind, city weather.CityQuery) (any, error) {
	fetchID := uuid.NewString()
	log := c.logger.With("fetch_id", fetchID, "kind", kind, "city", city.String())

	value, err := c.fetch(ctx, kind, city)
	if err == nil {
		c.opts.Metrics.fetch(kind, "ok")
		log.Debug("fetched")
		return value, nil
	}
	c.opts.Metrics.fetch(kind, string(weather.KindOf(err)))
	if !weather.IsTransient(err) {
		log.Info("fetch failed", "error_kind", weather.KindOf(err), "error", err)
		return nil, err
	}

	log.Info("retrying after transient failure", "error_kind", weather.KindOf(err), "delay", c.opts.RetryDelay)
	c.opts.Metrics.retry(kind)

	if c.opts.RetryDelay > 0 {
		timer := time.NewTimer(c.opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, weather.NewError(weather.KindNetworkUnavailable, ctx.Err())
		case <-timer.C:
		}
	}

	value, err = c.fetch(ctx, kind, city)
	if err != nil {
		c.opts.Metrics.fetch(kind, string(weather.KindOf(err)))
		log.Warn("retry failed", "error_kind", weather.KindOf(err), "error", err)
		return nil, err
	}
	c.opts.Metrics.fetch(kind, "ok")
	log.Debug("fetched on retry")
	return value, nil
}

func (c *Cache) fetch(ctx context.Context, kind Kind, city weather.CityQuery) (any, error) {
	var (
		value any
		err   error
	)
	switch kind {
	case KindCurrent:
		value, err = c.source.FetchCurrent(ctx, city)
	case KindForecast:
		value, err = c.source.FetchForecast(ctx, city)
	default:
		return nil, weather.NewError(weather.KindUnknown, nil)
	}
	if err != nil {
		// Keep the taxonomy even if a source leaks a raw error.
		return nil, weather.Normalize(err)
	}
	return value, nil
}

// lookup returns the live entry for key, dropping it when idle too long.
// Reading an entry re-arms its idle timer. Caller holds c.mu.
func (c *Cache) lookup(key string, now time.Time) *entry {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil
	}
	e := v.(*entry)
	if !e.fetching && now.Sub(e.lastAccess) > c.opts.MaxIdle {
		c.entries.Delete(key)
		c.opts.Metrics.eviction()
		c.logger.Debug("evicted idle entry", "kind", e.kind, "city", e.city.String())
		return nil
	}
	e.lastAccess = now
	c.entries.Set(key, e, gocache.DefaultExpiration)
	return e
}

// FetchCurrent implements weather.Source.
func (c *Cache) FetchCurrent(ctx context.Context, city weather.CityQuery) (weather.CurrentReading, error) {
	res, err := c.Get(ctx, KindCurrent, city)
	if err != nil {
		return weather.CurrentReading{}, err
	}
	return res.Current, nil
}

// FetchForecast implements weather.Source.
func (c *Cache) FetchForecast(ctx context.Context, city weather.CityQuery) ([]weather.ForecastSample, error) {
	res, err := c.Get(ctx, KindForecast, city)
	if err != nil {
		return nil, err
	}
	return res.Forecast, nil
}

// State reports the current state of the (kind, city) entry without
// fetching or refreshing its idle timer.
func (c *Cache) State(kind Kind, city weather.CityQuery) State {
	if city.IsEmpty() {
		return StateEmpty
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries.Get(entryKey(kind, city))
	if !ok {
		return StateEmpty
	}
	e := v.(*entry)
	now := c.opts.Now()
	if !e.fetching && now.Sub(e.lastAccess) > c.opts.MaxIdle {
		return StateEmpty
	}
	return e.state(now, c.opts.FreshFor)
}

// Invalidate drops the (kind, city) entry so the next Get refetches.
func (c *Cache) Invalidate(kind Kind, city weather.CityQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Delete(entryKey(kind, city))
}

// Forget drops both the current-weather and forecast entries for city.
// It implements weather.Forgetter.
func (c *Cache) Forget(city weather.CityQuery) {
	c.Invalidate(KindCurrent, city)
	c.Invalidate(KindForecast, city)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Flush()
}

// Len returns the number of entries held, including idle ones not yet reclaimed.
func (c *Cache) Len() int {
	return c.entries.ItemCount()
}
