package preset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sofmeright/rulestack/src/ruleset"
)

// Metrics are the cache counters exported by CachingLoader.
type Metrics struct {
	Hits         prometheus.Counter
	Misses       prometheus.Counter
	Failures     prometheus.Counter
	LoadDuration prometheus.Histogram
}

// NewMetrics creates cache metrics and registers them on reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rulestack",
			Subsystem: "preset_cache",
			Name:      "hits_total",
			Help:      "Preset loads served from the cache.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rulestack",
			Subsystem: "preset_cache",
			Name:      "misses_total",
			Help:      "Preset loads passed to the underlying loader.",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rulestack",
			Subsystem: "preset_cache",
			Name:      "failures_total",
			Help:      "Underlying preset loads that returned an error.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rulestack",
			Subsystem: "preset_cache",
			Name:      "load_duration_seconds",
			Help:      "Time spent in the underlying loader.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Failures, m.LoadDuration)
	}
	return m
}

// CachingLoader memoizes successful loads of another loader across
// resolutions. Concurrent loads of the same reference share one call.
// Returned configs are shared and must be treated as read-only.
type CachingLoader struct {
	next    ruleset.Loader
	metrics *Metrics
	logger  *slog.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]*ruleset.Config
}

// NewCachingLoader wraps next. Nil metrics are created unregistered.
func NewCachingLoader(next ruleset.Loader, metrics *Metrics, logger *slog.Logger) *CachingLoader {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachingLoader{
		next:    next,
		metrics: metrics,
		logger:  logger,
		entries: map[string]*ruleset.Config{},
	}
}

// Load returns the cached config for ref or loads it once from the wrapped
// loader. The shared load is not tied to any single caller's cancellation;
// each caller stops waiting when its own ctx is done.
func (c *CachingLoader) Load(ctx context.Context, ref string) (*ruleset.Config, error) {
	c.mu.RLock()
	cfg, ok := c.entries[ref]
	c.mu.RUnlock()
	if ok {
		c.metrics.Hits.Inc()
		return cfg, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(ref, func() (any, error) {
		c.mu.RLock()
		cfg, ok := c.entries[ref]
		c.mu.RUnlock()
		if ok {
			return cfg, nil
		}

		c.metrics.Misses.Inc()
		start := time.Now()
		cfg, err := c.next.Load(loadCtx, ref)
		c.metrics.LoadDuration.Observe(time.Since(start).Seconds())
		if err == nil && cfg == nil {
			err = fmt.Errorf("%q: %w", ref, ruleset.ErrNotFound)
		}
		if err != nil {
			c.metrics.Failures.Inc()
			return nil, err
		}

		c.mu.Lock()
		c.entries[ref] = cfg
		c.mu.Unlock()
		return cfg, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			c.logger.Debug("preset load shared", "ref", ref)
		}
		return r.Val.(*ruleset.Config), nil
	}
}

// Prefetch loads refs and everything they extend, up to parallel loads at a
// time, so later resolutions are served from memory.
func (c *CachingLoader) Prefetch(ctx context.Context, refs []string, parallel int) error {
	if parallel <= 0 {
		parallel = 1
	}
	seen := map[string]bool{}
	wave := refs

	for len(wave) > 0 {
		var (
			mu   sync.Mutex
			next []string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(parallel)

		for _, ref := range wave {
			ref = strings.TrimSpace(ref)
			if ref == "" || seen[ref] {
				continue
			}
			seen[ref] = true
			g.Go(func() error {
				cfg, err := c.Load(gctx, ref)
				if err != nil {
					return err
				}
				mu.Lock()
				next = append(next, cfg.Extends...)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		wave = next
	}
	return nil
}

// Len returns the number of cached presets.
func (c *CachingLoader) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
