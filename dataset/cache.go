package dataset

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// LoadObserver is told about every load attempt. metrics.Recorder satisfies it.
type LoadObserver interface {
	ObserveLoad(source string, rows int, elapsed time.Duration, err error)
}

// Cache memoizes datasets by Source.ID. Concurrent Get calls for the same
// source share a single load; failed loads are not cached.
//
// The shared load runs detached from any one caller's context so a caller
// that goes away does not fail the load for the others. LoadTimeout bounds
// it instead.
type Cache struct {
	// LoadTimeout bounds a shared load. Zero means no bound.
	LoadTimeout time.Duration

	log      zerolog.Logger
	observer LoadObserver

	mu      sync.RWMutex
	entries map[string]*Dataset
	gen     uint64
	group   singleflight.Group
}

// NewCache creates an empty cache. observer may be nil.
func NewCache(log zerolog.Logger, observer LoadObserver) *Cache {
	return &Cache{
		log:      log,
		observer: observer,
		entries:  make(map[string]*Dataset),
	}
}

// Get returns the memoized dataset for src, loading it on first use. It
// returns ctx.Err() if ctx is done before the shared load finishes.
func (c *Cache) Get(ctx context.Context, src Source) (*Dataset, error) {
	id := src.ID()

	c.mu.RLock()
	ds, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return ds, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		return c.load(loadCtx, id, src)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) load(ctx context.Context, id string, src Source) (*Dataset, error) {
	c.mu.RLock()
	ds, ok := c.entries[id]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return ds, nil
	}

	if c.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.LoadTimeout)
		defer cancel()
	}

	start := time.Now()
	ds, err := src.Load(ctx)
	elapsed := time.Since(start)
	if c.observer != nil {
		rows := 0
		if ds != nil {
			rows = ds.Len()
		}
		c.observer.ObserveLoad(id, rows, elapsed, err)
	}
	if err != nil {
		c.log.Error().Err(err).Str("source", id).Msg("dataset load failed")
		return nil, err
	}

	ev := c.log.Info().Str("source", id).Int("rows", ds.Len()).Dur("elapsed", elapsed)
	if unknown := ds.UnknownSides(); len(unknown) > 0 {
		ev = ev.Interface("unknown_sides", unknown)
	}
	ev.Msg("dataset loaded")

	c.mu.Lock()
	// An Invalidate or Purge since the load started makes this result stale.
	if c.gen == gen {
		c.entries[id] = ds
	}
	c.mu.Unlock()
	return ds, nil
}

// Invalidate drops the memoized dataset for a source ID. A load already in
// flight finishes for its waiters but is not memoized.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.gen++
	c.group.Forget(id)
	c.mu.Unlock()
}

// Purge drops every memoized dataset.
func (c *Cache) Purge() {
	c.mu.Lock()
	for id := range c.entries {
		c.group.Forget(id)
	}
	c.entries = make(map[string]*Dataset)
	c.gen++
	c.mu.Unlock()
}

// Len reports how many datasets are memoized.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
