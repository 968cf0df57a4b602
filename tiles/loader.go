/*
Package tiles resolves manifest tile descriptors to open rasters.

The Loader memoizes opened tiles in an LRU cache and shares in-flight opens:
concurrent callers asking for the same tile wait on one load. A failed load is
never cached; its waiters all receive the error and the next call starts over.
*/
package tiles

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotblauer/elevd/metrics"
	"github.com/rotblauer/elevd/params"
	"github.com/rotblauer/elevd/raster"
	"github.com/rotblauer/elevd/types/tile"
	"golang.org/x/sync/singleflight"
)

// Record is an opened tile. Load hands out a reference; callers must Release
// it when done reading and must not close the Reader. A record evicted from
// the cache closes its reader once the last reference is released.
type Record struct {
	Descriptor tile.Descriptor
	Reader     raster.Reader
	Meta       tile.Meta

	logger  *slog.Logger
	mu      sync.Mutex
	refs    int
	evicted bool
	closed  bool
}

// acquire takes a reference, failing if the reader is already closed.
func (r *Record) acquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.refs++
	return true
}

// Release drops a reference taken by Load.
func (r *Record) Release() {
	r.mu.Lock()
	if r.refs > 0 {
		r.refs--
	}
	closing := r.evicted && r.refs == 0 && !r.closed
	if closing {
		r.closed = true
	}
	r.mu.Unlock()
	if closing {
		r.close()
	}
}

func (r *Record) evict() {
	r.mu.Lock()
	r.evicted = true
	closing := r.refs == 0 && !r.closed
	if closing {
		r.closed = true
	}
	r.mu.Unlock()
	if closing {
		r.close()
	}
}

func (r *Record) close() {
	if err := r.Reader.Close(); err != nil {
		r.logger.Warn("Failed to close evicted tile", "tile", r.Descriptor.ID, "error", err)
	}
}

type Loader struct {
	config  params.LoaderConfig
	source  raster.Source
	metrics *metrics.Registry
	logger  *slog.Logger

	mu       sync.Mutex
	cache    *lru.Cache[string, *Record]
	inflight *singleflight.Group
}

func NewLoader(config params.LoaderConfig, source raster.Source, reg *metrics.Registry) (*Loader, error) {
	if config.TileCacheSize <= 0 {
		config.TileCacheSize = params.DefaultLoaderConfig().TileCacheSize
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	l := &Loader{
		config:   config,
		source:   source,
		metrics:  reg,
		logger:   slog.With("component", "tiles"),
		inflight: &singleflight.Group{},
	}
	cache, err := lru.NewWithEvict[string, *Record](config.TileCacheSize, l.onEvict)
	if err != nil {
		return nil, err
	}
	l.cache = cache
	return l, nil
}

func (l *Loader) onEvict(id string, rec *Record) {
	l.logger.Debug("Evicting tile", "tile", id)
	rec.evict()
}

// Load returns a reference to the opened tile for desc, opening it at most
// once across concurrent callers. The caller must Release it. A caller whose
// ctx ends stops waiting; the shared open continues, bounded by LoadTimeout,
// for any other waiters.
func (l *Loader) Load(ctx context.Context, desc tile.Descriptor) (*Record, error) {
	for {
		rec, err := l.load(ctx, desc)
		if err != nil {
			return nil, err
		}
		if rec.acquire() {
			return rec, nil
		}
		// Evicted and closed before this caller got a reference.
		l.logger.Debug("Reloading evicted tile", "tile", desc.ID)
	}
}

func (l *Loader) load(ctx context.Context, desc tile.Descriptor) (*Record, error) {
	if rec, ok := l.cache.Get(desc.ID); ok {
		l.metrics.Inc(metrics.TileCacheHits)
		return rec, nil
	}

	l.mu.Lock()
	group := l.inflight
	l.mu.Unlock()

	ch := group.DoChan(desc.ID, func() (interface{}, error) {
		// Another flight may have finished between the cache check and now.
		if rec, ok := l.cache.Get(desc.ID); ok {
			return rec, nil
		}
		return l.open(desc)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Record), nil
	}
}

func (l *Loader) open(desc tile.Descriptor) (*Record, error) {
	ctx := context.Background()
	if l.config.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.LoadTimeout)
		defer cancel()
	}

	start := time.Now()
	l.metrics.Inc(metrics.TileLoads)
	r, err := l.source.Open(ctx, desc)
	l.metrics.Since(metrics.TileLoadTimer, start)
	if err != nil {
		l.metrics.Inc(metrics.TileLoadFailures)
		l.logger.Warn("Failed to load tile", "tile", desc.ID, "file", desc.FileRef, "error", err)
		return nil, fmt.Errorf("load tile %s: %w", desc.ID, err)
	}

	rec := &Record{Descriptor: desc, Reader: r, Meta: r.Meta(), logger: l.logger}
	l.cache.Add(desc.ID, rec)

	l.logger.Info("Loaded tile", "tile", desc.ID,
		"size", fmt.Sprintf("%dx%d", rec.Meta.Width, rec.Meta.Height),
		"took", time.Since(start).Round(time.Millisecond))
	return rec, nil
}

// Cached reports whether the tile is in the cache, without touching recency.
func (l *Loader) Cached(id string) bool {
	return l.cache.Contains(id)
}

func (l *Loader) Len() int {
	return l.cache.Len()
}

// Clear drops every cached tile and forgets in-flight loads, so the next Load
// of any tile starts a fresh open. Tiles still referenced close on Release.
func (l *Loader) Clear() {
	l.mu.Lock()
	l.inflight = &singleflight.Group{}
	l.mu.Unlock()
	l.cache.Purge()
}
