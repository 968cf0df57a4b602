// Package metrics keeps the counters and timers of the elevation engine
// in a go-ethereum metrics registry, one registry per service instance.
package metrics

import (
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

const (
	TileLoads         = "tile.loads"
	TileLoadFailures  = "tile.load.failures"
	TileCacheHits     = "tile.cache.hits"
	TileLoadTimer     = "tile.load.timer"
	ContourCacheHits  = "contour.cache.hits"
	ContourStoreHits  = "contour.store.hits"
	ContourComputes   = "contour.computes"
	ContourTimer      = "contour.compute.timer"
	ElevationQueries  = "elevation.queries"
	ElevationNoData   = "elevation.nodata"
	RegionQueries     = "region.queries"
	RegionTileFailure = "region.tile.failures"
)

// Registry wraps a metrics.Registry with lazily registered counters and timers.
type Registry struct {
	metrics.Registry
}

func NewRegistry() *Registry {
	// Metrics constructors return no-op values unless enabled.
	metrics.Enabled = true
	return &Registry{Registry: metrics.NewRegistry()}
}

func (r *Registry) Counter(name string) metrics.Counter {
	return metrics.GetOrRegisterCounter(name, r.Registry)
}

func (r *Registry) Timer(name string) metrics.Timer {
	return metrics.GetOrRegisterTimer(name, r.Registry)
}

// Inc increments the named counter by one.
func (r *Registry) Inc(name string) {
	r.Counter(name).Inc(1)
}

// Since records the time elapsed since start on the named timer.
func (r *Registry) Since(name string, start time.Time) {
	r.Timer(name).UpdateSince(start)
}

// Count returns the current value of the named counter.
func (r *Registry) Count(name string) int64 {
	return r.Counter(name).Snapshot().Count()
}

// Snapshot returns counter values and timer counts/means by name.
func (r *Registry) Snapshot() map[string]any {
	out := map[string]any{}
	r.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			out[name] = m.Snapshot().Count()
		case metrics.Timer:
			s := m.Snapshot()
			out[name] = map[string]any{
				"count":  s.Count(),
				"meanMs": time.Duration(s.Mean()).Milliseconds(),
			}
		}
	})
	return out
}
