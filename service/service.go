/*
Package service is the elevation engine's facade: point elevation queries and
per-tile contour sets over a static tile manifest.

A Service owns its tile loader, contour cache and optional persistent store;
several independent services can coexist in one process. Public queries never
fail outright: missing coverage, unreadable tiles and bad input degrade to
empty or no-data results.
*/
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/paulmach/orb"
	"github.com/rotblauer/elevd/geo/transform"
	"github.com/rotblauer/elevd/manifest"
	"github.com/rotblauer/elevd/metrics"
	"github.com/rotblauer/elevd/params"
	"github.com/rotblauer/elevd/store"
	"github.com/rotblauer/elevd/tiles"
	"github.com/rotblauer/elevd/types/contour"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	config   *params.ElevationConfig
	manifest *manifest.Manifest
	loader   *tiles.Loader
	store    *store.Store
	project  orb.Projection
	metrics  *metrics.Registry
	logger   *slog.Logger

	contours *ttlcache.Cache[uint64, []contour.Feature]
	computes *singleflight.Group
}

type Option func(*Service)

// WithStore persists contour sets in st. The service closes it on Close.
func WithStore(st *store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithProjection overrides the configured display transform.
func WithProjection(p orb.Projection) Option {
	return func(s *Service) { s.project = p }
}

// WithMetrics shares a registry, eg. the loader's.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Service) { s.metrics = reg }
}

func New(config *params.ElevationConfig, m *manifest.Manifest, loader *tiles.Loader, opts ...Option) (*Service, error) {
	if config == nil {
		config = params.DefaultElevationConfig()
	}
	s := &Service{
		config:   config,
		manifest: m,
		loader:   loader,
		logger:   slog.With("service", "elevation"),
		computes: &singleflight.Group{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.project == nil {
		p, err := transform.ByName(config.Transform)
		if err != nil {
			return nil, err
		}
		s.project = p
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}

	cacheOpts := []ttlcache.Option[uint64, []contour.Feature]{
		ttlcache.WithTTL[uint64, []contour.Feature](config.ContourCacheTTL),
	}
	if config.ContourCacheCapacity > 0 {
		cacheOpts = append(cacheOpts,
			ttlcache.WithCapacity[uint64, []contour.Feature](config.ContourCacheCapacity))
	}
	s.contours = ttlcache.New[uint64, []contour.Feature](cacheOpts...)
	return s, nil
}

func (s *Service) Manifest() *manifest.Manifest {
	return s.manifest
}

func (s *Service) Config() *params.ElevationConfig {
	return s.config
}

func (s *Service) Metrics() *metrics.Registry {
	return s.metrics
}

// queryContext applies the configured per-query timeout.
func (s *Service) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.QueryTimeout > 0 {
		return context.WithTimeout(ctx, s.config.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

// ClearCaches drops opened tiles, cached contour sets and the persistent store.
func (s *Service) ClearCaches() {
	s.loader.Clear()
	s.contours.DeleteAll()
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			s.logger.Error("Failed to clear contour store", "error", err)
		}
	}
	s.logger.Info("Cleared caches")
}

// Close releases opened tiles and the persistent store.
func (s *Service) Close() error {
	s.loader.Clear()
	s.contours.DeleteAll()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Stats is a snapshot of the service's caches and counters.
type Stats struct {
	Tiles          int            `json:"tiles"`
	CachedTiles    int            `json:"cachedTiles"`
	CachedContours int            `json:"cachedContours"`
	StoredContours int            `json:"storedContours"`
	Transform      string         `json:"transform"`
	Metrics        map[string]any `json:"metrics"`
}

func (s *Service) Stats() Stats {
	st := Stats{
		Tiles:          s.manifest.Len(),
		CachedTiles:    s.loader.Len(),
		CachedContours: s.contours.Len(),
		Transform:      s.config.Transform,
		Metrics:        s.metrics.Snapshot(),
	}
	if s.store != nil {
		st.StoredContours = s.store.Len()
	}
	return st
}

func (st Stats) String() string {
	return fmt.Sprintf("tiles=%d cached_tiles=%d cached_contours=%d stored_contours=%d",
		st.Tiles, st.CachedTiles, st.CachedContours, st.StoredContours)
}

func since(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
