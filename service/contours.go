package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/paulmach/orb"
	"github.com/rotblauer/elevd/clip"
	"github.com/rotblauer/elevd/isoline"
	"github.com/rotblauer/elevd/metrics"
	"github.com/rotblauer/elevd/raster"
	"github.com/rotblauer/elevd/types/bounds"
	"github.com/rotblauer/elevd/types/contour"
	"github.com/rotblauer/elevd/types/tile"
	"golang.org/x/sync/errgroup"
)

var ErrTileNotFound = errors.New("tile not found")

// contourKey identifies one contour set. Transform is included so a
// persistent store survives a change of display transform.
type contourKey struct {
	TileID        string
	ThresholdStep float64
	SampleSize    int
	MaxContours   int
	Transform     string
}

func (s *Service) cacheKey(desc tile.Descriptor, settings contour.Settings) (uint64, string, error) {
	k := contourKey{
		TileID:        desc.ID,
		ThresholdStep: settings.ThresholdStep,
		SampleSize:    settings.SampleSize,
		MaxContours:   settings.MaxContours,
		Transform:     s.config.Transform,
	}
	hash, err := hashstructure.Hash(k, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, "", err
	}
	return hash, fmt.Sprintf("%s/%016x", desc.ID, hash), nil
}

// GetTileContours returns the contour features of one tile, computing them
// at most once per (tile, settings) across concurrent callers. The shared
// computation runs under its own QueryTimeout, not the caller's ctx. Zero settings
// fields take the configured defaults. The returned slice is shared and must
// not be modified.
func (s *Service) GetTileContours(ctx context.Context, desc tile.Descriptor, settings contour.Settings) ([]contour.Feature, error) {
	settings = settings.WithDefaults(s.config.Contours)
	hash, key, err := s.cacheKey(desc, settings)
	if err != nil {
		return nil, err
	}
	if item := s.contours.Get(hash); item != nil {
		s.metrics.Inc(metrics.ContourCacheHits)
		return item.Value(), nil
	}

	// The computation outlives any one caller: a waiter whose ctx ends stops
	// waiting without failing the others.
	ch := s.computes.DoChan(key, func() (interface{}, error) {
		if item := s.contours.Get(hash); item != nil {
			s.metrics.Inc(metrics.ContourCacheHits)
			return item.Value(), nil
		}
		if s.store != nil {
			features, ok, err := s.store.Get(key)
			if err != nil {
				s.logger.Warn("Failed to read contour store", "key", key, "error", err)
			} else if ok {
				s.metrics.Inc(metrics.ContourStoreHits)
				s.contours.Set(hash, features, ttlcache.DefaultTTL)
				return features, nil
			}
		}

		computeCtx, cancel := s.queryContext(context.Background())
		defer cancel()
		features, err := s.computeTileContours(computeCtx, desc, settings)
		if err != nil {
			return nil, err
		}
		s.contours.Set(hash, features, ttlcache.DefaultTTL)
		if s.store != nil {
			if err := s.store.Put(key, features); err != nil {
				s.logger.Warn("Failed to persist contours", "key", key, "error", err)
			}
		}
		return features, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]contour.Feature), nil
	}
}

// GetTileContoursByID is GetTileContours for a manifest tile id.
func (s *Service) GetTileContoursByID(ctx context.Context, id string, settings contour.Settings) ([]contour.Feature, error) {
	desc, ok := s.manifest.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTileNotFound, id)
	}
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	return s.GetTileContours(ctx, desc, settings)
}

func (s *Service) computeTileContours(ctx context.Context, desc tile.Descriptor, settings contour.Settings) ([]contour.Feature, error) {
	start := time.Now()
	s.metrics.Inc(metrics.ContourComputes)
	defer s.metrics.Since(metrics.ContourTimer, start)

	rec, err := s.loader.Load(ctx, desc)
	if err != nil {
		return nil, err
	}
	defer rec.Release()
	width, height := raster.SampleSize(rec.Meta, settings.SampleSize)
	values, err := raster.ReadResampled(ctx, rec.Reader, width, height)
	if err != nil {
		return nil, fmt.Errorf("resample tile %s: %w", desc.ID, err)
	}

	// Resampling turns no-data into NaN.
	features := isoline.Generate(isoline.Input{
		Width:         width,
		Height:        height,
		Values:        values,
		BBox:          rec.Meta.BBox,
		NoData:        math.NaN(),
		ThresholdStep: settings.ThresholdStep,
		MaxContours:   settings.MaxContours,
	}, s.project)
	if features == nil {
		features = []contour.Feature{}
	}
	points := 0
	for i := range features {
		features[i].TileID = desc.ID
		points += features[i].PointCount()
	}

	if s.logger.Enabled(ctx, slog.LevelDebug) {
		d := isoline.Describe(values, math.NaN())
		s.logger.Debug("Sample grid", "tile", desc.ID, "valid", d.Valid, "count", d.Count,
			"min", d.Min, "max", d.Max, "p1", d.P1, "p99", d.P99)
	}
	s.logger.Info("Generated contours", "tile", desc.ID,
		"grid", fmt.Sprintf("%dx%d", width, height),
		"features", len(features), "points", points, "took", since(start))
	return features, nil
}

// GetContoursForBounds gathers the contour features of every tile
// intersecting b, which may be a bounds.Bounds, a bounds.BoundsLike or any
// shape bounds.Normalize accepts. Tiles are contoured concurrently; a tile
// that fails contributes no features. Invalid bounds yield an empty collection.
func (s *Service) GetContoursForBounds(ctx context.Context, b any, settings contour.Settings) contour.Collection {
	s.metrics.Inc(metrics.RegionQueries)
	q, err := bounds.Normalize(b)
	if err != nil {
		s.logger.Debug("Rejected contour query", "error", err)
		return contour.Empty()
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	descs := s.manifest.TilesIntersectingBounds(q)
	results := make([][]contour.Feature, len(descs))

	g := &errgroup.Group{}
	if s.config.MaxConcurrentTiles > 0 {
		g.SetLimit(s.config.MaxConcurrentTiles)
	}
	for i, desc := range descs {
		g.Go(func() error {
			features, err := s.GetTileContours(ctx, desc, settings)
			if err != nil {
				s.metrics.Inc(metrics.RegionTileFailure)
				s.logger.Warn("Skipping tile", "tile", desc.ID, "error", err)
				return nil
			}
			results[i] = features
			return nil
		})
	}
	_ = g.Wait()

	out := contour.Empty()
	for i, desc := range descs {
		out.Tiles = append(out.Tiles, desc.ID)
		out.Features = append(out.Features, results[i]...)
	}
	return out
}

// GetContoursForRegion returns the contours of the polygon's bounding box
// clipped to the polygon. vertices may be any shape clip.NormalizeVertices
// accepts. Fewer than 3 distinct vertices is clip.ErrInsufficientPolygon.
func (s *Service) GetContoursForRegion(ctx context.Context, vertices any, settings contour.Settings) (contour.Collection, error) {
	vs, err := clip.NormalizeVertices(vertices)
	if err != nil {
		return contour.Empty(), err
	}
	poly, err := clip.NewPolygon(vs, s.project)
	if err != nil {
		return contour.Empty(), err
	}
	pts := make([]orb.Point, 0, len(vs))
	for _, v := range vs {
		pts = append(pts, orb.Point{v.Lng, v.Lat})
	}
	bbox, _ := bounds.FromPoints(pts...)
	return poly.ClipCollection(s.GetContoursForBounds(ctx, bbox, settings)), nil
}
