package service

import (
	"context"
	"image"
	"math"
	"time"

	"github.com/rotblauer/elevd/common"
	"github.com/rotblauer/elevd/interp"
	"github.com/rotblauer/elevd/metrics"
	"github.com/rotblauer/elevd/types/elevation"
)

// GetElevation samples the elevation at (lat, lng) from the first manifest
// tile covering it, bilinearly interpolated from the 2x2 pixel neighborhood.
// It never fails: no coverage, load or read errors, and no-data pixels all
// produce a sample with HasData false.
func (s *Service) GetElevation(ctx context.Context, lat, lng float64) elevation.Sample {
	s.metrics.Inc(metrics.ElevationQueries)
	sample := elevation.Sample{}
	if v, ok := interp.FormatCoordinate(lat); ok {
		sample.Lat = &v
	}
	if v, ok := interp.FormatCoordinate(lng); ok {
		sample.Lng = &v
	}

	desc, ok := s.manifest.FindTileByCoordinate(lat, lng)
	if !ok {
		s.metrics.Inc(metrics.ElevationNoData)
		return sample
	}
	id := desc.ID
	sample.TileID = &id

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	start := time.Now()
	rec, err := s.loader.Load(ctx, desc)
	if err != nil {
		s.logger.Warn("Elevation query failed to load tile", "tile", desc.ID, "error", err)
		s.metrics.Inc(metrics.ElevationNoData)
		return sample
	}
	defer rec.Release()

	m := rec.Meta
	x := (lng - m.BBox.MinLng) / m.BBox.Width() * float64(m.Width)
	y := (m.BBox.MaxLat - lat) / m.BBox.Height() * float64(m.Height)
	x0 := common.ClampInt(int(math.Floor(x)), 0, m.Width-1)
	y0 := common.ClampInt(int(math.Floor(y)), 0, m.Height-1)
	x1 := common.ClampInt(x0+1, 0, m.Width-1)
	y1 := common.ClampInt(y0+1, 0, m.Height-1)
	xRatio := math.Max(0, math.Min(1, x-float64(x0)))
	yRatio := math.Max(0, math.Min(1, y-float64(y0)))

	window, err := rec.Reader.ReadWindow(ctx, image.Rect(x0, y0, x1+1, y1+1))
	if err != nil {
		s.logger.Warn("Elevation query failed to read tile", "tile", desc.ID, "error", err)
		s.metrics.Inc(metrics.ElevationNoData)
		return sample
	}
	stride := x1 - x0 + 1
	right, below := x1-x0, (y1-y0)*stride
	corners := [4]float64{
		window[0],
		window[right],
		window[below],
		window[below+right],
	}

	noData := math.NaN()
	if m.HasNoData {
		noData = m.NoData
	}
	v, ok := interp.Bilinear(xRatio, yRatio, corners, noData)
	if !ok {
		s.metrics.Inc(metrics.ElevationNoData)
		return sample
	}
	e, ok := interp.RoundElevation(v)
	if !ok {
		s.metrics.Inc(metrics.ElevationNoData)
		return sample
	}
	sample.HasData = true
	sample.Elevation = &e

	s.logger.Debug("Sampled elevation", "tile", desc.ID, "lat", lat, "lng", lng,
		"elevation", e, "took", since(start))
	return sample
}
