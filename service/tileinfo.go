package service

import (
	"context"
	"fmt"
	"math"

	"github.com/rotblauer/elevd/isoline"
	"github.com/rotblauer/elevd/raster"
	"github.com/rotblauer/elevd/types/tile"
)

// TileInfo describes one manifest tile as read from its raster.
type TileInfo struct {
	Descriptor tile.Descriptor     `json:"descriptor"`
	Meta       tile.Meta           `json:"meta"`
	SampleGrid [2]int              `json:"sampleGrid"`
	Values     isoline.Description `json:"values"`
	Thresholds []float64           `json:"thresholds"`
	Step       float64             `json:"step"`
}

// DescribeTile loads a tile and summarizes its resampled values and the
// contour thresholds the default settings would pick for it.
func (s *Service) DescribeTile(ctx context.Context, id string) (TileInfo, error) {
	desc, ok := s.manifest.Get(id)
	if !ok {
		return TileInfo{}, fmt.Errorf("%w: %q", ErrTileNotFound, id)
	}
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rec, err := s.loader.Load(ctx, desc)
	if err != nil {
		return TileInfo{}, err
	}
	defer rec.Release()
	settings := s.config.Contours
	width, height := raster.SampleSize(rec.Meta, settings.SampleSize)
	values, err := raster.ReadResampled(ctx, rec.Reader, width, height)
	if err != nil {
		return TileInfo{}, err
	}
	levels, step := isoline.Thresholds(isoline.ValidRange(values, math.NaN()),
		settings.ThresholdStep, settings.MaxContours)
	return TileInfo{
		Descriptor: desc,
		Meta:       rec.Meta,
		SampleGrid: [2]int{width, height},
		Values:     isoline.Describe(values, math.NaN()),
		Thresholds: levels,
		Step:       step,
	}, nil
}
