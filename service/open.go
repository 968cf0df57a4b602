package service

import (
	"fmt"

	"github.com/rotblauer/elevd/geo/transform"
	"github.com/rotblauer/elevd/manifest"
	"github.com/rotblauer/elevd/metrics"
	"github.com/rotblauer/elevd/params"
	"github.com/rotblauer/elevd/raster"
	"github.com/rotblauer/elevd/store"
	"github.com/rotblauer/elevd/tiles"
	"github.com/spf13/afero"
)

// Open wires a Service from config: the manifest from disk, a tile source
// chosen by the BaseURL scheme, and the contour store if StorePath is set.
func Open(config *params.ElevationConfig) (*Service, error) {
	m, err := manifest.Load(afero.NewOsFs(), config.ManifestPath)
	if err != nil {
		return nil, err
	}
	return OpenWithManifest(config, m)
}

func OpenWithManifest(config *params.ElevationConfig, m *manifest.Manifest) (*Service, error) {
	project, err := transform.ByName(config.Transform)
	if err != nil {
		return nil, err
	}
	src, err := raster.NewSource(config.BaseURL, config.S3)
	if err != nil {
		return nil, fmt.Errorf("tile source: %w", err)
	}
	reg := metrics.NewRegistry()
	loader, err := tiles.NewLoader(config.Loader, src, reg)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithMetrics(reg), WithProjection(project)}
	if config.StorePath != "" {
		st, err := store.Open(config.StorePath, false)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithStore(st))
	}
	return New(config, m, loader, opts...)
}
