// Package contour holds the contour line value types shared by the generator,
// the clipper and the elevation service.
package contour

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature is the set of lines extracted at one threshold from one tile.
// Lines are independent polylines in display coordinates, [x,y] ordered;
// they are not necessarily closed.
type Feature struct {
	Elevation float64             `json:"elevation"`
	Spacing   float64             `json:"spacing"`
	TileID    string              `json:"tileId,omitempty"`
	Lines     orb.MultiLineString `json:"lines"`
}

// GeoJSON renders the feature as a MultiLineString feature.
func (f Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Lines)
	gf.Properties["elevation"] = f.Elevation
	gf.Properties["spacing"] = f.Spacing
	if f.TileID != "" {
		gf.Properties["tileId"] = f.TileID
	}
	return gf
}

// PointCount returns the number of vertices across all lines.
func (f Feature) PointCount() int {
	n := 0
	for _, l := range f.Lines {
		n += len(l)
	}
	return n
}

// Collection is the aggregate result of a region contour query.
type Collection struct {
	Features []Feature
	Tiles    []string
}

// Empty returns a collection with non-nil, empty slices
// so that it serializes as [] rather than null.
func Empty() Collection {
	return Collection{Features: []Feature{}, Tiles: []string{}}
}

// GeoJSON renders the collection as a FeatureCollection with a foreign "tiles" member.
func (c Collection) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range c.Features {
		fc.Append(f.GeoJSON())
	}
	tiles := c.Tiles
	if tiles == nil {
		tiles = []string{}
	}
	fc.ExtraMembers = geojson.Properties{"tiles": tiles}
	return fc
}

func (c Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.GeoJSON())
}

// Settings controls threshold selection and the sampling grid of a contour query.
type Settings struct {
	ThresholdStep float64 `json:"thresholdStep"`
	SampleSize    int     `json:"sampleSize"`
	MaxContours   int     `json:"maxContours"`
}

// WithDefaults fills zero or negative fields from def.
func (s Settings) WithDefaults(def Settings) Settings {
	if !(s.ThresholdStep > 0) {
		s.ThresholdStep = def.ThresholdStep
	}
	if s.SampleSize <= 0 {
		s.SampleSize = def.SampleSize
	}
	if s.MaxContours <= 0 {
		s.MaxContours = def.MaxContours
	}
	return s
}
