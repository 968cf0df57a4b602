// Package bounds holds the canonical geographic rectangle used throughout elevd,
// and the adapter that turns the various bounds shapes clients send into it.
package bounds

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

var ErrInvalidBounds = errors.New("invalid bounds")

// Bounds is an axis-aligned rectangle in geographic degrees.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// BoundsLike is implemented by map-library style bounds objects.
type BoundsLike interface {
	GetSouth() float64
	GetNorth() float64
	GetWest() float64
	GetEast() float64
}

// Valid reports whether all four edges are finite numbers.
func (b Bounds) Valid() bool {
	for _, v := range []float64{b.MinLat, b.MaxLat, b.MinLng, b.MaxLng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ContainsPoint is inclusive on every edge.
func (b Bounds) ContainsPoint(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Intersects uses open intervals on both axes, so rectangles that only
// share an edge do not intersect.
func (b Bounds) Intersects(o Bounds) bool {
	return b.MinLat < o.MaxLat && b.MaxLat > o.MinLat &&
		b.MinLng < o.MaxLng && b.MaxLng > o.MinLng
}

func (b Bounds) Width() float64  { return b.MaxLng - b.MinLng }
func (b Bounds) Height() float64 { return b.MaxLat - b.MinLat }

// Bound returns the rectangle as an orb.Bound, [lng,lat] ordered.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("[lat %.6f..%.6f, lng %.6f..%.6f]", b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
}

// FromBound converts an orb.Bound ([lng,lat] points) to Bounds.
func FromBound(b orb.Bound) Bounds {
	return Bounds{MinLat: b.Min.Lat(), MaxLat: b.Max.Lat(), MinLng: b.Min.Lon(), MaxLng: b.Max.Lon()}
}

// FromPoints returns the bounding box of [lng,lat] points.
func FromPoints(pts ...orb.Point) (Bounds, bool) {
	if len(pts) == 0 {
		return Bounds{}, false
	}
	return FromBound(orb.MultiPoint(pts).Bound()), true
}
