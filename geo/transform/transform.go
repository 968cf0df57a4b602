// Package transform holds the geographic-to-display coordinate transforms
// applied to contour vertices and clip polygons. Points are [lng, lat].
package transform

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

var ErrUnknownTransform = errors.New("unknown transform")

// Identity leaves WGS84 coordinates untouched.
func Identity(p orb.Point) orb.Point { return p }

// Mercator projects WGS84 to spherical web mercator meters.
func Mercator(p orb.Point) orb.Point {
	return project.WGS84.ToMercator(p)
}

// GCJ02 shifts WGS84 coordinates onto the GCJ-02 datum used by mainland
// China map providers. Points outside China are unchanged.
func GCJ02(p orb.Point) orb.Point {
	lng, lat := p[0], p[1]
	if outOfChina(lat, lng) {
		return p
	}
	dLat := transformLat(lng-105.0, lat-35.0)
	dLng := transformLng(lng-105.0, lat-35.0)
	radLat := lat / 180.0 * math.Pi
	magic := math.Sin(radLat)
	magic = 1 - krasovskyEE*magic*magic
	sqrtMagic := math.Sqrt(magic)
	dLat = (dLat * 180.0) / ((krasovskyA * (1 - krasovskyEE)) / (magic * sqrtMagic) * math.Pi)
	dLng = (dLng * 180.0) / (krasovskyA / sqrtMagic * math.Cos(radLat) * math.Pi)
	return orb.Point{lng + dLng, lat + dLat}
}

// ByName resolves a configured transform name. The empty name is Identity.
func ByName(name string) (orb.Projection, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "identity", "wgs84":
		return Identity, nil
	case "mercator", "webmercator":
		return Mercator, nil
	case "gcj02", "gcj-02":
		return GCJ02, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, name)
}

const (
	krasovskyA  = 6378245.0
	krasovskyEE = 0.00669342162296594323
)

func outOfChina(lat, lng float64) bool {
	return lng < 72.004 || lng > 137.8347 || lat < 0.8293 || lat > 55.8271
}

func transformLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*math.Pi) + 320*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func transformLng(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}
