/*
Package isoline extracts contour lines from a resampled elevation grid.

Thresholds are chosen from the grid's robust value range, each threshold is
traced with marching squares, and the resulting grid-space polylines are
reprojected into the tile's geographic bounding box and a display transform.
*/
package isoline

import (
	"math"
	"sort"

	"github.com/golang/geo/r1"
)

const (
	// Elevations outside this band are treated as garbage.
	MinPlausibleElevation = -10000
	MaxPlausibleElevation = 10000

	lowPercentile  = 0.01
	highPercentile = 0.99
)

// Valid reports whether v is a usable elevation sample.
// A NaN noData means the grid has no sentinel.
func Valid(v, noData float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if v < MinPlausibleElevation || v > MaxPlausibleElevation {
		return false
	}
	return math.IsNaN(noData) || v != noData
}

// ValidRange returns the 1st to 99th percentile range of the valid samples.
// The interval is empty when no sample is valid.
func ValidRange(values []float64, noData float64) r1.Interval {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if Valid(v, noData) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return r1.EmptyInterval()
	}
	sort.Float64s(valid)
	n := float64(len(valid))
	lo := int(math.Floor(n * lowPercentile))
	hi := min(int(math.Floor(n*highPercentile)), len(valid)-1)
	return r1.Interval{Lo: valid[lo], Hi: valid[hi]}
}
