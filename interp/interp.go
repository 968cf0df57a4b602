// Package interp estimates values between raster samples.
package interp

import (
	"math"

	"github.com/rotblauer/elevd/common"
	"github.com/shopspring/decimal"
)

// Corner indexes into the corners array given to Bilinear.
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

// CoordinatePrecision is the number of decimals kept by FormatCoordinate.
const CoordinatePrecision = 6

// Bilinear interpolates between four corner samples, ordered
// [top-left, top-right, bottom-left, bottom-right], at fractional offsets
// xRatio and yRatio in [0,1] from the top-left corner.
//
// Corners that are NaN, infinite or equal to noData are discarded.
// Pass NaN as noData when the raster has no sentinel.
// With no valid corners ok is false. With one to three valid corners the
// result is their arithmetic mean rather than a true bilinear surface.
func Bilinear(xRatio, yRatio float64, corners [4]float64, noData float64) (v float64, ok bool) {
	var sum float64
	valid := 0
	for _, c := range corners {
		if !usable(c, noData) {
			continue
		}
		sum += c
		valid++
	}
	switch {
	case valid == 0:
		return math.NaN(), false
	case valid < 4:
		return sum / float64(valid), true
	}
	tl, tr := corners[TopLeft], corners[TopRight]
	bl, br := corners[BottomLeft], corners[BottomRight]
	top := tl + (tr-tl)*xRatio
	bottom := bl + (br-bl)*xRatio
	return top + (bottom-top)*yRatio, true
}

func usable(v, noData float64) bool {
	return common.IsFinite(v) && v != noData
}

// FormatCoordinate rounds a degree value to CoordinatePrecision decimals.
func FormatCoordinate(v float64) (float64, bool) {
	if !common.IsFinite(v) {
		return math.NaN(), false
	}
	return decimal.NewFromFloat(v).Round(CoordinatePrecision).InexactFloat64(), true
}

// RoundElevation rounds to the nearest whole unit, halves away from zero.
func RoundElevation(v float64) (int, bool) {
	if !common.IsFinite(v) {
		return 0, false
	}
	return common.Round(v), true
}
