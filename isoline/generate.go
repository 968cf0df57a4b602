package isoline

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/rotblauer/elevd/types/bounds"
	"github.com/rotblauer/elevd/types/contour"
)

// Input is a resampled tile ready for contouring.
// Values must already be bounded to a sample grid (see raster.ReadResampled).
type Input struct {
	Width         int
	Height        int
	Values        []float64
	BBox          bounds.Bounds
	NoData        float64
	ThresholdStep float64
	MaxContours   int
}

// Generate returns one feature per threshold that produced at least one line.
// Grid vertices are mapped into BBox, corner aligned, then through project;
// a nil project leaves WGS84 [lng, lat] points. Repeated vertices collapse and
// lines left with fewer than 2 vertices are dropped.
func Generate(in Input, project orb.Projection) []contour.Feature {
	if in.Width < 2 || in.Height < 2 || len(in.Values) != in.Width*in.Height {
		return nil
	}
	levels, step := Thresholds(ValidRange(in.Values, in.NoData), in.ThresholdStep, in.MaxContours)
	if len(levels) == 0 {
		return nil
	}

	grid := Grid{Width: in.Width, Height: in.Height, Values: in.Values, NoData: in.NoData}
	dx := (in.BBox.MaxLng - in.BBox.MinLng) / float64(in.Width-1)
	dy := (in.BBox.MaxLat - in.BBox.MinLat) / float64(in.Height-1)

	var features []contour.Feature
	for _, level := range levels {
		var lines orb.MultiLineString
		for _, ls := range March(grid, level) {
			out := make(orb.LineString, 0, len(ls))
			for _, p := range ls {
				geo := orb.Point{in.BBox.MinLng + p[0]*dx, in.BBox.MaxLat - p[1]*dy}
				if project != nil {
					geo = project(geo)
				}
				if math.IsNaN(geo[0]) || math.IsNaN(geo[1]) {
					continue
				}
				if len(out) > 0 && out[len(out)-1] == geo {
					continue
				}
				out = append(out, geo)
			}
			if len(out) < 2 {
				continue
			}
			lines = append(lines, out)
		}
		if len(lines) == 0 {
			continue
		}
		features = append(features, contour.Feature{
			Elevation: level,
			Spacing:   step,
			Lines:     lines,
		})
	}
	return features
}
