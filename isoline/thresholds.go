package isoline

import (
	"math"

	"github.com/golang/geo/r1"
)

// Thresholds picks contour levels covering rng at multiples of step.
// When more than maxContours levels would result, the step is multiplied by
// the smallest integer that fits the budget; the effective step is returned
// with the levels. An empty range or a non-positive step yields no levels.
func Thresholds(rng r1.Interval, step float64, maxContours int) ([]float64, float64) {
	if rng.IsEmpty() || !(step > 0) || math.IsInf(step, 0) {
		return nil, step
	}
	start := math.Floor(rng.Lo/step) * step
	end := math.Ceil(rng.Hi/step) * step
	rawCount := int(math.Floor((end-start)/step)) + 1

	if maxContours > 0 && rawCount > maxContours {
		step *= math.Ceil(float64(rawCount) / float64(maxContours))
	}

	var levels []float64
	for i := 0; ; i++ {
		level := start + float64(i)*step
		if level > end {
			break
		}
		if maxContours > 0 && len(levels) >= maxContours {
			break
		}
		levels = append(levels, level)
	}
	return levels, step
}
