package raster

import (
	"context"
	"image"
	"math"

	"github.com/rotblauer/elevd/interp"
	"github.com/rotblauer/elevd/types/tile"
)

// SampleSize returns a sampling grid whose longest edge is at most sampleSize,
// preserving the raster's aspect ratio. The grid never exceeds the raster's own
// size and each edge is at least 2 samples.
func SampleSize(m tile.Meta, sampleSize int) (width, height int) {
	long, short := m.Width, m.Height
	swapped := false
	if short > long {
		long, short = short, long
		swapped = true
	}
	outLong := long
	if sampleSize > 0 && sampleSize < long {
		outLong = sampleSize
	}
	outShort := int(math.Round(float64(outLong) * float64(short) / float64(long)))
	outLong, outShort = max(outLong, 2), max(outShort, 2)
	if swapped {
		return outShort, outLong
	}
	return outLong, outShort
}

// ReadResampled bilinearly resamples the whole raster to width x height.
// Grids are corner aligned: output (0,0) and (width-1,height-1) fall on the
// raster's first and last samples. Each output row reads only the two source
// rows around it. Samples with no valid neighbors are NaN.
func ReadResampled(ctx context.Context, r Reader, width, height int) ([]float64, error) {
	m := r.Meta()
	noData := math.NaN()
	if m.HasNoData {
		noData = m.NoData
	}
	out := make([]float64, width*height)

	var rows []float64
	loadedY0 := -1
	for oy := 0; oy < height; oy++ {
		sy := scale(oy, height, m.Height)
		y0 := int(math.Floor(sy))
		y1 := min(y0+1, m.Height-1)
		fy := sy - float64(y0)
		if y0 != loadedY0 {
			var err error
			rows, err = r.ReadWindow(ctx, image.Rect(0, y0, m.Width, y1+1))
			if err != nil {
				return nil, err
			}
			loadedY0 = y0
		}
		top := rows[:m.Width]
		bottom := top
		if y1 != y0 {
			bottom = rows[m.Width:]
		}
		for ox := 0; ox < width; ox++ {
			sx := scale(ox, width, m.Width)
			x0 := int(math.Floor(sx))
			x1 := min(x0+1, m.Width-1)
			v, ok := interp.Bilinear(sx-float64(x0), fy,
				[4]float64{top[x0], top[x1], bottom[x0], bottom[x1]}, noData)
			if !ok {
				v = math.NaN()
			}
			out[oy*width+ox] = v
		}
	}
	return out, nil
}

// scale maps output index i of n onto a source axis of srcN samples, corner aligned.
func scale(i, n, srcN int) float64 {
	if n <= 1 || srcN <= 1 {
		return 0
	}
	return float64(i) * float64(srcN-1) / float64(n-1)
}
