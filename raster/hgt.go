package raster

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/rotblauer/elevd/types/bounds"
	"github.com/rotblauer/elevd/types/tile"
)

// HGTNoData is the SRTM void value.
const HGTNoData = -32768

// HGT reads SRTM height files: a square grid of big-endian int16 samples,
// row 0 at the north edge. SRTM1 tiles are 3601x3601, SRTM3 tiles 1201x1201.
// The file carries no georeference; the bounding box comes from the manifest.
type HGT struct {
	src  RangeReader
	meta tile.Meta
}

// NewHGT wraps src, inferring the grid size from the byte length.
func NewHGT(src RangeReader, bbox bounds.Bounds) (*HGT, error) {
	size := src.Size()
	if size <= 0 || size%2 != 0 {
		return nil, fmt.Errorf("%w: hgt size %d", ErrBadRaster, size)
	}
	side := int(math.Sqrt(float64(size / 2)))
	if int64(side*side*2) != size {
		return nil, fmt.Errorf("%w: hgt size %d is not a square grid", ErrBadRaster, size)
	}
	return &HGT{
		src: src,
		meta: tile.Meta{
			Width:       side,
			Height:      side,
			BBox:        bbox,
			NoData:      HGTNoData,
			HasNoData:   true,
			ResolutionX: bbox.Width() / float64(side),
			ResolutionY: bbox.Height() / float64(side),
		},
	}, nil
}

func (h *HGT) Meta() tile.Meta { return h.meta }

// ReadWindow reads full-width windows, and windows of at most two rows, with
// a single ranged read spanning the rows; other windows are read row by row.
func (h *HGT) ReadWindow(ctx context.Context, win image.Rectangle) ([]float64, error) {
	if err := checkWindow(h.meta, win); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	width := int64(h.meta.Width)
	out := make([]float64, 0, win.Dx()*win.Dy())

	if win.Dx() == h.meta.Width || win.Dy() <= 2 {
		first := int64(win.Min.Y)*width + int64(win.Min.X)
		last := int64(win.Max.Y-1)*width + int64(win.Max.X)
		buf := make([]byte, 2*(last-first))
		if _, err := h.src.ReadRange(ctx, 2*first, buf); err != nil {
			return nil, fmt.Errorf("hgt rows %d-%d: %w", win.Min.Y, win.Max.Y-1, err)
		}
		for y := win.Min.Y; y < win.Max.Y; y++ {
			row := int64(y-win.Min.Y) * width
			out = appendSamples(out, buf[2*row:2*(row+int64(win.Dx()))])
		}
		return out, nil
	}

	buf := make([]byte, 2*win.Dx())
	for y := win.Min.Y; y < win.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		off := 2 * (int64(y)*width + int64(win.Min.X))
		if _, err := h.src.ReadRange(ctx, off, buf); err != nil {
			return nil, fmt.Errorf("hgt row %d: %w", y, err)
		}
		out = appendSamples(out, buf)
	}
	return out, nil
}

func appendSamples(out []float64, buf []byte) []float64 {
	for i := 0; i+1 < len(buf); i += 2 {
		out = append(out, float64(int16(binary.BigEndian.Uint16(buf[i:]))))
	}
	return out
}

func (h *HGT) Close() error {
	return h.src.Close()
}
