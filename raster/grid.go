package raster

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/rotblauer/elevd/types/bounds"
	"github.com/rotblauer/elevd/types/tile"
)

// Grid is an in-memory raster, used for synthetic and pre-decoded tiles.
type Grid struct {
	meta   tile.Meta
	values []float64
	closed atomic.Bool
}

// NewGrid wraps row-major values covering bbox.
// Row 0 is the northern edge.
func NewGrid(width, height int, bbox bounds.Bounds, values []float64) (*Grid, error) {
	if width <= 0 || height <= 0 || len(values) != width*height {
		return nil, fmt.Errorf("%w: %dx%d grid with %d values", ErrBadRaster, width, height, len(values))
	}
	return &Grid{
		meta: tile.Meta{
			Width:       width,
			Height:      height,
			BBox:        bbox,
			ResolutionX: bbox.Width() / float64(width),
			ResolutionY: bbox.Height() / float64(height),
		},
		values: values,
	}, nil
}

// NewGridFunc builds a grid by evaluating fn at every pixel.
func NewGridFunc(width, height int, bbox bounds.Bounds, fn func(x, y int) float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d grid", ErrBadRaster, width, height)
	}
	values := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			values[y*width+x] = fn(x, y)
		}
	}
	return NewGrid(width, height, bbox, values)
}

// WithNoData sets the grid's no-data sentinel.
func (g *Grid) WithNoData(v float64) *Grid {
	g.meta.NoData = v
	g.meta.HasNoData = true
	return g
}

func (g *Grid) Meta() tile.Meta { return g.meta }

func (g *Grid) ReadWindow(ctx context.Context, win image.Rectangle) ([]float64, error) {
	if g.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkWindow(g.meta, win); err != nil {
		return nil, err
	}
	out := make([]float64, 0, win.Dx()*win.Dy())
	for y := win.Min.Y; y < win.Max.Y; y++ {
		row := y * g.meta.Width
		out = append(out, g.values[row+win.Min.X:row+win.Max.X]...)
	}
	return out, nil
}

func (g *Grid) Close() error {
	g.closed.Store(true)
	return nil
}
