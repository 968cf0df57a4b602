/*
Package raster reads elevation rasters in windows.

A Reader exposes the raster's metadata and returns only the samples covered by a
requested pixel rectangle, so that point lookups cost O(window) and resampled
scans cost O(sample grid) regardless of the tile's native resolution.

Readers are produced by a Source from a manifest tile descriptor; the bytes behind
a reader come from a RangeOpener (local/afero file system, HTTP range requests or S3).
*/
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/rotblauer/elevd/types/tile"
)

var (
	ErrBadRaster         = errors.New("bad raster")
	ErrWindowOutOfRange  = errors.New("window out of range")
	ErrUnsupportedFormat = errors.New("unsupported raster format")
	ErrUnsupportedScheme = errors.New("unsupported raster location scheme")
	ErrClosed            = errors.New("raster closed")
	ErrRangeNotSatisfied = errors.New("range not satisfied")
)

// Reader is an open raster band.
type Reader interface {
	Meta() tile.Meta

	// ReadWindow returns the samples of win in row-major order,
	// win.Dx()*win.Dy() values. win must lie inside the raster.
	ReadWindow(ctx context.Context, win image.Rectangle) ([]float64, error)

	Close() error
}

// Source opens the raster behind a manifest tile.
type Source interface {
	Open(ctx context.Context, desc tile.Descriptor) (Reader, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context, desc tile.Descriptor) (Reader, error)

func (f SourceFunc) Open(ctx context.Context, desc tile.Descriptor) (Reader, error) {
	return f(ctx, desc)
}

// Bounds is the pixel rectangle of the whole raster.
func Bounds(m tile.Meta) image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

func checkWindow(m tile.Meta, win image.Rectangle) error {
	if win.Empty() || !win.In(Bounds(m)) {
		return fmt.Errorf("%w: %v not in %v", ErrWindowOutOfRange, win, Bounds(m))
	}
	return nil
}
