// Package fixtures builds synthetic tiles and manifests for tests.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotblauer/elevd/raster"
	"github.com/rotblauer/elevd/types/bounds"
	"github.com/rotblauer/elevd/types/tile"
)

const DefaultTestDirRoot = "elevd-test"

func DefaultTestDir() string {
	return filepath.Join(os.TempDir(), DefaultTestDirRoot)
}

var ErrInjected = errors.New("injected load failure")

// Plane is the synthetic surface value = 100 + x + y over pixel coordinates.
func Plane(x, y int) float64 {
	return float64(100 + x + y)
}

// Tile describes a synthetic tile: a grid of Width x Height samples from Fn.
type Tile struct {
	Descriptor tile.Descriptor
	Width      int
	Height     int
	Fn         func(x, y int) float64
	NoData     *float64
}

// PlaneTile covers b with a size x size Plane raster.
func PlaneTile(id string, b bounds.Bounds, size int) Tile {
	return Tile{
		Descriptor: tile.Descriptor{ID: id, FileRef: id + ".hgt", Bounds: b},
		Width:      size,
		Height:     size,
		Fn:         Plane,
	}
}

// Source serves synthetic tiles and counts every Open.
// Opens of ids in Fail return ErrInjected. Delay slows each open.
type Source struct {
	Delay time.Duration

	mu    sync.Mutex
	tiles map[string]Tile
	fail  map[string]bool
	opens map[string]int
	total atomic.Int64
}

func NewSource(tiles ...Tile) *Source {
	s := &Source{
		tiles: map[string]Tile{},
		fail:  map[string]bool{},
		opens: map[string]int{},
	}
	for _, t := range tiles {
		s.tiles[t.Descriptor.ID] = t
	}
	return s
}

// Fail makes opens of id fail (or succeed again when fail is false).
func (s *Source) Fail(id string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[id] = fail
}

func (s *Source) Open(ctx context.Context, desc tile.Descriptor) (raster.Reader, error) {
	s.total.Add(1)
	s.mu.Lock()
	s.opens[desc.ID]++
	t, ok := s.tiles[desc.ID]
	failing := s.fail[desc.ID]
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if failing {
		return nil, fmt.Errorf("%s: %w", desc.ID, ErrInjected)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", desc.ID, os.ErrNotExist)
	}
	g, err := raster.NewGridFunc(t.Width, t.Height, desc.Bounds, t.Fn)
	if err != nil {
		return nil, err
	}
	if t.NoData != nil {
		g.WithNoData(*t.NoData)
	}
	return g, nil
}

// Opens returns how many times id was opened.
func (s *Source) Opens(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens[id]
}

// Total returns the number of opens across all tiles.
func (s *Source) Total() int64 {
	return s.total.Load()
}

// Descriptors returns the descriptors of tiles in the given order.
func Descriptors(tiles ...Tile) []tile.Descriptor {
	out := make([]tile.Descriptor, 0, len(tiles))
	for _, t := range tiles {
		out = append(out, t.Descriptor)
	}
	return out
}
