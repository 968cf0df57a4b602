// Package manifest is the static registry of elevation tiles and the
// locator answering which tiles cover a point or a region.
package manifest

import (
	"errors"
	"fmt"

	"github.com/rotblauer/elevd/types/bounds"
	"github.com/rotblauer/elevd/types/tile"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

var ErrDuplicateTile = errors.New("duplicate tile id")

// Manifest is an ordered, immutable list of tile descriptors.
// Lookups return results in manifest order; on overlapping coverage the
// first listed tile wins.
type Manifest struct {
	tiles []tile.Descriptor
	byID  map[string]int
}

// New builds a manifest from descriptors, rejecting duplicate ids and bounds
// that are non-finite or have no area.
func New(descs ...tile.Descriptor) (*Manifest, error) {
	m := &Manifest{
		tiles: make([]tile.Descriptor, 0, len(descs)),
		byID:  make(map[string]int, len(descs)),
	}
	for _, d := range descs {
		if _, ok := m.byID[d.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTile, d.ID)
		}
		if !d.Bounds.Valid() {
			return nil, fmt.Errorf("tile %s: %w", d.ID, bounds.ErrInvalidBounds)
		}
		if d.Bounds.MinLat >= d.Bounds.MaxLat || d.Bounds.MinLng >= d.Bounds.MaxLng {
			return nil, fmt.Errorf("tile %s: %w: empty or inverted %v", d.ID, bounds.ErrInvalidBounds, d.Bounds)
		}
		m.byID[d.ID] = len(m.tiles)
		m.tiles = append(m.tiles, d)
	}
	return m, nil
}

// MustNew is New for static, known-good manifests.
func MustNew(descs ...tile.Descriptor) *Manifest {
	m, err := New(descs...)
	if err != nil {
		panic(err)
	}
	return m
}

// Load reads a JSON manifest from fs.
func Load(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse reads a JSON manifest: either an array of tile records or an object
// with a "tiles" array. Each record is {id, fileName, bounds}; "file" and
// "fileRef" are accepted for fileName, and bounds take any of the aliases
// understood by bounds.FromJSON.
func Parse(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("manifest: malformed json")
	}
	root := gjson.ParseBytes(data)
	if tiles := root.Get("tiles"); tiles.Exists() {
		root = tiles
	}
	if !root.IsArray() {
		return nil, errors.New("manifest: expected an array of tiles")
	}
	var descs []tile.Descriptor
	var perr error
	root.ForEach(func(_, rec gjson.Result) bool {
		d, err := parseDescriptor(rec)
		if err != nil {
			perr = err
			return false
		}
		descs = append(descs, d)
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return New(descs...)
}

func parseDescriptor(rec gjson.Result) (tile.Descriptor, error) {
	id := rec.Get("id").String()
	if id == "" {
		return tile.Descriptor{}, fmt.Errorf("manifest: tile without id: %s", rec.Raw)
	}
	ref := ""
	for _, k := range []string{"fileName", "file", "fileRef"} {
		if r := rec.Get(k); r.Exists() {
			ref = r.String()
			break
		}
	}
	if ref == "" {
		return tile.Descriptor{}, fmt.Errorf("manifest: tile %s has no file", id)
	}
	b, err := bounds.FromGJSON(rec.Get("bounds"))
	if err != nil {
		return tile.Descriptor{}, fmt.Errorf("manifest: tile %s: %w", id, err)
	}
	return tile.Descriptor{ID: id, FileRef: ref, Bounds: b}, nil
}

// FindTileByCoordinate returns the first tile whose bounds contain the point, inclusive.
func (m *Manifest) FindTileByCoordinate(lat, lng float64) (tile.Descriptor, bool) {
	for _, t := range m.tiles {
		if t.Bounds.ContainsPoint(lat, lng) {
			return t, true
		}
	}
	return tile.Descriptor{}, false
}

// TilesIntersectingBounds returns every tile whose bounds intersect q,
// using open intervals on both axes.
func (m *Manifest) TilesIntersectingBounds(q bounds.Bounds) []tile.Descriptor {
	var out []tile.Descriptor
	for _, t := range m.tiles {
		if t.Bounds.Intersects(q) {
			out = append(out, t)
		}
	}
	return out
}

func (m *Manifest) Get(id string) (tile.Descriptor, bool) {
	i, ok := m.byID[id]
	if !ok {
		return tile.Descriptor{}, false
	}
	return m.tiles[i], true
}

func (m *Manifest) Len() int { return len(m.tiles) }

// All returns a copy of the descriptors in manifest order.
func (m *Manifest) All() []tile.Descriptor {
	out := make([]tile.Descriptor, len(m.tiles))
	copy(out, m.tiles)
	return out
}
