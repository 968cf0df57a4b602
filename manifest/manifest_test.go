package manifest

import (
	"errors"
	"testing"

	"github.com/rotblauer/elevd/types/bounds"
	"github.com/rotblauer/elevd/types/tile"
	"github.com/spf13/afero"
)

func testManifest(t *testing.T) *Manifest {
	m, err := New(
		tile.Descriptor{ID: "a", FileRef: "a.hgt", Bounds: bounds.Bounds{MinLat: 0, MaxLat: 10, MinLng: 0, MaxLng: 10}},
		tile.Descriptor{ID: "b", FileRef: "b.hgt", Bounds: bounds.Bounds{MinLat: 0, MaxLat: 10, MinLng: 10, MaxLng: 20}},
		tile.Descriptor{ID: "c", FileRef: "c.hgt", Bounds: bounds.Bounds{MinLat: 5, MaxLat: 15, MinLng: 5, MaxLng: 15}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestManifest_FindTileByCoordinate(t *testing.T) {
	m := testManifest(t)
	d, ok := m.FindTileByCoordinate(5, 5)
	if !ok || d.ID != "a" {
		t.Errorf("expected tile a, got %v %v", d, ok)
	}
	// Shared edge: first in manifest order wins.
	d, ok = m.FindTileByCoordinate(2, 10)
	if !ok || d.ID != "a" {
		t.Errorf("expected tile a on the shared edge, got %v", d)
	}
	d, ok = m.FindTileByCoordinate(12, 12)
	if !ok || d.ID != "c" {
		t.Errorf("expected tile c, got %v", d)
	}
	if _, ok := m.FindTileByCoordinate(20, 20); ok {
		t.Error("expected no tile at 20,20")
	}
}

func TestManifest_TilesIntersectingBounds(t *testing.T) {
	m := testManifest(t)
	got := m.TilesIntersectingBounds(bounds.Bounds{MinLat: 1, MaxLat: 2, MinLng: 8, MaxLng: 12})
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("expected [a b], got %v", got)
	}
	// Touching the edge of b only.
	got = m.TilesIntersectingBounds(bounds.Bounds{MinLat: 1, MaxLat: 2, MinLng: 20, MaxLng: 25})
	if len(got) != 0 {
		t.Errorf("expected no tiles, got %v", got)
	}
}

func TestNew_Duplicate(t *testing.T) {
	d := tile.Descriptor{ID: "a", FileRef: "a.hgt", Bounds: bounds.Bounds{MaxLat: 1, MaxLng: 1}}
	if _, err := New(d, d); !errors.Is(err, ErrDuplicateTile) {
		t.Errorf("expected ErrDuplicateTile, got %v", err)
	}
}

func TestNew_EmptyOrInvertedBounds(t *testing.T) {
	for _, b := range []bounds.Bounds{
		{MinLat: 0, MaxLat: 0, MinLng: 0, MaxLng: 1},
		{MinLat: 0, MaxLat: 1, MinLng: 1, MaxLng: 1},
		{MinLat: 2, MaxLat: 1, MinLng: 0, MaxLng: 1},
		{MinLat: 0, MaxLat: 1, MinLng: 5, MaxLng: -5},
	} {
		d := tile.Descriptor{ID: "a", FileRef: "a.hgt", Bounds: b}
		if _, err := New(d); !errors.Is(err, bounds.ErrInvalidBounds) {
			t.Errorf("%v: expected ErrInvalidBounds, got %v", b, err)
		}
	}

	data := `[{"id":"flat","fileName":"flat.hgt","bounds":{"south":45,"north":45,"west":-122,"east":-121}}]`
	if _, err := Parse([]byte(data)); !errors.Is(err, bounds.ErrInvalidBounds) {
		t.Errorf("expected a zero-height tile to be rejected at load, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := `{"tiles":[
		{"id":"N45W122","fileName":"N45W122.hgt","bounds":{"south":45,"north":46,"west":-122,"east":-121}},
		{"id":"N46W122","file":"N46W122.hgt","bounds":{"minLat":46,"maxLat":47,"minLng":-122,"maxLng":-121}}
	]}`
	if err := afero.WriteFile(fs, "/manifest.json", []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(fs, "/manifest.json")
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 tiles, got %d", m.Len())
	}
	d, ok := m.Get("N46W122")
	if !ok || d.FileRef != "N46W122.hgt" || d.Bounds.MaxLat != 47 {
		t.Errorf("unexpected descriptor %+v", d)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{
		`{"tiles":`,
		`{"tiles":{}}`,
		`[{"fileName":"x.hgt","bounds":{"south":0,"north":1,"west":0,"east":1}}]`,
		`[{"id":"x","bounds":{"south":0,"north":1,"west":0,"east":1}}]`,
		`[{"id":"x","fileName":"x.hgt","bounds":{"south":0,"north":1}}]`,
	} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}
