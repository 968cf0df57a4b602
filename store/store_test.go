package store

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
	"github.com/rotblauer/elevd/types/contour"
)

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contours.db")
	s, err := Open(path, false)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := s.Get("missing"); ok || err != nil {
		t.Fatalf("expected a clean miss, got ok=%v err=%v", ok, err)
	}

	want := []contour.Feature{{
		Elevation: 110,
		Spacing:   10,
		TileID:    "a",
		Lines:     orb.MultiLineString{{{1, 2}, {3, 4}}},
	}}
	if err := s.Put("a:10:256:50", want); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("b:10:256:50", nil); err != nil {
		t.Fatal(err)
	}
	if n := s.Len(); n != 2 {
		t.Errorf("expected 2 entries, got %d", n)
	}

	// Survives a reopen.
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	s, err = Open(path, false)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, ok, err := s.Get("a:10:256:50")
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	empty, ok, _ := s.Get("b:10:256:50")
	if !ok || len(empty) != 0 {
		t.Errorf("expected a stored empty set, got ok=%v %v", ok, empty)
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if n := s.Len(); n != 0 {
		t.Errorf("expected empty store after Clear, got %d", n)
	}
	if err := s.Clear(); err != nil {
		t.Errorf("clearing an empty store: %v", err)
	}
}
