package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"", "identity", "Mercator", "gcj-02"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("%q: %v", name, err)
		}
	}
	if _, err := ByName("bd09"); !errors.Is(err, ErrUnknownTransform) {
		t.Errorf("expected ErrUnknownTransform, got %v", err)
	}
}

func TestMercator(t *testing.T) {
	p := Mercator(orb.Point{0, 0})
	if math.Abs(p[0]) > 1e-9 || math.Abs(p[1]) > 1e-9 {
		t.Errorf("expected origin, got %v", p)
	}
	p = Mercator(orb.Point{180, 0})
	if math.Abs(p[0]-20037508.342789244) > 1e-3 {
		t.Errorf("unexpected x %v", p[0])
	}
}

func TestGCJ02(t *testing.T) {
	outside := orb.Point{-122.4, 45.5}
	if got := GCJ02(outside); got != outside {
		t.Errorf("expected points outside China unchanged, got %v", got)
	}
	beijing := orb.Point{116.391, 39.907}
	got := GCJ02(beijing)
	d := math.Hypot(got[0]-beijing[0], got[1]-beijing[1])
	// The offset is a few hundred meters.
	if d < 0.001 || d > 0.01 {
		t.Errorf("unexpected offset %v for %v", d, got)
	}
}
