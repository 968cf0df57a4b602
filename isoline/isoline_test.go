package isoline

import (
	"math"
	"reflect"
	"testing"

	"github.com/golang/geo/r1"
	"github.com/paulmach/orb"
	"github.com/rotblauer/elevd/types/bounds"
)

func TestThresholds(t *testing.T) {
	levels, step := Thresholds(r1.Interval{Lo: 0, Hi: 100}, 10, 50)
	want := []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if !reflect.DeepEqual(levels, want) || step != 10 {
		t.Errorf("expected %v at 10, got %v at %v", want, levels, step)
	}

	levels, step = Thresholds(r1.Interval{Lo: 0, Hi: 100}, 10, 5)
	if len(levels) > 5 {
		t.Errorf("expected at most 5 levels, got %v", levels)
	}
	if step != 30 {
		t.Errorf("expected step enlarged to 30, got %v", step)
	}
	if !reflect.DeepEqual(levels, []float64{0, 30, 60, 90}) {
		t.Errorf("unexpected levels %v", levels)
	}
}

func TestThresholds_Empty(t *testing.T) {
	if levels, _ := Thresholds(r1.EmptyInterval(), 10, 50); levels != nil {
		t.Errorf("expected no levels for an empty range, got %v", levels)
	}
	if levels, _ := Thresholds(r1.Interval{Lo: 0, Hi: 10}, 0, 50); levels != nil {
		t.Errorf("expected no levels for a zero step, got %v", levels)
	}
	levels, _ := Thresholds(r1.Interval{Lo: 42, Hi: 42}, 5, 50)
	if !reflect.DeepEqual(levels, []float64{40, 45}) {
		t.Errorf("unexpected levels for a flat range %v", levels)
	}
}

func TestValidRange(t *testing.T) {
	values := make([]float64, 0, 104)
	for i := 0; i < 100; i++ {
		values = append(values, float64(i))
	}
	values = append(values, math.NaN(), math.Inf(1), 20000, -32768)
	rng := ValidRange(values, -32768)
	if rng.Lo != 1 || rng.Hi != 99 {
		t.Errorf("expected [1, 99], got %v", rng)
	}
	if !ValidRange([]float64{math.NaN(), -32768}, -32768).IsEmpty() {
		t.Errorf("expected an empty range")
	}
	if rng := ValidRange([]float64{7}, math.NaN()); rng.Lo != 7 || rng.Hi != 7 {
		t.Errorf("expected [7, 7], got %v", rng)
	}
}

func TestMarch_ClosedRing(t *testing.T) {
	// A single peak in the middle of a 3x3 grid.
	g := Grid{Width: 3, Height: 3, NoData: math.NaN(), Values: []float64{
		0, 0, 0,
		0, 10, 0,
		0, 0, 0,
	}}
	lines := March(g, 5)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %v", len(lines), lines)
	}
	ring := lines[0]
	if len(ring) != 5 || ring[0] != ring[len(ring)-1] {
		t.Errorf("expected a closed ring of 4 crossings, got %v", ring)
	}
	for _, p := range ring {
		if math.Abs(p[0]-1)+math.Abs(p[1]-1) != 0.5 {
			t.Errorf("crossing %v not halfway to the peak", p)
		}
	}
}

func TestMarch_OpenLine(t *testing.T) {
	// West to east ramp: one vertical line at x = 1.5.
	g := Grid{Width: 4, Height: 3, NoData: math.NaN(), Values: []float64{
		0, 10, 20, 30,
		0, 10, 20, 30,
		0, 10, 20, 30,
	}}
	lines := March(g, 15)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %v", lines)
	}
	if len(lines[0]) != 3 {
		t.Fatalf("expected 3 points, got %v", lines[0])
	}
	for _, p := range lines[0] {
		if p[0] != 1.5 {
			t.Errorf("expected x = 1.5, got %v", p)
		}
	}
	if lines[0][0] == lines[0][2] {
		t.Errorf("expected an open line")
	}
}

func TestMarch_SkipsNoData(t *testing.T) {
	g := Grid{Width: 3, Height: 2, NoData: -1, Values: []float64{
		0, 10, -1,
		0, 10, 20,
	}}
	lines := March(g, 5)
	if len(lines) != 1 || len(lines[0]) != 2 {
		t.Errorf("expected a single segment from the valid cell, got %v", lines)
	}
}

func TestMarch_Saddle(t *testing.T) {
	g := Grid{Width: 2, Height: 2, NoData: math.NaN(), Values: []float64{
		10, 0,
		0, 10,
	}}
	// Center mean 5 is above: the two low corners are cut off.
	lines := March(g, 5)
	if len(lines) != 2 {
		t.Fatalf("expected two segments, got %v", lines)
	}
	want := orb.LineString{{0.5, 0}, {1, 0.5}}
	var found bool
	for _, l := range lines {
		if reflect.DeepEqual(l, want) || reflect.DeepEqual(l, orb.LineString{want[1], want[0]}) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the top-right corner cut off, got %v", lines)
	}
}

func TestGenerate(t *testing.T) {
	const n = 11
	values := make([]float64, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			values[y*n+x] = float64(100 + x + y)
		}
	}
	bbox := bounds.Bounds{MinLat: 0, MaxLat: 10, MinLng: 0, MaxLng: 10}
	features := Generate(Input{
		Width: n, Height: n, Values: values, BBox: bbox,
		NoData: math.NaN(), ThresholdStep: 5, MaxContours: 50,
	}, nil)
	if len(features) == 0 {
		t.Fatal("expected features")
	}
	for _, f := range features {
		if f.Spacing != 5 {
			t.Errorf("expected spacing 5, got %v", f.Spacing)
		}
		if f.Elevation <= 100 || f.Elevation >= 120 {
			t.Errorf("unexpected threshold %v", f.Elevation)
		}
		for _, l := range f.Lines {
			if len(l) < 2 {
				t.Errorf("line with %d points", len(l))
			}
			for _, p := range l {
				if !bbox.ContainsPoint(p[1], p[0]) {
					t.Errorf("point %v outside tile", p)
				}
			}
		}
	}
}

func TestGenerate_NoValidSamples(t *testing.T) {
	features := Generate(Input{
		Width: 2, Height: 2, Values: []float64{-32768, -32768, -32768, -32768},
		NoData: -32768, ThresholdStep: 10, MaxContours: 50,
	}, nil)
	if features != nil {
		t.Errorf("expected no features, got %v", features)
	}
}

func TestDescribe(t *testing.T) {
	d := Describe([]float64{1, 2, 3, 4, math.NaN(), -9999}, -9999)
	if d.Count != 6 || d.Valid != 4 || d.Min != 1 || d.Max != 4 || d.Mean != 2.5 || d.Median != 2.5 {
		t.Errorf("unexpected description %+v", d)
	}
	if empty := Describe(nil, math.NaN()); empty.Valid != 0 || empty.Max != 0 {
		t.Errorf("unexpected empty description %+v", empty)
	}
}
