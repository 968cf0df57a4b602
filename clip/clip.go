/*
Package clip trims contour lines to a user-drawn polygon.

Lines are walked vertex by vertex; consecutive vertices inside the polygon form
runs, and every run of at least two vertices becomes an output segment. Segments
are never re-closed, so a line leaving and re-entering the polygon yields
several disjoint pieces.
*/
package clip

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/rotblauer/elevd/types/contour"
)

var ErrInsufficientPolygon = errors.New("polygon needs at least 3 distinct vertices")

// Polygon is a simple polygon in display coordinates.
type Polygon struct {
	Ring  orb.Ring
	Bound orb.Bound
}

// NewPolygon builds a polygon from vertices, mapped through project
// (nil for plain [lng, lat]). A single trailing vertex equal to the first
// is dropped before counting.
func NewPolygon(vertices []Vertex, project orb.Projection) (*Polygon, error) {
	vertices = dedupeClosing(vertices)
	if len(vertices) < 3 {
		return nil, ErrInsufficientPolygon
	}
	ring := make(orb.Ring, 0, len(vertices))
	for _, v := range vertices {
		p := orb.Point{v.Lng, v.Lat}
		if project != nil {
			p = project(p)
		}
		ring = append(ring, p)
	}
	return &Polygon{Ring: ring, Bound: ring.Bound()}, nil
}

// Contains is a crossing-number test. An edge counts only when it straddles
// the point's y, (yi > py) != (yj > py), so vertices on the ray count once.
func (p *Polygon) Contains(pt orb.Point) bool {
	x, y := pt[0], pt[1]
	inside := false
	n := len(p.Ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := p.Ring[i][0], p.Ring[i][1]
		xj, yj := p.Ring[j][0], p.Ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func (p *Polygon) keep(pt orb.Point) bool {
	return p.Bound.Contains(pt) && p.Contains(pt)
}

// Clip splits ls into the runs of vertices inside the polygon.
func (p *Polygon) Clip(ls orb.LineString) []orb.LineString {
	var out []orb.LineString
	var run orb.LineString
	flush := func() {
		if len(run) >= 2 {
			out = append(out, run)
		}
		run = nil
	}
	for _, pt := range ls {
		if p.keep(pt) {
			run = append(run, pt)
			continue
		}
		flush()
	}
	flush()
	return out
}

// ClipFeature returns f restricted to the polygon, or nil when nothing survives.
func (p *Polygon) ClipFeature(f contour.Feature) *contour.Feature {
	var lines orb.MultiLineString
	for _, ls := range f.Lines {
		lines = append(lines, p.Clip(ls)...)
	}
	if len(lines) == 0 {
		return nil
	}
	f.Lines = lines
	return &f
}

// ClipFeature clips f to the polygon described by vertices in plain [lng, lat]
// space. It returns nil when the polygon has fewer than 3 vertices or no
// segment survives.
func ClipFeature(f contour.Feature, vertices []Vertex) *contour.Feature {
	poly, err := NewPolygon(vertices, nil)
	if err != nil {
		return nil
	}
	return poly.ClipFeature(f)
}

// ClipCollection clips every feature, dropping the ones that do not survive.
func (p *Polygon) ClipCollection(c contour.Collection) contour.Collection {
	out := contour.Collection{Features: []contour.Feature{}, Tiles: c.Tiles}
	for _, f := range c.Features {
		if clipped := p.ClipFeature(f); clipped != nil {
			out.Features = append(out.Features, *clipped)
		}
	}
	return out
}
