package isoline

import (
	"math"

	"github.com/paulmach/orb"
)

// Grid is a row-major width x height sample grid; row 0 is the north edge.
type Grid struct {
	Width  int
	Height int
	Values []float64
	// NoData is the sentinel for missing samples; NaN if none.
	NoData float64
}

func (g Grid) at(x, y int) float64 {
	return g.Values[y*g.Width+x]
}

// edge identifies a cell edge shared by up to two cells. Horizontal edges run
// from (x,y) to (x+1,y), vertical ones from (x,y) to (x,y+1).
type edge struct {
	x, y     int
	vertical bool
}

type segment struct {
	a, b edge
}

const (
	sideTop = iota
	sideRight
	sideBottom
	sideLeft
)

// cases lists, per marching squares case, the pairs of sides each segment joins.
// Corner bits: top-left 8, top-right 4, bottom-right 2, bottom-left 1.
// Saddles 5 and 10 are resolved in March.
var cases = [16][][2]int{
	0:  nil,
	1:  {{sideLeft, sideBottom}},
	2:  {{sideBottom, sideRight}},
	3:  {{sideLeft, sideRight}},
	4:  {{sideTop, sideRight}},
	6:  {{sideTop, sideBottom}},
	7:  {{sideLeft, sideTop}},
	8:  {{sideLeft, sideTop}},
	9:  {{sideTop, sideBottom}},
	11: {{sideTop, sideRight}},
	12: {{sideLeft, sideRight}},
	13: {{sideBottom, sideRight}},
	14: {{sideLeft, sideBottom}},
	15: nil,
}

var (
	saddleCutTLBR = [][2]int{{sideLeft, sideTop}, {sideBottom, sideRight}}
	saddleCutTRBL = [][2]int{{sideTop, sideRight}, {sideLeft, sideBottom}}
)

// March traces the iso-line at threshold through g and returns polylines in
// grid coordinates ([col, row]). Samples >= threshold are above the line.
// Cells with a missing corner are skipped, so lines end at data gaps.
// A polyline is closed when its last point equals its first.
func March(g Grid, threshold float64) []orb.LineString {
	if g.Width < 2 || g.Height < 2 || len(g.Values) != g.Width*g.Height {
		return nil
	}

	points := map[edge]orb.Point{}
	var segments []segment

	for y := 0; y < g.Height-1; y++ {
		for x := 0; x < g.Width-1; x++ {
			tl, tr := g.at(x, y), g.at(x+1, y)
			bl, br := g.at(x, y+1), g.at(x+1, y+1)
			if !present(tl, g.NoData) || !present(tr, g.NoData) ||
				!present(bl, g.NoData) || !present(br, g.NoData) {
				continue
			}

			idx := 0
			if tl >= threshold {
				idx |= 8
			}
			if tr >= threshold {
				idx |= 4
			}
			if br >= threshold {
				idx |= 2
			}
			if bl >= threshold {
				idx |= 1
			}

			pairs := cases[idx]
			switch idx {
			case 5:
				// Above corners top-right and bottom-left.
				if (tl+tr+bl+br)/4 >= threshold {
					pairs = saddleCutTLBR
				} else {
					pairs = saddleCutTRBL
				}
			case 10:
				// Above corners top-left and bottom-right.
				if (tl+tr+bl+br)/4 >= threshold {
					pairs = saddleCutTRBL
				} else {
					pairs = saddleCutTLBR
				}
			}

			for _, pair := range pairs {
				a := cellEdge(x, y, pair[0])
				b := cellEdge(x, y, pair[1])
				for _, e := range []edge{a, b} {
					if _, ok := points[e]; !ok {
						points[e] = crossing(e, g, threshold)
					}
				}
				segments = append(segments, segment{a: a, b: b})
			}
		}
	}
	return stitch(segments, points)
}

func present(v, noData float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return math.IsNaN(noData) || v != noData
}

func cellEdge(x, y, side int) edge {
	switch side {
	case sideTop:
		return edge{x: x, y: y}
	case sideBottom:
		return edge{x: x, y: y + 1}
	case sideLeft:
		return edge{x: x, y: y, vertical: true}
	default:
		return edge{x: x + 1, y: y, vertical: true}
	}
}

// crossing interpolates where the threshold crosses e.
func crossing(e edge, g Grid, threshold float64) orb.Point {
	a := g.at(e.x, e.y)
	var b float64
	if e.vertical {
		b = g.at(e.x, e.y+1)
	} else {
		b = g.at(e.x+1, e.y)
	}
	t := 0.5
	if b != a {
		t = (threshold - a) / (b - a)
	}
	if e.vertical {
		return orb.Point{float64(e.x), float64(e.y) + t}
	}
	return orb.Point{float64(e.x) + t, float64(e.y)}
}

// stitch joins segments sharing an edge into polylines, in scan order.
func stitch(segments []segment, points map[edge]orb.Point) []orb.LineString {
	byEdge := make(map[edge][]int, len(points))
	for i, s := range segments {
		byEdge[s.a] = append(byEdge[s.a], i)
		byEdge[s.b] = append(byEdge[s.b], i)
	}
	used := make([]bool, len(segments))

	next := func(at edge) (edge, bool) {
		for _, i := range byEdge[at] {
			if used[i] {
				continue
			}
			used[i] = true
			if segments[i].a == at {
				return segments[i].b, true
			}
			return segments[i].a, true
		}
		return edge{}, false
	}

	var lines []orb.LineString
	for i, s := range segments {
		if used[i] {
			continue
		}
		used[i] = true
		chain := []edge{s.a, s.b}
		for {
			e, ok := next(chain[len(chain)-1])
			if !ok {
				break
			}
			chain = append(chain, e)
		}
		if chain[len(chain)-1] != chain[0] {
			var head []edge
			for at := chain[0]; ; {
				e, ok := next(at)
				if !ok {
					break
				}
				head = append(head, e)
				at = e
			}
			if len(head) > 0 {
				rev := make([]edge, 0, len(head)+len(chain))
				for j := len(head) - 1; j >= 0; j-- {
					rev = append(rev, head[j])
				}
				chain = append(rev, chain...)
			}
		}
		ls := make(orb.LineString, len(chain))
		for j, e := range chain {
			ls[j] = points[e]
		}
		lines = append(lines, ls)
	}
	return lines
}
