package clip

import (
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

var ErrInvalidVertices = errors.New("invalid polygon vertices")

// Vertex is one polygon corner as drawn by the user.
type Vertex struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (v Vertex) valid() bool {
	return !math.IsNaN(v.Lat) && !math.IsInf(v.Lat, 0) &&
		!math.IsNaN(v.Lng) && !math.IsInf(v.Lng, 0)
}

// NormalizeVertices accepts []Vertex, [][2]float64 as [lat, lng], or lists of
// maps keyed lat/lng or latitude/longitude. Vertices are returned as given;
// NewPolygon drops a closing vertex.
func NormalizeVertices(v any) ([]Vertex, error) {
	var out []Vertex
	switch vs := v.(type) {
	case []Vertex:
		out = append(out, vs...)
	case [][2]float64:
		for _, p := range vs {
			out = append(out, Vertex{Lat: p[0], Lng: p[1]})
		}
	case [][]float64:
		for i, p := range vs {
			if len(p) < 2 {
				return nil, fmt.Errorf("%w: vertex %d has %d coordinates", ErrInvalidVertices, i, len(p))
			}
			out = append(out, Vertex{Lat: p[0], Lng: p[1]})
		}
	case []map[string]float64:
		for i, m := range vs {
			vx, ok := vertexFromLookup(func(k string) (float64, bool) {
				f, ok := m[k]
				return f, ok
			})
			if !ok {
				return nil, fmt.Errorf("%w: vertex %d", ErrInvalidVertices, i)
			}
			out = append(out, vx)
		}
	case []map[string]any:
		for i, m := range vs {
			vx, ok := vertexFromLookup(func(k string) (float64, bool) {
				f, ok := m[k].(float64)
				return f, ok
			})
			if !ok {
				return nil, fmt.Errorf("%w: vertex %d", ErrInvalidVertices, i)
			}
			out = append(out, vx)
		}
	case []any:
		for i, item := range vs {
			vx, ok := vertexFromAny(item)
			if !ok {
				return nil, fmt.Errorf("%w: vertex %d", ErrInvalidVertices, i)
			}
			out = append(out, vx)
		}
	case []byte:
		return VerticesFromJSON(vs)
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidVertices, v)
	}
	for i, vx := range out {
		if !vx.valid() {
			return nil, fmt.Errorf("%w: vertex %d is not finite", ErrInvalidVertices, i)
		}
	}
	return out, nil
}

// VerticesFromJSON parses a JSON array of {lat,lng}, {latitude,longitude}
// or [lat,lng] vertices.
func VerticesFromJSON(data []byte) ([]Vertex, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed json", ErrInvalidVertices)
	}
	return VerticesFromGJSON(gjson.ParseBytes(data))
}

func VerticesFromGJSON(res gjson.Result) ([]Vertex, error) {
	if !res.IsArray() {
		return nil, fmt.Errorf("%w: expected an array", ErrInvalidVertices)
	}
	var out []Vertex
	var err error
	res.ForEach(func(i, item gjson.Result) bool {
		vx, ok := vertexFromGJSON(item)
		if !ok || !vx.valid() {
			err = fmt.Errorf("%w: vertex %d", ErrInvalidVertices, i.Int())
			return false
		}
		out = append(out, vx)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func vertexFromGJSON(item gjson.Result) (Vertex, bool) {
	if item.IsArray() {
		arr := item.Array()
		if len(arr) < 2 || arr[0].Type != gjson.Number || arr[1].Type != gjson.Number {
			return Vertex{}, false
		}
		return Vertex{Lat: arr[0].Float(), Lng: arr[1].Float()}, true
	}
	if !item.IsObject() {
		return Vertex{}, false
	}
	return vertexFromLookup(func(k string) (float64, bool) {
		r := item.Get(k)
		return r.Float(), r.Type == gjson.Number
	})
}

func vertexFromAny(item any) (Vertex, bool) {
	switch t := item.(type) {
	case Vertex:
		return t, true
	case map[string]any:
		return vertexFromLookup(func(k string) (float64, bool) {
			f, ok := t[k].(float64)
			return f, ok
		})
	case []any:
		if len(t) < 2 {
			return Vertex{}, false
		}
		lat, ok1 := t[0].(float64)
		lng, ok2 := t[1].(float64)
		return Vertex{Lat: lat, Lng: lng}, ok1 && ok2
	case [2]float64:
		return Vertex{Lat: t[0], Lng: t[1]}, true
	}
	return Vertex{}, false
}

func vertexFromLookup(get func(string) (float64, bool)) (Vertex, bool) {
	for _, keys := range [][2]string{{"lat", "lng"}, {"latitude", "longitude"}, {"lat", "lon"}} {
		lat, ok1 := get(keys[0])
		lng, ok2 := get(keys[1])
		if ok1 && ok2 {
			return Vertex{Lat: lat, Lng: lng}, true
		}
	}
	return Vertex{}, false
}

// dedupeClosing drops one trailing vertex equal to the first.
func dedupeClosing(vs []Vertex) []Vertex {
	if len(vs) > 1 && vs[0] == vs[len(vs)-1] {
		return vs[:len(vs)-1]
	}
	return vs
}
