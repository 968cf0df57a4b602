package bounds

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/tidwall/gjson"
)

// aliases lists the accepted field names for each edge, in lookup order:
// south (min lat), north (max lat), west (min lng), east (max lng).
var aliases = [4][]string{
	{"minLat", "south", "minLatitude"},
	{"maxLat", "north", "maxLatitude"},
	{"minLng", "west", "minLongitude"},
	{"maxLng", "east", "maxLongitude"},
}

// Normalize resolves any supported bounds shape to the canonical Bounds.
// Accessor objects (BoundsLike) are tried first, then plain rectangles and
// keyed maps using any of the field aliases. Anything that does not resolve
// to four finite numbers yields ErrInvalidBounds.
func Normalize(v any) (Bounds, error) {
	var b Bounds
	switch t := v.(type) {
	case nil:
		return Bounds{}, fmt.Errorf("%w: nil", ErrInvalidBounds)
	case BoundsLike:
		b = Bounds{MinLat: t.GetSouth(), MaxLat: t.GetNorth(), MinLng: t.GetWest(), MaxLng: t.GetEast()}
	case Bounds:
		b = t
	case *Bounds:
		if t == nil {
			return Bounds{}, fmt.Errorf("%w: nil", ErrInvalidBounds)
		}
		b = *t
	case orb.Bound:
		b = FromBound(t)
	case map[string]float64:
		edges, ok := lookupEdges(func(k string) (float64, bool) {
			f, ok := t[k]
			return f, ok
		})
		if !ok {
			return Bounds{}, fmt.Errorf("%w: missing edge", ErrInvalidBounds)
		}
		b = edges
	case map[string]any:
		edges, ok := lookupEdges(func(k string) (float64, bool) {
			return toFloat(t[k])
		})
		if !ok {
			return Bounds{}, fmt.Errorf("%w: missing edge", ErrInvalidBounds)
		}
		b = edges
	case []byte:
		return FromJSON(t)
	default:
		return Bounds{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidBounds, v)
	}
	if !b.Valid() {
		return Bounds{}, fmt.Errorf("%w: non-finite edge in %v", ErrInvalidBounds, b)
	}
	return b, nil
}

// FromJSON reads a bounds object from raw JSON using any of the field aliases.
func FromJSON(data []byte) (Bounds, error) {
	if !gjson.ValidBytes(data) {
		return Bounds{}, fmt.Errorf("%w: malformed json", ErrInvalidBounds)
	}
	return FromGJSON(gjson.ParseBytes(data))
}

// FromGJSON is FromJSON for an already parsed value, eg. a nested "bounds" member.
func FromGJSON(res gjson.Result) (Bounds, error) {
	if !res.IsObject() {
		return Bounds{}, fmt.Errorf("%w: not an object", ErrInvalidBounds)
	}
	b, ok := lookupEdges(func(k string) (float64, bool) {
		r := res.Get(k)
		if !r.Exists() {
			return 0, false
		}
		switch r.Type {
		case gjson.Number:
			return r.Float(), true
		case gjson.String:
			f, err := strconv.ParseFloat(r.Str, 64)
			return f, err == nil
		}
		return 0, false
	})
	if !ok {
		return Bounds{}, fmt.Errorf("%w: missing edge", ErrInvalidBounds)
	}
	if !b.Valid() {
		return Bounds{}, fmt.Errorf("%w: non-finite edge in %v", ErrInvalidBounds, b)
	}
	return b, nil
}

func lookupEdges(get func(k string) (float64, bool)) (Bounds, bool) {
	var edges [4]float64
	for i, names := range aliases {
		found := false
		for _, name := range names {
			if f, ok := get(name); ok {
				edges[i] = f
				found = true
				break
			}
		}
		if !found {
			return Bounds{}, false
		}
	}
	return Bounds{MinLat: edges[0], MaxLat: edges[1], MinLng: edges[2], MaxLng: edges[3]}, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
