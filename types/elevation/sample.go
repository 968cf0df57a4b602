package elevation

import "fmt"

// Sample is the result of a point elevation query.
// Nil pointers serialize as JSON null.
type Sample struct {
	HasData   bool     `json:"hasData"`
	Elevation *int     `json:"elevation"`
	TileID    *string  `json:"tileId"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
}

func (s Sample) String() string {
	el, tid := "null", "null"
	if s.Elevation != nil {
		el = fmt.Sprintf("%d", *s.Elevation)
	}
	if s.TileID != nil {
		tid = *s.TileID
	}
	lat, lng := "null", "null"
	if s.Lat != nil {
		lat = fmt.Sprintf("%.6f", *s.Lat)
	}
	if s.Lng != nil {
		lng = fmt.Sprintf("%.6f", *s.Lng)
	}
	return fmt.Sprintf("lat=%s lng=%s elevation=%s tile=%s", lat, lng, el, tid)
}
