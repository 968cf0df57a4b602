package tile

import (
	"fmt"

	"github.com/rotblauer/elevd/types/bounds"
)

// Descriptor is one manifest entry: a raster file and the geographic
// rectangle it covers. Descriptors are immutable once loaded.
type Descriptor struct {
	ID      string        `json:"id"`
	FileRef string        `json:"fileName"`
	Bounds  bounds.Bounds `json:"bounds"`
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%s)", d.ID, d.FileRef)
}

// Meta describes an opened raster.
// Row 0 of the raster is the northern edge (MaxLat) of BBox.
type Meta struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	BBox        bounds.Bounds `json:"bbox"`
	NoData      float64       `json:"noData"`
	HasNoData   bool          `json:"hasNoData"`
	ResolutionX float64       `json:"resolutionX"`
	ResolutionY float64       `json:"resolutionY"`
}

// IsNoData reports whether v equals the no-data sentinel.
func (m Meta) IsNoData(v float64) bool {
	return m.HasNoData && v == m.NoData
}
