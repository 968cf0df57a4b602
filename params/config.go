package params

import (
	"path/filepath"
	"time"

	"github.com/rotblauer/elevd/types/contour"
)

// ElevationConfig configures the elevation service: where tiles and their
// manifest live, how many tiles and contour sets are kept in memory,
// and the contour settings used when a query does not specify its own.
type ElevationConfig struct {
	// BaseURL is prepended to each manifest file reference as {BaseURL}/{fileName}.
	// Plain paths and file:// read from disk, http(s):// use ranged requests,
	// s3://bucket/prefix reads ranged objects from S3.
	BaseURL string

	// ManifestPath is the static tile manifest (JSON).
	ManifestPath string

	// StorePath, if set, is a bbolt database persisting generated contours
	// across restarts.
	StorePath string

	// Transform names the geographic-to-display transform applied to contour vertices.
	// One of "identity", "mercator", "gcj02".
	Transform string

	Contours contour.Settings
	Loader   LoaderConfig
	S3       S3Config

	// ContourCacheTTL of zero keeps contour sets until ClearCaches.
	ContourCacheTTL      time.Duration
	ContourCacheCapacity uint64

	// MaxConcurrentTiles bounds the per-tile fan-out of one region query.
	MaxConcurrentTiles int

	// QueryTimeout bounds one region query as a whole.
	QueryTimeout time.Duration
}

type LoaderConfig struct {
	// TileCacheSize is the number of opened tiles kept (LRU).
	TileCacheSize int
	// LoadTimeout bounds a single tile open.
	LoadTimeout time.Duration
}

type S3Config struct {
	Region   string
	Endpoint string
	// PathStyle forces path-style addressing, eg. for minio.
	PathStyle bool
}

// DefaultContourSettings are used for any zero field of a query's settings.
var DefaultContourSettings = contour.Settings{
	ThresholdStep: 10,
	SampleSize:    256,
	MaxContours:   50,
}

func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		TileCacheSize: 64,
		LoadTimeout:   30 * time.Second,
	}
}

func DefaultElevationConfig() *ElevationConfig {
	return &ElevationConfig{
		BaseURL:              filepath.Join(DefaultDatadirRoot, "tiles"),
		ManifestPath:         filepath.Join(DefaultDatadirRoot, ManifestFileName),
		StorePath:            "",
		Transform:            "identity",
		Contours:             DefaultContourSettings,
		Loader:               DefaultLoaderConfig(),
		S3:                   S3Config{Region: "us-east-1"},
		ContourCacheTTL:      0,
		ContourCacheCapacity: 10_000,
		MaxConcurrentTiles:   4,
		QueryTimeout:         2 * time.Minute,
	}
}

// DefaultTestElevationConfig has no persistent store and short timeouts.
func DefaultTestElevationConfig() *ElevationConfig {
	c := DefaultElevationConfig()
	c.BaseURL = ""
	c.ManifestPath = ""
	c.Loader.LoadTimeout = 5 * time.Second
	c.QueryTimeout = 10 * time.Second
	return c
}
