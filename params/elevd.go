package params

import (
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/metrics"
)

func init() {
	metrics.Enabled = true
}

const (
	ManifestFileName = "manifest.json"
	StoreDBName      = "contours.db"
)

var DatadirRoot = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, ".elevd")
}()

// DefaultDatadirRoot is what commands and daemons use unless told otherwise.
// Tests point it somewhere disposable.
var DefaultDatadirRoot = DatadirRoot

var (
	INFLUXDB_URL    = os.Getenv("INFLUXDB_URL")
	INFLUXDB_TOKEN  = os.Getenv("INFLUXDB_TOKEN")
	INFLUXDB_ORG    = os.Getenv("INFLUXDB_ORG")
	INFLUXDB_BUCKET = os.Getenv("INFLUXDB_BUCKET")
)
