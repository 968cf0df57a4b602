package elevd

import (
	"log/slog"

	"github.com/rotblauer/elevd/common"
	"github.com/rotblauer/elevd/manifest"
	"github.com/rotblauer/elevd/params"
	"github.com/rotblauer/elevd/service"
	"github.com/rotblauer/elevd/testing/fixtures"
	"github.com/rotblauer/elevd/tiles"
	"github.com/rotblauer/elevd/types/bounds"
)

func init() {
	common.SlogResetLevel(slog.LevelWarn + 1)
}

// newTestWebDaemon serves two synthetic tiles side by side:
// "a" over lat 0..10, lng 0..10 and "b" over lat 0..10, lng 10..20.
func newTestWebDaemon() (*WebDaemon, *fixtures.Source) {
	a := fixtures.PlaneTile("a", bounds.Bounds{MinLat: 0, MaxLat: 10, MinLng: 0, MaxLng: 10}, 11)
	b := fixtures.PlaneTile("b", bounds.Bounds{MinLat: 0, MaxLat: 10, MinLng: 10, MaxLng: 20}, 11)
	src := fixtures.NewSource(a, b)

	config := params.DefaultTestWebDaemonConfig()
	config.ListenerConfig.Address = "127.0.0.1:0"
	loader, err := tiles.NewLoader(config.Elevation.Loader, src, nil)
	if err != nil {
		panic(err)
	}
	svc, err := service.New(config.Elevation, manifest.MustNew(fixtures.Descriptors(a, b)...), loader)
	if err != nil {
		panic(err)
	}
	d, err := NewWebDaemon(config, svc)
	if err != nil {
		panic(err)
	}
	return d, src
}
