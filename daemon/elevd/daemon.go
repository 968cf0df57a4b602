package elevd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/rotblauer/elevd/metrics/influxdb"
	"github.com/rotblauer/elevd/params"
	"github.com/rotblauer/elevd/service"
)

// WebDaemon serves the elevation service over HTTP as JSON and GeoJSON.
type WebDaemon struct {
	Config  *params.WebDaemonConfig
	service *service.Service
	logger  *slog.Logger
	started time.Time

	server      *http.Server
	listener    net.Listener
	cancel      context.CancelFunc
	done        chan struct{}
	interrupt   chan struct{}
	interrupted atomic.Bool
}

// NewWebDaemon builds a daemon around svc, or opens a service from
// config.Elevation when svc is nil.
func NewWebDaemon(config *params.WebDaemonConfig, svc *service.Service) (*WebDaemon, error) {
	logger := slog.With("daemon", "elevd")
	if config == nil {
		logger.Warn("No config provided, using default")
		config = params.DefaultWebDaemonConfig()
	}
	if svc == nil {
		var err error
		svc, err = service.Open(config.Elevation)
		if err != nil {
			return nil, err
		}
	}
	return &WebDaemon{
		Config:    config,
		service:   svc,
		logger:    logger,
		done:      make(chan struct{}, 1),
		interrupt: make(chan struct{}, 1),
	}, nil
}

// Start listens and serves without waiting.
// Stop it gracefully with Interrupt then Wait.
func (d *WebDaemon) Start() error {
	listener, err := net.Listen(d.Config.ListenerConfig.Network, d.Config.ListenerConfig.Address)
	if err != nil {
		return err
	}
	d.listener = listener
	d.started = time.Now()
	d.server = &http.Server{
		Handler:           d.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := d.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !d.interrupted.Load() {
			d.logger.Error("Web daemon serve error", "error", err)
			os.Exit(1)
		}
		d.logger.Info("Web daemon HTTP server stopped")
	}()

	var ctx context.Context
	ctx, d.cancel = context.WithCancel(context.Background())
	if influxdb.Enabled() {
		d.logger.Info("Exporting metrics to InfluxDB", "interval", d.Config.MetricsExportInterval)
		go influxdb.RunExporter(ctx, d.Config.MetricsExportInterval, d.service.Metrics().Snapshot,
			map[string]string{"daemon": "elevd"})
	}

	d.logger.Info("Web daemon started",
		slog.Group("listen", "network", d.Config.ListenerConfig.Network, "address", listener.Addr().String()),
		"tiles", d.service.Manifest().Len())
	go d.run()
	return nil
}

// Addr is the address actually listened on, eg. when configured with port 0.
func (d *WebDaemon) Addr() net.Addr {
	if d.listener == nil {
		return nil
	}
	return d.listener.Addr()
}

func (d *WebDaemon) run() {
	defer close(d.done)
	<-d.interrupt
	d.interrupted.Store(true)
	d.logger.Info("Web daemon interrupted")
	d.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), d.Config.ShutdownTimeout)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		d.logger.Error("Web daemon shutdown", "error", err)
	}
	if err := d.service.Close(); err != nil {
		d.logger.Error("Failed to close elevation service", "error", err)
	}
}

func (d *WebDaemon) Interrupt() {
	select {
	case d.interrupt <- struct{}{}:
	default:
	}
}

func (d *WebDaemon) Wait() {
	<-d.done
}

func (d *WebDaemon) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(d.loggingMiddleware)
	router.Use(recoveryMiddleware)

	apiRoutes := router.NewRoute().Subrouter()
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))
	apiJSONRoutes.Path("/status").HandlerFunc(d.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/elevation").HandlerFunc(d.handleElevation).Methods(http.MethodGet)

	geoJSONRoutes := apiRoutes.NewRoute().Subrouter()
	geoJSONRoutes.Use(contentTypeMiddlewareFunc("application/geo+json"))
	geoJSONRoutes.Path("/contours").HandlerFunc(d.handleContours).Methods(http.MethodGet)
	geoJSONRoutes.Path("/contours/region").HandlerFunc(d.handleRegionContours).Methods(http.MethodPost)
	geoJSONRoutes.Path("/tiles/{tile}/contours").HandlerFunc(d.handleTileContours).Methods(http.MethodGet)

	apiJSONRoutes.Path("/caches/clear").HandlerFunc(d.handleClearCaches).Methods(http.MethodPost)
	return router
}
