package params

import "time"

type WebDaemonConfig struct {
	ListenerConfig
	DataDir   string
	Elevation *ElevationConfig

	// MetricsExportInterval is how often service metrics are pushed to InfluxDB,
	// when INFLUXDB_URL is set.
	MetricsExportInterval time.Duration

	ShutdownTimeout time.Duration
}

// ListenerConfig is passed to net.Listen. Network is one of "tcp", "tcp4",
// "tcp6" or "unix"; an Address port of 0 picks a free port.
type ListenerConfig struct {
	Network string
	Address string
}

func (c ListenerConfig) String() string {
	return c.Network + "://" + c.Address
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3010",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir:               DefaultDatadirRoot,
		ListenerConfig:        DefaultWebListenerConfig(),
		Elevation:             DefaultElevationConfig(),
		MetricsExportInterval: time.Minute,
		ShutdownTimeout:       10 * time.Second,
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir: "",
		ListenerConfig: ListenerConfig{
			Network: "tcp",
			Address: "localhost:3333",
		},
		Elevation:       DefaultTestElevationConfig(),
		ShutdownTimeout: time.Second,
	}
}
