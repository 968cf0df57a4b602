package influxdb

import (
	"context"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/elevd/params"
)

// Enabled reports whether an InfluxDB endpoint is configured.
func Enabled() bool {
	return params.INFLUXDB_URL != ""
}

// SnapshotPoints flattens a metrics snapshot (see metrics.Registry.Snapshot)
// into one "elevd" point, nested maps becoming dotted field names.
func SnapshotPoints(snapshot map[string]any, tags map[string]string, at time.Time) *write.Point {
	fields := map[string]interface{}{}
	var flatten func(prefix string, m map[string]any)
	flatten = func(prefix string, m map[string]any) {
		for k, v := range m {
			name := k
			if prefix != "" {
				name = prefix + "." + k
			}
			if nested, ok := v.(map[string]any); ok {
				flatten(name, nested)
				continue
			}
			fields[name] = v
		}
	}
	flatten("", snapshot)
	return influxdb2.NewPoint("elevd", tags, fields, at)
}

// ExportSnapshot writes one metrics snapshot to the configured InfluxDB bucket.
func ExportSnapshot(ctx context.Context, snapshot map[string]any, tags map[string]string) error {
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Second)
	client := influxdb2.NewClientWithOptions(params.INFLUXDB_URL, params.INFLUXDB_TOKEN, opts)
	defer client.Close()
	writeAPI := client.WriteAPIBlocking(params.INFLUXDB_ORG, params.INFLUXDB_BUCKET)
	return writeAPI.WritePoint(ctx, SnapshotPoints(snapshot, tags, time.Now()))
}

// RunExporter exports snapshots every interval until ctx is done.
func RunExporter(ctx context.Context, interval time.Duration, snapshot func() map[string]any, tags map[string]string) {
	if !Enabled() || interval <= 0 {
		return
	}
	logger := slog.With("exporter", "influxdb")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ExportSnapshot(ctx, snapshot(), tags); err != nil {
				logger.Warn("Failed to export metrics", "error", err)
			}
		}
	}
}
