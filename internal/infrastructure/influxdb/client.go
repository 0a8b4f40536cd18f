package influxdb

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/sysmqtt/internal/infrastructure/config"
	"github.com/nerrad567/sysmqtt/internal/sensor"
)

// Logger is the minimal logging interface the writer needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Writer mirrors readings into an InfluxDB bucket alongside the MQTT
// publishes.
//
// Writes go through the non-blocking batching API: a poll cycle is never
// delayed by a slow or unreachable InfluxDB, and write errors surface on
// a channel that is drained into the log. Losing mirror points is
// acceptable; MQTT remains the primary output.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	deviceID string
	logger   Logger
}

// New creates a Writer for the configured bucket.
//
// Parameters:
//   - cfg: InfluxDB connection and batching configuration
//   - deviceID: Host identity, tagged on every point
//
// Returns:
//   - *Writer: Writer ready for use
func New(cfg config.InfluxDBConfig, deviceID string) *Writer {
	opts := influxdb2.DefaultOptions()
	if cfg.BatchSize > 0 {
		opts = opts.SetBatchSize(uint(cfg.BatchSize))
	}
	if cfg.FlushInterval > 0 {
		opts = opts.SetFlushInterval(uint(cfg.FlushInterval) * 1000)
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	w := &Writer{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		deviceID: deviceID,
		logger:   noopLogger{},
	}

	go w.drainErrors()

	return w
}

// SetLogger sets the logger for write errors.
func (w *Writer) SetLogger(l Logger) {
	w.logger = l
}

// drainErrors logs asynchronous write failures. The channel closes when
// the client is closed.
func (w *Writer) drainErrors() {
	for err := range w.writeAPI.Errors() {
		w.logger.Warn("influxdb write failed", "error", err)
	}
}

// WriteReading queues one reading for batched writing.
// Never blocks; the context is unused because the API is asynchronous.
func (w *Writer) WriteReading(_ context.Context, r sensor.Reading) {
	w.writeAPI.WritePoint(buildPoint(w.deviceID, r, time.Now()))
}

// buildPoint converts a reading into a line-protocol point.
//
// Measurement "telemetry", tagged by host, kind, and sub id; the field
// is "value" for numeric readings and "state" for token readings.
func buildPoint(deviceID string, r sensor.Reading, at time.Time) *write.Point {
	p := influxdb2.NewPointWithMeasurement("telemetry").
		AddTag("host", deviceID).
		AddTag("kind", r.Kind.String())

	if r.SubID != "" {
		p.AddTag("sub_id", r.SubID)
	}

	if r.State != "" {
		p.AddField("state", r.State)
	} else {
		p.AddField("value", r.Value)
	}

	p.SetTime(at)
	return p
}

// Close flushes pending points and releases the client.
func (w *Writer) Close() {
	w.writeAPI.Flush()
	w.client.Close()
}
