// Package influxdb provides an optional secondary sink for readings.
//
// When enabled, every reading published over MQTT is also written to an
// InfluxDB bucket as a point on the "telemetry" measurement. Writes are
// batched and asynchronous; InfluxDB being down never affects the MQTT
// path.
package influxdb
