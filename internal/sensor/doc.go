// Package sensor collects local telemetry readings.
//
// A Source produces readings for one class of telemetry:
//   - SystemSource: CPU load, memory and swap, uptime, disk usage,
//     network throughput (gopsutil)
//   - BatterySource: charge level and charging state
//   - HwmonSource: kernel temperature sensors
//   - NvidiaSource: GPU telemetry through NVML
//
// The Collector samples sources in a fixed order each poll cycle. A
// failing source is logged and skipped without affecting the others, and
// is disabled entirely after enough consecutive failures.
package sensor
