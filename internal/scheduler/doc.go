// Package scheduler runs the daemon's periodic work.
//
// One goroutine drives three cadences:
//   - Poll: sample every source and publish the readings
//   - Heartbeat: re-publish the retained availability payload
//   - Discovery: re-announce entity config messages
//
// Publishing while the broker is unreachable drops the cycle instead of
// queueing; stale telemetry has no value once a fresher poll exists.
package scheduler
