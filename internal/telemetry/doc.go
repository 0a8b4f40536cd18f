// Package telemetry maps sensor readings to MQTT topics and payloads.
//
// The Mapper owns the topic layout and the per-kind publication policy
// (QoS and retain flag). Topic assignment is a pure function of the
// reading, so the same measurement lands on the same topic on every poll
// and across restarts.
//
// Besides the per-reading topics, a combined JSON snapshot of each poll
// cycle is built for the state topic, which suits consumers that want
// one document instead of many small messages.
package telemetry
