// Package discovery publishes Home Assistant MQTT discovery messages.
//
// Each reading observed by the daemon is announced once as a sensor
// entity under the configured discovery prefix. The retained config
// message tells Home Assistant the entity's state topic, availability
// topic, unit, and presentation metadata, so the host's telemetry shows
// up without any configuration on the Home Assistant side.
//
// Announcements are re-published on a slow cycle to survive a broker
// that lost its retained message store.
package discovery
