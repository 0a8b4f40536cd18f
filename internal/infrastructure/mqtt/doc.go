// Package mqtt manages the broker connection for sysmqtt.
//
// It wraps the Eclipse Paho client with an explicit connection state
// machine. The library's automatic reconnection is disabled and replaced
// by a single supervisor goroutine that:
//   - Observes connection loss through the paho lost handler
//   - Waits out exponential backoff delays with jitter
//   - Makes exactly one connect attempt at a time
//   - Resets the backoff schedule after a successful connect
//   - Distinguishes credential rejection from transient faults and gives
//     up after a bounded number of rejections
//
// Availability is handled here too: a retained "online" payload is
// published on every successful connect, the matching "offline" payload
// on clean shutdown, and the broker's Last Will covers unclean death.
//
// Usage:
//
//	client, err := mqtt.New(cfg.MQTT, password, avail)
//	if err != nil { ... }
//	client.SetLogger(log.With("component", "mqtt"))
//	if err := client.Start(ctx); err != nil { ... }
//	defer client.Close()
//
//	err = client.Publish("sysmqtt/host1/cpu", 0, false, []byte("12.50"))
package mqtt
