package mqtt

import "errors"

// Sentinel errors for MQTT operations.
// Use errors.Is() to check error types.
var (
	// ErrNotConnected indicates an operation was attempted while the client
	// has no broker connection. Publishes fail fast rather than queue.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrConnectionFailed indicates the broker could not be reached or the
	// connect handshake failed for a transient reason.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrAuthFailed indicates the broker rejected the configured credentials.
	// This is not retried beyond the configured bound; a refused password
	// will not become valid by retrying.
	ErrAuthFailed = errors.New("mqtt: authentication failed")

	// ErrPublishFailed indicates a publish was accepted by the client but
	// not confirmed within the publish timeout.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrInvalidTopic indicates a topic containing wildcard characters or
	// an empty topic was passed to Publish.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrInvalidQoS indicates a QoS level outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("mqtt: client already started")
)
