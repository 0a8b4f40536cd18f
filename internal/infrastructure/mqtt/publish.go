package mqtt

import (
	"fmt"
	"strings"
)

// Publish sends a payload to the given topic.
//
// While the client is disconnected the call fails immediately with
// ErrNotConnected instead of queueing. Telemetry is perishable; the next
// poll produces a fresher value than anything a queue could hold.
//
// Parameters:
//   - topic: Full topic path (no wildcards)
//   - qos: Delivery guarantee, 0..2
//   - retained: Whether the broker keeps the message for new subscribers
//   - payload: Message body
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected, or
//     ErrPublishFailed if the broker does not confirm in time
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if err := validateTopic(topic); err != nil {
		return err
	}
	if qos > 2 {
		return fmt.Errorf("%w: %d", ErrInvalidQoS, qos)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout on topic %s", ErrPublishFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	c.logger.Debug("published", "topic", topic, "bytes", len(payload), "qos", qos)
	return nil
}

// validateTopic rejects empty topics and topics containing subscription
// wildcards, which are invalid in a publish.
func validateTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidTopic)
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcards not allowed in publish topic: %s", ErrInvalidTopic, topic)
	}
	return nil
}
