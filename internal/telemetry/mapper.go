package telemetry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/sysmqtt/internal/infrastructure/config"
	"github.com/nerrad567/sysmqtt/internal/sensor"
)

// Policy describes how readings of one kind are published.
type Policy struct {
	QoS    byte
	Retain bool
}

// Binding is a reading resolved to its publishable form: the full topic,
// the serialised payload, and the delivery policy.
type Binding struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// Mapper deterministically assigns topics, payloads, and policies to
// readings.
//
// The topic layout is fixed for the process lifetime:
//
//	<prefix>/<device>/<kind>            e.g. sysmqtt/host1/cpu
//	<prefix>/<device>/<kind>/<sub>      e.g. sysmqtt/host1/disk/root
//
// The same reading always maps to the same topic, so retained values and
// subscriptions stay valid across restarts.
type Mapper struct {
	prefix   string
	deviceID string
	policies map[sensor.Kind]Policy
}

// NewMapper creates a Mapper.
//
// Parameters:
//   - prefix: Topic namespace root, e.g. "sysmqtt"
//   - deviceID: Host identity, becomes the second topic segment
//   - defaultQoS: QoS applied to kinds without an override
//   - overrides: Per-kind QoS/retain overrides keyed by kind name
//
// Returns:
//   - *Mapper: Mapper ready for use
//   - error: Unknown kind name in overrides
func NewMapper(prefix, deviceID string, defaultQoS byte, overrides map[string]config.PolicyConfig) (*Mapper, error) {
	policies := make(map[sensor.Kind]Policy, len(sensor.Kinds()))
	for _, k := range sensor.Kinds() {
		policies[k] = Policy{QoS: defaultQoS}
	}

	for name, p := range overrides {
		kind, err := sensor.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("telemetry policy: %w", err)
		}
		policies[kind] = Policy{QoS: byte(p.QoS), Retain: p.Retain}
	}

	return &Mapper{
		prefix:   prefix,
		deviceID: deviceID,
		policies: policies,
	}, nil
}

// Map resolves a reading to its topic, payload, and policy.
func (m *Mapper) Map(r sensor.Reading) Binding {
	p := m.policies[r.Kind]
	return Binding{
		Topic:   m.Topic(r),
		Payload: Payload(r),
		QoS:     p.QoS,
		Retain:  p.Retain,
	}
}

// Topic returns the full topic for a reading.
func (m *Mapper) Topic(r sensor.Reading) string {
	if r.SubID == "" {
		return m.prefix + "/" + m.deviceID + "/" + r.Kind.String()
	}
	return m.prefix + "/" + m.deviceID + "/" + r.Kind.String() + "/" + r.SubID
}

// PolicyFor returns the publication policy for a kind.
func (m *Mapper) PolicyFor(kind sensor.Kind) Policy {
	return m.policies[kind]
}

// AvailabilityTopic returns the retained presence topic for this host.
func (m *Mapper) AvailabilityTopic() string {
	return m.prefix + "/" + m.deviceID + "/availability"
}

// StateTopic returns the topic carrying the combined JSON snapshot of a
// poll cycle.
func (m *Mapper) StateTopic() string {
	return m.prefix + "/" + m.deviceID + "/state"
}

// DeviceID returns the host identity segment.
func (m *Mapper) DeviceID() string {
	return m.deviceID
}

// EntityID returns a flat identifier for a reading, safe for use as a
// JSON key or discovery object id. Topic separators in the sub id are
// flattened to underscores.
func EntityID(r sensor.Reading) string {
	if r.SubID == "" {
		return r.Kind.String()
	}
	return r.Kind.String() + "_" + strings.ReplaceAll(r.SubID, "/", "_")
}

// Payload serialises a reading. Token readings publish the token as-is;
// numeric readings publish the value with two decimal places.
func Payload(r sensor.Reading) []byte {
	if r.State != "" {
		return []byte(r.State)
	}
	return []byte(strconv.FormatFloat(r.Value, 'f', 2, 64))
}
