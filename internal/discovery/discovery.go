package discovery

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/sysmqtt/internal/sensor"
	"github.com/nerrad567/sysmqtt/internal/telemetry"
)

// Publisher is the minimal MQTT surface the announcer needs.
// Satisfied by the mqtt package's Client.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Logger is the minimal logging interface the announcer needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// sensorConfig is the Home Assistant MQTT discovery payload for one
// sensor entity.
type sensorConfig struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	StateTopic        string     `json:"state_topic"`
	AvailabilityTopic string     `json:"availability_topic"`
	DeviceClass       string     `json:"device_class,omitempty"`
	StateClass        string     `json:"state_class,omitempty"`
	UnitOfMeasurement string     `json:"unit_of_measurement,omitempty"`
	Icon              string     `json:"icon,omitempty"`
	Device            deviceInfo `json:"device"`
}

// deviceInfo groups every entity under one device in Home Assistant.
type deviceInfo struct {
	Identifiers []string `json:"identifiers"`
	Name        string   `json:"name"`
	Model       string   `json:"model"`
	SwVersion   string   `json:"sw_version,omitempty"`
}

// Announcer publishes Home Assistant MQTT discovery messages so that
// entities appear automatically without YAML configuration on the Home
// Assistant side.
//
// Config messages are retained; they are published once per entity when
// it is first observed, and re-published periodically so a restarted
// broker that lost its retained store recovers.
type Announcer struct {
	prefix            string
	deviceID          string
	availabilityTopic string
	version           string
	mapper            *telemetry.Mapper
	pub               Publisher

	mu        sync.Mutex
	announced map[string]bool

	logger Logger
}

// New creates an Announcer.
//
// Parameters:
//   - prefix: Discovery topic prefix, normally "homeassistant"
//   - mapper: Topic mapper providing state topics for readings
//   - version: Daemon version published as the device sw_version
//   - pub: MQTT publisher
func New(prefix string, mapper *telemetry.Mapper, version string, pub Publisher) *Announcer {
	return &Announcer{
		prefix:            prefix,
		deviceID:          mapper.DeviceID(),
		availabilityTopic: mapper.AvailabilityTopic(),
		version:           version,
		mapper:            mapper,
		pub:               pub,
		announced:         make(map[string]bool),
		logger:            noopLogger{},
	}
}

// SetLogger sets the logger for discovery events.
func (a *Announcer) SetLogger(l Logger) {
	a.logger = l
}

// Announce publishes discovery config for every reading not yet
// announced. With force set, already-announced entities are re-published
// too.
//
// Publish failures are logged and the remaining entities still get their
// announcement; the next forced cycle retries.
func (a *Announcer) Announce(readings []sensor.Reading, force bool) {
	for _, r := range readings {
		entity := telemetry.EntityID(r)

		a.mu.Lock()
		done := a.announced[entity]
		a.mu.Unlock()
		if done && !force {
			continue
		}

		payload, err := a.configPayload(r, entity)
		if err != nil {
			a.logger.Warn("discovery payload failed", "entity", entity, "error", err)
			continue
		}

		topic := fmt.Sprintf("%s/sensor/sysmqtt-%s/%s/config", a.prefix, a.deviceID, entity)
		if err := a.pub.Publish(topic, 1, true, payload); err != nil {
			a.logger.Warn("discovery publish failed", "entity", entity, "error", err)
			continue
		}

		a.mu.Lock()
		a.announced[entity] = true
		a.mu.Unlock()
		a.logger.Debug("announced entity", "entity", entity, "topic", topic)
	}
}

// configPayload builds the discovery document for one reading.
func (a *Announcer) configPayload(r sensor.Reading, entity string) ([]byte, error) {
	meta := metadataFor(r)

	cfg := sensorConfig{
		Name:              a.deviceID + " " + strings.ReplaceAll(entity, "_", " "),
		UniqueID:          fmt.Sprintf("sysmqtt-%s-%s", a.deviceID, entity),
		StateTopic:        a.mapper.Topic(r),
		AvailabilityTopic: a.availabilityTopic,
		DeviceClass:       meta.deviceClass,
		StateClass:        meta.stateClass,
		UnitOfMeasurement: meta.unit,
		Icon:              meta.icon,
		Device: deviceInfo{
			Identifiers: []string{"sysmqtt-" + a.deviceID},
			Name:        a.deviceID,
			Model:       "sysmqtt",
			SwVersion:   a.version,
		},
	}

	return json.Marshal(cfg)
}

type entityMeta struct {
	deviceClass string
	stateClass  string
	unit        string
	icon        string
}

// metadataFor assigns Home Assistant presentation metadata per reading.
func metadataFor(r sensor.Reading) entityMeta {
	switch r.Kind {
	case sensor.KindBattery:
		if r.SubID == "state" {
			return entityMeta{icon: "mdi:battery-charging"}
		}
		return entityMeta{deviceClass: "battery", stateClass: "measurement", unit: "%"}
	case sensor.KindCPU:
		return entityMeta{stateClass: "measurement", unit: "%", icon: "mdi:cpu-64-bit"}
	case sensor.KindMemory:
		return entityMeta{stateClass: "measurement", unit: "%", icon: "mdi:memory"}
	case sensor.KindUptime:
		return entityMeta{stateClass: "measurement", unit: "d", icon: "mdi:timer-outline"}
	case sensor.KindDisk:
		return entityMeta{stateClass: "measurement", unit: "%", icon: "mdi:harddisk"}
	case sensor.KindNet:
		return entityMeta{deviceClass: "data_rate", stateClass: "measurement", unit: "B/s", icon: "mdi:lan"}
	case sensor.KindSensor:
		switch {
		case strings.HasSuffix(r.SubID, "utilization"), strings.HasSuffix(r.SubID, "memory"):
			return entityMeta{stateClass: "measurement", unit: "%", icon: "mdi:expansion-card"}
		case strings.HasSuffix(r.SubID, "power"):
			return entityMeta{deviceClass: "power", stateClass: "measurement", unit: "W"}
		default:
			return entityMeta{deviceClass: "temperature", stateClass: "measurement", unit: "°C"}
		}
	default:
		return entityMeta{}
	}
}
