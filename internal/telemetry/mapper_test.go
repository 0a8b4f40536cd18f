package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/nerrad567/sysmqtt/internal/infrastructure/config"
	"github.com/nerrad567/sysmqtt/internal/sensor"
)

func newTestMapper(t *testing.T, overrides map[string]config.PolicyConfig) *Mapper {
	t.Helper()

	m, err := NewMapper("sysmqtt", "host1", 0, overrides)
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}
	return m
}

func TestMapper_Topics(t *testing.T) {
	m := newTestMapper(t, nil)

	tests := []struct {
		name    string
		reading sensor.Reading
		want    string
	}{
		{"battery level", sensor.Reading{Kind: sensor.KindBattery}, "sysmqtt/host1/battery"},
		{"battery state", sensor.Reading{Kind: sensor.KindBattery, SubID: "state"}, "sysmqtt/host1/battery/state"},
		{"cpu", sensor.Reading{Kind: sensor.KindCPU}, "sysmqtt/host1/cpu"},
		{"swap", sensor.Reading{Kind: sensor.KindMemory, SubID: "swap"}, "sysmqtt/host1/memory/swap"},
		{"disk", sensor.Reading{Kind: sensor.KindDisk, SubID: "root"}, "sysmqtt/host1/disk/root"},
		{"net per interface", sensor.Reading{Kind: sensor.KindNet, SubID: "eth0/rx"}, "sysmqtt/host1/net/eth0/rx"},
		{"gpu sensor", sensor.Reading{Kind: sensor.KindSensor, SubID: "gpu0/temperature"}, "sysmqtt/host1/sensor/gpu0/temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Topic(tt.reading); got != tt.want {
				t.Errorf("Topic() = %q, want %q", got, tt.want)
			}
		})
	}
}

// The same reading must land on the same topic on every call; retained
// values and subscriptions depend on it.
func TestMapper_TopicStability(t *testing.T) {
	m := newTestMapper(t, nil)
	r := sensor.Reading{Kind: sensor.KindBattery, Value: 84.2}

	first := m.Topic(r)
	for i := 0; i < 10; i++ {
		r.Value = float64(i)
		if got := m.Topic(r); got != first {
			t.Fatalf("Topic() = %q on call %d, want stable %q", got, i, first)
		}
	}
	if first != "sysmqtt/host1/battery" {
		t.Errorf("Topic() = %q, want sysmqtt/host1/battery", first)
	}
}

func TestMapper_FixedTopics(t *testing.T) {
	m := newTestMapper(t, nil)

	if got := m.AvailabilityTopic(); got != "sysmqtt/host1/availability" {
		t.Errorf("AvailabilityTopic() = %q", got)
	}
	if got := m.StateTopic(); got != "sysmqtt/host1/state" {
		t.Errorf("StateTopic() = %q", got)
	}
}

func TestPayload(t *testing.T) {
	tests := []struct {
		name    string
		reading sensor.Reading
		want    string
	}{
		{"numeric two decimals", sensor.Reading{Kind: sensor.KindCPU, Value: 12.5}, "12.50"},
		{"numeric rounding", sensor.Reading{Kind: sensor.KindCPU, Value: 33.33333}, "33.33"},
		{"zero", sensor.Reading{Kind: sensor.KindCPU}, "0.00"},
		{"token wins over value", sensor.Reading{Kind: sensor.KindBattery, State: "charging", Value: 84}, "charging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Payload(tt.reading)); got != tt.want {
				t.Errorf("Payload() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEntityID(t *testing.T) {
	tests := []struct {
		reading sensor.Reading
		want    string
	}{
		{sensor.Reading{Kind: sensor.KindBattery}, "battery"},
		{sensor.Reading{Kind: sensor.KindBattery, SubID: "state"}, "battery_state"},
		{sensor.Reading{Kind: sensor.KindNet, SubID: "eth0/rx"}, "net_eth0_rx"},
		{sensor.Reading{Kind: sensor.KindSensor, SubID: "gpu0/power"}, "sensor_gpu0_power"},
	}

	for _, tt := range tests {
		if got := EntityID(tt.reading); got != tt.want {
			t.Errorf("EntityID(%+v) = %q, want %q", tt.reading, got, tt.want)
		}
	}
}

func TestMapper_Policies(t *testing.T) {
	m := newTestMapper(t, map[string]config.PolicyConfig{
		"battery": {QoS: 1, Retain: true},
	})

	b := m.Map(sensor.Reading{Kind: sensor.KindBattery, Value: 84})
	if b.QoS != 1 || !b.Retain {
		t.Errorf("battery binding = qos %d retain %v, want qos 1 retained", b.QoS, b.Retain)
	}

	c := m.Map(sensor.Reading{Kind: sensor.KindCPU, Value: 10})
	if c.QoS != 0 || c.Retain {
		t.Errorf("cpu binding = qos %d retain %v, want default qos 0 non-retained", c.QoS, c.Retain)
	}
}

func TestNewMapper_UnknownPolicyKind(t *testing.T) {
	_, err := NewMapper("sysmqtt", "host1", 0, map[string]config.PolicyConfig{
		"gpu_fan": {QoS: 1},
	})
	if err == nil {
		t.Error("NewMapper() = nil error, want error for unknown kind")
	}
}

func TestBuildState(t *testing.T) {
	readings := []sensor.Reading{
		{Kind: sensor.KindBattery, Value: 84.204},
		{Kind: sensor.KindBattery, SubID: "state", State: "discharging"},
		{Kind: sensor.KindCPU, Value: 12.5},
		{Kind: sensor.KindDisk, SubID: "root", Value: 71.009},
	}

	data, err := BuildState(readings)
	if err != nil {
		t.Fatalf("BuildState() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("state payload is not valid JSON: %v", err)
	}

	if got["battery"] != 84.2 {
		t.Errorf("battery = %v, want 84.2", got["battery"])
	}
	if got["battery_state"] != "discharging" {
		t.Errorf("battery_state = %v, want discharging", got["battery_state"])
	}
	if got["cpu"] != 12.5 {
		t.Errorf("cpu = %v, want 12.5", got["cpu"])
	}
	if got["disk_root"] != 71.01 {
		t.Errorf("disk_root = %v, want 71.01", got["disk_root"])
	}
}
