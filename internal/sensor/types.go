package sensor

import "fmt"

// Kind classifies a reading. It determines the topic segment the reading
// is published under and the publication policy that applies to it.
type Kind int

const (
	KindBattery Kind = iota
	KindCPU
	KindMemory
	KindUptime
	KindDisk
	KindNet
	KindSensor
)

// String returns the topic segment for the kind.
func (k Kind) String() string {
	switch k {
	case KindBattery:
		return "battery"
	case KindCPU:
		return "cpu"
	case KindMemory:
		return "memory"
	case KindUptime:
		return "uptime"
	case KindDisk:
		return "disk"
	case KindNet:
		return "net"
	case KindSensor:
		return "sensor"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name back to a Kind. Used to resolve
// per-kind policy keys from configuration.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "battery":
		return KindBattery, nil
	case "cpu":
		return KindCPU, nil
	case "memory":
		return KindMemory, nil
	case "uptime":
		return KindUptime, nil
	case "disk":
		return KindDisk, nil
	case "net":
		return KindNet, nil
	case "sensor":
		return KindSensor, nil
	default:
		return 0, fmt.Errorf("unknown reading kind %q", s)
	}
}

// Kinds lists every reading kind. Used to build the policy table and
// discovery metadata.
func Kinds() []Kind {
	return []Kind{KindBattery, KindCPU, KindMemory, KindUptime, KindDisk, KindNet, KindSensor}
}

// Reading is a single measurement taken from a source.
//
// A reading is either numeric (Value) or a token (State); State wins when
// both are set. SubID distinguishes multiple readings of the same kind,
// such as a drive name, a network interface, or a sensor chip feature.
// SubID may contain '/' and becomes additional topic segments.
type Reading struct {
	Kind  Kind
	SubID string
	Value float64
	State string
}

// Drive names a mounted filesystem whose usage is reported.
type Drive struct {
	Path string
	Name string
}
