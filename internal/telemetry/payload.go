package telemetry

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/nerrad567/sysmqtt/internal/sensor"
)

// BuildState serialises one poll cycle into a single JSON document for
// the combined state topic. Keys are entity ids, values are the rounded
// numeric reading or the state token.
//
// Example:
//
//	{"battery":84.20,"battery_state":"discharging","cpu":12.50}
func BuildState(readings []sensor.Reading) ([]byte, error) {
	state := make(map[string]any, len(readings))
	for _, r := range readings {
		if r.State != "" {
			state[EntityID(r)] = r.State
			continue
		}
		state[EntityID(r)] = math.Round(r.Value*100) / 100
	}

	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshaling state payload: %w", err)
	}
	return data, nil
}
