package sensor

import (
	"context"
	"fmt"
	"strings"

	"github.com/distatus/battery"
)

// BatterySource reports charge level and charging state for the first
// system battery. Hosts without a battery produce no readings.
type BatterySource struct{}

// NewBatterySource creates a battery source.
func NewBatterySource() *BatterySource {
	return &BatterySource{}
}

// Name returns the source name.
func (s *BatterySource) Name() string { return "battery" }

// Sample reads the battery state.
//
// Two readings are produced: the charge level as a percentage of full
// capacity, and the charging state as a lowercase token (charging,
// discharging, full, empty, unknown).
func (s *BatterySource) Sample(_ context.Context) ([]Reading, error) {
	batteries, err := battery.GetAll()
	if err != nil && len(batteries) == 0 {
		return nil, fmt.Errorf("reading batteries: %w", err)
	}
	if len(batteries) == 0 {
		return nil, nil
	}

	b := batteries[0]

	level := 0.0
	if b.Full > 0 {
		level = b.Current / b.Full * 100
	}
	if level > 100 {
		level = 100
	}

	return []Reading{
		{Kind: KindBattery, Value: level},
		{Kind: KindBattery, SubID: "state", State: strings.ToLower(b.State.String())},
	}, nil
}
