package sensor

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/sensors"
)

// HwmonSource reports hardware temperature sensors exposed by the
// kernel (CPU package, NVMe, chipset and so on).
type HwmonSource struct{}

// NewHwmonSource creates a hardware sensor source.
func NewHwmonSource() *HwmonSource {
	return &HwmonSource{}
}

// Name returns the source name.
func (s *HwmonSource) Name() string { return "hwmon" }

// Sample reads every temperature sensor the kernel exposes. Each sensor
// becomes one reading keyed by its sensor name.
func (s *HwmonSource) Sample(ctx context.Context) ([]Reading, error) {
	temps, err := sensors.TemperaturesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading temperature sensors: %w", err)
	}

	out := make([]Reading, 0, len(temps))
	for _, t := range temps {
		if t.SensorKey == "" {
			continue
		}
		out = append(out, Reading{
			Kind:  KindSensor,
			SubID: t.SensorKey,
			Value: t.Temperature,
		})
	}
	return out, nil
}
