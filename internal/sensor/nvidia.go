package sensor

import (
	"context"
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// NvidiaSource reports temperature, utilisation, memory usage, and power
// draw for NVIDIA GPUs through NVML.
//
// NVML is initialised lazily on the first sample so that building the
// source on a host without the driver is harmless; the sample simply
// fails and the collector disables the source after its threshold.
type NvidiaSource struct {
	initialized bool
}

// NewNvidiaSource creates an NVIDIA GPU source.
func NewNvidiaSource() *NvidiaSource {
	return &NvidiaSource{}
}

// Name returns the source name.
func (s *NvidiaSource) Name() string { return "nvidia" }

// Sample reads telemetry from every NVIDIA GPU on the host.
func (s *NvidiaSource) Sample(_ context.Context) ([]Reading, error) {
	if !s.initialized {
		if ret := nvml.Init(); ret != nvml.SUCCESS {
			return nil, fmt.Errorf("%w: nvml init: %s", ErrUnavailable, nvml.ErrorString(ret))
		}
		s.initialized = true
	}

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("counting gpus: %s", nvml.ErrorString(ret))
	}

	var out []Reading
	for i := 0; i < count; i++ {
		device, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			return nil, fmt.Errorf("gpu %d handle: %s", i, nvml.ErrorString(ret))
		}

		prefix := fmt.Sprintf("gpu%d", i)

		if temp, ret := device.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
			out = append(out, Reading{Kind: KindSensor, SubID: prefix + "/temperature", Value: float64(temp)})
		}
		if util, ret := device.GetUtilizationRates(); ret == nvml.SUCCESS {
			out = append(out, Reading{Kind: KindSensor, SubID: prefix + "/utilization", Value: float64(util.Gpu)})
		}
		if memInfo, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS && memInfo.Total > 0 {
			used := float64(memInfo.Used) / float64(memInfo.Total) * 100
			out = append(out, Reading{Kind: KindSensor, SubID: prefix + "/memory", Value: used})
		}
		if power, ret := device.GetPowerUsage(); ret == nvml.SUCCESS {
			// NVML reports milliwatts.
			out = append(out, Reading{Kind: KindSensor, SubID: prefix + "/power", Value: float64(power) / 1000})
		}
	}

	return out, nil
}

// Close shuts NVML down if it was initialised.
func (s *NvidiaSource) Close() error {
	if !s.initialized {
		return nil
	}
	s.initialized = false
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return fmt.Errorf("nvml shutdown: %s", nvml.ErrorString(ret))
	}
	return nil
}
