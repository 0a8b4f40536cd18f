package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"
)

const secondsPerDay = 86400

// SystemSource reports CPU load, memory and swap usage, uptime, disk
// usage for configured drives, and network throughput.
//
// Network throughput is derived from the kernel's cumulative byte
// counters, so the first poll after startup carries no network readings;
// a rate needs two observations.
type SystemSource struct {
	drives     []Drive
	interfaces []string

	prevNet map[string]netCounters
	prevAt  time.Time
}

type netCounters struct {
	sent uint64
	recv uint64
}

// NewSystemSource creates a system source.
//
// Parameters:
//   - drives: Mounted filesystems to report usage for
//   - interfaces: Network interfaces to report throughput for; empty
//     means a single aggregate across all interfaces
func NewSystemSource(drives []Drive, interfaces []string) *SystemSource {
	return &SystemSource{
		drives:     drives,
		interfaces: interfaces,
		prevNet:    make(map[string]netCounters),
	}
}

// Name returns the source name.
func (s *SystemSource) Name() string { return "system" }

// Sample reads CPU, memory, uptime, disk, and network telemetry.
func (s *SystemSource) Sample(ctx context.Context) ([]Reading, error) {
	var out []Reading

	// Interval 0 measures utilisation since the previous call, which
	// matches the poll cadence exactly.
	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("reading cpu: %w", err)
	}
	if len(cpuPercents) > 0 {
		out = append(out, Reading{Kind: KindCPU, Value: cpuPercents[0]})
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading memory: %w", err)
	}
	out = append(out, Reading{Kind: KindMemory, Value: vm.UsedPercent})

	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading swap: %w", err)
	}
	if swap.Total > 0 {
		out = append(out, Reading{Kind: KindMemory, SubID: "swap", Value: swap.UsedPercent})
	}

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading uptime: %w", err)
	}
	out = append(out, Reading{Kind: KindUptime, Value: float64(uptime) / secondsPerDay})

	for _, d := range s.drives {
		usage, err := disk.UsageWithContext(ctx, d.Path)
		if err != nil {
			return nil, fmt.Errorf("reading disk %s: %w", d.Path, err)
		}
		out = append(out, Reading{Kind: KindDisk, SubID: d.Name, Value: usage.UsedPercent})
	}

	netReadings, err := s.sampleNet(ctx)
	if err != nil {
		return nil, err
	}
	out = append(out, netReadings...)

	return out, nil
}

// sampleNet computes per-interface receive/transmit rates in bytes per
// second from the kernel's cumulative counters.
func (s *SystemSource) sampleNet(ctx context.Context) ([]Reading, error) {
	perNIC := len(s.interfaces) > 0

	counters, err := gopsnet.IOCountersWithContext(ctx, perNIC)
	if err != nil {
		return nil, fmt.Errorf("reading network counters: %w", err)
	}

	now := time.Now()
	elapsed := now.Sub(s.prevAt).Seconds()
	first := s.prevAt.IsZero()

	var out []Reading
	for _, c := range counters {
		if perNIC && !s.wantInterface(c.Name) {
			continue
		}

		prev, seen := s.prevNet[c.Name]
		s.prevNet[c.Name] = netCounters{sent: c.BytesSent, recv: c.BytesRecv}

		// No rate without a previous observation; counter resets
		// (interface bounce) also skip one cycle.
		if first || !seen || elapsed <= 0 || c.BytesRecv < prev.recv || c.BytesSent < prev.sent {
			continue
		}

		rxRate := float64(c.BytesRecv-prev.recv) / elapsed
		txRate := float64(c.BytesSent-prev.sent) / elapsed

		rx := Reading{Kind: KindNet, SubID: "rx", Value: rxRate}
		tx := Reading{Kind: KindNet, SubID: "tx", Value: txRate}
		if perNIC {
			rx.SubID = c.Name + "/rx"
			tx.SubID = c.Name + "/tx"
		}
		out = append(out, rx, tx)
	}

	s.prevAt = now
	return out, nil
}

func (s *SystemSource) wantInterface(name string) bool {
	for _, want := range s.interfaces {
		if name == want {
			return true
		}
	}
	return false
}
