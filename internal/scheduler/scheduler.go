package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/sysmqtt/internal/infrastructure/mqtt"
	"github.com/nerrad567/sysmqtt/internal/sensor"
	"github.com/nerrad567/sysmqtt/internal/telemetry"
)

// Publisher is the MQTT surface the scheduler drives.
// Satisfied by the mqtt package's Client.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	PublishAvailability() error
	IsConnected() bool
}

// Collector produces the readings for one poll cycle.
// Satisfied by the sensor package's Collector.
type Collector interface {
	Collect(ctx context.Context) []sensor.Reading
}

// Announcer publishes discovery config for observed readings.
// Satisfied by the discovery package's Announcer.
type Announcer interface {
	Announce(readings []sensor.Reading, force bool)
}

// Mirror receives every reading in addition to the MQTT publishes.
// Satisfied by the influxdb package's Writer.
type Mirror interface {
	WriteReading(ctx context.Context, r sensor.Reading)
}

// Logger is the minimal logging interface the scheduler needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Options configures a Scheduler.
type Options struct {
	Collector Collector
	Mapper    *telemetry.Mapper
	Publisher Publisher

	// Announcer is optional; nil disables discovery.
	Announcer Announcer

	// Mirror is optional; nil disables the secondary sink.
	Mirror Mirror

	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	DiscoveryInterval time.Duration
}

// Scheduler owns the daemon's periodic work: polling sources, publishing
// readings, re-publishing availability, and re-announcing discovery.
//
// Everything runs on one goroutine. A cycle that is in flight when
// shutdown begins always completes; the loop only observes cancellation
// between cycles, so no half-published cycle is left behind.
type Scheduler struct {
	opts   Options
	logger Logger

	lastReadings []sensor.Reading
}

// New creates a Scheduler.
func New(opts Options) *Scheduler {
	return &Scheduler{
		opts:   opts,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for scheduler events.
func (s *Scheduler) SetLogger(l Logger) {
	s.logger = l
}

// Run executes the scheduling loop until the context is cancelled.
//
// The first poll happens immediately so a freshly started daemon
// publishes within moments rather than after a full interval.
//
// Returns:
//   - error: Always nil after a graceful stop; reserved for future use
func (s *Scheduler) Run(ctx context.Context) error {
	poll := time.NewTicker(s.opts.PollInterval)
	defer poll.Stop()

	heartbeat := time.NewTicker(s.opts.HeartbeatInterval)
	defer heartbeat.Stop()

	discoveryInterval := s.opts.DiscoveryInterval
	if discoveryInterval <= 0 {
		// Ticker needs a positive interval even when discovery is off.
		discoveryInterval = time.Hour
	}
	discovery := time.NewTicker(discoveryInterval)
	defer discovery.Stop()

	s.logger.Info("scheduler started",
		"poll_interval", s.opts.PollInterval,
		"heartbeat_interval", s.opts.HeartbeatInterval)

	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-poll.C:
			s.cycle(ctx)
		case <-heartbeat.C:
			s.publishHeartbeat()
		case <-discovery.C:
			if s.opts.Announcer != nil {
				s.opts.Announcer.Announce(s.lastReadings, true)
			}
		}
	}
}

// cycle runs one poll: collect, announce new entities, publish.
func (s *Scheduler) cycle(ctx context.Context) {
	readings := s.opts.Collector.Collect(ctx)
	s.lastReadings = readings

	if len(readings) == 0 {
		s.logger.Debug("poll produced no readings")
		return
	}

	if s.opts.Announcer != nil {
		s.opts.Announcer.Announce(readings, false)
	}

	if s.opts.Mirror != nil {
		for _, r := range readings {
			s.opts.Mirror.WriteReading(ctx, r)
		}
	}

	if !s.opts.Publisher.IsConnected() {
		// Telemetry is perishable. Drop the cycle and let the next poll
		// publish fresh values once the connection is back.
		s.logger.Warn("broker disconnected, dropping cycle", "readings", len(readings))
		return
	}

	published := 0
	for _, r := range readings {
		b := s.opts.Mapper.Map(r)
		if err := s.opts.Publisher.Publish(b.Topic, b.QoS, b.Retain, b.Payload); err != nil {
			s.logger.Warn("publish failed", "topic", b.Topic, "error", err)
			continue
		}
		published++
	}

	s.publishState(readings)

	s.logger.Debug("poll cycle complete", "readings", len(readings), "published", published)
}

// publishState publishes the combined JSON snapshot of the cycle.
func (s *Scheduler) publishState(readings []sensor.Reading) {
	payload, err := telemetry.BuildState(readings)
	if err != nil {
		s.logger.Warn("state payload failed", "error", err)
		return
	}
	if err := s.opts.Publisher.Publish(s.opts.Mapper.StateTopic(), 0, false, payload); err != nil {
		s.logger.Warn("state publish failed", "error", err)
	}
}

// publishHeartbeat re-publishes the retained online payload.
func (s *Scheduler) publishHeartbeat() {
	if err := s.opts.Publisher.PublishAvailability(); err != nil {
		if errors.Is(err, mqtt.ErrNotConnected) {
			s.logger.Debug("heartbeat skipped, not connected")
			return
		}
		s.logger.Warn("heartbeat failed", "error", err)
	}
}
