package sensor

import (
	"context"
	"io"
	"sync"
)

// Source produces readings for one class of telemetry.
//
// Sample returns every reading currently available, or an error when the
// whole source failed. A source with nothing to report (a desktop with no
// battery) returns an empty slice and no error.
type Source interface {
	Name() string
	Sample(ctx context.Context) ([]Reading, error)
}

// Logger is the minimal logging interface the collector needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Collector samples an ordered list of sources each poll cycle.
//
// One failing source never suppresses the others: its error is logged and
// the remaining sources are still sampled. A source that fails on enough
// consecutive polls is disabled for the rest of the process lifetime, so
// a machine without the hardware does not log the same error forever.
//
// Thread Safety:
//   - Collect is safe to call from one goroutine at a time; the failure
//     bookkeeping is locked so Close may race with Collect safely.
type Collector struct {
	sources   []Source
	threshold int

	mu       sync.Mutex
	failures map[string]int
	disabled map[string]bool

	logger Logger
}

// NewCollector creates a Collector over the given sources.
//
// Parameters:
//   - threshold: Consecutive failures after which a source is disabled
//   - sources: Sources sampled in order on every poll
//
// Returns:
//   - *Collector: Collector ready for use
//   - error: ErrNoSources when the source list is empty
func NewCollector(threshold int, sources ...Source) (*Collector, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	return &Collector{
		sources:   sources,
		threshold: threshold,
		failures:  make(map[string]int),
		disabled:  make(map[string]bool),
		logger:    noopLogger{},
	}, nil
}

// SetLogger sets the logger for collection events.
func (c *Collector) SetLogger(l Logger) {
	c.logger = l
}

// Collect samples every enabled source in order and returns the combined
// readings. Source order is stable across polls so downstream consumers
// see readings in a consistent sequence.
func (c *Collector) Collect(ctx context.Context) []Reading {
	var out []Reading

	for _, src := range c.sources {
		if c.isDisabled(src.Name()) {
			continue
		}

		readings, err := src.Sample(ctx)
		if err != nil {
			c.recordFailure(src.Name(), err)
			continue
		}

		c.recordSuccess(src.Name())
		out = append(out, readings...)
	}

	return out
}

// SourceNames returns the names of all configured sources, including
// disabled ones. Used for startup logging and the print-sensors command.
func (c *Collector) SourceNames() []string {
	names := make([]string, len(c.sources))
	for i, src := range c.sources {
		names[i] = src.Name()
	}
	return names
}

func (c *Collector) isDisabled(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled[name]
}

func (c *Collector) recordFailure(name string, err error) {
	c.mu.Lock()
	c.failures[name]++
	count := c.failures[name]
	disable := count >= c.threshold
	if disable {
		c.disabled[name] = true
	}
	c.mu.Unlock()

	if disable {
		c.logger.Error("source disabled after repeated failures",
			"source", name,
			"consecutive_failures", count,
			"error", err)
		return
	}
	c.logger.Warn("source sample failed",
		"source", name,
		"consecutive_failures", count,
		"error", err)
}

func (c *Collector) recordSuccess(name string) {
	c.mu.Lock()
	c.failures[name] = 0
	c.mu.Unlock()
}

// Close releases resources held by sources that need explicit teardown.
func (c *Collector) Close() {
	for _, src := range c.sources {
		if closer, ok := src.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				c.logger.Warn("source close failed", "source", src.Name(), "error", err)
			}
		}
	}
}
