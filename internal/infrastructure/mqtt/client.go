package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/nerrad567/sysmqtt/internal/infrastructure/config"
)

// Availability describes the retained presence message for this host.
//
// The topic carries OnlinePayload while the client is connected and
// OfflinePayload after a clean shutdown. The same topic and offline
// payload are registered as the Last Will so an unclean death is
// reported by the broker.
type Availability struct {
	Topic          string
	OnlinePayload  string
	OfflinePayload string
	QoS            byte
}

// Logger is the minimal logging interface the client needs.
// Satisfied by the logging package's Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output. Used until SetLogger is called.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client manages a single MQTT broker connection with explicit
// reconnection handling.
//
// The paho library's automatic reconnect is disabled; instead one
// supervisor goroutine owns the connection lifecycle. A lost connection
// is reported through a channel and the supervisor runs a reconnect
// episode with exponential backoff. At most one connect attempt is ever
// in flight.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
type Client struct {
	cfg   config.MQTTConfig
	avail Availability
	opts  *pahomqtt.ClientOptions

	// newClient builds the underlying paho client. Replaced in tests.
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client
	client    pahomqtt.Client

	backoff backoffPolicy

	mu      sync.Mutex
	state   StateSnapshot
	started bool

	// lost receives connection loss notifications from the paho handler.
	// Buffered so the handler never blocks; a second loss while one is
	// pending carries no extra information.
	lost chan error

	// fatal receives at most one unrecoverable error (repeated auth
	// rejection after a previously good connection).
	fatal chan error

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// New creates a Client for the given broker configuration.
//
// The password is resolved by the caller (see the credentials package)
// and is held only inside the connect options. No connection is made
// until Start is called.
//
// Parameters:
//   - cfg: Broker, auth and reconnect configuration
//   - password: Resolved broker password, empty for anonymous brokers
//   - avail: Availability topic and payloads for this host
//
// Returns:
//   - *Client: Client ready for Start
//   - error: Configuration problem (unreadable CA certificate)
func New(cfg config.MQTTConfig, password string, avail Availability) (*Client, error) {
	c := &Client{
		cfg:       cfg,
		avail:     avail,
		newClient: pahomqtt.NewClient,
		backoff: backoffPolicy{
			initial:    time.Duration(cfg.Reconnect.InitialDelay) * time.Second,
			max:        time.Duration(cfg.Reconnect.MaxDelay) * time.Second,
			multiplier: cfg.Reconnect.Multiplier,
			jitter:     cfg.Reconnect.Jitter,
		},
		state:  StateSnapshot{State: StateDisconnected},
		lost:   make(chan error, 1),
		fatal:  make(chan error, 1),
		done:   make(chan struct{}),
		logger: noopLogger{},
	}

	opts, err := buildOptions(cfg, password, avail, func(_ pahomqtt.Client, err error) {
		c.logger.Warn("connection lost", "error", err)
		select {
		case c.lost <- err:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	c.opts = opts

	return c, nil
}

// SetLogger sets the logger for client events.
// Must be called before Start.
func (c *Client) SetLogger(l Logger) {
	c.logger = l
}

// Start connects to the broker and launches the reconnect supervisor.
//
// Credential rejection during the initial connect is retried a bounded
// number of times and then returned as ErrAuthFailed; a wrong password
// is a deployment problem, not a network blip. A transient initial
// failure is not an error: the supervisor keeps retrying with backoff
// so the daemon rides out a broker that is down at boot.
//
// Returns:
//   - error: ErrAuthFailed after exhausting auth retries, or
//     ErrAlreadyStarted on a second call
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	c.client = c.newClient(c.opts)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.Reconnect.MaxAuthAttempts; attempt++ {
		c.setState(StateSnapshot{State: StateConnecting})

		err := c.dial()
		if err == nil {
			c.setState(StateSnapshot{State: StateConnected})
			c.logger.Info("connected",
				"broker", c.cfg.Broker.Host,
				"port", c.cfg.Broker.Port)
			if perr := c.publishAvailability(c.avail.OnlinePayload); perr != nil {
				c.logger.Warn("availability publish failed", "error", perr)
			}
			lastErr = nil
			break
		}

		if !isAuthError(err) {
			// Transient failure at startup. Hand the episode to the
			// supervisor and report success; the daemon stays up.
			c.logger.Warn("initial connect failed, retrying in background", "error", err)
			c.setState(StateSnapshot{State: StateDisconnected})
			c.lost <- err
			lastErr = nil
			break
		}

		lastErr = err
		c.logger.Error("broker rejected credentials",
			"attempt", attempt,
			"max_attempts", c.cfg.Reconnect.MaxAuthAttempts)
	}

	if lastErr != nil {
		c.setState(StateSnapshot{State: StateDisconnected})
		return fmt.Errorf("%w: %v", ErrAuthFailed, lastErr)
	}

	c.wg.Add(1)
	go c.supervise(ctx)

	return nil
}

// supervise is the single goroutine that owns reconnection.
func (c *Client) supervise(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case err := <-c.lost:
			c.reconnect(ctx, err)
		}
	}
}

// reconnect runs one reconnect episode: backoff, connect, repeat until
// connected, shut down, or fatally rejected.
func (c *Client) reconnect(ctx context.Context, cause error) {
	c.logger.Info("starting reconnect", "cause", cause)

	authFailures := 0
	for attempt := 1; ; attempt++ {
		delay := c.backoff.next(attempt)
		c.setState(StateSnapshot{
			State:     StateBackoff,
			Attempt:   attempt,
			NextRetry: time.Now().Add(delay),
		})
		c.logger.Debug("waiting before reconnect", "attempt", attempt, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-c.done:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		c.setState(StateSnapshot{State: StateConnecting})

		err := c.dial()
		if err == nil {
			c.setState(StateSnapshot{State: StateConnected})
			c.logger.Info("reconnected", "attempts", attempt)
			if perr := c.publishAvailability(c.avail.OnlinePayload); perr != nil {
				c.logger.Warn("availability publish failed", "error", perr)
			}
			return
		}

		if isAuthError(err) {
			authFailures++
			if authFailures >= c.cfg.Reconnect.MaxAuthAttempts {
				c.logger.Error("broker rejected credentials repeatedly, giving up",
					"attempts", authFailures)
				c.setState(StateSnapshot{State: StateDisconnected})
				select {
				case c.fatal <- fmt.Errorf("%w: %v", ErrAuthFailed, err):
				default:
				}
				return
			}
		}

		c.logger.Warn("reconnect attempt failed", "attempt", attempt, "error", err)
	}
}

// dial performs a single connect attempt.
func (c *Client) dial() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("%w: connect timed out", ErrConnectionFailed)
	}
	if err := token.Error(); err != nil {
		if isAuthError(err) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return nil
}

// isAuthError reports whether the broker refused the connection for
// credential reasons rather than a transient fault.
func isAuthError(err error) bool {
	return errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword) ||
		errors.Is(err, packets.ErrorRefusedNotAuthorised)
}

// publishAvailability publishes the retained presence payload.
func (c *Client) publishAvailability(payload string) error {
	token := c.client.Publish(c.avail.Topic, c.avail.QoS, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: availability publish timed out", ErrPublishFailed)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	return nil
}

// PublishAvailability re-publishes the retained online payload.
// Called periodically as a heartbeat while the daemon is healthy.
func (c *Client) PublishAvailability() error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.publishAvailability(c.avail.OnlinePayload)
}

// Fatal returns a channel that yields an unrecoverable client error.
// The daemon's main loop selects on it and exits non-zero.
func (c *Client) Fatal() <-chan error {
	return c.fatal
}

// State returns a snapshot of the connection state.
func (c *Client) State() StateSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the client holds a live broker connection.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	s := c.state.State
	c.mu.Unlock()
	return s == StateConnected && c.client != nil && c.client.IsConnected()
}

func (c *Client) setState(s StateSnapshot) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Close shuts the client down cleanly.
//
// The supervisor is stopped first so a connection drop during shutdown
// cannot trigger a reconnect. If still connected, the retained offline
// payload is published before disconnecting so subscribers see a clean
// departure rather than waiting for the Last Will.
//
// Safe to call multiple times.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.wg.Wait()

		if c.client != nil && c.client.IsConnected() {
			if err := c.publishAvailability(c.avail.OfflinePayload); err != nil {
				c.logger.Warn("offline publish failed", "error", err)
			}
			c.client.Disconnect(disconnectQuiesce)
		}
		c.setState(StateSnapshot{State: StateDisconnected})
		c.logger.Info("mqtt client closed")
	})
}
