package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for sysmqtt.
// All configuration is loaded from YAML and can be overridden by environment variables.
// It is loaded once at startup and treated as immutable for the process lifetime.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig contains the device identity settings.
type DeviceConfig struct {
	// Identity is the topic-namespace root for this host.
	// If empty, the system hostname is used.
	Identity string `yaml:"identity"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	TopicPrefix string              `yaml:"topic_prefix"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	CACert   string `yaml:"ca_cert"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication settings.
// The resolved password is never stored here; PasswordSource describes
// where it can be obtained at startup.
type MQTTAuthConfig struct {
	Username       string               `yaml:"username"`
	PasswordSource PasswordSourceConfig `yaml:"password_source"`
}

// PasswordSourceConfig describes where the broker password is resolved from.
type PasswordSourceConfig struct {
	// Type is one of "keyring", "secret_file", or "plaintext".
	// Defaults to "keyring" when a username is configured.
	Type string `yaml:"type"`

	// File is the path to the secret file when Type is "secret_file".
	File string `yaml:"file"`

	// Password is the literal password when Type is "plaintext".
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains reconnection backoff settings.
type MQTTReconnectConfig struct {
	// InitialDelay is the first backoff delay in seconds.
	InitialDelay int `yaml:"initial_delay"`

	// MaxDelay caps the backoff delay in seconds.
	MaxDelay int `yaml:"max_delay"`

	// Multiplier is the exponential growth factor between attempts.
	Multiplier float64 `yaml:"multiplier"`

	// Jitter is the fraction of the delay randomised on top of it (0..1).
	Jitter float64 `yaml:"jitter"`

	// MaxAuthAttempts bounds immediate retries when the broker rejects
	// credentials. A broker that refuses a password will not accept it
	// on the hundredth try either.
	MaxAuthAttempts int `yaml:"max_auth_attempts"`
}

// TelemetryConfig contains collection and publication settings.
type TelemetryConfig struct {
	// PollInterval is the collection cadence in seconds.
	PollInterval int `yaml:"poll_interval"`

	// HeartbeatInterval is how often the retained availability message is
	// re-published, in seconds.
	HeartbeatInterval int `yaml:"heartbeat_interval"`

	// FailureThreshold is the number of consecutive sample failures after
	// which a source is disabled for the remainder of the process lifetime.
	FailureThreshold int `yaml:"failure_threshold"`

	Sources SourcesConfig `yaml:"sources"`

	// Policies overrides QoS/retain per reading kind, keyed by kind name
	// (battery, cpu, memory, uptime, disk, net, sensor).
	Policies map[string]PolicyConfig `yaml:"policies"`
}

// SourcesConfig enables and configures the individual sensor sources.
type SourcesConfig struct {
	System  SystemSourceConfig  `yaml:"system"`
	Battery BatterySourceConfig `yaml:"battery"`
	Sensors HwmonSourceConfig   `yaml:"sensors"`
	Nvidia  NvidiaSourceConfig  `yaml:"nvidia"`
}

// SystemSourceConfig configures the CPU/memory/disk/network source.
type SystemSourceConfig struct {
	Enabled bool          `yaml:"enabled"`
	Drives  []DriveConfig `yaml:"drives"`

	// Interfaces lists network interfaces to report throughput for.
	// An empty list reports a single aggregate across all interfaces.
	Interfaces []string `yaml:"interfaces"`
}

// DriveConfig names a mounted filesystem to report usage for.
type DriveConfig struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

// BatterySourceConfig configures the battery source.
type BatterySourceConfig struct {
	Enabled bool `yaml:"enabled"`
}

// HwmonSourceConfig configures the hardware sensor chip source.
type HwmonSourceConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NvidiaSourceConfig configures the NVIDIA GPU source.
type NvidiaSourceConfig struct {
	Enabled bool `yaml:"enabled"`
}

// PolicyConfig is a per-kind QoS/retain override.
type PolicyConfig struct {
	QoS    int  `yaml:"qos"`
	Retain bool `yaml:"retain"`
}

// DiscoveryConfig contains Home Assistant MQTT discovery settings.
type DiscoveryConfig struct {
	Enabled bool `yaml:"enabled"`

	// Prefix is the discovery topic prefix, normally "homeassistant".
	Prefix string `yaml:"prefix"`

	// Interval is how often discovery messages are re-published, in seconds.
	Interval int `yaml:"interval"`
}

// InfluxDBConfig contains the optional InfluxDB mirror sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SYSMQTT_SECTION_KEY
// For example: SYSMQTT_MQTT_HOST, SYSMQTT_DEVICE_IDENTITY
//
// A malformed file or failed validation is an error; configuration problems
// are never silently defaulted away.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			TopicPrefix: "sysmqtt",
			QoS:         0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay:    1,
				MaxDelay:        60,
				Multiplier:      2.0,
				Jitter:          0.5,
				MaxAuthAttempts: 3,
			},
		},
		Telemetry: TelemetryConfig{
			PollInterval:      30,
			HeartbeatInterval: 60,
			FailureThreshold:  5,
			Sources: SourcesConfig{
				System: SystemSourceConfig{
					Enabled: true,
					Drives: []DriveConfig{
						{Path: "/", Name: "root"},
					},
				},
				Battery: BatterySourceConfig{Enabled: true},
				Sensors: HwmonSourceConfig{Enabled: true},
			},
		},
		Discovery: DiscoveryConfig{
			Enabled:  true,
			Prefix:   "homeassistant",
			Interval: 3600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SYSMQTT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SYSMQTT_DEVICE_IDENTITY"); v != "" {
		cfg.Device.Identity = v
	}

	// MQTT
	if v := os.Getenv("SYSMQTT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SYSMQTT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SYSMQTT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.PasswordSource = PasswordSourceConfig{
			Type:     "plaintext",
			Password: v,
		}
	}

	// InfluxDB
	if v := os.Getenv("SYSMQTT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// knownKinds are the reading kind names accepted as policy keys.
// Must stay in sync with the sensor package's kind enum.
var knownKinds = map[string]bool{
	"battery": true,
	"cpu":     true,
	"memory":  true,
	"uptime":  true,
	"disk":    true,
	"net":     true,
	"sensor":  true,
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Device identity becomes a topic segment; MQTT wildcard and separator
	// characters would corrupt the topic tree.
	if strings.ContainsAny(c.Device.Identity, "/+#") {
		errs = append(errs, "device.identity must not contain '/', '+' or '#'")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.TopicPrefix == "" || strings.ContainsAny(c.MQTT.TopicPrefix, "+#") {
		errs = append(errs, "mqtt.topic_prefix is required and must not contain wildcards")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	switch c.MQTT.Auth.PasswordSource.Type {
	case "", "keyring", "plaintext":
	case "secret_file":
		if c.MQTT.Auth.PasswordSource.File == "" {
			errs = append(errs, "mqtt.auth.password_source.file is required for secret_file source")
		}
	default:
		errs = append(errs, "mqtt.auth.password_source.type must be keyring, secret_file, or plaintext")
	}

	// Reconnect validation
	if c.MQTT.Reconnect.InitialDelay < 1 {
		errs = append(errs, "mqtt.reconnect.initial_delay must be at least 1 second")
	}
	if c.MQTT.Reconnect.MaxDelay < c.MQTT.Reconnect.InitialDelay {
		errs = append(errs, "mqtt.reconnect.max_delay must be >= initial_delay")
	}
	if c.MQTT.Reconnect.Multiplier < 1.0 {
		errs = append(errs, "mqtt.reconnect.multiplier must be at least 1.0")
	}
	if c.MQTT.Reconnect.Jitter < 0 || c.MQTT.Reconnect.Jitter > 1 {
		errs = append(errs, "mqtt.reconnect.jitter must be between 0 and 1")
	}
	if c.MQTT.Reconnect.MaxAuthAttempts < 1 {
		errs = append(errs, "mqtt.reconnect.max_auth_attempts must be at least 1")
	}

	// Telemetry validation
	if c.Telemetry.PollInterval < 1 {
		errs = append(errs, "telemetry.poll_interval must be at least 1 second")
	}
	if c.Telemetry.HeartbeatInterval < 1 {
		errs = append(errs, "telemetry.heartbeat_interval must be at least 1 second")
	}
	if c.Telemetry.FailureThreshold < 1 {
		errs = append(errs, "telemetry.failure_threshold must be at least 1")
	}
	for kind, policy := range c.Telemetry.Policies {
		if !knownKinds[kind] {
			errs = append(errs, fmt.Sprintf("telemetry.policies: unknown reading kind %q", kind))
		}
		if policy.QoS < 0 || policy.QoS > 2 {
			errs = append(errs, fmt.Sprintf("telemetry.policies.%s.qos must be 0, 1, or 2", kind))
		}
	}
	for i, drive := range c.Telemetry.Sources.System.Drives {
		if drive.Path == "" || drive.Name == "" {
			errs = append(errs, fmt.Sprintf("telemetry.sources.system.drives[%d]: path and name are required", i))
		}
	}

	// Discovery validation
	if c.Discovery.Enabled {
		if c.Discovery.Prefix == "" {
			errs = append(errs, "discovery.prefix is required when discovery is enabled")
		}
		if c.Discovery.Interval < 1 {
			errs = append(errs, "discovery.interval must be at least 1 second")
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// PollInterval returns the collection cadence as a Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Telemetry.PollInterval) * time.Second
}

// HeartbeatInterval returns the availability re-publish cadence as a Duration.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Telemetry.HeartbeatInterval) * time.Second
}

// DiscoveryInterval returns the discovery re-publish cadence as a Duration.
func (c *Config) DiscoveryInterval() time.Duration {
	return time.Duration(c.Discovery.Interval) * time.Second
}
