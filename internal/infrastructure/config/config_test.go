package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  identity: "host1"
mqtt:
  broker:
    host: "broker.local"
    port: 8883
    tls: true
    client_id: "sysmqtt-host1"
  auth:
    username: "telemetry"
    password_source:
      type: "secret_file"
      file: "/etc/sysmqtt.secret"
  qos: 1
telemetry:
  poll_interval: 15
  sources:
    system:
      enabled: true
      drives:
        - path: "/"
          name: "root"
        - path: "/home"
          name: "home"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Identity != "host1" {
		t.Errorf("Device.Identity = %q, want %q", cfg.Device.Identity, "host1")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.Telemetry.PollInterval != 15 {
		t.Errorf("Telemetry.PollInterval = %d, want 15", cfg.Telemetry.PollInterval)
	}
	if len(cfg.Telemetry.Sources.System.Drives) != 2 {
		t.Errorf("Drives count = %d, want 2", len(cfg.Telemetry.Sources.System.Drives))
	}

	// Values not present in the file keep their defaults.
	if cfg.MQTT.Reconnect.MaxDelay != 60 {
		t.Errorf("Reconnect.MaxDelay = %d, want default 60", cfg.MQTT.Reconnect.MaxDelay)
	}
	if cfg.MQTT.TopicPrefix != "sysmqtt" {
		t.Errorf("TopicPrefix = %q, want default %q", cfg.MQTT.TopicPrefix, "sysmqtt")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("mqtt:\n  broker:\n    host: file-host\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("SYSMQTT_MQTT_HOST", "env-host")
	t.Setenv("SYSMQTT_MQTT_USERNAME", "env-user")
	t.Setenv("SYSMQTT_MQTT_PASSWORD", "env-pass")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-host" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "env-host")
	}
	if cfg.MQTT.Auth.Username != "env-user" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "env-user")
	}
	if cfg.MQTT.Auth.PasswordSource.Type != "plaintext" {
		t.Errorf("PasswordSource.Type = %q, want %q", cfg.MQTT.Auth.PasswordSource.Type, "plaintext")
	}
	if cfg.MQTT.Auth.PasswordSource.Password != "env-pass" {
		t.Errorf("PasswordSource.Password = %q, want %q", cfg.MQTT.Auth.PasswordSource.Password, "env-pass")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "identity with topic separator",
			mutate:  func(c *Config) { c.Device.Identity = "host/1" },
			wantErr: "device.identity",
		},
		{
			name:    "missing broker host",
			mutate:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: "mqtt.broker.host",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: "mqtt.broker.port",
		},
		{
			name:    "wildcard in topic prefix",
			mutate:  func(c *Config) { c.MQTT.TopicPrefix = "sys#" },
			wantErr: "mqtt.topic_prefix",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "secret_file source without file",
			mutate:  func(c *Config) { c.MQTT.Auth.PasswordSource.Type = "secret_file" },
			wantErr: "password_source.file",
		},
		{
			name:    "unknown password source",
			mutate:  func(c *Config) { c.MQTT.Auth.PasswordSource.Type = "vault" },
			wantErr: "password_source.type",
		},
		{
			name:    "max_delay below initial_delay",
			mutate:  func(c *Config) { c.MQTT.Reconnect.MaxDelay = 0 },
			wantErr: "max_delay",
		},
		{
			name:    "multiplier below one",
			mutate:  func(c *Config) { c.MQTT.Reconnect.Multiplier = 0.5 },
			wantErr: "multiplier",
		},
		{
			name:    "jitter out of range",
			mutate:  func(c *Config) { c.MQTT.Reconnect.Jitter = 1.5 },
			wantErr: "jitter",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Telemetry.PollInterval = 0 },
			wantErr: "poll_interval",
		},
		{
			name:    "zero failure threshold",
			mutate:  func(c *Config) { c.Telemetry.FailureThreshold = 0 },
			wantErr: "failure_threshold",
		},
		{
			name: "unknown policy kind",
			mutate: func(c *Config) {
				c.Telemetry.Policies = map[string]PolicyConfig{"gpu_fan": {QoS: 1}}
			},
			wantErr: "unknown reading kind",
		},
		{
			name: "policy qos out of range",
			mutate: func(c *Config) {
				c.Telemetry.Policies = map[string]PolicyConfig{"battery": {QoS: 5}}
			},
			wantErr: "policies.battery.qos",
		},
		{
			name: "drive without name",
			mutate: func(c *Config) {
				c.Telemetry.Sources.System.Drives = []DriveConfig{{Path: "/data"}}
			},
			wantErr: "drives[0]",
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Org = "org"
				c.InfluxDB.Bucket = "bucket"
			},
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := defaultConfig()
	cfg.Telemetry.PollInterval = 30
	cfg.Telemetry.HeartbeatInterval = 60
	cfg.Discovery.Interval = 3600

	if got := cfg.PollInterval().Seconds(); got != 30 {
		t.Errorf("PollInterval() = %vs, want 30s", got)
	}
	if got := cfg.HeartbeatInterval().Seconds(); got != 60 {
		t.Errorf("HeartbeatInterval() = %vs, want 60s", got)
	}
	if got := cfg.DiscoveryInterval().Seconds(); got != 3600 {
		t.Errorf("DiscoveryInterval() = %vs, want 3600s", got)
	}
}
