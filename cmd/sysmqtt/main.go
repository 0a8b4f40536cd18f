// sysmqtt publishes local system telemetry to an MQTT broker.
//
// It samples battery, CPU, memory, uptime, disk, network, and hardware
// sensor readings on a fixed cadence and publishes each one to a stable
// topic, alongside a retained availability heartbeat and optional Home
// Assistant discovery messages.
//
// Usage:
//
//	sysmqtt [--config /etc/sysmqtt.yaml]                run the daemon
//	sysmqtt set-password [--config /etc/sysmqtt.yaml]   store the broker password
//	sysmqtt print-sensors [--config /etc/sysmqtt.yaml]  sample once and print
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nerrad567/sysmqtt/internal/credentials"
	"github.com/nerrad567/sysmqtt/internal/discovery"
	"github.com/nerrad567/sysmqtt/internal/infrastructure/config"
	"github.com/nerrad567/sysmqtt/internal/infrastructure/influxdb"
	"github.com/nerrad567/sysmqtt/internal/infrastructure/logging"
	"github.com/nerrad567/sysmqtt/internal/infrastructure/mqtt"
	"github.com/nerrad567/sysmqtt/internal/scheduler"
	"github.com/nerrad567/sysmqtt/internal/sensor"
	"github.com/nerrad567/sysmqtt/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	configPath := pflag.StringP("config", "c", "/etc/sysmqtt.yaml", "path to configuration file")
	showVersion := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println("sysmqtt", version)
		return
	}

	command := "run"
	if args := pflag.Args(); len(args) > 0 {
		command = args[0]
	}

	var err error
	switch command {
	case "run":
		err = run(*configPath)
	case "set-password":
		err = setPassword(*configPath)
	case "print-sensors":
		err = printSensors(*configPath)
	default:
		err = fmt.Errorf("unknown command %q", command)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "sysmqtt:", err)
		os.Exit(1)
	}
}

// run starts the daemon and blocks until a signal arrives or the MQTT
// client reports a fatal error.
func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting", "config", configPath)

	identity, err := deviceIdentity(cfg)
	if err != nil {
		return err
	}
	if cfg.MQTT.Broker.ClientID == "" {
		cfg.MQTT.Broker.ClientID = "sysmqtt-" + identity
	}

	mapper, err := telemetry.NewMapper(cfg.MQTT.TopicPrefix, identity, byte(cfg.MQTT.QoS), cfg.Telemetry.Policies)
	if err != nil {
		return err
	}

	password := ""
	if cfg.MQTT.Auth.Username != "" {
		password, err = credentials.Resolve(cfg.MQTT.Auth.PasswordSource, cfg.MQTT.Auth.Username)
		if err != nil {
			return err
		}
	}

	collector, err := buildCollector(cfg)
	if err != nil {
		return err
	}
	collector.SetLogger(log.With("component", "collector"))
	defer collector.Close()
	log.Info("sources configured", "sources", collector.SourceNames())

	client, err := mqtt.New(cfg.MQTT, password, mqtt.Availability{
		Topic:          mapper.AvailabilityTopic(),
		OnlinePayload:  "online",
		OfflinePayload: "offline",
		QoS:            1,
	})
	if err != nil {
		return err
	}
	client.SetLogger(log.With("component", "mqtt"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.Start(ctx); err != nil {
		return err
	}
	defer client.Close()

	var mirror scheduler.Mirror
	if cfg.InfluxDB.Enabled {
		writer := influxdb.New(cfg.InfluxDB, identity)
		writer.SetLogger(log.With("component", "influxdb"))
		defer writer.Close()
		mirror = writer
		log.Info("influxdb mirror enabled", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	var announcer scheduler.Announcer
	if cfg.Discovery.Enabled {
		ann := discovery.New(cfg.Discovery.Prefix, mapper, version, client)
		ann.SetLogger(log.With("component", "discovery"))
		announcer = ann
	}

	sched := scheduler.New(scheduler.Options{
		Collector:         collector,
		Mapper:            mapper,
		Publisher:         client,
		Announcer:         announcer,
		Mirror:            mirror,
		PollInterval:      cfg.PollInterval(),
		HeartbeatInterval: cfg.HeartbeatInterval(),
		DiscoveryInterval: cfg.DiscoveryInterval(),
	})
	sched.SetLogger(log.With("component", "scheduler"))

	schedCtx, cancelSched := context.WithCancel(ctx)
	defer cancelSched()

	schedDone := make(chan struct{})
	go func() {
		sched.Run(schedCtx)
		close(schedDone)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-client.Fatal():
		log.Error("unrecoverable mqtt error", "error", err)
		cancelSched()
		<-schedDone
		return err
	}

	cancelSched()
	<-schedDone
	log.Info("stopped")
	return nil
}

// setPassword stores the broker password for the configured username in
// the platform keyring.
func setPassword(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.MQTT.Auth.Username == "" {
		return fmt.Errorf("mqtt.auth.username is not configured in %s", configPath)
	}

	if err := credentials.SetPassword(cfg.MQTT.Auth.Username); err != nil {
		return err
	}
	fmt.Printf("password stored for %s\n", cfg.MQTT.Auth.Username)
	return nil
}

// printSensors samples every configured source once and prints the
// topic and payload each reading would publish. Useful for checking a
// config before pointing the daemon at a broker.
func printSensors(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	identity, err := deviceIdentity(cfg)
	if err != nil {
		return err
	}

	mapper, err := telemetry.NewMapper(cfg.MQTT.TopicPrefix, identity, byte(cfg.MQTT.QoS), cfg.Telemetry.Policies)
	if err != nil {
		return err
	}

	collector, err := buildCollector(cfg)
	if err != nil {
		return err
	}
	defer collector.Close()

	for _, r := range collector.Collect(context.Background()) {
		b := mapper.Map(r)
		fmt.Printf("%s %s\n", b.Topic, b.Payload)
	}
	return nil
}

// deviceIdentity resolves the host identity, falling back to the
// system hostname.
func deviceIdentity(cfg *config.Config) (string, error) {
	if cfg.Device.Identity != "" {
		return cfg.Device.Identity, nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("resolving hostname: %w", err)
	}
	return hostname, nil
}

// buildCollector assembles the enabled sources in their publication order.
func buildCollector(cfg *config.Config) (*sensor.Collector, error) {
	var sources []sensor.Source

	if cfg.Telemetry.Sources.Battery.Enabled {
		sources = append(sources, sensor.NewBatterySource())
	}
	if cfg.Telemetry.Sources.System.Enabled {
		drives := make([]sensor.Drive, len(cfg.Telemetry.Sources.System.Drives))
		for i, d := range cfg.Telemetry.Sources.System.Drives {
			drives[i] = sensor.Drive{Path: d.Path, Name: d.Name}
		}
		sources = append(sources, sensor.NewSystemSource(drives, cfg.Telemetry.Sources.System.Interfaces))
	}
	if cfg.Telemetry.Sources.Sensors.Enabled {
		sources = append(sources, sensor.NewHwmonSource())
	}
	if cfg.Telemetry.Sources.Nvidia.Enabled {
		sources = append(sources, sensor.NewNvidiaSource())
	}

	return sensor.NewCollector(cfg.Telemetry.FailureThreshold, sources...)
}
