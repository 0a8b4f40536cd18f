// Package config handles loading and validating sysmqtt configuration.
//
// This package manages:
//   - Loading configuration from a YAML file
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The broker password is not stored in the file; a password source
//     (keyring, secret file, or plaintext) is configured instead
//   - The config file should have restricted permissions (0600)
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load; no hot reload
//
// Usage:
//
//	cfg, err := config.Load("/etc/sysmqtt.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Broker.Host)
package config
