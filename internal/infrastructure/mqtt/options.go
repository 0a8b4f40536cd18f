package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/sysmqtt/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// disconnectQuiesce is how long Disconnect waits for in-flight
	// messages before dropping the connection, in milliseconds.
	disconnectQuiesce = 250
)

// buildOptions translates broker configuration into paho client options.
//
// Reconnection is handled by this package's own supervisor, so the
// library's automatic reconnect and connect retry are switched off. The
// connection lost handler feeds the supervisor instead.
//
// The availability topic doubles as the Last Will: if the process dies
// without a clean shutdown, the broker publishes the offline payload on
// its behalf.
func buildOptions(cfg config.MQTTConfig, password string, avail Availability, onLost pahomqtt.ConnectionLostHandler) (*pahomqtt.ClientOptions, error) {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"

		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
		if cfg.Broker.CACert != "" {
			pem, err := os.ReadFile(cfg.Broker.CACert)
			if err != nil {
				return nil, fmt.Errorf("reading CA certificate: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("no certificates found in %s", cfg.Broker.CACert)
			}
			tlsCfg.RootCAs = pool
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))

	clientID := cfg.Broker.ClientID
	if clientID == "" {
		clientID = "sysmqtt"
	}
	opts.SetClientID(clientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(false)
	opts.SetConnectionLostHandler(onLost)

	opts.SetWill(avail.Topic, avail.OfflinePayload, avail.QoS, true)

	return opts, nil
}
