package mqttpub

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ClientConfig holds broker connection settings.
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	Retain   bool
}

// Transport is the publishing side of a broker connection.
type Transport interface {
	Publish(topic string, payload []byte) error
	Close()
}

// PahoTransport publishes through an eclipse paho client.
type PahoTransport struct {
	client mqtt.Client
	qos    byte
	retain bool
	logger *slog.Logger
}

// Connect dials the broker and waits for the first connection.
func Connect(cfg ClientConfig, logger *slog.Logger) (*PahoTransport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mqtt", "broker", cfg.Broker)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "err", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}
	return &PahoTransport{client: client, qos: cfg.QoS, retain: cfg.Retain, logger: logger}, nil
}

func (t *PahoTransport) Publish(topic string, payload []byte) error {
	token := t.client.Publish(topic, t.qos, t.retain, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (t *PahoTransport) Close() {
	t.client.Disconnect(250)
	t.logger.Info("mqtt disconnected")
}
