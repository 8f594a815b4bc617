// Package publish forwards acquisition and finesse summaries to an MQTT broker.
package publish

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/hockijo/techconnect/internal/contract"
)

// Publishing defaults.
const (
	DefaultQoS        = 1
	DefaultWait       = 5 * time.Second
	disconnectQuiesce = 250 // milliseconds
)

// mqttClient is the part of mqtt.Client used by the publisher.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes JSON payloads to a broker.
type MQTTPublisher struct {
	client   mqttClient
	qos      byte
	retained bool
	wait     time.Duration
}

var _ contract.Publisher = &MQTTPublisher{} // Compile-time check

// NewMQTTPublisher connects to broker, for example tcp://localhost:1883.
func NewMQTTPublisher(broker, clientID string, wait time.Duration) (*MQTTPublisher, error) {
	if wait <= 0 {
		wait = DefaultWait
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(wait).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(wait) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("MQTT connect error: %w", err)
	}
	return newMQTTPublisher(client, wait), nil
}

func newMQTTPublisher(client mqttClient, wait time.Duration) *MQTTPublisher {
	return &MQTTPublisher{client: client, qos: DefaultQoS, retained: true, wait: wait}
}

// Publish marshals payload to JSON and waits for the broker to accept it.
func (p *MQTTPublisher) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	token := p.client.Publish(topic, p.qos, p.retained, data)
	if !token.WaitTimeout(p.wait) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(disconnectQuiesce)
}

// NoopPublisher discards every payload. It is used when no broker is configured.
type NoopPublisher struct{}

var _ contract.Publisher = NoopPublisher{} // Compile-time check

// Publish implements the Publisher interface.
func (NoopPublisher) Publish(string, any) error { return nil }

// Close implements the Publisher interface.
func (NoopPublisher) Close() {}

// New returns an MQTT publisher when a broker is configured and a NoopPublisher otherwise.
func New(cfg *contract.Config) (contract.Publisher, error) {
	if cfg.MQTTBroker == "" {
		return NoopPublisher{}, nil
	}
	return NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.Timeout)
}

// Topic joins the configured base topic with a message kind.
func Topic(base, kind string) string {
	return base + "/" + kind
}
