// Package mqtt publishes session events to an MQTT broker. Publishing is
// optional; a disabled publisher accepts every call and does nothing.
package mqtt

import (
	"fmt"
	"log/slog"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// Config holds broker settings.
type Config struct {
	Enabled     bool
	Broker      string
	Port        int
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         int
	Retain      bool
}

const connectTimeout = 5 * time.Second

// Publisher sends session events to the broker.
type Publisher struct {
	cfg    Config
	log    *slog.Logger
	client MQTT.Client
}

func NewPublisher(cfg Config, log *slog.Logger) *Publisher {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "tracksmith"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "tracksmith-api"
	}
	return &Publisher{cfg: cfg, log: log}
}

// Connect establishes the broker connection. Disabled publishers return nil
// immediately.
func (p *Publisher) Connect() error {
	if !p.cfg.Enabled {
		p.log.Debug("mqtt publisher disabled")
		return nil
	}

	opts := MQTT.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", p.cfg.Broker, p.cfg.Port))
	opts.SetClientID(p.cfg.ClientID)
	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	p.client = MQTT.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("connect to mqtt broker %s:%d: timeout", p.cfg.Broker, p.cfg.Port)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to mqtt broker %s:%d: %w", p.cfg.Broker, p.cfg.Port, err)
	}

	p.log.Info("mqtt publisher connected", "broker", p.cfg.Broker, "port", p.cfg.Port)
	return nil
}

// PublishEvent sends one already-encoded event for the session.
func (p *Publisher) PublishEvent(sessionID string, payload []byte) error {
	if !p.cfg.Enabled || p.client == nil {
		return nil
	}
	topic := p.eventTopic(sessionID)
	token := p.client.Publish(topic, byte(p.cfg.QoS), p.cfg.Retain, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	return nil
}

func (p *Publisher) eventTopic(sessionID string) string {
	return fmt.Sprintf("%s/sessions/%s/events", p.cfg.TopicPrefix, sessionID)
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
