package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

type MQTTOptions struct {
	Broker   string
	Port     int
	Topic    string
	ClientID string
}

// MQTTMessage is the payload published for each post.
type MQTTMessage struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	AltText  string    `json:"alt_text,omitempty"`
	Image    []byte    `json:"image,omitempty"`
	PostedAt time.Time `json:"posted_at"`
}

// MQTT publishes posts to a broker topic for home-automation displays.
type MQTT struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
	now    func() time.Time
}

func NewMQTT(opts MQTTOptions, logger *slog.Logger) *MQTT {
	if logger == nil {
		logger = slog.Default()
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Broker, opts.Port))
	co.SetClientID(opts.ClientID)
	co.SetCleanSession(true)
	co.SetAutoReconnect(false)
	co.SetConnectTimeout(10 * time.Second)
	co.SetKeepAlive(30 * time.Second)
	co.SetPingTimeout(10 * time.Second)

	co.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", opts.Broker, "port", opts.Port)
	})
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	return newMQTTWithClient(mqtt.NewClient(co), opts.Topic, logger)
}

func newMQTTWithClient(client mqtt.Client, topic string, logger *slog.Logger) *MQTT {
	return &MQTT{client: client, topic: topic, logger: logger, now: time.Now}
}

func (m *MQTT) Name() string {
	return "mqtt"
}

func (m *MQTT) Post(ctx context.Context, text string, image []byte, altText string) error {
	if !m.client.IsConnected() {
		if err := wait(ctx, m.client.Connect()); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
	}

	payload, err := json.Marshal(MQTTMessage{
		ID:       uuid.NewString(),
		Text:     text,
		AltText:  altText,
		Image:    image,
		PostedAt: m.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("mqtt: encoding message: %w", err)
	}

	// At least once delivery, retained so late subscribers see the latest post.
	if err := wait(ctx, m.client.Publish(m.topic, 1, true, payload)); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", m.topic, err)
	}
	m.logger.Debug("mqtt message published", "topic", m.topic, "bytes", len(payload))
	return nil
}

// Close disconnects, allowing in-flight work a short grace period.
func (m *MQTT) Close() {
	if m.client.IsConnected() {
		m.client.Disconnect(250)
	}
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
