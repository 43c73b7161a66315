package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"soundpost-data/internal/config"
	"soundpost-data/internal/service"
)

const handlerTimeout = 10 * time.Second

// Bridge feeds MQTT telemetry through the same ingestion pipeline as the
// HTTP endpoint. Devices publish to telemetry/<device-id>/<device-key>,
// so credentials ride in the topic instead of headers; everything after
// authentication is identical.
type Bridge struct {
	client paho.Client
	cfg    *config.MQTTConfig
	ingest *service.IngestService
	logger *zap.Logger
}

func NewBridge(cfg *config.MQTTConfig, ingest *service.IngestService, logger *zap.Logger) *Bridge {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Info("mqtt connected", zap.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	return &Bridge{
		client: paho.NewClient(opts),
		cfg:    cfg,
		ingest: ingest,
		logger: logger,
	}
}

// Start connects and subscribes. The subscription stays active until
// Stop; message handling runs on paho's dispatch goroutines.
func (b *Bridge) Start() error {
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	if token := b.client.Subscribe(b.cfg.Topic, 1, b.handleMessage); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", b.cfg.Topic, token.Error())
	}
	b.logger.Info("mqtt bridge subscribed", zap.String("topic", b.cfg.Topic))
	return nil
}

func (b *Bridge) Stop() {
	if b.client.IsConnected() {
		if token := b.client.Unsubscribe(b.cfg.Topic); token.Wait() && token.Error() != nil {
			b.logger.Warn("mqtt unsubscribe failed", zap.Error(token.Error()))
		}
		b.client.Disconnect(250)
	}
}

func (b *Bridge) handleMessage(_ paho.Client, msg paho.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	deviceID, deviceKey, err := splitCredentialTopic(msg.Topic())
	if err != nil {
		b.logger.Warn("mqtt message on malformed topic", zap.String("topic", msg.Topic()))
		return
	}

	auth, err := b.ingest.Authenticate(ctx, deviceID, deviceKey)
	if err != nil {
		// Same rejection reasons as HTTP 401; there is no channel to tell
		// the device, so the log line is the only trace.
		b.logger.Warn("mqtt message rejected",
			zap.String("device_id", deviceID),
			zap.Error(err))
		return
	}

	result, err := b.ingest.Ingest(ctx, auth, msg.Payload())
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			b.logger.Warn("mqtt payload rejected",
				zap.String("device_id", deviceID),
				zap.String("reason", vErr.Message))
			return
		}
		b.logger.Error("mqtt ingest failed",
			zap.String("device_id", deviceID),
			zap.Error(err))
		return
	}

	b.logger.Info("mqtt message ingested",
		zap.String("device_id", deviceID),
		zap.String("kind", result.Kind.String()),
		zap.Int64("id", result.ID))
}

// splitCredentialTopic parses telemetry/<device-id>/<device-key>. Exactly
// three levels; empty levels are malformed.
func splitCredentialTopic(topic string) (deviceID, deviceKey string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("unexpected topic shape: %q", topic)
	}
	return parts[1], parts[2], nil
}
