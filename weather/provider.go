// Package weather keeps the latest field conditions from the SAHOOL IoT feed
// so a scouting session can be stamped with a weather snapshot at start time.
package weather

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/kafaat/sahool-scouting/config"
	"github.com/kafaat/sahool-scouting/domain"
)

// reading is the sensor payload published per field.
type reading struct {
	TemperatureC float64 `json:"temperatureC"`
	Humidity     float64 `json:"humidity"`
	WindKph      float64 `json:"windKph"`
	Condition    string  `json:"condition"`
	RecordedAt   string  `json:"recordedAt"`
}

// Provider subscribes to per-field weather topics and serves the most recent
// snapshot. Readings older than maxAge are not attached to sessions.
type Provider struct {
	cfg    config.MQTTConfig
	client mqtt.Client
	logger *zap.Logger
	maxAge time.Duration

	mu     sync.RWMutex
	latest map[string]domain.WeatherSnapshot
}

// NewProvider connects to the broker and returns a provider ready to
// subscribe. A broker failure is an error: embedders without a feed simply
// pass a nil provider to the facade.
func NewProvider(cfg config.MQTTConfig, logger *zap.Logger) (*Provider, error) {
	opts := mqtt.NewClientOptions()
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

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Provider{
		cfg:    cfg,
		client: client,
		logger: logger,
		maxAge: 30 * time.Minute,
		latest: make(map[string]domain.WeatherSnapshot),
	}, nil
}

// Watch subscribes to the weather topic of one field.
func (p *Provider) Watch(fieldID string) error {
	topic := fmt.Sprintf(p.cfg.TopicPattern, fieldID)
	token := p.client.Subscribe(topic, p.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		p.handle(fieldID, msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, token.Error())
	}
	return nil
}

func (p *Provider) handle(fieldID string, payload []byte) {
	var r reading
	if err := json.Unmarshal(payload, &r); err != nil {
		p.logger.Warn("weather: bad payload", zap.String("field_id", fieldID), zap.Error(err))
		return
	}
	recordedAt := time.Now().UTC()
	if r.RecordedAt != "" {
		if ts, err := time.Parse(time.RFC3339, r.RecordedAt); err == nil {
			recordedAt = ts
		}
	}
	snap := domain.WeatherSnapshot{
		TemperatureC: r.TemperatureC,
		Humidity:     r.Humidity,
		WindKph:      r.WindKph,
		Condition:    r.Condition,
		RecordedAt:   recordedAt,
	}
	p.mu.Lock()
	p.latest[fieldID] = snap
	p.mu.Unlock()
}

// Snapshot returns the latest reading for a field, if fresh enough.
func (p *Provider) Snapshot(fieldID string) (*domain.WeatherSnapshot, bool) {
	p.mu.RLock()
	snap, ok := p.latest[fieldID]
	p.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(snap.RecordedAt) > p.maxAge {
		return nil, false
	}
	return &snap, true
}

// Close disconnects from the broker.
func (p *Provider) Close() {
	p.client.Disconnect(250)
}
