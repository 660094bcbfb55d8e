package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dvmgo/dvmfne/pkg/logger"
)

// Config holds MQTT publisher configuration
type Config struct {
	Enabled     bool
	Broker      string
	TopicPrefix string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
	Retained    bool
}

// Publisher handles MQTT event publishing
type Publisher struct {
	config Config
	log    *logger.Logger
}

// Event types for MQTT publishing

// PeerConnectEvent represents a peer connection event
type PeerConnectEvent struct {
	PeerID    uint32    `json:"peer_id"`
	Callsign  string    `json:"callsign"`
	Timestamp time.Time `json:"timestamp"`
}

// PeerDisconnectEvent represents a peer disconnection event
type PeerDisconnectEvent struct {
	PeerID    uint32    `json:"peer_id"`
	Callsign  string    `json:"callsign"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// TrafficEvent represents DMR traffic
type TrafficEvent struct {
	SourceID  uint32    `json:"source_id"`
	DestID    uint32    `json:"dest_id"`
	Timeslot  uint8     `json:"timeslot"`
	StreamID  uint32    `json:"stream_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BridgeEvent represents a bridge state change
type BridgeEvent struct {
	BridgeName string    `json:"bridge_name"`
	System     string    `json:"system"`
	TGID       uint32    `json:"tgid"`
	Timeslot   uint8     `json:"timeslot"`
	Active     bool      `json:"active"`
	Timestamp  time.Time `json:"timestamp"`
}

// New creates a new MQTT publisher
func New(config Config, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.New(logger.Config{Level: "info", Format: "text"})
	}
	
	return &Publisher{
		config: config,
		log:    log.WithComponent("mqtt"),
	}
}

// Start starts the MQTT publisher
func (p *Publisher) Start(ctx context.Context) error {
	if !p.config.Enabled {
		p.log.Info("MQTT publisher disabled")
		return nil
	}

	p.log.Info("Starting MQTT publisher",
		logger.String("broker", p.config.Broker),
		logger.String("client_id", p.config.ClientID))

	// TODO: Implement actual MQTT connection when paho.mqtt library is added
	// For now, this is a no-op stub that allows the application to start
	p.log.Warn("MQTT connection not yet implemented - events will not be published")
	
	return nil
}

// Stop stops the MQTT publisher
func (p *Publisher) Stop() {
	if !p.config.Enabled {
		return
	}

	p.log.Info("Stopping MQTT publisher")
	// TODO: Disconnect MQTT client when implemented
}

// PublishPeerConnect publishes a peer connection event
func (p *Publisher) PublishPeerConnect(event PeerConnectEvent) error {
	if !p.config.Enabled {
		return nil
	}

	topic := p.formatTopic("peers/connect")
	return p.publish(topic, event)
}

// PublishPeerDisconnect publishes a peer disconnection event
func (p *Publisher) PublishPeerDisconnect(event PeerDisconnectEvent) error {
	if !p.config.Enabled {
		return nil
	}

	topic := p.formatTopic("peers/disconnect")
	return p.publish(topic, event)
}

// PublishTraffic publishes a traffic event
func (p *Publisher) PublishTraffic(event TrafficEvent) error {
	if !p.config.Enabled {
		return nil
	}

	topic := p.formatTopic("traffic")
	return p.publish(topic, event)
}

// PublishBridgeChange publishes a bridge state change event
func (p *Publisher) PublishBridgeChange(event BridgeEvent) error {
	if !p.config.Enabled {
		return nil
	}

	topic := p.formatTopic("bridges/change")
	return p.publish(topic, event)
}

// publish serializes an event for a topic and logs it at debug level;
// no broker connection exists, so nothing is sent
func (p *Publisher) publish(topic string, event interface{}) error {
	payload, err := p.serializeEvent(event)
	if err != nil {
		p.log.Error("Failed to serialize event",
			logger.String("topic", topic),
			logger.Error(err))
		return err
	}

	// TODO: Implement actual MQTT publish when paho.mqtt library is added
	p.log.Debug("Would publish MQTT event",
		logger.String("topic", topic),
		logger.Int("payload_size", len(payload)))

	return nil
}

// serializeEvent serializes an event to JSON
func (p *Publisher) serializeEvent(event interface{}) ([]byte, error) {
	return json.Marshal(event)
}

// formatTopic formats a topic with the configured prefix
func (p *Publisher) formatTopic(suffix string) string {
	prefix := strings.TrimSuffix(p.config.TopicPrefix, "/")
	if prefix == "" {
		return suffix
	}
	return fmt.Sprintf("%s/%s", prefix, suffix)
}
