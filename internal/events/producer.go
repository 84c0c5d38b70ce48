// Package events publishes one message per state-machine transition to
// Kafka, for spectators and external tooling — nothing in the engine reads
// it back.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// ProducerConfig holds Kafka producer configuration.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	MaxRetries   int
	RetryBackoff time.Duration
	RequiredAcks sarama.RequiredAcks
}

// KafkaPublisher implements engine.EventPublisher.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   zerolog.Logger

	mu    sync.Mutex
	stats ProducerStats
}

// ProducerStats tracks delivery counts for diagnostics.
type ProducerStats struct {
	MessagesSent   int64
	MessagesFailed int64
}

// GameEvent is the message format published to Kafka.
type GameEvent struct {
	EventType string         `json:"eventType"`
	GameID    string         `json:"gameId"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewKafkaPublisher creates a synchronous Kafka publisher.
func NewKafkaPublisher(cfg ProducerConfig, logger zerolog.Logger) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.Retry.Max = cfg.MaxRetries
	saramaConfig.Producer.Retry.Backoff = cfg.RetryBackoff
	saramaConfig.Producer.RequiredAcks = cfg.RequiredAcks

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &KafkaPublisher{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger.With().Str("component", "events").Logger(),
	}, nil
}

// Publish implements engine.EventPublisher. Delivery failures are logged,
// never propagated — a spectator feed outage must not stall the hand.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, gameID string, payload map[string]any) {
	evt := GameEvent{EventType: eventType, GameID: gameID, Payload: payload, Timestamp: time.Now()}

	data, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error().Err(err).Str("event", eventType).Msg("marshal game event failed")
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(gameID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(eventType)},
		},
		Timestamp: evt.Timestamp,
	}

	_, _, err = p.producer.SendMessage(msg)

	p.mu.Lock()
	if err != nil {
		p.stats.MessagesFailed++
	} else {
		p.stats.MessagesSent++
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn().Err(err).Str("event", eventType).Str("game", gameID).Msg("publish game event failed")
	}
}

// Stats returns a snapshot of the delivery counters.
func (p *KafkaPublisher) Stats() ProducerStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Close flushes and closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
