package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/k-shtanenko/ridership-api/internal/config"
	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

// KafkaPublisher writes dataset events to a topic, keyed by dataset version.
type KafkaPublisher struct {
	client   sarama.Client
	producer sarama.SyncProducer
	topic    string
	logger   logger.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log logger.Logger) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = "ridership-api"
	saramaConfig.Producer.RequiredAcks = sarama.RequiredAcks(cfg.RequiredAcks)
	saramaConfig.Producer.Retry.Max = cfg.MaxRetries
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Timeout = cfg.Timeout
	if saramaConfig.Producer.Timeout <= 0 {
		saramaConfig.Producer.Timeout = 5 * time.Second
	}

	client, err := sarama.NewClient(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}

	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	publisher := newKafkaPublisher(producer, cfg.Topic, log)
	publisher.client = client
	publisher.logger.Infof("Publishing dataset events to %s via %v", cfg.Topic, cfg.Brokers)
	return publisher, nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.Component(log, "kafka_publisher"),
	}
}

func (k *KafkaPublisher) PublishDatasetEvent(ctx context.Context, event entities.DatasetEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(event.Version),
		Value:     sarama.ByteEncoder(data),
		Timestamp: event.GeneratedAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	k.logger.WithFields(map[string]interface{}{
		"event":     event.Type,
		"version":   event.Version,
		"partition": partition,
		"offset":    offset,
	}).Debug("Published dataset event")
	return nil
}

func (k *KafkaPublisher) HealthCheck(ctx context.Context) error {
	if k.producer == nil {
		return errors.New("kafka producer is nil")
	}
	if k.client == nil {
		return nil
	}
	if k.client.Closed() {
		return errors.New("kafka client is closed")
	}
	if err := k.client.RefreshMetadata(k.topic); err != nil {
		return fmt.Errorf("kafka metadata refresh failed: %w", err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.producer == nil {
		return nil
	}
	if err := k.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	if k.client != nil && !k.client.Closed() {
		return k.client.Close()
	}
	return nil
}
