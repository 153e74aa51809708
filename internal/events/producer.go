package events

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/opsboard/internal/kpi"
	"github.com/chrisdamba/opsboard/internal/models"
)

// Publisher emits the dashboard's operational events. The Kafka-backed
// implementation is optional; the no-op one keeps call sites unconditional.
type Publisher interface {
	SnapshotComputed(snapshot kpi.Snapshot) error
	PredictionMade(input map[string]float64, prediction int) error
	Close() error
}

// NoopPublisher is used when Kafka output is disabled.
type NoopPublisher struct{}

func (NoopPublisher) SnapshotComputed(kpi.Snapshot) error          { return nil }
func (NoopPublisher) PredictionMade(map[string]float64, int) error { return nil }
func (NoopPublisher) Close() error                                 { return nil }

// KafkaPublisher sends snapshot and prediction events through a Sarama
// sync producer.
type KafkaPublisher struct {
	producer      sarama.SyncProducer
	snapshotTopic string
	predictTopic  string
}

// NewPublisher returns a KafkaPublisher when Kafka output is enabled in
// the config, otherwise a NoopPublisher.
func NewPublisher(cfg *models.Config) (Publisher, error) {
	if !cfg.KafkaEnabled {
		return NoopPublisher{}, nil
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // Must be true for SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	brokerList := strings.Split(cfg.KafkaBrokers, ",")

	producer, err := sarama.NewSyncProducer(brokerList, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	log.Printf("Sarama producer created successfully with brokers %v", brokerList)
	return &KafkaPublisher{
		producer:      producer,
		snapshotTopic: cfg.SnapshotTopic,
		predictTopic:  cfg.PredictTopic,
	}, nil
}

func (k *KafkaPublisher) SnapshotComputed(snapshot kpi.Snapshot) error {
	payload := map[string]interface{}{
		"total_orders":    snapshot.TotalOrders,
		"total_revenue":   snapshot.TotalRevenue,
		"late_percentage": nanToNil(snapshot.LatePercentage),
		"computed_at":     snapshot.ComputedAt,
	}
	return k.send(k.snapshotTopic, payload)
}

func (k *KafkaPublisher) PredictionMade(input map[string]float64, prediction int) error {
	payload := map[string]interface{}{
		"input":      input,
		"prediction": prediction,
		"made_at":    time.Now().UTC(),
	}
	return k.send(k.predictTopic, payload)
}

func (k *KafkaPublisher) send(topic string, payload interface{}) error {
	msg, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		log.Printf("Failed to send message to topic %s: %v", topic, err)
		return err
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}

// nanToNil keeps the no-data sentinel out of JSON, which cannot carry NaN.
func nanToNil(v float64) interface{} {
	if v != v {
		return nil
	}
	return v
}
