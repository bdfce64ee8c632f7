package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// ClientID, под которым POS-сервис представляется брокерам.
const producerClientID = "pos-outbox"

// Producer публикует события POS-сервиса в Kafka через sync producer.
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// NewProducer подключается к брокерам с идемпотентной конфигурацией публикации.
func NewProducer(brokers []string) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, producerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		logger:   log.WithField("component", "kafka-producer"),
	}, nil
}

// producerConfig включает идемпотентную публикацию: подтверждение от всех
// in-sync реплик, не более одного запроса в полёте и до пяти повторов.
func producerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = producerClientID
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	return config
}

// PublishEvent сериализует событие и отправляет его в topic. Тип события
// дублируется в заголовке сообщения, чтобы consumers могли фильтровать
// поток без разбора payload.
func (p *Producer) PublishEvent(topic, key, eventType string, event interface{}) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(eventData),
		Timestamp: time.Now().UTC(),
	}
	if eventType != "" {
		msg.Headers = []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(eventType)},
		}
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic":      topic,
			"key":        key,
			"event_type": eventType,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":      topic,
		"key":        key,
		"event_type": eventType,
		"partition":  partition,
		"offset":     offset,
	}).Debug("message sent to kafka")

	return nil
}

// Close закрывает producer
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}
