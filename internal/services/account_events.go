package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/nimeshabuddhika/account-service-go/configs"
	"github.com/nimeshabuddhika/account-service-go/internal/observability"
	"github.com/nimeshabuddhika/account-service-go/pkg"
	kafkautils "github.com/nimeshabuddhika/account-service-go/pkg/kafka"
	"github.com/nimeshabuddhika/account-service-go/pkg/views"
	"go.uber.org/zap"
)

// EventPublisher emits account lifecycle events after successful mutations.
// Publishing is best-effort; failures must never surface to the HTTP caller.
type EventPublisher interface {
	PublishAccountEvent(traceId string, eventType pkg.AccountEventType, account views.AccountResponse) error
	Close()
}

type KafkaEventPublisherImpl struct {
	logger   *zap.Logger
	producer *kafka.Producer
	cnf      *configs.Config
}

// NewKafkaEventPublisher initializes the account event topic and creates an idempotent producer.
func NewKafkaEventPublisher(logger *zap.Logger, ctx context.Context, cnf *configs.Config) EventPublisher {
	// Initialize Kafka topics
	topicConfig := kafkautils.KafkaConfig{
		BootstrapServers: cnf.KafkaBrokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cnf.KafkaAccountTopic,
				NumPartitions:     int(cnf.KafkaPartition),
				ReplicationFactor: 1,
				Config: map[string]string{
					"cleanup.policy": "delete",
					"retention.ms":   fmt.Sprintf("%d", cnf.KafkaEventRetention.Milliseconds()),
				},
			},
		},
	}
	err := kafkautils.InitKafkaTopics(logger, ctx, topicConfig)
	if err != nil {
		logger.Fatal("failed to initialize kafka topics", zap.Error(err))
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cnf.KafkaBrokers, // Kafka broker(s)
		"acks":               "all",            // Wait for all replicas
		"enable.idempotence": "true",           // Ensure messages are not sent twice
		"retries":            "1",              // Built-in retry mechanism
	})
	if err != nil {
		logger.Fatal("failed to create kafka producer", zap.Error(err))
	}
	logger.Info("kafka producer created successfully", zap.String("brokers", cnf.KafkaBrokers))
	go handleDeliveryReports(logger, p) // Async error handling
	return &KafkaEventPublisherImpl{
		logger:   logger,
		cnf:      cnf,
		producer: p,
	}
}

func (k KafkaEventPublisherImpl) PublishAccountEvent(traceId string, eventType pkg.AccountEventType, account views.AccountResponse) error {
	event := views.AccountEvent{
		Type:      eventType,
		TraceId:   traceId,
		Timestamp: time.Now().UTC(),
		Account:   account,
	}

	// Serialize the event payload to JSON for Kafka transport
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// Deterministic partitioning by account ID for per-account ordering
	partition := int32(uint64(account.ID) % uint64(k.cnf.KafkaPartition))

	// Produce the message asynchronously; delivery results are handled by handleDeliveryReports
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.cnf.KafkaAccountTopic,
			Partition: partition, // target partition for ordering/affinity
		},
		Key:   []byte(strconv.FormatInt(account.ID, 10)), // key for partitioning semantics
		Value: msgBytes,                                  // serialized event payload
	}, nil)
	if err != nil {
		observability.EventsFailed.WithLabelValues(k.cnf.KafkaAccountTopic, "enqueue").Inc()
		return err
	}
	observability.EventsPublished.WithLabelValues(string(eventType)).Inc()
	return nil
}

func (k KafkaEventPublisherImpl) Close() {
	k.producer.Close()
}

func handleDeliveryReports(logger *zap.Logger, p *kafka.Producer) {
	for e := range p.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				topic := ""
				if ev.TopicPartition.Topic != nil {
					topic = *ev.TopicPartition.Topic
				}
				observability.EventsFailed.WithLabelValues(topic, "delivery").Inc()
				logger.Error("failed to publish message", zap.Error(ev.TopicPartition.Error))
			}
		}
	}
}

// NoopEventPublisher is wired when no Kafka brokers are configured.
type NoopEventPublisher struct {
	logger *zap.Logger
}

func NewNoopEventPublisher(logger *zap.Logger) EventPublisher {
	return &NoopEventPublisher{logger: logger}
}

func (n *NoopEventPublisher) PublishAccountEvent(traceId string, eventType pkg.AccountEventType, account views.AccountResponse) error {
	n.logger.Debug("event_publishing_disabled",
		zap.String(pkg.TraceId, traceId),
		zap.String("type", string(eventType)),
		zap.Int64("account_id", account.ID),
	)
	return nil
}

func (n *NoopEventPublisher) Close() {}
