package crawllog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/tachi-protocol/crawlgate/internal/models"
	"github.com/tachi-protocol/crawlgate/pkg/logger"
)

// KafkaSink publishes crawl records to a Kafka topic so downstream
// consumers (billing, analytics) can follow paid crawls without touching
// the gateway's database. Best-effort like every crawl sink.
type KafkaSink struct {
	logger *logger.Logger
	writer *kafka.Writer
}

// NewKafkaSink creates a sink writing to the given brokers and topic.
func NewKafkaSink(brokers []string, topic string, logger *logger.Logger) *KafkaSink {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaSink{logger: logger, writer: writer}
}

// Append publishes one crawl record, keyed by its payment reference.
func (s *KafkaSink) Append(ctx context.Context, record *models.CrawlRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal crawl record: %w", err)
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.PaymentReference),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish crawl record: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
