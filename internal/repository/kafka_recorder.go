package repository

import (
	"context"
	"fmt"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	pkgkafka "TrendCast/pkg/kafka"
)

// KafkaRecorder publishes served predictions to a Kafka topic, keyed by
// instrument so one instrument's history stays in one partition.
type KafkaRecorder struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaRecorder(producer *pkgkafka.Producer, topic string) *KafkaRecorder {
	return &KafkaRecorder{producer: producer, topic: topic}
}

func (r *KafkaRecorder) Record(ctx context.Context, p *models.Prediction) error {
	if err := r.producer.Publish(ctx, r.topic, []byte(p.Instrument), p); err != nil {
		return fmt.Errorf("publish prediction: %w", err)
	}
	return nil
}

func (r *KafkaRecorder) Close() error {
	return r.producer.Close()
}

var _ domrepo.Recorder = (*KafkaRecorder)(nil)
