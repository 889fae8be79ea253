package producer

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"

	"github.com/devfong/cinema-gate/pkg/logger"
)

// EventProducer publishes lifecycle events keyed by movie id so all
// events for one movie land on the same partition in order.
type EventProducer interface {
	Publish(ctx context.Context, topic, movieID string, event interface{})
	Close() error
}

type kafkaEventProducer struct {
	producer sarama.SyncProducer
	l        logger.Logger
}

func NewKafkaEventProducer(p sarama.SyncProducer, l logger.Logger) EventProducer {
	return &kafkaEventProducer{
		producer: p,
		l:        l,
	}
}

func (p *kafkaEventProducer) Publish(ctx context.Context, topic, movieID string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "kafkaEventProducer.Publish: marshal: %v", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(movieID),
		Value: sarama.ByteEncoder(payload),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		p.l.Errorf(ctx, "kafkaEventProducer.Publish: topic %s: %v", topic, err)
		return
	}

	p.l.Debugf(ctx, "Published event to %s for movie %s", topic, movieID)
}

func (p *kafkaEventProducer) Close() error {
	return p.producer.Close()
}

// noopEventProducer stands in when Kafka is disabled.
type noopEventProducer struct{}

func NewNoopEventProducer() EventProducer {
	return noopEventProducer{}
}

func (noopEventProducer) Publish(ctx context.Context, topic, movieID string, event interface{}) {}

func (noopEventProducer) Close() error { return nil }
