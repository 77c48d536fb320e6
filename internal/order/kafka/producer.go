package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-marketplace/internal/config"
	"ms-marketplace/internal/models"
)

// Producer streams order lifecycle events to Kafka. Downstream consumers
// (email notifier, search indexing, admin feeds) pick them up from there;
// the ledger itself only logs publish failures.
type Producer struct {
	writers map[string]*kafka.Writer
	topics  config.TopicConfig
}

func NewProducer(brokers []string, topics config.TopicConfig) *Producer {
	writerFor := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   topic,
		})
	}
	return &Producer{
		topics: topics,
		writers: map[string]*kafka.Writer{
			topics.OrderCreated:   writerFor(topics.OrderCreated),
			topics.OrderUpdated:   writerFor(topics.OrderUpdated),
			topics.OrderCancelled: writerFor(topics.OrderCancelled),
			topics.OrderCompleted: writerFor(topics.OrderCompleted),
		},
	}
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.writers[topic].WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) PublishOrderCreated(o models.OrderWithItems) error {
	return p.publish(p.topics.OrderCreated, o.OrderID, o)
}

func (p *Producer) PublishOrderUpdated(o models.Order) error {
	return p.publish(p.topics.OrderUpdated, o.OrderID, o)
}

func (p *Producer) PublishOrderCancelled(o models.Order) error {
	return p.publish(p.topics.OrderCancelled, o.OrderID, o)
}

func (p *Producer) PublishOrderCompleted(o models.Order) error {
	return p.publish(p.topics.OrderCompleted, o.OrderID, o)
}

func (p *Producer) Close() error {
	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Noop stands in for Producer when Kafka is disabled. Publishes succeed
// without sending anything, so the order flow keeps working broker-less.
type Noop struct{}

func (Noop) PublishOrderCreated(models.OrderWithItems) error { return nil }
func (Noop) PublishOrderUpdated(models.Order) error          { return nil }
func (Noop) PublishOrderCancelled(models.Order) error        { return nil }
func (Noop) PublishOrderCompleted(models.Order) error        { return nil }
func (Noop) Close() error                                    { return nil }
