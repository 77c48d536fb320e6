package kafka

import (
	"context"
	"log"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

// Start blocks, handing each raw message to the handler. Handler errors are
// logged and the loop keeps going.
func (c *Consumer) Start(ctx context.Context, handler func(key, value []byte) error) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("kafka read error: %v", err)
			continue
		}
		if err := handler(msg.Key, msg.Value); err != nil {
			log.Printf("kafka handler error on %s: %v", c.reader.Config().Topic, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
