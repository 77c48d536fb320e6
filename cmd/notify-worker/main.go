package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"ms-marketplace/internal/config"
	"ms-marketplace/internal/kafka"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/notify"

	"github.com/joho/godotenv"
)

// notify-worker consumes order lifecycle events and sends email digests to
// the operations inbox. Delivery to buyers and sellers happens in-app; this
// worker covers the out-of-band channel.
func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting notify worker")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	if !cfg.Kafka.Enabled {
		log.Fatal("KAFKA", "Kafka is disabled, nothing to consume")
	}

	mailer := notify.NewMailer(cfg.Email)
	opsInbox := os.Getenv("OPS_EMAIL")

	if !mailer.Enabled() || opsInbox == "" {
		log.Warn("EMAIL", "SMTP or OPS_EMAIL not configured, running in log-only mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subjects := map[string]string{
		cfg.Kafka.Topics.OrderCreated:   "New order placed",
		cfg.Kafka.Topics.OrderUpdated:   "Order status changed",
		cfg.Kafka.Topics.OrderCancelled: "Order cancelled",
		cfg.Kafka.Topics.OrderCompleted: "Order completed",
	}

	var wg sync.WaitGroup
	var consumers []*kafka.Consumer

	for topic, subject := range subjects {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, cfg.Kafka.GroupID)
		consumers = append(consumers, consumer)

		wg.Add(1)
		go func(topic, subject string, consumer *kafka.Consumer) {
			defer wg.Done()
			log.Info("KAFKA", fmt.Sprintf("Consuming topic %s", topic))
			consumer.Start(ctx, func(key, value []byte) error {
				return handleEvent(log, mailer, opsInbox, subject, key, value)
			})
		}(topic, subject, consumer)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Notify worker started, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, stopping consumers")
	cancel()
	for _, c := range consumers {
		if err := c.Close(); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Consumer close error: %v", err))
		}
	}
	wg.Wait()
	log.Info("APP", "✅ Notify worker shutdown complete")
}

func handleEvent(log *logger.Logger, mailer *notify.Mailer, opsInbox, subject string, key, value []byte) error {
	var order models.Order
	if err := json.Unmarshal(value, &order); err != nil {
		return fmt.Errorf("failed to decode order event %s: %w", string(key), err)
	}

	body := fmt.Sprintf(
		"Order %s (%s)\nBuyer: %s\nSeller: %s\nStatus: %s\nTotal: %.2f",
		order.OrderNumber, order.OrderID, order.BuyerID, order.SellerID, order.Status, order.Total,
	)
	log.Info("EMAIL", fmt.Sprintf("%s: order %s now %s", subject, order.OrderID, order.Status))

	if !mailer.Enabled() || opsInbox == "" {
		return nil
	}
	if err := mailer.Send(opsInbox, fmt.Sprintf("%s: %s", subject, order.OrderNumber), body); err != nil {
		log.Error("EMAIL", fmt.Sprintf("Failed to send email for order %s: %v", order.OrderID, err))
	}
	return nil
}
