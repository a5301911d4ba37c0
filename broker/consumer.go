package broker

import (
	"context"
	"errors"
	"io"

	"github.com/ahmadzakiakmal/order-engine/cache"
	"github.com/ahmadzakiakmal/order-engine/config"
	"github.com/ahmadzakiakmal/order-engine/logger"
	"github.com/ahmadzakiakmal/order-engine/repository"
	"github.com/segmentio/kafka-go"
)

// Consumer ingests order aggregates from a Kafka topic and funnels them
// through the same persist-then-cache path as the HTTP API.
type Consumer struct {
	reader *kafka.Reader
	repo   *repository.Repository
	cache  *cache.OrderCache
	log    *logger.Logger
}

// NewConsumer creates a consumer for the configured broker and topic.
func NewConsumer(cfg config.Kafka, repo *repository.Repository, orderCache *cache.OrderCache, logg *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Broker},
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})

	return &Consumer{
		reader: reader,
		repo:   repo,
		cache:  orderCache,
		log:    logg.With("component", "consumer", "topic", cfg.Topic),
	}
}

// Run blocks reading messages until ctx is cancelled or the reader is
// closed. A bad message is logged and skipped; only cancellation stops the
// loop.
func (c *Consumer) Run(ctx context.Context) {
	c.log.Info("consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.log.Info("consumer stopped")
				return
			}
			c.log.Error("failed to read message", "err", err)
			continue
		}

		order, err := UnmarshalOrderMessage(msg.Value)
		if err != nil {
			c.log.Error("skipping malformed order message", "offset", msg.Offset, "err", err)
			continue
		}

		if dbErr := c.repo.SaveOrder(order); dbErr != nil {
			c.log.Error("failed to persist order", "order_uid", order.OrderUID, "code", dbErr.Code, "detail", dbErr.Detail)
			continue
		}

		c.cache.Append(*order)
		c.log.Info("order ingested", "order_uid", order.OrderUID, "offset", msg.Offset)
	}
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
