package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rentify/service-booking/internal/application"
	"github.com/rentify/service-booking/internal/platform/apperror"
	"github.com/rentify/service-booking/internal/platform/kafka"
)

// CatalogUpserter stores catalog records.
type CatalogUpserter interface {
	UpsertFromCatalog(ctx context.Context, rec application.CatalogItem) error
}

// CatalogConsumer listens to the catalog feed and keeps local item records current.
type CatalogConsumer struct {
	consumer *kafka.Consumer
	service  CatalogUpserter
	logger   *zap.Logger
}

// NewCatalogConsumer creates a new CatalogConsumer.
func NewCatalogConsumer(
	brokers []string,
	groupID string,
	service CatalogUpserter,
	logger *zap.Logger,
) *CatalogConsumer {
	return &CatalogConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, TopicCatalogItems, logger),
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming catalog events. This blocks until the context is cancelled.
func (c *CatalogConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *CatalogConsumer) Close() error {
	return c.consumer.Close()
}

func (c *CatalogConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	ce, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from catalog topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch ce.Type {
	case CatalogItemUpserted:
		return c.handleItemUpserted(ctx, ce)
	default:
		c.logger.Debug("ignoring unhandled catalog event type", zap.String("type", ce.Type))
		return nil
	}
}

func (c *CatalogConsumer) handleItemUpserted(ctx context.Context, ce kafka.CloudEvent) error {
	var rec application.CatalogItem
	if err := ce.ParseData(&rec); err != nil {
		c.logger.Error("failed to parse item.upserted data", zap.Error(err))
		return nil
	}

	if err := c.service.UpsertFromCatalog(ctx, rec); err != nil {
		if apperror.IsValidation(err) {
			c.logger.Warn("rejected catalog record",
				zap.String("item_id", rec.ID.String()),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to upsert catalog item",
			zap.String("item_id", rec.ID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("catalog item synced", zap.String("item_id", rec.ID.String()))
	return nil
}
