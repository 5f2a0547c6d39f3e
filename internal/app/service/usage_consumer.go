package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/danger-5344/templa-socialV2/internal/app/repository"
	metrics "github.com/danger-5344/templa-socialV2/internal/infra/prometheus"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	usageFetchBatch   = 10
	usageFetchMaxWait = 5 * time.Second
)

// UsageEventConsumer folds usage events from JetStream into the popularity ranking.
type UsageEventConsumer struct {
	js      nats.JetStreamContext
	logger  *zap.Logger
	repo    repository.PopularityRepository
	metrics *metrics.Metrics
}

// NewUsageEventConsumer creates a consumer for the usage stream.
func NewUsageEventConsumer(js nats.JetStreamContext, logger *zap.Logger, repo repository.PopularityRepository, m *metrics.Metrics) *UsageEventConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageEventConsumer{js: js, logger: logger, repo: repo, metrics: m}
}

// Start subscribes with the durable pull consumer and processes messages in
// the background until ctx is cancelled. The stream must already exist.
func (c *UsageEventConsumer) Start(ctx context.Context) error {
	if _, err := c.js.ConsumerInfo(model.UsageStreamName, model.UsageConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.UsageStreamName, &nats.ConsumerConfig{
			Durable:       model.UsageConsumerName,
			AckPolicy:     nats.AckExplicitPolicy,
			FilterSubject: model.UsageStreamSubject,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.UsageStreamSubject, model.UsageConsumerName, nats.Bind(model.UsageStreamName, model.UsageConsumerName))
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(ctx, sub)
	return nil
}

func (c *UsageEventConsumer) consume(ctx context.Context, sub *nats.Subscription) {
	defer func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			c.logger.Warn("failed to unsubscribe usage consumer", zap.Error(err))
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		msgs, err := sub.Fetch(usageFetchBatch, nats.MaxWait(usageFetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				return
			}
			c.logger.Error("failed to fetch usage events", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range msgs {
			c.handle(ctx, msg)
		}
	}
}

func (c *UsageEventConsumer) handle(ctx context.Context, msg *nats.Msg) {
	var event model.TemplateUsedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logger.Error("failed to unmarshal usage event", zap.Error(err))
		c.metrics.RecordUsageEvent("consume", err)
		// a malformed payload never becomes valid
		_ = msg.Term()
		return
	}

	applied, err := c.repo.Apply(ctx, event.ID, event.TemplateID)
	c.metrics.RecordUsageEvent("consume", err)
	if err != nil {
		c.logger.Error("failed to rank usage event",
			zap.String("id", event.ID),
			zap.Uint("template_id", event.TemplateID),
			zap.Error(err))
		_ = msg.Nak()
		return
	}

	c.logger.Debug("usage event ranked",
		zap.String("id", event.ID),
		zap.Uint("template_id", event.TemplateID),
		zap.String("user_id", event.UserID),
		zap.Bool("duplicate", !applied),
		zap.Time("timestamp", event.Timestamp),
	)
	_ = msg.Ack()
}
