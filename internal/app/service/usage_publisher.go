package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// UsageEventPublisher publishes template usage events to NATS JetStream.
type UsageEventPublisher struct {
	js nats.JetStreamContext
}

// NewUsageEventPublisher creates a publisher on the usage stream subject.
func NewUsageEventPublisher(js nats.JetStreamContext) *UsageEventPublisher {
	return &UsageEventPublisher{js: js}
}

// Publish stamps the event with an id (used for de-duplication downstream)
// and a timestamp when missing.
func (p *UsageEventPublisher) Publish(ctx context.Context, event model.TemplateUsedEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.UsageStreamSubject, data, nats.Context(ctx), nats.MsgId(event.ID))
	return err
}
