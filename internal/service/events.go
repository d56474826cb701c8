package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Skotchmaster/dulcehogar/internal/logging"
)

const (
	TopicCatalog = "catalog_events"
	TopicOrders  = "order_events"
	TopicUsers   = "user_events"
)

const sideEffectTimeout = 5 * time.Second

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// publish sends event after the surrounding transaction committed. Failures
// are logged and never reach the caller.
func publish(ctx context.Context, p Publisher, topic string, id uint, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := p.PublishEvent(ctx, topic, strconv.FormatUint(uint64(id), 10), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_error", "topic", topic, "type", event["type"], "error", err)
	}
}
