package projector

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	kafkax "github.com/MoatazNegm/NexusERP-sub001/internal/kafka"
	"github.com/MoatazNegm/NexusERP-sub001/internal/lifecycle"
	"github.com/MoatazNegm/NexusERP-sub001/internal/redisx"
)

// statusCache is the write side of the status cache. *redis.Client
// satisfies it.
type statusCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Service projects lifecycle events into the redis status cache so
// downstream readers see the latest status without touching Postgres.
type Service struct {
	Redis statusCache
}

// Handle processes one message; a nil return commits the offset. Event
// types without a status to project are skipped, a payload that does not
// decode is an error so the message is retried.
func (s *Service) Handle(ctx context.Context, m kafka.Message) error {
	var env lifecycle.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	switch env.EventType {
	case lifecycle.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[lifecycle.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.project(ctx, p.OrderID, lifecycle.StatusLogged, env.OccurredAt)
	case lifecycle.EventStatusChanged:
		p, err := kafkax.UnwrapPayload[lifecycle.StatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.project(ctx, p.OrderID, p.NewStatus, env.OccurredAt)
	case lifecycle.EventPaymentRecorded, lifecycle.EventPaymentCancelled:
		p, err := kafkax.UnwrapPayload[lifecycle.PaymentPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.project(ctx, p.OrderID, p.NewStatus, env.OccurredAt)
	}
	return nil
}

func (s *Service) project(ctx context.Context, orderID string, status lifecycle.Status, at time.Time) error {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	body := map[string]any{"status": status, "updated_at": at}
	return s.Redis.Set(ctx, key, kafkax.MustMarshal(body), redisx.TTLStatusCache).Err()
}
