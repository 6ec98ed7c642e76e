package sweep

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/MoatazNegm/NexusERP-sub001/internal/kafka"
	"github.com/MoatazNegm/NexusERP-sub001/internal/lifecycle"
	"github.com/MoatazNegm/NexusERP-sub001/internal/redisx"
)

// Service is the periodic SLA/compliance sweep. Evaluation itself is a
// pure function of stored data; this worker only schedules it, caches
// snapshots and emits one breach event per order+status window.
type Service struct {
	Repo           *lifecycle.Repo
	Redis          *redis.Client
	ProducerBreach *kafkax.Producer // publishes order.sla.breached
	ProducerFlag   *kafkax.Producer // publishes order.compliance.flagged
	Settings       lifecycle.Settings
	ServiceName    string
}

// Run sweeps on every tick until the context is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Sweep(ctx, time.Now().UTC()); err != nil {
				log.Printf("sweep: %v", err)
			}
		}
	}
}

// Sweep evaluates every active order once at the given instant.
func (s *Service) Sweep(ctx context.Context, now time.Time) error {
	orders, err := s.Repo.ListActiveOrders(ctx)
	if err != nil {
		return err
	}
	for _, o := range orders {
		ev := lifecycle.EvaluateSLA(o, now, s.Settings)
		if ev.Tracked {
			s.cacheSnapshot(ctx, o, ev)
		}
		if ev.Breached {
			s.publishBreach(ctx, o, ev)
		}
		if lifecycle.LoggingDelayViolated(o, s.Settings) {
			s.publishComplianceFlag(ctx, o)
		}
	}
	return nil
}

type slaSnapshot struct {
	OrderID     string  `json:"order_id"`
	Status      string  `json:"status"`
	LimitHours  float64 `json:"limit_hours"`
	Remaining   string  `json:"remaining"`
	Breached    bool    `json:"breached"`
	EvaluatedAt string  `json:"evaluated_at"`
}

func (s *Service) cacheSnapshot(ctx context.Context, o *lifecycle.Order, ev lifecycle.SLAEvaluation) {
	key := fmt.Sprintf(redisx.KeySLASnapshot, o.ID)
	snap := slaSnapshot{
		OrderID:     o.ID,
		Status:      string(o.Status),
		LimitHours:  ev.LimitHours,
		Remaining:   lifecycle.FormatDuration(ev.Magnitude()),
		Breached:    ev.Breached,
		EvaluatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_ = s.Redis.Set(ctx, key, kafkax.MustMarshal(snap), redisx.TTLSLASnapshot).Err()
}

func (s *Service) publishBreach(ctx context.Context, o *lifecycle.Order, ev lifecycle.SLAEvaluation) {
	// one event per order+status window; a re-entered status re-arms it
	dkey := fmt.Sprintf(redisx.KeyBreachDedup, o.ID, o.Status)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLBreachDedup).Err()

	env := lifecycle.Envelope{
		EventID:       uuid.NewString(),
		EventType:     lifecycle.EventSLABreached,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(lifecycle.SLABreachedPayload{
			OrderID:    o.ID,
			Number:     o.Number,
			Status:     o.Status,
			LimitHours: ev.LimitHours,
			OverdueBy:  lifecycle.FormatDuration(ev.Magnitude()),
		}),
	}
	s.ProducerBreach.Publish(lifecycle.PartitionKey(o.ID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(lifecycle.EventSLABreached)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishComplianceFlag(ctx context.Context, o *lifecycle.Order) {
	dkey := fmt.Sprintf(redisx.KeyComplianceDedup, o.ID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLBreachDedup).Err()

	delay := o.EnteredAt.Sub(o.ReceivedAt).Hours()
	env := lifecycle.Envelope{
		EventID:       uuid.NewString(),
		EventType:     lifecycle.EventComplianceFlag,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(lifecycle.ComplianceFlagPayload{
			OrderID:  o.ID,
			Number:   o.Number,
			DelayHrs: delay,
		}),
	}
	s.ProducerFlag.Publish(lifecycle.PartitionKey(o.ID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(lifecycle.EventComplianceFlag)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
