package projector

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	kafkax "github.com/MoatazNegm/NexusERP-sub001/internal/kafka"
	"github.com/MoatazNegm/NexusERP-sub001/internal/lifecycle"
)

type fakeCache struct {
	values map[string]string
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func envelopeMsg(t *testing.T, eventType string, payload any) kafka.Message {
	t.Helper()
	env := lifecycle.Envelope{
		EventID:    "ev-1",
		EventType:  eventType,
		OccurredAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Producer:   "lifecycle-api",
		Payload:    kafkax.MustMarshal(payload),
	}
	return kafka.Message{Value: kafkax.MustMarshal(env)}
}

func TestHandleProjectsStatusChange(t *testing.T) {
	cache := &fakeCache{values: map[string]string{}}
	svc := &Service{Redis: cache}

	m := envelopeMsg(t, lifecycle.EventStatusChanged, lifecycle.StatusChangedPayload{
		OrderID:   "o-1",
		OldStatus: lifecycle.StatusLogged,
		NewStatus: lifecycle.StatusTechnicalReview,
		Action:    lifecycle.ActionAdvanced,
		Actor:     "ops",
	})
	require.NoError(t, svc.Handle(context.Background(), m))

	var got struct {
		Status lifecycle.Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(cache.values["order_status:o-1"]), &got))
	require.Equal(t, lifecycle.StatusTechnicalReview, got.Status)
}

func TestHandleProjectsPaymentStatus(t *testing.T) {
	cache := &fakeCache{values: map[string]string{}}
	svc := &Service{Redis: cache}

	m := envelopeMsg(t, lifecycle.EventPaymentRecorded, lifecycle.PaymentPayload{
		OrderID:   "o-2",
		Amount:    2280,
		NewStatus: lifecycle.StatusFulfilled,
		Actor:     "finance",
	})
	require.NoError(t, svc.Handle(context.Background(), m))
	require.Contains(t, cache.values["order_status:o-2"], string(lifecycle.StatusFulfilled))
}

func TestHandleSkipsUnknownEventType(t *testing.T) {
	cache := &fakeCache{values: map[string]string{}}
	svc := &Service{Redis: cache}

	m := envelopeMsg(t, lifecycle.EventSLABreached, lifecycle.SLABreachedPayload{OrderID: "o-3"})
	require.NoError(t, svc.Handle(context.Background(), m))
	require.Empty(t, cache.values)
}

func TestHandleRejectsMalformedEnvelope(t *testing.T) {
	svc := &Service{Redis: &fakeCache{values: map[string]string{}}}
	err := svc.Handle(context.Background(), kafka.Message{Value: []byte("not json")})
	require.Error(t, err)
}
