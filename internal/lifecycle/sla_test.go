package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvaluateSLABreach(t *testing.T) {
	now := time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC)
	o := &Order{
		Status:    StatusWaitingFactory,
		EnteredAt: now.Add(-72 * time.Hour),
		Log: []LogEntry{
			{At: now.Add(-48 * time.Hour), Status: StatusWaitingSuppliers, Action: ActionAdvanced},
			{At: now.Add(-6 * time.Hour), Status: StatusWaitingFactory, Action: ActionAdvanced},
		},
	}
	s := Settings{WaitingFactoryLimitHrs: 5}

	ev := EvaluateSLA(o, now, s)
	require.True(t, ev.Tracked)
	require.True(t, ev.Breached)
	require.Equal(t, 6*time.Hour, ev.Elapsed)
	require.Equal(t, -time.Hour, ev.Remaining)
	require.Equal(t, "1h 0m", FormatDuration(ev.Magnitude()))
}

func TestEvaluateSLAIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC)
	o := &Order{
		Status:    StatusManufacturing,
		EnteredAt: now.Add(-10 * time.Hour),
	}
	s := Settings{MfgFinishLimitHrs: 120}

	first := EvaluateSLA(o, now, s)
	second := EvaluateSLA(o, now, s)
	require.Equal(t, first, second)
}

func TestEvaluateSLAAnchorsOnLatestReentry(t *testing.T) {
	now := time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC)
	// order visited WAITING_SUPPLIERS twice; the newer window anchors
	o := &Order{
		Status:    StatusWaitingSuppliers,
		EnteredAt: now.Add(-200 * time.Hour),
		Log: []LogEntry{
			{At: now.Add(-150 * time.Hour), Status: StatusWaitingSuppliers},
			{At: now.Add(-100 * time.Hour), Status: StatusInvoiced},
			{At: now.Add(-2 * time.Hour), Status: StatusWaitingSuppliers, Action: ActionRevertedSourcing},
		},
	}
	s := Settings{PendingOfferLimitHrs: 72}

	ev := EvaluateSLA(o, now, s)
	require.Equal(t, 2*time.Hour, ev.Elapsed)
	require.False(t, ev.Breached)
}

func TestEvaluateSLAFallsBackToEntryTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC)
	o := &Order{
		Status:    StatusLogged,
		EnteredAt: now.Add(-30 * time.Hour),
	}
	s := Settings{OrderEditTimeLimitHrs: 24}

	ev := EvaluateSLA(o, now, s)
	require.Equal(t, 30*time.Hour, ev.Elapsed)
	require.True(t, ev.Breached)
}

func TestEvaluateSLAUntrackedState(t *testing.T) {
	o := &Order{Status: StatusUnderTest}
	ev := EvaluateSLA(o, time.Now(), Settings{})
	require.False(t, ev.Tracked)
	require.False(t, ev.Breached)
}

func TestEvaluateSLAPaymentFallback(t *testing.T) {
	now := time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC)
	o := &Order{Status: StatusDelivered, EnteredAt: now.Add(-time.Hour)}
	s := Settings{DefaultPaymentSLADays: 30}

	ev := EvaluateSLA(o, now, s)
	require.InDelta(t, 720, ev.LimitHours, 1e-9)

	o.PaymentSLADays = 10
	ev = EvaluateSLA(o, now, s)
	require.InDelta(t, 240, ev.LimitHours, 1e-9)
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{26*time.Hour + 10*time.Minute, "1d 2h"},
		{25 * time.Hour, "1d 1h"},
		{90 * time.Minute, "1h 30m"},
		{time.Hour, "1h 0m"},
		{20 * time.Minute, "20m"},
		{0, "0m"},
		{-time.Hour, "1h 0m"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, FormatDuration(c.d), "duration %s", c.d)
	}
}
