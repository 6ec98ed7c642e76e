package lifecycle

import (
	"fmt"
	"time"
)

// SLAEvaluation is the countdown view for an order in its current state.
// It is a pure function of (order, now, settings); nothing here is
// persisted, so re-evaluating on any schedule cannot drift.
type SLAEvaluation struct {
	Tracked    bool // false when the state carries no SLA budget
	LimitHours float64
	Anchor     time.Time // start of the countdown window
	Elapsed    time.Duration
	Remaining  time.Duration // negative once breached
	Breached   bool
}

// slaAnchor finds the start of the current status window: the newest log
// entry for the current status wins, because a re-entered status restarts
// the clock. Falls back to the data-entry timestamp.
func slaAnchor(o *Order) time.Time {
	for i := len(o.Log) - 1; i >= 0; i-- {
		if o.Log[i].Status == o.Status {
			return o.Log[i].At
		}
	}
	return o.EnteredAt
}

// EvaluateSLA computes the countdown for o at the given instant.
func EvaluateSLA(o *Order, now time.Time, s Settings) SLAEvaluation {
	limit := LimitHoursFor(o, s)
	if limit <= 0 {
		return SLAEvaluation{}
	}
	anchor := slaAnchor(o)
	elapsed := now.Sub(anchor)
	remaining := time.Duration(limit*float64(time.Hour)) - elapsed
	return SLAEvaluation{
		Tracked:    true,
		LimitHours: limit,
		Anchor:     anchor,
		Elapsed:    elapsed,
		Remaining:  remaining,
		Breached:   remaining < 0,
	}
}

// Magnitude is |Remaining| for display, formatted by FormatDuration.
func (e SLAEvaluation) Magnitude() time.Duration {
	if e.Remaining < 0 {
		return -e.Remaining
	}
	return e.Remaining
}

// FormatDuration renders a magnitude as "Nd Nh" above 24h, "Nh Nm" above
// an hour, else "Nm".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d > 24*time.Hour:
		days := int(d / (24 * time.Hour))
		hours := int(d % (24 * time.Hour) / time.Hour)
		return fmt.Sprintf("%dd %dh", days, hours)
	case d >= time.Hour:
		hours := int(d / time.Hour)
		mins := int(d % time.Hour / time.Minute)
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	}
}
