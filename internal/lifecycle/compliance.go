package lifecycle

import "time"

// LoggingDelayViolated reports whether data entry lagged PO receipt
// beyond the configured threshold. Derived and read-only: it is
// recomputed from the stored timestamps and never mutates the order.
func LoggingDelayViolated(o *Order, s Settings) bool {
	if s.LoggingDelayThresholdHrs <= 0 || o.ReceivedAt.IsZero() || o.EnteredAt.IsZero() {
		return false
	}
	delay := o.EnteredAt.Sub(o.ReceivedAt)
	return delay > time.Duration(s.LoggingDelayThresholdHrs*float64(time.Hour))
}
