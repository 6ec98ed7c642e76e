package redisx

import "time"

const (
	// Order status snapshot: order_status:{order_id} -> JSON view
	KeyOrderStatus = "order_status:%s"

	// SLA snapshot written by the sweeper: sla:{order_id} -> JSON evaluation
	KeySLASnapshot = "sla:%s"

	// Breach dedup, one event per order+status window:
	// sla:breached:{order_id}:{status}
	KeyBreachDedup = "sla:breached:%s:%s"

	// Compliance flag dedup: compliance:flagged:{order_id}
	KeyComplianceDedup = "compliance:flagged:%s"

	// Payment idempotency: idem:payment:{order_id}:{request_id}
	KeyIdemPayment = "idem:payment:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLSLASnapshot = 2 * time.Minute
	TTLBreachDedup = 48 * time.Hour
	TTLIdempotency = 24 * time.Hour
)
