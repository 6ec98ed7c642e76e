package lifecycle

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventStatusChanged    = "OrderStatusChanged"
	EventInvoiceIssued    = "InvoiceIssued"
	EventInvoiceCancelled = "InvoiceCancelled"
	EventPaymentRecorded  = "PaymentRecorded"
	EventPaymentCancelled = "PaymentCancelled"
	EventSLABreached      = "SLABreached"
	EventComplianceFlag   = "LoggingComplianceFlagged"
)

// Envelope is the wire wrapper every lifecycle event travels in.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	Number      string `json:"number"`
	CustomerRef string `json:"customer_ref"`
}

type StatusChangedPayload struct {
	OrderID   string `json:"order_id"`
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
	Action    string `json:"action"`
	Actor     string `json:"actor"`
	Memo      string `json:"memo,omitempty"`
}

type InvoicePayload struct {
	OrderID       string `json:"order_id"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Actor         string `json:"actor"`
}

type PaymentPayload struct {
	OrderID     string  `json:"order_id"`
	Amount      float64 `json:"amount"`
	Paid        float64 `json:"paid"`
	Outstanding float64 `json:"outstanding"`
	NewStatus   Status  `json:"new_status"`
	Actor       string  `json:"actor"`
}

type SLABreachedPayload struct {
	OrderID    string  `json:"order_id"`
	Number     string  `json:"number"`
	Status     Status  `json:"status"`
	LimitHours float64 `json:"limit_hours"`
	OverdueBy  string  `json:"overdue_by"` // formatted magnitude
}

type ComplianceFlagPayload struct {
	OrderID  string  `json:"order_id"`
	Number   string  `json:"number"`
	DelayHrs float64 `json:"delay_hrs"`
}
