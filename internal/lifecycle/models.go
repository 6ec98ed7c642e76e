package lifecycle

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order is the central aggregate: one customer purchase order moving
// through the operational lifecycle.
type Order struct {
	ID           string
	Number       string // internal order number, immutable once assigned
	CustomerRef  string // customer reference number, unique among active orders
	CustomerName string
	OrderDate    time.Time
	ReceivedAt   time.Time // PO receipt, feeds the logging compliance check
	EnteredAt    time.Time // data entry / LOGGED timestamp

	Status         Status
	PreviousStatus Status // set only while suspended in IN_HOLD
	InvoiceNumber  string // present only once invoiced
	PaymentSLADays int
	HoldReason     string // present only while IN_HOLD
	RejectReason   string // present only once REJECTED

	// FinanceOverrides records forced releases (margin block overrides).
	FinanceOverrides []FinanceOverride

	Items    []LineItem
	Log      []LogEntry // append-only, chronological
	Payments []Payment

	// Version is the optimistic concurrency token checked by the
	// persistence layer on every transition.
	Version int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LineItem is one commercial position within an order.
type LineItem struct {
	ID          string
	OrderID     string
	Description string
	Quantity    float64
	Unit        string
	UnitPrice   float64
	TaxPercent  float64
	Accepted    bool
	Components  []Component
	Log         []LogEntry
}

// Net is quantity x unit price for the line.
func (li LineItem) Net() float64 { return li.Quantity * li.UnitPrice }

// Gross is the tax-inclusive line total.
func (li LineItem) Gross() float64 { return li.Net() * (1 + li.TaxPercent/100) }

// Cost sums component quantity x unit cost; missing unit costs count as
// zero.
func (li LineItem) Cost() float64 {
	var c float64
	for _, comp := range li.Components {
		c += comp.Quantity * comp.UnitCost
	}
	return c
}

// ComponentStatus tracks a bill-of-materials entry through procurement.
type ComponentStatus string

const (
	ComponentAvailable ComponentStatus = "AVAILABLE"
	ComponentPending   ComponentStatus = "PENDING"
	ComponentRFPSent   ComponentStatus = "RFP_SENT"
	ComponentOrdered   ComponentStatus = "ORDERED"
	ComponentReceived  ComponentStatus = "RECEIVED"
	ComponentReserved  ComponentStatus = "RESERVED"
)

// ComponentSource distinguishes stock pulls from external procurement.
type ComponentSource string

const (
	SourceStock    ComponentSource = "STOCK"
	SourceExternal ComponentSource = "EXTERNAL"
)

// Component is a bill-of-materials entry backing a line item. Only its
// cost feeds this engine; the procurement workflow lives elsewhere.
type Component struct {
	ID         string
	LineItemID string
	Reference  string
	Quantity   float64
	UnitCost   float64
	Source     ComponentSource
	Status     ComponentStatus
	StatusAt   time.Time // last status change
}

// Payment is immutable once recorded; removal happens only through the
// explicit cancellation operation.
type Payment struct {
	Amount  float64
	At      time.Time
	Comment string
}

// LogEntry is one audit trail record. Entries are append-only and never
// reordered or deleted.
type LogEntry struct {
	At     time.Time
	Actor  string
	Status Status // status in force after the action
	Action string
	Memo   string
}

// Audit actions recorded in LogEntry.Action.
const (
	ActionCreated          = "CREATED"
	ActionAdvanced         = "ADVANCED"
	ActionHoldSet          = "HOLD_SET"
	ActionHoldReleased     = "HOLD_RELEASED"
	ActionRejected         = "REJECTED"
	ActionMarginRelease    = "MARGIN_RELEASE"
	ActionInvoiceIssued    = "INVOICE_ISSUED"
	ActionInvoiceCancelled = "INVOICE_CANCELLED"
	ActionPaymentRecorded  = "PAYMENT_RECORDED"
	ActionPaymentCancelled = "PAYMENT_CANCELLED"
	ActionRevertedSourcing = "REVERTED_TO_SOURCING"
)

// FinanceOverrideType tags a finance-override audit record.
type FinanceOverrideType string

const OverrideMarginRelease FinanceOverrideType = "MARGIN_RELEASE"

// FinanceOverride is the audit of a forced release action.
type FinanceOverride struct {
	Type  FinanceOverrideType
	At    time.Time
	Actor string
	Memo  string
}

// Customer is the account an order bills to.
type Customer struct {
	ID             string
	Name           string
	Contact        string
	PaymentTermDay int
	OnHold         bool
	HoldReason     string
	Log            []LogEntry
}

// Supplier is an external procurement source.
type Supplier struct {
	ID              string
	Name            string
	Contact         string
	Blacklisted     bool
	BlacklistReason string
	Log             []LogEntry
	PriceList       []PriceEntry
}

// PriceEntry is one row of a supplier price list.
type PriceEntry struct {
	Reference string
	UnitCost  float64
	Currency  string
}

// NewOrderNumber generates an internal order number. Immutable once
// assigned to an order.
func NewOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

// NewInvoiceNumber generates an invoice number. Re-issuing after a void
// always produces a fresh number.
func NewInvoiceNumber() string {
	return "INV-" + strings.ToUpper(uuid.NewString()[:8])
}

// Settings is the externally supplied configuration every computation
// receives explicitly. Hours fields are per-state SLA budgets.
type Settings struct {
	OrderEditTimeLimitHrs   float64 `yaml:"order_edit_time_limit_hrs"`
	TechnicalReviewLimitHrs float64 `yaml:"technical_review_limit_hrs"`
	PendingOfferLimitHrs    float64 `yaml:"pending_offer_limit_hrs"`
	WaitingFactoryLimitHrs  float64 `yaml:"waiting_factory_limit_hrs"`
	MfgFinishLimitHrs       float64 `yaml:"mfg_finish_limit_hrs"`
	TransitToHubLimitHrs    float64 `yaml:"transit_to_hub_limit_hrs"`
	ProductHubLimitHrs      float64 `yaml:"product_hub_limit_hrs"`
	InvoicedLimitHrs        float64 `yaml:"invoiced_limit_hrs"`
	HubReleasedLimitHrs     float64 `yaml:"hub_released_limit_hrs"`
	DeliveryLimitHrs        float64 `yaml:"delivery_limit_hrs"`

	MinimumMarginPct         float64 `yaml:"minimum_margin_pct"`
	DefaultPaymentSLADays    int     `yaml:"default_payment_sla_days"`
	LoggingDelayThresholdHrs float64 `yaml:"logging_delay_threshold_hrs"`
}
