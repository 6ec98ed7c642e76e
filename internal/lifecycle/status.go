package lifecycle

// Status is the lifecycle state of a purchase order.
type Status string

const (
	StatusLogged                Status = "LOGGED"
	StatusTechnicalReview       Status = "TECHNICAL_REVIEW"
	StatusInHold                Status = "IN_HOLD"
	StatusRejected              Status = "REJECTED"
	StatusNegativeMargin        Status = "NEGATIVE_MARGIN"
	StatusWaitingSuppliers      Status = "WAITING_SUPPLIERS"
	StatusWaitingFactory        Status = "WAITING_FACTORY"
	StatusManufacturing         Status = "MANUFACTURING"
	StatusManufacturingComplete Status = "MANUFACTURING_COMPLETED"
	StatusUnderTest             Status = "UNDER_TEST"
	StatusTransitionToStock     Status = "TRANSITION_TO_STOCK"
	StatusInProductHub          Status = "IN_PRODUCT_HUB"
	StatusIssueInvoice          Status = "ISSUE_INVOICE"
	StatusInvoiced              Status = "INVOICED"
	StatusHubReleased           Status = "HUB_RELEASED"
	StatusDelivery              Status = "DELIVERY"
	StatusDelivered             Status = "DELIVERED"
	StatusPartialPayment        Status = "PARTIAL_PAYMENT"
	StatusFulfilled             Status = "FULFILLED"
)

func (s Status) String() string { return string(s) }

// IsValid reports whether s is one of the known lifecycle states.
func (s Status) IsValid() bool {
	_, ok := registry[s]
	return ok
}

// IsTerminal reports whether no further transition is defined from s.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusFulfilled
}

// invoicedOrLater holds every state an order can occupy once an invoice
// has been issued and not voided.
var invoicedOrLater = map[Status]bool{
	StatusInvoiced:       true,
	StatusHubReleased:    true,
	StatusDelivery:       true,
	StatusDelivered:      true,
	StatusPartialPayment: true,
	StatusFulfilled:      true,
}

// IsInvoicedOrLater reports whether s is INVOICED or any state reachable
// after it.
func (s Status) IsInvoicedOrLater() bool { return invoicedOrLater[s] }

// validNext is the forward progression table. Hold, reject and the
// financial reverts are handled by their guarded operations, not listed
// here.
var validNext = map[Status]map[Status]bool{
	StatusLogged:          {StatusTechnicalReview: true},
	StatusTechnicalReview: {StatusWaitingSuppliers: true, StatusNegativeMargin: true},
	// NEGATIVE_MARGIN exits only via ReleaseMarginBlock or Reject.
	StatusNegativeMargin:        {},
	StatusWaitingSuppliers:      {StatusWaitingFactory: true},
	StatusWaitingFactory:        {StatusManufacturing: true},
	StatusManufacturing:         {StatusManufacturingComplete: true},
	StatusManufacturingComplete: {StatusUnderTest: true},
	StatusUnderTest:             {StatusTransitionToStock: true},
	StatusTransitionToStock:     {StatusInProductHub: true},
	StatusInProductHub:          {StatusIssueInvoice: true},
	StatusIssueInvoice:          {},
	StatusInvoiced:              {StatusHubReleased: true},
	StatusHubReleased:           {StatusDelivery: true, StatusDelivered: true},
	StatusDelivery:              {StatusDelivered: true},
	StatusDelivered:             {},
	StatusPartialPayment:        {},
	StatusInHold:                {},
	StatusRejected:              {},
	StatusFulfilled:             {},
}

// CanAdvance reports whether the forward table allows from -> to.
func CanAdvance(from, to Status) bool {
	return validNext[from][to]
}

// Category groups states for presentation only; no transition logic
// reads it.
type Category string

const (
	CategoryIntake    Category = "intake"
	CategorySourcing  Category = "sourcing"
	CategoryFactory   Category = "factory"
	CategoryLogistics Category = "logistics"
	CategoryFinance   Category = "finance"
	CategoryClosed    Category = "closed"
)

// StatusInfo is the registry record for one lifecycle state.
type StatusInfo struct {
	Label    string
	Category Category
	// LimitHours selects the SLA budget applicable while an order sits
	// in this state. Zero means no countdown is tracked.
	LimitHours func(o *Order, s Settings) float64
}

func noLimit(*Order, Settings) float64 { return 0 }

// paymentLimit resolves the payment SLA in hours: the order's own terms
// win, the global default backs them up.
func paymentLimit(o *Order, s Settings) float64 {
	days := o.PaymentSLADays
	if days <= 0 {
		days = s.DefaultPaymentSLADays
	}
	return float64(days) * 24
}

var registry = map[Status]StatusInfo{
	StatusLogged: {"Logged", CategoryIntake,
		func(_ *Order, s Settings) float64 { return s.OrderEditTimeLimitHrs }},
	StatusTechnicalReview: {"Technical review", CategoryIntake,
		func(_ *Order, s Settings) float64 { return s.TechnicalReviewLimitHrs }},
	StatusInHold:         {"On hold", CategoryIntake, noLimit},
	StatusRejected:       {"Rejected", CategoryClosed, noLimit},
	StatusNegativeMargin: {"Negative margin", CategoryFinance, noLimit},
	StatusWaitingSuppliers: {"Waiting for suppliers", CategorySourcing,
		func(_ *Order, s Settings) float64 { return s.PendingOfferLimitHrs }},
	StatusWaitingFactory: {"Waiting for factory", CategoryFactory,
		func(_ *Order, s Settings) float64 { return s.WaitingFactoryLimitHrs }},
	StatusManufacturing: {"Manufacturing", CategoryFactory,
		func(_ *Order, s Settings) float64 { return s.MfgFinishLimitHrs }},
	StatusManufacturingComplete: {"Manufacturing completed", CategoryFactory, noLimit},
	StatusUnderTest:             {"Under test", CategoryFactory, noLimit},
	StatusTransitionToStock: {"In transit to stock", CategoryLogistics,
		func(_ *Order, s Settings) float64 { return s.TransitToHubLimitHrs }},
	StatusInProductHub: {"In product hub", CategoryLogistics,
		func(_ *Order, s Settings) float64 { return s.ProductHubLimitHrs }},
	StatusIssueInvoice: {"Awaiting invoice", CategoryFinance,
		func(_ *Order, s Settings) float64 { return s.InvoicedLimitHrs }},
	StatusInvoiced: {"Invoiced", CategoryFinance,
		func(_ *Order, s Settings) float64 { return s.HubReleasedLimitHrs }},
	StatusHubReleased: {"Released from hub", CategoryLogistics,
		func(_ *Order, s Settings) float64 { return s.DeliveryLimitHrs }},
	StatusDelivery:       {"Out for delivery", CategoryLogistics, noLimit},
	StatusDelivered:      {"Delivered", CategoryFinance, paymentLimit},
	StatusPartialPayment: {"Partially paid", CategoryFinance, paymentLimit},
	StatusFulfilled:      {"Fulfilled", CategoryClosed, noLimit},
}

// Info returns the registry record for s. Unknown states get an empty
// label and a zero limit.
func Info(s Status) StatusInfo {
	if info, ok := registry[s]; ok {
		return info
	}
	return StatusInfo{Label: string(s), Category: CategoryIntake, LimitHours: noLimit}
}

// LimitHoursFor resolves the SLA budget for the order's current status.
func LimitHoursFor(o *Order, s Settings) float64 {
	return Info(o.Status).LimitHours(o, s)
}
