package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

// The guarded transition operations below share one contract: validate
// the action against the current state first (InvalidTransitionError),
// then the inputs (ValidationError), then mutate and append exactly one
// audit entry. A returned error means the order was not touched. The
// persistence layer wraps each call in a transaction keyed on
// Order.Version so a concurrent writer is rejected, never overwritten.

func (o *Order) appendLog(now time.Time, actor, action, memo string) {
	o.Log = append(o.Log, LogEntry{
		At:     now,
		Actor:  actor,
		Status: o.Status,
		Action: action,
		Memo:   memo,
	})
	o.UpdatedAt = now
}

// NewOrder creates an order in LOGGED state at data entry.
func NewOrder(customerRef, customerName string, orderDate, receivedAt, now time.Time, actor string) *Order {
	o := &Order{
		ID:           uuid.NewString(),
		Number:       NewOrderNumber(),
		CustomerRef:  customerRef,
		CustomerName: customerName,
		OrderDate:    orderDate,
		ReceivedAt:   receivedAt,
		EnteredAt:    now,
		Status:       StatusLogged,
		CreatedAt:    now,
	}
	o.appendLog(now, actor, ActionCreated, "")
	return o
}

// Advance moves the order one step along the forward progression table.
// Leaving TECHNICAL_REVIEW for sourcing is gated on margin compliance:
// a failing markup routes to NEGATIVE_MARGIN instead.
func (o *Order) Advance(next Status, actor string, now time.Time, s Settings) error {
	if !CanAdvance(o.Status, next) {
		return invalidTransition(o.Status, "advance to "+string(next))
	}
	if o.Status == StatusTechnicalReview && next == StatusWaitingSuppliers && MarginBreached(o, s) {
		next = StatusNegativeMargin
	}
	o.Status = next
	o.appendLog(now, actor, ActionAdvanced, "")
	return nil
}

// SetHold toggles between the current operational status and IN_HOLD.
// The prior status is remembered so release restores it exactly.
func (o *Order) SetHold(on bool, memo, actor string, now time.Time) error {
	if on {
		if o.Status.IsTerminal() || o.Status == StatusInHold {
			return invalidTransition(o.Status, "hold")
		}
		if memo == "" {
			return missingMemo("hold")
		}
		o.PreviousStatus = o.Status
		o.Status = StatusInHold
		o.HoldReason = memo
		o.appendLog(now, actor, ActionHoldSet, memo)
		return nil
	}
	if o.Status != StatusInHold {
		return invalidTransition(o.Status, "release hold")
	}
	if memo == "" {
		return missingMemo("release hold")
	}
	o.Status = o.PreviousStatus
	o.PreviousStatus = ""
	o.HoldReason = ""
	o.appendLog(now, actor, ActionHoldReleased, memo)
	return nil
}

// Reject forces the order into the terminal REJECTED state. Irreversible.
func (o *Order) Reject(memo, actor string, now time.Time) error {
	if o.Status.IsTerminal() {
		return invalidTransition(o.Status, "reject")
	}
	if memo == "" {
		return missingMemo("reject")
	}
	o.Status = StatusRejected
	o.RejectReason = memo
	o.PreviousStatus = ""
	o.HoldReason = ""
	o.appendLog(now, actor, ActionRejected, memo)
	return nil
}

// ReleaseMarginBlock lifts a NEGATIVE_MARGIN block and returns the order
// to sourcing, recording a finance override.
func (o *Order) ReleaseMarginBlock(memo, actor string, now time.Time) error {
	if o.Status != StatusNegativeMargin {
		return invalidTransition(o.Status, "release margin block")
	}
	if memo == "" {
		return missingMemo("release margin block")
	}
	o.Status = StatusWaitingSuppliers
	o.FinanceOverrides = append(o.FinanceOverrides, FinanceOverride{
		Type:  OverrideMarginRelease,
		At:    now,
		Actor: actor,
		Memo:  memo,
	})
	o.appendLog(now, actor, ActionMarginRelease, memo)
	return nil
}

// IssueInvoice generates an invoice number and moves the order to
// INVOICED. Routine action, no memo required.
func (o *Order) IssueInvoice(actor string, now time.Time) error {
	if o.Status != StatusInProductHub && o.Status != StatusIssueInvoice {
		return invalidTransition(o.Status, "issue invoice")
	}
	o.InvoiceNumber = NewInvoiceNumber()
	o.Status = StatusInvoiced
	o.appendLog(now, actor, ActionInvoiceIssued, o.InvoiceNumber)
	return nil
}

// CancelInvoice voids the invoice and returns the order to the awaiting-
// invoice state. Permanent; the old number is never reused.
func (o *Order) CancelInvoice(memo, actor string, now time.Time) error {
	if !o.Status.IsInvoicedOrLater() || o.Status == StatusFulfilled {
		return invalidTransition(o.Status, "cancel invoice")
	}
	if memo == "" {
		return missingMemo("cancel invoice")
	}
	o.InvoiceNumber = ""
	o.Status = StatusIssueInvoice
	o.appendLog(now, actor, ActionInvoiceCancelled, memo)
	return nil
}

// RecordPayment appends a payment and progresses the order: a cleared
// balance fulfils it, anything outstanding parks it in PARTIAL_PAYMENT.
func (o *Order) RecordPayment(amount float64, memo, actor string, now time.Time) error {
	if !o.Status.IsInvoicedOrLater() || o.Status == StatusFulfilled {
		return invalidTransition(o.Status, "record payment")
	}
	if amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	o.Payments = append(o.Payments, Payment{Amount: amount, At: now, Comment: memo})
	if ComputeProfitability(o).Outstanding == 0 {
		o.Status = StatusFulfilled
	} else {
		o.Status = StatusPartialPayment
	}
	o.appendLog(now, actor, ActionPaymentRecorded, memo)
	return nil
}

// CancelPayment removes the payment at index and recomputes the status
// backward. With payments still on file the balance decides; with none
// left the order returns to the last logged status outside the payment
// states.
func (o *Order) CancelPayment(index int, memo, actor string, now time.Time) error {
	if !o.Status.IsInvoicedOrLater() {
		return invalidTransition(o.Status, "cancel payment")
	}
	if index < 0 || index >= len(o.Payments) {
		return &ValidationError{Field: "paymentIndex", Reason: "out of range"}
	}
	if memo == "" {
		return missingMemo("cancel payment")
	}
	o.Payments = append(o.Payments[:index], o.Payments[index+1:]...)

	p := ComputeProfitability(o)
	switch {
	case p.Paid > 0 && p.Outstanding == 0:
		o.Status = StatusFulfilled
	case p.Paid > 0:
		o.Status = StatusPartialPayment
	default:
		o.Status = o.statusBeforePayments()
	}
	o.appendLog(now, actor, ActionPaymentCancelled, memo)
	return nil
}

// statusBeforePayments walks the log backward for the newest status that
// is not a payment state.
func (o *Order) statusBeforePayments() Status {
	for i := len(o.Log) - 1; i >= 0; i-- {
		s := o.Log[i].Status
		if s != StatusPartialPayment && s != StatusFulfilled {
			return s
		}
	}
	return StatusInvoiced
}

// RevertToSourcing voids the invoice and sends every component back out
// for quotation, returning the order to WAITING_SUPPLIERS. Used for
// exceptional re-awarding.
func (o *Order) RevertToSourcing(memo, actor string, now time.Time) error {
	if !o.Status.IsInvoicedOrLater() || o.Status == StatusFulfilled {
		return invalidTransition(o.Status, "revert to sourcing")
	}
	if memo == "" {
		return missingMemo("revert to sourcing")
	}
	o.InvoiceNumber = ""
	for i := range o.Items {
		for j := range o.Items[i].Components {
			o.Items[i].Components[j].Status = ComponentRFPSent
			o.Items[i].Components[j].StatusAt = now
		}
	}
	o.Status = StatusWaitingSuppliers
	o.appendLog(now, actor, ActionRevertedSourcing, memo)
	return nil
}
