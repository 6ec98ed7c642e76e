package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// orderIn builds a fixture in the given state with a consistent log.
func orderIn(status Status) *Order {
	o := fixtureOrder()
	o.Status = status
	o.Log = append(o.Log, LogEntry{At: t0.Add(time.Hour), Actor: "system", Status: status, Action: ActionAdvanced})
	if status.IsInvoicedOrLater() {
		o.InvoiceNumber = NewInvoiceNumber()
	}
	return o
}

func TestNewOrderStartsLogged(t *testing.T) {
	o := NewOrder("REF-1", "Acme", t0, t0, t0, "clerk")
	require.Equal(t, StatusLogged, o.Status)
	require.NotEmpty(t, o.Number)
	require.Len(t, o.Log, 1)
	require.Equal(t, ActionCreated, o.Log[0].Action)
}

func TestHoldReleaseRestoresPriorStatus(t *testing.T) {
	o := orderIn(StatusManufacturing)

	require.NoError(t, o.SetHold(true, "customer dispute", "ops", t0.Add(2*time.Hour)))
	require.Equal(t, StatusInHold, o.Status)
	require.Equal(t, StatusManufacturing, o.PreviousStatus)
	require.Equal(t, "customer dispute", o.HoldReason)

	require.NoError(t, o.SetHold(false, "dispute settled", "ops", t0.Add(3*time.Hour)))
	require.Equal(t, StatusManufacturing, o.Status)
	require.Empty(t, o.PreviousStatus)
	require.Empty(t, o.HoldReason)
}

func TestHoldRequiresMemo(t *testing.T) {
	o := orderIn(StatusLogged)
	err := o.SetHold(true, "", "ops", t0)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, StatusLogged, o.Status)
}

func TestHoldInvalidFromTerminal(t *testing.T) {
	o := orderIn(StatusRejected)
	var te *InvalidTransitionError
	require.ErrorAs(t, o.SetHold(true, "memo", "ops", t0), &te)
}

func TestReleaseWithoutHoldFails(t *testing.T) {
	o := orderIn(StatusLogged)
	var te *InvalidTransitionError
	require.ErrorAs(t, o.SetHold(false, "memo", "ops", t0), &te)
}

func TestRejectIsTerminal(t *testing.T) {
	o := orderIn(StatusTechnicalReview)
	require.NoError(t, o.Reject("out of scope request", "reviewer", t0))
	require.Equal(t, StatusRejected, o.Status)
	require.Equal(t, "out of scope request", o.RejectReason)

	var te *InvalidTransitionError
	require.ErrorAs(t, o.Reject("again", "reviewer", t0), &te)
	require.ErrorAs(t, o.Advance(StatusTechnicalReview, "x", t0, Settings{}), &te)
}

func TestAdvanceFollowsTable(t *testing.T) {
	o := orderIn(StatusLogged)
	require.NoError(t, o.Advance(StatusTechnicalReview, "reviewer", t0, Settings{}))
	require.Equal(t, StatusTechnicalReview, o.Status)

	var te *InvalidTransitionError
	require.ErrorAs(t, o.Advance(StatusManufacturing, "reviewer", t0, Settings{}), &te)
}

func TestAdvanceRoutesToNegativeMarginOnBreach(t *testing.T) {
	o := orderIn(StatusTechnicalReview)
	// fixture markup ~233%; demand more to force the block
	s := Settings{MinimumMarginPct: 300}
	require.NoError(t, o.Advance(StatusWaitingSuppliers, "reviewer", t0, s))
	require.Equal(t, StatusNegativeMargin, o.Status)
}

func TestReleaseMarginBlock(t *testing.T) {
	o := orderIn(StatusNegativeMargin)
	require.NoError(t, o.ReleaseMarginBlock("approved by finance", "cfo", t0.Add(2*time.Hour)))
	require.Equal(t, StatusWaitingSuppliers, o.Status)
	require.Len(t, o.FinanceOverrides, 1)
	require.Equal(t, OverrideMarginRelease, o.FinanceOverrides[0].Type)
	require.Equal(t, "cfo", o.FinanceOverrides[0].Actor)

	var te *InvalidTransitionError
	require.ErrorAs(t, o.ReleaseMarginBlock("again", "cfo", t0), &te)
}

func TestIssueInvoice(t *testing.T) {
	o := orderIn(StatusInProductHub)
	require.NoError(t, o.IssueInvoice("billing", t0.Add(2*time.Hour)))
	require.Equal(t, StatusInvoiced, o.Status)
	require.NotEmpty(t, o.InvoiceNumber)

	bad := orderIn(StatusManufacturing)
	var te *InvalidTransitionError
	require.ErrorAs(t, bad.IssueInvoice("billing", t0), &te)
}

func TestCancelThenReissueGetsFreshNumber(t *testing.T) {
	o := orderIn(StatusInProductHub)
	require.NoError(t, o.IssueInvoice("billing", t0))
	first := o.InvoiceNumber

	require.NoError(t, o.CancelInvoice("wrong tax rate", "billing", t0.Add(time.Hour)))
	require.Equal(t, StatusIssueInvoice, o.Status)
	require.Empty(t, o.InvoiceNumber)

	require.NoError(t, o.IssueInvoice("billing", t0.Add(2*time.Hour)))
	require.Equal(t, StatusInvoiced, o.Status)
	require.NotEmpty(t, o.InvoiceNumber)
	require.NotEqual(t, first, o.InvoiceNumber)
}

func TestRecordPaymentProgression(t *testing.T) {
	o := orderIn(StatusDelivered) // gross 2280

	require.NoError(t, o.RecordPayment(1000, "first instalment", "finance", t0.Add(time.Hour)))
	require.Equal(t, StatusPartialPayment, o.Status)

	require.NoError(t, o.RecordPayment(1280, "balance", "finance", t0.Add(2*time.Hour)))
	require.Equal(t, StatusFulfilled, o.Status)
	require.Zero(t, ComputeProfitability(o).Outstanding)
}

func TestRecordPaymentExactGrossFulfills(t *testing.T) {
	o := orderIn(StatusInvoiced)
	gross := ComputeProfitability(o).GrossRevenue

	require.NoError(t, o.RecordPayment(gross, "wire transfer", "finance", t0.Add(time.Hour)))
	require.Equal(t, StatusFulfilled, o.Status)
	require.Equal(t, 0.0, ComputeProfitability(o).Outstanding)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	o := orderIn(StatusInvoiced)
	payments, logged := len(o.Payments), len(o.Log)

	var ve *ValidationError
	require.ErrorAs(t, o.RecordPayment(0, "memo", "finance", t0), &ve)
	require.ErrorAs(t, o.RecordPayment(-50, "memo", "finance", t0), &ve)

	require.Len(t, o.Payments, payments)
	require.Len(t, o.Log, logged)
	require.Equal(t, StatusInvoiced, o.Status)
}

func TestRecordPaymentRequiresInvoicedState(t *testing.T) {
	o := orderIn(StatusManufacturing)
	var te *InvalidTransitionError
	require.ErrorAs(t, o.RecordPayment(100, "memo", "finance", t0), &te)
}

func TestCancelPaymentReopensBalance(t *testing.T) {
	o := orderIn(StatusDelivered)
	require.NoError(t, o.RecordPayment(2280, "paid in full", "finance", t0.Add(time.Hour)))
	require.Equal(t, StatusFulfilled, o.Status)

	require.NoError(t, o.CancelPayment(0, "bounced transfer", "finance", t0.Add(2*time.Hour)))
	require.Equal(t, StatusDelivered, o.Status) // restored from the log
	require.Empty(t, o.Payments)
}

func TestCancelPaymentKeepsPartialWhenBalanceRemains(t *testing.T) {
	o := orderIn(StatusDelivered)
	require.NoError(t, o.RecordPayment(1000, "a", "finance", t0.Add(time.Hour)))
	require.NoError(t, o.RecordPayment(1280, "b", "finance", t0.Add(2*time.Hour)))
	require.Equal(t, StatusFulfilled, o.Status)

	require.NoError(t, o.CancelPayment(1, "duplicate posting", "finance", t0.Add(3*time.Hour)))
	require.Equal(t, StatusPartialPayment, o.Status)
	require.Len(t, o.Payments, 1)
	require.InDelta(t, 1000, o.Payments[0].Amount, 1e-9)
}

func TestCancelPaymentIndexOutOfRange(t *testing.T) {
	o := orderIn(StatusPartialPayment)
	var ve *ValidationError
	require.ErrorAs(t, o.CancelPayment(3, "memo", "finance", t0), &ve)
}

func TestRevertToSourcing(t *testing.T) {
	o := orderIn(StatusInvoiced)
	require.NotEmpty(t, o.InvoiceNumber)

	require.NoError(t, o.RevertToSourcing("re-award after supplier failure", "ops", t0.Add(time.Hour)))
	require.Equal(t, StatusWaitingSuppliers, o.Status)
	require.Empty(t, o.InvoiceNumber)
	for _, li := range o.Items {
		for _, c := range li.Components {
			require.Equal(t, ComponentRFPSent, c.Status)
		}
	}

	var te *InvalidTransitionError
	require.ErrorAs(t, o.RevertToSourcing("again", "ops", t0), &te)
}

func TestEveryTransitionAppendsOneLogEntry(t *testing.T) {
	o := orderIn(StatusInProductHub)
	n := len(o.Log)

	require.NoError(t, o.IssueInvoice("billing", t0))
	require.Len(t, o.Log, n+1)
	require.Equal(t, ActionInvoiceIssued, o.Log[n].Action)
	require.Equal(t, StatusInvoiced, o.Log[n].Status)

	require.NoError(t, o.RecordPayment(500, "deposit", "finance", t0.Add(time.Hour)))
	require.Len(t, o.Log, n+2)
	require.Equal(t, ActionPaymentRecorded, o.Log[n+1].Action)
}
