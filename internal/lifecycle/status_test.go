package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLimitSelection(t *testing.T) {
	s := Settings{
		OrderEditTimeLimitHrs:   24,
		TechnicalReviewLimitHrs: 48,
		PendingOfferLimitHrs:    72,
		WaitingFactoryLimitHrs:  24,
		MfgFinishLimitHrs:       120,
		TransitToHubLimitHrs:    48,
		ProductHubLimitHrs:      24,
		InvoicedLimitHrs:        24,
		HubReleasedLimitHrs:     24,
		DeliveryLimitHrs:        48,
		DefaultPaymentSLADays:   30,
	}

	cases := []struct {
		status Status
		want   float64
	}{
		{StatusLogged, 24},
		{StatusTechnicalReview, 48},
		{StatusWaitingSuppliers, 72},
		{StatusWaitingFactory, 24},
		{StatusManufacturing, 120},
		{StatusTransitionToStock, 48},
		{StatusInProductHub, 24},
		{StatusIssueInvoice, 24},
		{StatusInvoiced, 24},
		{StatusHubReleased, 48},
		{StatusDelivered, 720},
		{StatusPartialPayment, 720},
		// no countdown for these
		{StatusInHold, 0},
		{StatusRejected, 0},
		{StatusNegativeMargin, 0},
		{StatusManufacturingComplete, 0},
		{StatusUnderTest, 0},
		{StatusDelivery, 0},
		{StatusFulfilled, 0},
	}
	for _, c := range cases {
		o := &Order{Status: c.status}
		require.InDelta(t, c.want, LimitHoursFor(o, s), 1e-9, "status %s", c.status)
	}
}

func TestPaymentLimitPrefersOrderTerms(t *testing.T) {
	s := Settings{DefaultPaymentSLADays: 30}
	o := &Order{Status: StatusDelivered, PaymentSLADays: 14}
	require.InDelta(t, 14*24, LimitHoursFor(o, s), 1e-9)
}

func TestTerminalStates(t *testing.T) {
	require.True(t, StatusRejected.IsTerminal())
	require.True(t, StatusFulfilled.IsTerminal())
	require.False(t, StatusInHold.IsTerminal())
	require.False(t, StatusDelivered.IsTerminal())
}

func TestRegistryCoversAllStates(t *testing.T) {
	all := []Status{
		StatusLogged, StatusTechnicalReview, StatusInHold, StatusRejected,
		StatusNegativeMargin, StatusWaitingSuppliers, StatusWaitingFactory,
		StatusManufacturing, StatusManufacturingComplete, StatusUnderTest,
		StatusTransitionToStock, StatusInProductHub, StatusIssueInvoice,
		StatusInvoiced, StatusHubReleased, StatusDelivery, StatusDelivered,
		StatusPartialPayment, StatusFulfilled,
	}
	require.Len(t, all, 19)
	for _, s := range all {
		require.True(t, s.IsValid(), "state %s missing from registry", s)
		require.NotEmpty(t, Info(s).Label)
	}
	require.False(t, Status("BOGUS").IsValid())
}

func TestCanAdvance(t *testing.T) {
	require.True(t, CanAdvance(StatusLogged, StatusTechnicalReview))
	require.True(t, CanAdvance(StatusHubReleased, StatusDelivery))
	require.True(t, CanAdvance(StatusHubReleased, StatusDelivered))
	require.False(t, CanAdvance(StatusLogged, StatusManufacturing))
	require.False(t, CanAdvance(StatusRejected, StatusLogged))
	require.False(t, CanAdvance(StatusFulfilled, StatusLogged))
}
