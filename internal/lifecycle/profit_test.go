package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixtureOrder() *Order {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	o := NewOrder("REF-1001", "Acme Industrial", now, now, now, "clerk")
	o.Items = []LineItem{{
		ID:          "li-1",
		Description: "Control panel",
		Quantity:    2,
		Unit:        "pcs",
		UnitPrice:   1000,
		TaxPercent:  14,
		Components: []Component{{
			ID:       "c-1",
			Quantity: 1,
			UnitCost: 600,
			Source:   SourceExternal,
			Status:   ComponentPending,
			StatusAt: now,
		}},
	}}
	return o
}

func TestComputeProfitability(t *testing.T) {
	o := fixtureOrder()
	p := ComputeProfitability(o)

	require.InDelta(t, 2000, p.Revenue, 1e-9)
	require.InDelta(t, 2280, p.GrossRevenue, 1e-9)
	require.InDelta(t, 600, p.Cost, 1e-9)
	require.InDelta(t, 70, p.MarginPct, 1e-9)
	require.InDelta(t, 233.33, p.MarkupPct, 0.01)
	require.InDelta(t, 0, p.Paid, 1e-9)
	require.InDelta(t, 2280, p.Outstanding, 1e-9)
}

func TestProfitabilityZeroRevenue(t *testing.T) {
	o := &Order{}
	p := ComputeProfitability(o)
	require.Zero(t, p.MarginPct)
	require.Zero(t, p.MarkupPct)
}

func TestProfitabilityZeroCostMarkupFallback(t *testing.T) {
	o := &Order{Items: []LineItem{{Quantity: 1, UnitPrice: 500}}}
	p := ComputeProfitability(o)
	require.InDelta(t, 100, p.MarginPct, 1e-9)
	require.InDelta(t, 100, p.MarkupPct, 1e-9)
}

func TestProfitabilityMissingUnitCostCountsAsZero(t *testing.T) {
	o := &Order{Items: []LineItem{{
		Quantity:   1,
		UnitPrice:  100,
		Components: []Component{{Quantity: 3}},
	}}}
	p := ComputeProfitability(o)
	require.Zero(t, p.Cost)
}

func TestProfitabilityOutstandingClampedAtZero(t *testing.T) {
	o := fixtureOrder()
	o.Payments = []Payment{{Amount: 5000}}
	p := ComputeProfitability(o)
	require.InDelta(t, 5000, p.Paid, 1e-9)
	require.Zero(t, p.Outstanding)
}

func TestProfitabilityRoundsToCents(t *testing.T) {
	o := fixtureOrder() // raw gross is 2280.0000000000005
	require.Equal(t, 2280.0, ComputeProfitability(o).GrossRevenue)

	o.Payments = []Payment{{Amount: 2280}}
	p := ComputeProfitability(o)
	require.Equal(t, 2280.0, p.Paid)
	require.Equal(t, 0.0, p.Outstanding)
}

func TestMarginBreached(t *testing.T) {
	o := fixtureOrder() // markup ~233%
	require.False(t, MarginBreached(o, Settings{MinimumMarginPct: 15}))
	require.True(t, MarginBreached(o, Settings{MinimumMarginPct: 300}))
}
