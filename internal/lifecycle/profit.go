package lifecycle

import "math"

// roundCents snaps a monetary amount to the nearest cent. Line math in
// raw float64 leaves sub-cent residue (2 x 1000 at 14% tax already
// yields 2280.0000000000005) that would keep a fully paid order from
// ever clearing its balance.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Profitability is the financial summary of an order, derived entirely
// from its line items, components and payments. All monetary fields are
// rounded to cents so equal amounts compare exactly.
type Profitability struct {
	Revenue      float64 // sum of line nets
	GrossRevenue float64 // sum of tax-inclusive line totals
	Cost         float64 // sum of component costs
	MarginPct    float64 // profit as % of revenue
	MarkupPct    float64 // profit as % of cost
	Paid         float64
	Outstanding  float64 // clamped at zero; overpayment is not tracked
}

// ComputeProfitability derives the financial summary for o.
func ComputeProfitability(o *Order) Profitability {
	var p Profitability
	for _, li := range o.Items {
		p.Revenue += li.Net()
		p.GrossRevenue += li.Gross()
		p.Cost += li.Cost()
	}
	p.Revenue = roundCents(p.Revenue)
	p.GrossRevenue = roundCents(p.GrossRevenue)
	p.Cost = roundCents(p.Cost)
	if p.Revenue > 0 {
		p.MarginPct = (p.Revenue - p.Cost) / p.Revenue * 100
	}
	switch {
	case p.Cost > 0:
		p.MarkupPct = (p.Revenue - p.Cost) / p.Cost * 100
	case p.Revenue > 0:
		// Zero cost with real revenue counts as 100% markup by
		// business policy.
		p.MarkupPct = 100
	}
	for _, pay := range o.Payments {
		p.Paid += pay.Amount
	}
	p.Paid = roundCents(p.Paid)
	p.Outstanding = roundCents(p.GrossRevenue - p.Paid)
	if p.Outstanding < 0 {
		p.Outstanding = 0
	}
	return p
}

// MarginBreached reports whether the order's markup falls under the
// configured minimum.
func MarginBreached(o *Order, s Settings) bool {
	return ComputeProfitability(o).MarkupPct < s.MinimumMarginPct
}
