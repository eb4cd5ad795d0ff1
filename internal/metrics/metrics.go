// Package metrics computes fund performance metrics (PIC, DPI, IRR, TVPI)
// from the extracted transaction set. Metrics are always derived on demand,
// never stored, and every result carries its full calculation breakdown.
package metrics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/db"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

// RatioScale is the fixed scale for DPI and TVPI ratios.
const RatioScale = 4

// CashFlow is one dated flow in the IRR series. Capital calls are negative,
// distributions positive.
type CashFlow struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Kind   string          `json:"kind"`
}

// AppliedAdjustment records how one adjustment entered the calculation, so a
// miscalibrated contribution-side default is visible in the output.
type AppliedAdjustment struct {
	Date             time.Time       `json:"date"`
	Amount           decimal.Decimal `json:"amount"`
	Category         string          `json:"category"`
	ContributionSide bool            `json:"contribution_side"`
	Effect           string          `json:"effect"`
}

// Breakdown is the auditable metrics result. Undefined IRR is a nil pointer
// with a reason, never a fabricated number.
type Breakdown struct {
	FundID int64 `json:"fund_id"`

	TotalCapitalCalls           decimal.Decimal `json:"total_capital_calls"`
	ContributionAdjustments     decimal.Decimal `json:"contribution_adjustments"`
	DistributionSideAdjustments decimal.Decimal `json:"distribution_side_adjustments"`
	PaidInCapital               decimal.Decimal `json:"paid_in_capital"`
	CumulativeDistributions     decimal.Decimal `json:"cumulative_distributions"`

	DPI  decimal.Decimal `json:"dpi"`
	TVPI decimal.Decimal `json:"tvpi"`

	IRR          *decimal.Decimal `json:"irr,omitempty"`
	IRRUndefined string           `json:"irr_undefined,omitempty"`

	// NAVTracked is false when no residual NAV is available, in which case
	// TVPI deliberately equals DPI and that equality is explicit here.
	NAVTracked  bool            `json:"nav_tracked"`
	ResidualNAV decimal.Decimal `json:"residual_nav"`

	CashFlows          []CashFlow          `json:"cash_flows"`
	AppliedAdjustments []AppliedAdjustment `json:"applied_adjustments"`
}

// Calculator loads a fund's transactions and computes its metrics.
type Calculator struct {
	db *bun.DB
}

func NewCalculator(database *bun.DB) *Calculator {
	return &Calculator{db: database}
}

// ForFund loads the fund's full transaction set and computes the breakdown.
func (c *Calculator) ForFund(ctx context.Context, fundID int64) (*Breakdown, error) {
	calls, err := db.ListCapitalCalls(ctx, c.db, fundID)
	if err != nil {
		return nil, err
	}
	dists, err := db.ListDistributions(ctx, c.db, fundID)
	if err != nil {
		return nil, err
	}
	adjs, err := db.ListAdjustments(ctx, c.db, fundID)
	if err != nil {
		return nil, err
	}
	return Compute(fundID, calls, dists, adjs), nil
}

// Compute derives all metrics from an in-memory transaction set. It is a pure
// function: an unchanged transaction set reproduces an identical breakdown.
//
// PIC is total capital calls plus signed contribution-side adjustments, minus
// signed distribution-side adjustments: a distribution-side rebalance is
// treated as a capital-call-side refund so the distributions numerator is
// never double-counted.
func Compute(fundID int64, calls []models.CapitalCall, dists []models.Distribution, adjs []models.Adjustment) *Breakdown {
	b := &Breakdown{
		FundID:                      fundID,
		TotalCapitalCalls:           decimal.Zero,
		ContributionAdjustments:     decimal.Zero,
		DistributionSideAdjustments: decimal.Zero,
		CumulativeDistributions:     decimal.Zero,
		ResidualNAV:                 decimal.Zero,
	}

	for _, call := range calls {
		b.TotalCapitalCalls = b.TotalCapitalCalls.Add(call.Amount)
		b.CashFlows = append(b.CashFlows, CashFlow{Date: call.CallDate, Amount: call.Amount.Neg(), Kind: "capital_call"})
	}
	for _, dist := range dists {
		b.CumulativeDistributions = b.CumulativeDistributions.Add(dist.Amount)
		b.CashFlows = append(b.CashFlows, CashFlow{Date: dist.DistributionDate, Amount: dist.Amount, Kind: "distribution"})
	}
	for _, adj := range adjs {
		applied := AppliedAdjustment{
			Date:             adj.AdjustmentDate,
			Amount:           adj.Amount,
			Category:         adj.Category,
			ContributionSide: adj.IsContributionAdjustment,
		}
		if adj.IsContributionAdjustment {
			b.ContributionAdjustments = b.ContributionAdjustments.Add(adj.Amount)
			applied.Effect = "added to paid-in capital"
		} else {
			b.DistributionSideAdjustments = b.DistributionSideAdjustments.Add(adj.Amount)
			applied.Effect = "refunded against paid-in capital"
		}
		b.AppliedAdjustments = append(b.AppliedAdjustments, applied)
	}

	sort.SliceStable(b.CashFlows, func(i, j int) bool {
		return b.CashFlows[i].Date.Before(b.CashFlows[j].Date)
	})

	b.PaidInCapital = b.TotalCapitalCalls.
		Add(b.ContributionAdjustments).
		Sub(b.DistributionSideAdjustments)

	// DPI on an uncapitalized fund is exactly zero, not an error.
	if b.PaidInCapital.IsZero() {
		b.DPI = decimal.Zero
	} else {
		b.DPI = b.CumulativeDistributions.DivRound(b.PaidInCapital, RatioScale)
	}

	// No residual NAV source yet, so TVPI reduces to DPI and says so.
	b.NAVTracked = false
	if b.NAVTracked && !b.PaidInCapital.IsZero() {
		b.TVPI = b.DPI.Add(b.ResidualNAV.DivRound(b.PaidInCapital, RatioScale))
	} else {
		b.TVPI = b.DPI
	}

	irr, reason := SolveIRR(b.CashFlows)
	if reason != "" {
		b.IRRUndefined = reason
	} else {
		b.IRR = irr
	}
	return b
}
