package metrics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func baselineCalls() []models.CapitalCall {
	return []models.CapitalCall{
		{FundID: 1, CallDate: date(2024, 1, 15), Amount: amount("4000000.00")},
		{FundID: 1, CallDate: date(2024, 3, 20), Amount: amount("6000000.00")},
	}
}

func baselineDists() []models.Distribution {
	return []models.Distribution{
		{FundID: 1, DistributionDate: date(2024, 9, 30), Amount: amount("4000000.00")},
	}
}

func TestCompute(t *testing.T) {
	t.Run("calls and distributions only", func(t *testing.T) {
		b := Compute(1, baselineCalls(), baselineDists(), nil)

		assert.True(t, b.PaidInCapital.Equal(amount("10000000.00")), "PIC = %s", b.PaidInCapital)
		assert.True(t, b.CumulativeDistributions.Equal(amount("4000000.00")))
		assert.Equal(t, "0.4000", b.DPI.StringFixed(RatioScale))
	})

	t.Run("contribution adjustment raises paid-in capital", func(t *testing.T) {
		adjs := []models.Adjustment{
			{
				FundID:                   1,
				AdjustmentDate:           date(2024, 2, 1),
				Amount:                   amount("100000.00"),
				Category:                 "General",
				IsContributionAdjustment: true,
			},
		}
		b := Compute(1, baselineCalls(), baselineDists(), adjs)

		assert.True(t, b.PaidInCapital.Equal(amount("10100000.00")), "PIC = %s", b.PaidInCapital)
		assert.Equal(t, "0.3960", b.DPI.StringFixed(RatioScale))

		require.Len(t, b.AppliedAdjustments, 1)
		assert.True(t, b.AppliedAdjustments[0].ContributionSide)
		assert.Equal(t, "added to paid-in capital", b.AppliedAdjustments[0].Effect)
	})

	t.Run("distribution-side adjustment refunds paid-in capital", func(t *testing.T) {
		adjs := []models.Adjustment{
			{
				FundID:         1,
				AdjustmentDate: date(2024, 2, 1),
				Amount:         amount("100000.00"),
			},
		}
		b := Compute(1, baselineCalls(), baselineDists(), adjs)

		assert.True(t, b.PaidInCapital.Equal(amount("9900000.00")))
		require.Len(t, b.AppliedAdjustments, 1)
		assert.False(t, b.AppliedAdjustments[0].ContributionSide)
	})

	t.Run("DPI on an uncapitalized fund is exactly zero", func(t *testing.T) {
		b := Compute(1, nil, baselineDists(), nil)
		assert.True(t, b.PaidInCapital.IsZero())
		assert.True(t, b.DPI.IsZero())
	})

	t.Run("TVPI equals DPI while NAV is untracked", func(t *testing.T) {
		b := Compute(1, baselineCalls(), baselineDists(), nil)
		assert.False(t, b.NAVTracked)
		assert.True(t, b.TVPI.Equal(b.DPI))
	})

	t.Run("cash flows are date ordered with calls negated", func(t *testing.T) {
		b := Compute(1, baselineCalls(), baselineDists(), nil)
		require.Len(t, b.CashFlows, 3)
		for i := 1; i < len(b.CashFlows); i++ {
			assert.False(t, b.CashFlows[i].Date.Before(b.CashFlows[i-1].Date))
		}
		assert.True(t, b.CashFlows[0].Amount.IsNegative())
		assert.Equal(t, "capital_call", b.CashFlows[0].Kind)
		assert.True(t, b.CashFlows[2].Amount.IsPositive())
	})

	t.Run("identical inputs reproduce an identical breakdown", func(t *testing.T) {
		first := Compute(1, baselineCalls(), baselineDists(), nil)
		second := Compute(1, baselineCalls(), baselineDists(), nil)

		assert.True(t, first.PaidInCapital.Equal(second.PaidInCapital))
		assert.Equal(t, first.DPI.String(), second.DPI.String())
		assert.Equal(t, first.TVPI.String(), second.TVPI.String())
		assert.Equal(t, first.IRRUndefined, second.IRRUndefined)
		if first.IRR != nil {
			require.NotNil(t, second.IRR)
			assert.Equal(t, first.IRR.String(), second.IRR.String())
		}
	})
}

func TestSolveIRR(t *testing.T) {
	t.Run("ten percent over one year", func(t *testing.T) {
		flows := []CashFlow{
			{Date: date(2023, 1, 1), Amount: amount("-1000.00"), Kind: "capital_call"},
			{Date: date(2024, 1, 1), Amount: amount("1100.00"), Kind: "distribution"},
		}
		rate, reason := SolveIRR(flows)
		require.Empty(t, reason)
		require.NotNil(t, rate)

		f, _ := rate.Float64()
		assert.InDelta(t, 0.10, f, 0.01)
	})

	t.Run("no sign change reports a reason not a rate", func(t *testing.T) {
		flows := []CashFlow{
			{Date: date(2024, 6, 30), Amount: amount("4000000.00"), Kind: "distribution"},
			{Date: date(2024, 9, 30), Amount: amount("1000000.00"), Kind: "distribution"},
		}
		rate, reason := SolveIRR(flows)
		assert.Nil(t, rate)
		assert.Equal(t, "cash flows have no sign change", reason)
	})

	t.Run("fewer than two flows is undefined", func(t *testing.T) {
		rate, reason := SolveIRR([]CashFlow{
			{Date: date(2024, 1, 1), Amount: amount("-1000.00")},
		})
		assert.Nil(t, rate)
		assert.NotEmpty(t, reason)
	})

	t.Run("total loss stays within solver bounds", func(t *testing.T) {
		flows := []CashFlow{
			{Date: date(2023, 1, 1), Amount: amount("-1000.00")},
			{Date: date(2024, 1, 1), Amount: amount("10.00")},
		}
		rate, reason := SolveIRR(flows)
		require.Empty(t, reason)
		require.NotNil(t, rate)
		f, _ := rate.Float64()
		assert.Less(t, f, 0.0)
		assert.Greater(t, f, -1.0)
	})
}
