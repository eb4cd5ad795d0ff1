package metrics

import (
	"math"

	"github.com/shopspring/decimal"
)

// IRR solver bounds. Bisection is slower than Newton but cannot diverge, and
// the iteration cap keeps a pathological series from spinning.
const (
	irrLowerBound    = -0.9999
	irrUpperBound    = 10.0
	irrTolerance     = 1e-7
	irrMaxIterations = 200
	irrScale         = 6

	daysPerYear = 365.25
)

// SolveIRR finds the annualized discount rate that zeroes the net present
// value of the dated cash-flow series. It returns a nil rate and a reason
// when the series has no sign change or the solver does not converge; an
// undefined IRR is reported, never fabricated.
//
// The NPV iteration runs on float64 because it needs math.Pow; only the final
// rate is converted back to a decimal.
func SolveIRR(flows []CashFlow) (*decimal.Decimal, string) {
	if len(flows) < 2 {
		return nil, "needs at least two cash flows"
	}

	hasNegative, hasPositive := false, false
	for _, f := range flows {
		if f.Amount.IsNegative() {
			hasNegative = true
		}
		if f.Amount.IsPositive() {
			hasPositive = true
		}
	}
	if !hasNegative || !hasPositive {
		return nil, "cash flows have no sign change"
	}

	base := flows[0].Date
	amounts := make([]float64, len(flows))
	years := make([]float64, len(flows))
	for i, f := range flows {
		amounts[i], _ = f.Amount.Float64()
		years[i] = f.Date.Sub(base).Hours() / 24 / daysPerYear
	}

	npv := func(rate float64) float64 {
		total := 0.0
		for i := range amounts {
			total += amounts[i] / math.Pow(1+rate, years[i])
		}
		return total
	}

	lo, hi := irrLowerBound, irrUpperBound
	npvLo, npvHi := npv(lo), npv(hi)
	if npvLo*npvHi > 0 {
		return nil, "no root in solver bounds"
	}

	for i := 0; i < irrMaxIterations; i++ {
		mid := (lo + hi) / 2
		v := npv(mid)
		if math.Abs(v) < irrTolerance || (hi-lo)/2 < irrTolerance {
			rate := decimal.NewFromFloat(mid).Round(irrScale)
			return &rate, ""
		}
		if v*npvLo < 0 {
			hi = mid
		} else {
			lo = mid
			npvLo = v
		}
	}
	return nil, "solver did not converge"
}
