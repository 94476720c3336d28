package formulas

import "math"

// CalculateSharpeRatio calculates the annualized Sharpe Ratio.
//
// Sharpe Ratio Formula:
//
//	Sharpe = (Mean Return - Periodic Risk-free Rate) / StdDev of Returns
//	Annualized: Sharpe x sqrt(periodsPerYear)
//
// Args:
//
//	returns: Array of periodic returns (daily, monthly, etc.)
//	riskFreeRate: Risk-free rate (annual, as decimal, e.g., 0.02 for 2%)
//	periodsPerYear: Number of periods per year (252 for daily, 12 for monthly)
//
// Returns:
//
//	Sharpe ratio or nil if insufficient data
func CalculateSharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}

	meanReturn := Mean(returns)

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)

	sharpe := (meanReturn - periodicRiskFree) / stdDev
	annualized := sharpe * math.Sqrt(float64(periodsPerYear))

	return &annualized
}

// CalculateCAGR calculates the compound annual growth rate of an equity
// curve sampled at daily frequency (252 trading days per year).
//
// Returns nil when the curve is too short or starts at or below zero.
func CalculateCAGR(equity []float64) *float64 {
	if len(equity) < 2 || equity[0] <= 0 {
		return nil
	}

	years := float64(len(equity)) / 252.0
	if years <= 0 {
		return nil
	}

	total := equity[len(equity)-1] / equity[0]
	if total <= 0 {
		return nil
	}

	cagr := math.Pow(total, 1.0/years) - 1.0
	return &cagr
}
