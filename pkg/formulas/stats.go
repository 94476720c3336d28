// Package formulas provides the shared technical-analysis and statistics
// primitives used by the signals, screener, backtest and risk modules.
package formulas

import "math"

// Mean calculates the arithmetic mean of values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev calculates the sample standard deviation of values
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	mean := Mean(values)
	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}

	return math.Sqrt(sumSquares / float64(len(values)-1))
}

// CalculateReturns converts a price series to simple periodic returns.
// The result has len(prices)-1 elements.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	return returns
}

// AnnualizedVolatility annualizes the standard deviation of periodic returns.
//
// periodsPerYear is 252 for daily returns, 12 for monthly.
func AnnualizedVolatility(returns []float64, periodsPerYear int) float64 {
	return StdDev(returns) * math.Sqrt(float64(periodsPerYear))
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
