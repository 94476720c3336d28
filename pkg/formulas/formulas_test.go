package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{1}))

	// Sample std dev of {2,4,4,4,5,5,7,9} is ~2.138
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.138, StdDev(values), 0.001)
}

func TestCalculateReturns(t *testing.T) {
	assert.Nil(t, CalculateReturns([]float64{100}))

	returns := CalculateReturns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)
}

func TestCalculateReturnsZeroPrice(t *testing.T) {
	returns := CalculateReturns([]float64{0, 10})
	require.Len(t, returns, 1)
	assert.Equal(t, 0.0, returns[0])
}

func TestSMA(t *testing.T) {
	assert.Nil(t, SMA([]float64{1, 2}, 5))

	sma := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, sma, 5)
	assert.InDelta(t, 4.0, sma[4], 1e-9) // (3+4+5)/3
}

func TestLastRSI(t *testing.T) {
	assert.Nil(t, LastRSI([]float64{1, 2, 3}, 14))

	// Monotonically rising series saturates RSI near 100.
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := LastRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.Greater(t, *rsi, 95.0)
}

func TestMACDInsufficientData(t *testing.T) {
	macd, signal, hist := MACD(make([]float64, 10))
	assert.Nil(t, macd)
	assert.Nil(t, signal)
	assert.Nil(t, hist)
}

func TestBollinger(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i))
	}

	upper, middle, lower := Bollinger(closes, 20, 2)
	require.Len(t, upper, 40)
	last := len(closes) - 1
	assert.Greater(t, upper[last], middle[last])
	assert.Less(t, lower[last], middle[last])
}

func TestCalculateSharpeRatio(t *testing.T) {
	assert.Nil(t, CalculateSharpeRatio([]float64{0.01}, 0, 252))
	assert.Nil(t, CalculateSharpeRatio([]float64{0.01, 0.01, 0.01}, 0, 252)) // zero variance

	// Alternating returns with positive mean have a positive Sharpe.
	returns := []float64{0.02, -0.01, 0.02, -0.01, 0.02, -0.01}
	sharpe := CalculateSharpeRatio(returns, 0, 252)
	require.NotNil(t, sharpe)
	assert.Greater(t, *sharpe, 0.0)
}

func TestCalculateCAGR(t *testing.T) {
	assert.Nil(t, CalculateCAGR([]float64{1}))

	// Doubling over exactly one trading year (252 samples).
	equity := make([]float64, 252)
	for i := range equity {
		equity[i] = 1 + float64(i)/251.0
	}
	cagr := CalculateCAGR(equity)
	require.NotNil(t, cagr)
	assert.InDelta(t, 1.0, *cagr, 0.01)
}

func TestCalculateMaxDrawdown(t *testing.T) {
	assert.Nil(t, CalculateMaxDrawdown([]float64{1}))

	dd := CalculateMaxDrawdown([]float64{100, 120, 90, 110, 80})
	require.NotNil(t, dd)
	// Peak 120 -> trough 80 = 33.3% drawdown
	assert.InDelta(t, 1.0/3.0, *dd, 1e-9)
}

func TestRunningMax(t *testing.T) {
	assert.Nil(t, RunningMax(nil))
	assert.Equal(t, []float64{1, 3, 3, 5}, RunningMax([]float64{1, 3, 2, 5}))
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.01, -0.01}
	vol := AnnualizedVolatility(returns, 252)
	assert.InDelta(t, StdDev(returns)*math.Sqrt(252), vol, 1e-12)
}
