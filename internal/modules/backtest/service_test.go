package backtest

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/config"
)

var testParams = config.SignalSettings{
	MAShort:   20,
	MALong:    50,
	RSIPeriod: 14,
	RSIBuy:    30,
	RSISell:   70,
}

func TestEquityCurveFlatStrategy(t *testing.T) {
	closes := []float64{100, 110, 90, 120}
	positions := []float64{0, 0, 0, 0}

	equity, trades := EquityCurve(closes, positions, 10)

	assert.Equal(t, 0, trades)
	for _, e := range equity {
		assert.Equal(t, 1.0, e)
	}
}

func TestEquityCurveBuyHoldMatchesPriceRatio(t *testing.T) {
	closes := []float64{100, 110, 121, 133.1}
	positions := buyHoldPositions(len(closes))

	equity, trades := EquityCurve(closes, positions, 0)

	assert.Equal(t, 1, trades) // initial entry
	assert.InDelta(t, closes[len(closes)-1]/closes[0], equity[len(equity)-1], 1e-9)
}

func TestEquityCurveCostOnPositionChange(t *testing.T) {
	closes := []float64{100, 100, 100, 100}
	positions := []float64{0, 1, 1, 0}

	const costBps = 50.0
	equity, trades := EquityCurve(closes, positions, costBps)

	assert.Equal(t, 2, trades)
	want := math.Pow(1-costBps/10000, 2)
	assert.InDelta(t, want, equity[len(equity)-1], 1e-12)
}

func TestEquityCurvePositionEarnsNextBarReturn(t *testing.T) {
	closes := []float64{100, 100, 110, 110}
	// Entered at bar 1, so only bar 2's +10% is earned.
	positions := []float64{0, 1, 1, 1}

	equity, _ := EquityCurve(closes, positions, 0)
	assert.InDelta(t, 1.10, equity[len(equity)-1], 1e-9)
}

func TestMeanReversionPositions(t *testing.T) {
	// Long decline pushes RSI below the entry threshold.
	closes := make([]float64, 100)
	price := 100.0
	for i := range closes {
		closes[i] = price
		price *= 0.99
	}

	positions := MeanReversionPositions(closes, 14, 30)

	assert.Equal(t, 0.0, positions[5]) // inside RSI warmup
	assert.Equal(t, 1.0, positions[len(positions)-1])
}

func TestCompositePositionsUptrendGoesLong(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5 + math.Sin(float64(i))
	}

	positions := CompositePositions(closes, testParams)

	assert.Equal(t, 0.0, positions[10]) // warmup is flat
	long := 0
	for _, p := range positions {
		if p == 1 {
			long++
		}
	}
	assert.Greater(t, long, 50)
}

type fakePrices struct {
	bars []yahoo.Bar
	err  error
}

func (f *fakePrices) History(_ context.Context, _ string, _ int) ([]yahoo.Bar, error) {
	return f.bars, f.err
}

func trendBars(n int) []yahoo.Bar {
	bars := make([]yahoo.Bar, n)
	for i := range bars {
		bars[i] = yahoo.Bar{Date: "2024-01-01", Close: 100 + float64(i)*0.5 + math.Sin(float64(i))}
	}
	return bars
}

func TestCompareRunsAllStrategies(t *testing.T) {
	svc := NewService(&fakePrices{bars: trendBars(300)}, zerolog.Nop())

	comparison, err := svc.Compare(context.Background(), "AAPL", testParams, 365, 5)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", comparison.Ticker)
	assert.Equal(t, 300, comparison.Bars)
	require.Len(t, comparison.Results, 3)

	names := make([]string, 0, 3)
	for _, res := range comparison.Results {
		names = append(names, res.Strategy)
		assert.Len(t, res.Equity, 300)
		assert.Greater(t, res.Metrics.FinalEquity, 0.0)
	}
	assert.ElementsMatch(t, []string{StrategyComposite, StrategyBuyHold, StrategyMeanReversion}, names)
}

func TestCompareTooFewBars(t *testing.T) {
	svc := NewService(&fakePrices{bars: trendBars(30)}, zerolog.Nop())

	_, err := svc.Compare(context.Background(), "AAPL", testParams, 365, 5)
	assert.Error(t, err)
}
