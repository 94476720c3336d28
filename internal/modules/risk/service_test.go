package risk

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/clients/yahoo"
)

func TestValueAtRiskEmpiricalQuantile(t *testing.T) {
	// 100 returns: -0.50, -0.49, ..., +0.49. At alpha=0.05 the index is 5,
	// pointing at -0.45.
	returns := make([]float64, 100)
	for i := range returns {
		returns[i] = float64(i-50) / 100
	}

	v, err := ValueAtRisk(returns, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, v, 1e-9)
}

func TestValueAtRiskAllPositiveReturnsIsZero(t *testing.T) {
	returns := make([]float64, 60)
	for i := range returns {
		returns[i] = 0.01
	}

	v, err := ValueAtRisk(returns, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestValueAtRiskTooFewReturns(t *testing.T) {
	_, err := ValueAtRisk(make([]float64, MinReturns-1), 0.05)
	assert.Error(t, err)
}

func TestValueAtRiskInvalidAlpha(t *testing.T) {
	returns := make([]float64, 60)

	_, err := ValueAtRisk(returns, 0)
	assert.Error(t, err)

	_, err = ValueAtRisk(returns, 1)
	assert.Error(t, err)
}

func TestTrailingStopTracksRunningMax(t *testing.T) {
	// Peak 120 mid-series; later closes don't raise it.
	closes := []float64{100, 110, 120, 115, 112}

	level, triggered, err := TrailingStop(closes, 0.10)
	require.NoError(t, err)

	assert.InDelta(t, 108, level, 1e-9)
	assert.False(t, triggered)
}

func TestTrailingStopTriggered(t *testing.T) {
	closes := []float64{100, 120, 105}

	level, triggered, err := TrailingStop(closes, 0.10)
	require.NoError(t, err)

	assert.InDelta(t, 108, level, 1e-9)
	assert.True(t, triggered)
}

func TestTrailingStopValidation(t *testing.T) {
	_, _, err := TrailingStop(nil, 0.10)
	assert.Error(t, err)

	_, _, err = TrailingStop([]float64{100}, 0)
	assert.Error(t, err)
}

type fakePrices struct {
	bars map[string][]yahoo.Bar
}

func (f *fakePrices) History(_ context.Context, ticker string, _ int) ([]yahoo.Bar, error) {
	return f.bars[ticker], nil
}

func declineBars(n int) []yahoo.Bar {
	bars := make([]yahoo.Bar, n)
	price := 100.0
	for i := range bars {
		bars[i] = yahoo.Bar{Date: "2024-01-01", Close: price}
		price *= 0.995
	}
	return bars
}

func TestReportSkipsShortHistory(t *testing.T) {
	prices := &fakePrices{bars: map[string][]yahoo.Bar{
		"AAPL": declineBars(100),
		"MSFT": declineBars(5),
	}}

	svc := NewService(prices, zerolog.Nop())
	report, err := svc.Report(context.Background(), []string{"AAPL", "MSFT"}, 365, 0.05)
	require.NoError(t, err)

	assert.Contains(t, report.VaR, "AAPL")
	assert.Greater(t, report.VaR["AAPL"], 0.0)
	assert.Equal(t, []string{"MSFT"}, report.Skipped)
}

func TestStopUsesConfiguredPct(t *testing.T) {
	prices := &fakePrices{bars: map[string][]yahoo.Bar{
		"AAPL": {{Date: "2024-01-01", Close: 100}, {Date: "2024-01-02", Close: 120}, {Date: "2024-01-03", Close: 110}},
	}}

	svc := NewService(prices, zerolog.Nop())
	result, err := svc.Stop(context.Background(), "AAPL", 365, 0.15)
	require.NoError(t, err)

	assert.Equal(t, 120.0, result.Peak)
	assert.InDelta(t, 102, result.StopLevel, 1e-9)
	assert.False(t, result.Triggered)
}
