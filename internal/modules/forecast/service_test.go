package forecast

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/clients/yahoo"
)

func TestProjectExponentialGrowth(t *testing.T) {
	// On a noiseless exponential series the log-linear fit is exact, so the
	// projection must land on the same curve.
	const growth = 0.001
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 * math.Exp(growth*float64(i))
	}

	got, err := Project(closes, 5)
	require.NoError(t, err)

	want := 100 * math.Exp(growth*float64(len(closes)-1+5))
	assert.InDelta(t, want, got, want*1e-9)
}

func TestProjectFlatSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 42.5
	}

	got, err := Project(closes, 5)
	require.NoError(t, err)
	assert.InDelta(t, 42.5, got, 1e-9)
}

func TestProjectTooFewObservations(t *testing.T) {
	closes := make([]float64, MinObservations-1)
	for i := range closes {
		closes[i] = 100
	}

	_, err := Project(closes, 5)
	assert.Error(t, err)
}

func TestProjectSkipsNonPositiveCloses(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	closes[10] = 0
	closes[20] = -5

	got, err := Project(closes, 5)
	require.NoError(t, err)
	assert.InDelta(t, 100, got, 1e-9)
}

type fakePrices struct {
	bars map[string][]yahoo.Bar
	err  error
}

func (f *fakePrices) History(_ context.Context, ticker string, _ int) ([]yahoo.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars[ticker], nil
}

func expBars(n int) []yahoo.Bar {
	bars := make([]yahoo.Bar, n)
	for i := range bars {
		bars[i] = yahoo.Bar{Date: "2024-01-01", Close: 100 * math.Exp(0.001*float64(i))}
	}
	return bars
}

func TestGenerateSkipsFailingTickers(t *testing.T) {
	prices := &fakePrices{bars: map[string][]yahoo.Bar{
		"AAPL": expBars(120),
		"MSFT": expBars(10), // too short
	}}

	svc := NewService(prices, zerolog.Nop())
	forecasts, err := svc.Generate(context.Background(), []string{"AAPL", "MSFT"}, 365, 5)
	require.NoError(t, err)

	assert.Contains(t, forecasts, "AAPL")
	assert.NotContains(t, forecasts, "MSFT")
	assert.Greater(t, forecasts["AAPL"], 100.0)
}

func TestGenerateAllFailing(t *testing.T) {
	svc := NewService(&fakePrices{err: errors.New("api down")}, zerolog.Nop())

	forecasts, err := svc.Generate(context.Background(), []string{"AAPL"}, 365, 5)
	require.NoError(t, err)
	assert.Empty(t, forecasts)
}
