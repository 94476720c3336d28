package optimization

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/clients/yahoo"
)

// syntheticReturns builds n uncorrelated gaussian return series with the
// given daily volatilities.
func syntheticReturns(n int, vols map[string]float64) map[string][]float64 {
	rng := rand.New(rand.NewSource(42))
	out := make(map[string][]float64, len(vols))
	for ticker, vol := range vols {
		series := make([]float64, n)
		for i := range series {
			series[i] = rng.NormFloat64() * vol
		}
		out[ticker] = series
	}
	return out
}

func TestInverseVarianceWeightsSumToOne(t *testing.T) {
	returns := syntheticReturns(252, map[string]float64{
		"CALM": 0.005,
		"WILD": 0.03,
	})

	alloc, err := InverseVariance(returns)
	require.NoError(t, err)

	sum := 0.0
	for _, w := range alloc.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 0.0, alloc.Cash)

	// The lower-volatility asset gets the larger weight.
	assert.Greater(t, alloc.Weights["CALM"], alloc.Weights["WILD"])
}

func TestInverseVarianceTooFewRows(t *testing.T) {
	returns := syntheticReturns(MinRows-1, map[string]float64{"A": 0.01})

	_, err := InverseVariance(returns)
	assert.Error(t, err)
}

func TestInverseVarianceMisaligned(t *testing.T) {
	returns := syntheticReturns(100, map[string]float64{"A": 0.01})
	returns["B"] = syntheticReturns(80, map[string]float64{"B": 0.01})["B"]

	_, err := InverseVariance(returns)
	assert.Error(t, err)
}

func TestTargetVolatilityHitsTarget(t *testing.T) {
	returns := syntheticReturns(252, map[string]float64{
		"A": 0.02,
		"B": 0.025,
	})

	const target = 0.10
	alloc, err := TargetVolatility(returns, target)
	require.NoError(t, err)

	invested := 0.0
	for _, w := range alloc.Weights {
		invested += w
	}
	assert.InDelta(t, 1.0, invested+alloc.Cash, 1e-9)
	assert.GreaterOrEqual(t, alloc.Cash, 0.0)
	assert.InDelta(t, target, alloc.PortfolioVol, target*0.05)
}

func TestTargetVolatilityNeverLevers(t *testing.T) {
	// Tiny vols: the unscaled portfolio already sits below the target, so
	// the scale is capped at 1 and no cash is held.
	returns := syntheticReturns(252, map[string]float64{
		"A": 0.0005,
		"B": 0.0006,
	})

	alloc, err := TargetVolatility(returns, 0.50)
	require.NoError(t, err)

	invested := 0.0
	for _, w := range alloc.Weights {
		invested += w
	}
	assert.InDelta(t, 1.0, invested, 1e-9)
	assert.InDelta(t, 0.0, alloc.Cash, 1e-9)
	assert.Less(t, alloc.PortfolioVol, 0.50)
}

func TestTargetVolatilityRejectsNonPositiveTarget(t *testing.T) {
	returns := syntheticReturns(252, map[string]float64{"A": 0.01})

	_, err := TargetVolatility(returns, 0)
	assert.Error(t, err)
}

type fakePrices struct {
	bars map[string][]yahoo.Bar
}

func (f *fakePrices) History(_ context.Context, ticker string, _ int) ([]yahoo.Bar, error) {
	return f.bars[ticker], nil
}

func noisyBars(n int, vol float64, seed int64) []yahoo.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]yahoo.Bar, n)
	price := 100.0
	for i := range bars {
		bars[i] = yahoo.Bar{Date: "2024-01-01", Close: price}
		price *= math.Exp(rng.NormFloat64() * vol)
	}
	return bars
}

func TestAllocateAlignsSeries(t *testing.T) {
	prices := &fakePrices{bars: map[string][]yahoo.Bar{
		"LONG":  noisyBars(400, 0.01, 1),
		"SHORT": noisyBars(100, 0.02, 2),
	}}

	svc := NewService(prices, zerolog.Nop())
	alloc, err := svc.Allocate(context.Background(), []string{"LONG", "SHORT"}, 730, 0)
	require.NoError(t, err)

	// Truncated to the shorter series' 99 returns.
	assert.Equal(t, 99, alloc.Rows)
	assert.Len(t, alloc.Weights, 2)
}

func TestAllocateShortHistoryFails(t *testing.T) {
	prices := &fakePrices{bars: map[string][]yahoo.Bar{
		"A": noisyBars(10, 0.01, 1),
	}}

	svc := NewService(prices, zerolog.Nop())
	_, err := svc.Allocate(context.Background(), []string{"A"}, 730, 0)
	assert.Error(t, err)
}
