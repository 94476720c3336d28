// Package forecast produces short-horizon price projections from a linear
// trend fitted on log prices.
package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/advisor/internal/clients/yahoo"
)

// MinObservations is the minimum number of closes required for a fit.
const MinObservations = 30

// DefaultHorizonDays is the projection horizon used by the daily report.
const DefaultHorizonDays = 5

// PriceSource supplies daily close history.
type PriceSource interface {
	History(ctx context.Context, ticker string, lookbackDays int) ([]yahoo.Bar, error)
}

// Service produces forecasts.
type Service struct {
	prices PriceSource
	log    zerolog.Logger
}

// NewService creates a forecast service.
func NewService(prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		prices: prices,
		log:    log.With().Str("service", "forecast").Logger(),
	}
}

// Generate forecasts the close price horizonDays ahead for each ticker.
// Tickers that fail (no data, too little data) are omitted.
func (s *Service) Generate(ctx context.Context, tickers []string, lookbackDays, horizonDays int) (map[string]float64, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	out := make(map[string]float64, len(tickers))
	for _, ticker := range tickers {
		bars, err := s.prices.History(ctx, ticker, lookbackDays)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("No price history for forecast")
			continue
		}

		price, err := Project(yahoo.Closes(bars), horizonDays)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Forecast skipped")
			continue
		}
		out[ticker] = price
	}

	return out, nil
}

// Project fits log(price) = alpha + beta*t by ordinary least squares and
// extrapolates horizonDays steps past the end of the series.
func Project(closes []float64, horizonDays int) (float64, error) {
	if len(closes) < MinObservations {
		return 0, fmt.Errorf("need at least %d observations, got %d", MinObservations, len(closes))
	}

	xs := make([]float64, 0, len(closes))
	ys := make([]float64, 0, len(closes))
	for i, c := range closes {
		if c <= 0 {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, math.Log(c))
	}
	if len(xs) < MinObservations {
		return 0, fmt.Errorf("need at least %d positive closes, got %d", MinObservations, len(xs))
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return 0, fmt.Errorf("regression failed")
	}

	t := xs[len(xs)-1] + float64(horizonDays)
	return math.Exp(alpha + beta*t), nil
}
