// Package report assembles the daily markdown report and dispatches it to
// Slack and email.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/modules/forecast"
	"github.com/aristath/advisor/internal/modules/screener"
	"github.com/aristath/advisor/internal/modules/signals"
	"github.com/aristath/advisor/pkg/formulas"
)

// QuoteSource supplies last prices.
type QuoteSource interface {
	Quote(ctx context.Context, ticker string) (float64, error)
}

// PriceSource supplies daily close history.
type PriceSource interface {
	History(ctx context.Context, ticker string, lookbackDays int) ([]yahoo.Bar, error)
}

// Service builds daily reports.
type Service struct {
	settings *config.Store
	quotes   QuoteSource
	signals  *signals.Service
	forecast *forecast.Service
	screener *screener.Service
	log      zerolog.Logger
}

// NewService creates a report service.
func NewService(settings *config.Store, quotes QuoteSource, signalsSvc *signals.Service, forecastSvc *forecast.Service, screenerSvc *screener.Service, log zerolog.Logger) *Service {
	return &Service{
		settings: settings,
		quotes:   quotes,
		signals:  signalsSvc,
		forecast: forecastSvc,
		screener: screenerSvc,
		log:      log.With().Str("service", "report").Logger(),
	}
}

// BuildDaily assembles the full report payload. Individual sections
// degrade to empty rather than failing the whole report.
func (s *Service) BuildDaily(ctx context.Context) (*Daily, error) {
	settings := s.settings.Get()
	tickers := s.settings.AllTickers()

	daily := &Daily{
		GeneratedAt: time.Now().UTC(),
		Prices:      map[string]float64{},
		Risk: RiskConfig{
			StopLossPct:        settings.Risk.StopLossPct,
			TakeProfitPct:      settings.Risk.TakeProfitPct,
			MaxPositionPct:     settings.Risk.MaxPositionPct,
			TargetPortfolioVol: settings.Risk.TargetPortfolioVol,
		},
	}

	for _, ticker := range tickers {
		price, err := s.quotes.Quote(ctx, ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("No quote for report")
			continue
		}
		daily.Prices[ticker] = price
	}

	snapshots, err := s.signals.Generate(ctx, tickers, settings.Signals, settings.Data.LookbackDays)
	if err != nil {
		s.log.Error().Err(err).Msg("Signal generation failed")
	} else {
		daily.Signals = snapshots
	}

	forecasts, err := s.forecast.Generate(ctx, tickers, settings.Data.LookbackDays, forecast.DefaultHorizonDays)
	if err != nil {
		s.log.Error().Err(err).Msg("Forecast generation failed")
	} else {
		daily.Forecast = forecasts
	}

	run, err := s.screener.Run(ctx, tickers, settings.Sectors, screener.DefaultTopN)
	if err != nil {
		s.log.Error().Err(err).Msg("Screener run failed")
	} else {
		daily.ScreenerPicks = run.Picks
	}

	daily.Sectors = SectorSummaries(daily.Prices, settings.Sectors)

	return daily, nil
}

// SectorSummaries aggregates last prices per configured sector. Tickers
// without a price count as missing.
func SectorSummaries(prices map[string]float64, sectors map[string][]string) []SectorSummary {
	names := make([]string, 0, len(sectors))
	for sector := range sectors {
		names = append(names, sector)
	}
	sort.Strings(names)

	out := make([]SectorSummary, 0, len(names))
	for _, sector := range names {
		summary := SectorSummary{Sector: sector}

		var covered []float64
		for _, ticker := range sectors[sector] {
			price, ok := prices[ticker]
			if !ok {
				summary.Missing++
				continue
			}
			covered = append(covered, price)
		}

		summary.Covered = len(covered)
		if len(covered) > 0 {
			summary.AvgPrice = formulas.Mean(covered)
			summary.MedianPrice = median(covered)
		}
		out = append(out, summary)
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
