// Package risk provides historical value-at-risk and trailing-stop
// calculations.
package risk

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/pkg/formulas"
)

// DefaultAlpha is the tail probability for VaR (5% = worst 1-in-20 day).
const DefaultAlpha = 0.05

// MinReturns is the minimum history length for a VaR estimate.
const MinReturns = 30

// PriceSource supplies daily close history.
type PriceSource interface {
	History(ctx context.Context, ticker string, lookbackDays int) ([]yahoo.Bar, error)
}

// VaRReport is the per-ticker value-at-risk summary.
type VaRReport struct {
	Alpha   float64            `json:"alpha"`
	VaR     map[string]float64 `json:"var"`
	Skipped []string           `json:"skipped,omitempty"`
}

// StopResult is a trailing-stop evaluation for one ticker.
type StopResult struct {
	Ticker    string  `json:"ticker"`
	Close     float64 `json:"close"`
	Peak      float64 `json:"peak"`
	StopLevel float64 `json:"stop_level"`
	Pct       float64 `json:"pct"`
	Triggered bool    `json:"triggered"`
}

// Service computes risk measures.
type Service struct {
	prices PriceSource
	log    zerolog.Logger
}

// NewService creates a risk service.
func NewService(prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		prices: prices,
		log:    log.With().Str("service", "risk").Logger(),
	}
}

// Report computes historical VaR for each ticker. Tickers with too little
// history are skipped, not fatal.
func (s *Service) Report(ctx context.Context, tickers []string, lookbackDays int, alpha float64) (*VaRReport, error) {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}

	report := &VaRReport{Alpha: alpha, VaR: make(map[string]float64, len(tickers))}
	for _, ticker := range tickers {
		bars, err := s.prices.History(ctx, ticker, lookbackDays)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("No price history")
			report.Skipped = append(report.Skipped, ticker)
			continue
		}

		returns := formulas.CalculateReturns(yahoo.Closes(bars))
		v, err := ValueAtRisk(returns, alpha)
		if err != nil {
			report.Skipped = append(report.Skipped, ticker)
			continue
		}
		report.VaR[ticker] = v
	}

	return report, nil
}

// Stop evaluates a trailing stop for one ticker over its full history.
func (s *Service) Stop(ctx context.Context, ticker string, lookbackDays int, pct float64) (*StopResult, error) {
	bars, err := s.prices.History(ctx, ticker, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", ticker, err)
	}

	closes := yahoo.Closes(bars)
	level, triggered, err := TrailingStop(closes, pct)
	if err != nil {
		return nil, err
	}

	peaks := formulas.RunningMax(closes)
	return &StopResult{
		Ticker:    ticker,
		Close:     closes[len(closes)-1],
		Peak:      peaks[len(peaks)-1],
		StopLevel: level,
		Pct:       pct,
		Triggered: triggered,
	}, nil
}

// ValueAtRisk returns the historical alpha-quantile of the return series
// as a positive loss fraction (0.03 = a 3% one-day loss).
func ValueAtRisk(returns []float64, alpha float64) (float64, error) {
	if len(returns) < MinReturns {
		return 0, fmt.Errorf("need at least %d returns, got %d", MinReturns, len(returns))
	}
	if alpha <= 0 || alpha >= 1 {
		return 0, fmt.Errorf("alpha must be in (0,1)")
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor(alpha * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	q := sorted[idx]
	if q > 0 {
		return 0, nil
	}
	return -q, nil
}

// TrailingStop computes the stop level from the running price maximum and
// whether the latest close sits at or below it.
func TrailingStop(closes []float64, pct float64) (level float64, triggered bool, err error) {
	if len(closes) == 0 {
		return 0, false, fmt.Errorf("no closes")
	}
	if pct <= 0 || pct >= 1 {
		return 0, false, fmt.Errorf("pct must be in (0,1)")
	}

	peaks := formulas.RunningMax(closes)
	level = peaks[len(peaks)-1] * (1 - pct)
	triggered = closes[len(closes)-1] <= level

	return level, triggered, nil
}
