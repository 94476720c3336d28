// Package backtest replays rule-based strategies over daily history and
// compares them against buy-and-hold.
package backtest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/pkg/formulas"
)

// PriceSource supplies daily close history.
type PriceSource interface {
	History(ctx context.Context, ticker string, lookbackDays int) ([]yahoo.Bar, error)
}

// Service runs strategy comparisons.
type Service struct {
	prices PriceSource
	log    zerolog.Logger
}

// NewService creates a backtest service.
func NewService(prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		prices: prices,
		log:    log.With().Str("service", "backtest").Logger(),
	}
}

// Compare runs the composite, buy-and-hold and RSI mean-reversion
// strategies over the same bars. Position changes pay costBps basis points.
func (s *Service) Compare(ctx context.Context, ticker string, params config.SignalSettings, lookbackDays int, costBps float64) (*Comparison, error) {
	bars, err := s.prices.History(ctx, ticker, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", ticker, err)
	}

	closes := yahoo.Closes(bars)
	minBars := params.MALong
	if minBars < 35 {
		minBars = 35
	}
	if len(closes) < minBars+1 {
		return nil, fmt.Errorf("need at least %d bars for %s, got %d", minBars+1, ticker, len(closes))
	}

	comparison := &Comparison{
		Ticker:  ticker,
		Bars:    len(closes),
		CostBps: costBps,
	}

	strategies := []struct {
		name      string
		positions []float64
	}{
		{StrategyComposite, CompositePositions(closes, params)},
		{StrategyBuyHold, buyHoldPositions(len(closes))},
		{StrategyMeanReversion, MeanReversionPositions(closes, params.RSIPeriod, params.RSIBuy)},
	}

	for _, strat := range strategies {
		equity, trades := EquityCurve(closes, strat.positions, costBps)
		comparison.Results = append(comparison.Results, StrategyResult{
			Strategy: strat.name,
			Metrics:  computeMetrics(equity, trades),
			Equity:   equity,
		})
	}

	return comparison, nil
}

// CompositePositions derives the target position series for the MA/RSI/MACD
// composite rule: go long on a BUY bar, go flat on a SELL bar, otherwise
// carry the previous position.
func CompositePositions(closes []float64, params config.SignalSettings) []float64 {
	n := len(closes)
	positions := make([]float64, n)

	smaShort := formulas.SMA(closes, params.MAShort)
	smaLong := formulas.SMA(closes, params.MALong)
	rsi := formulas.RSI(closes, params.RSIPeriod)
	macd, macdSignal, _ := formulas.MACD(closes)
	if smaShort == nil || smaLong == nil || rsi == nil || macd == nil {
		return positions
	}

	warmup := params.MALong
	if warmup < 35 {
		warmup = 35
	}

	pos := 0.0
	for i := range closes {
		if i < warmup {
			positions[i] = 0
			continue
		}

		buy := smaShort[i] > smaLong[i] && macd[i] > macdSignal[i] && rsi[i] < params.RSISell
		sell := (smaShort[i] < smaLong[i] && macd[i] < macdSignal[i]) || rsi[i] > params.RSISell

		if buy {
			pos = 1
		}
		if sell {
			pos = 0
		}
		positions[i] = pos
	}

	return positions
}

// MeanReversionPositions goes long for the next bar whenever RSI dips
// below the entry threshold, flat otherwise.
func MeanReversionPositions(closes []float64, rsiPeriod int, rsiEntry float64) []float64 {
	n := len(closes)
	positions := make([]float64, n)

	rsi := formulas.RSI(closes, rsiPeriod)
	if rsi == nil {
		return positions
	}

	for i := range closes {
		if i <= rsiPeriod {
			continue
		}
		if rsi[i] < rsiEntry {
			positions[i] = 1
		}
	}

	return positions
}

func buyHoldPositions(n int) []float64 {
	positions := make([]float64, n)
	for i := range positions {
		positions[i] = 1
	}
	return positions
}

// EquityCurve applies a position series to a close series. The position
// held at bar i-1 earns bar i's return; a position change at bar i pays
// costBps basis points. Returns the curve (starting at 1.0) and the number
// of position changes.
func EquityCurve(closes, positions []float64, costBps float64) ([]float64, int) {
	n := len(closes)
	equity := make([]float64, n)
	if n == 0 {
		return equity, 0
	}

	cost := costBps / 10000.0
	equity[0] = 1.0
	trades := 0

	if positions[0] != 0 {
		equity[0] *= 1 - cost
		trades++
	}

	for i := 1; i < n; i++ {
		ret := 0.0
		if closes[i-1] != 0 {
			ret = closes[i]/closes[i-1] - 1
		}

		equity[i] = equity[i-1] * (1 + positions[i-1]*ret)
		if positions[i] != positions[i-1] {
			equity[i] *= 1 - cost
			trades++
		}
	}

	return equity, trades
}

func computeMetrics(equity []float64, trades int) Metrics {
	returns := formulas.CalculateReturns(equity)

	m := Metrics{
		Trades: trades,
		AnnVol: formulas.AnnualizedVolatility(returns, 252),
		CAGR:   formulas.CalculateCAGR(equity),
		Sharpe: formulas.CalculateSharpeRatio(returns, 0, 252),
	}
	if dd := formulas.CalculateMaxDrawdown(equity); dd != nil {
		m.MaxDrawdown = dd
	}
	if len(equity) > 0 {
		m.FinalEquity = equity[len(equity)-1]
	}

	return m
}
