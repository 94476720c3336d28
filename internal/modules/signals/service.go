// Package signals derives indicator snapshots and BUY/SELL/HOLD signals
// from daily price history.
package signals

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/pkg/formulas"
)

// PriceSource supplies daily close history.
type PriceSource interface {
	History(ctx context.Context, ticker string, lookbackDays int) ([]yahoo.Bar, error)
}

// Service computes indicator snapshots.
type Service struct {
	prices PriceSource
	log    zerolog.Logger
}

// NewService creates a signals service.
func NewService(prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		prices: prices,
		log:    log.With().Str("service", "signals").Logger(),
	}
}

// Generate computes a snapshot per ticker. Tickers without enough history
// are omitted with a warning; a partial result is more useful than none.
func (s *Service) Generate(ctx context.Context, tickers []string, params config.SignalSettings, lookbackDays int) (map[string]Snapshot, error) {
	out := make(map[string]Snapshot, len(tickers))

	for _, ticker := range tickers {
		bars, err := s.prices.History(ctx, ticker, lookbackDays)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("No price history")
			continue
		}

		snapshot, ok := Compute(ticker, yahoo.Closes(bars), params)
		if !ok {
			s.log.Warn().Str("ticker", ticker).Int("bars", len(bars)).Msg("Insufficient history for indicators")
			continue
		}
		out[ticker] = snapshot
	}

	return out, nil
}

// Compute builds the indicator snapshot for a close series. ok is false
// when the series is too short for the slowest indicator.
func Compute(ticker string, closes []float64, params config.SignalSettings) (Snapshot, bool) {
	minBars := params.MALong
	if minBars < 35 { // MACD needs the 26-EMA plus 9-signal warmup
		minBars = 35
	}
	if len(closes) < minBars+1 {
		return Snapshot{}, false
	}

	smaShort := formulas.SMA(closes, params.MAShort)
	smaLong := formulas.SMA(closes, params.MALong)
	ema20 := formulas.EMA(closes, 20)
	rsi := formulas.RSI(closes, params.RSIPeriod)
	macd, macdSignal, _ := formulas.MACD(closes)
	bbUpper, _, bbLower := formulas.Bollinger(closes, 20, 2)

	if smaShort == nil || smaLong == nil || ema20 == nil || rsi == nil || macd == nil {
		return Snapshot{}, false
	}

	last := len(closes) - 1
	snapshot := Snapshot{
		Ticker:     ticker,
		Close:      closes[last],
		SMAShort:   smaShort[last],
		SMALong:    smaLong[last],
		EMA20:      ema20[last],
		RSI:        rsi[last],
		MACD:       macd[last],
		MACDSignal: macdSignal[last],
		BBLower:    bbLower[last],
		BBUpper:    bbUpper[last],
	}
	snapshot.Signal = Evaluate(snapshot, params.RSISell)

	return snapshot, true
}

// Evaluate applies the signal rule to an indicator snapshot.
//
// BUY:  short MA above long MA, MACD above its signal line, and RSI not
//
//	yet overbought.
//
// SELL: trend and momentum both negative, or RSI overbought.
//
// SELL is evaluated last and wins when both rules fire on the same bar.
func Evaluate(s Snapshot, rsiSell float64) string {
	signal := SignalHold

	if s.SMAShort > s.SMALong && s.MACD > s.MACDSignal && s.RSI < rsiSell {
		signal = SignalBuy
	}
	if (s.SMAShort < s.SMALong && s.MACD < s.MACDSignal) || s.RSI > rsiSell {
		signal = SignalSell
	}

	return signal
}
