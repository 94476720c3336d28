package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates a simple moving average series.
// The first period-1 entries are zero (insufficient lookback).
func SMA(closes []float64, period int) []float64 {
	if len(closes) < period {
		return nil
	}
	return talib.Sma(closes, period)
}

// EMA calculates an exponential moving average series.
func EMA(closes []float64, period int) []float64 {
	if len(closes) < period {
		return nil
	}
	return talib.Ema(closes, period)
}

// RSI calculates the Relative Strength Index series.
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over N periods
func RSI(closes []float64, period int) []float64 {
	if len(closes) < period+1 {
		return nil
	}
	return talib.Rsi(closes, period)
}

// LastRSI returns the current RSI value, or nil if insufficient data.
func LastRSI(closes []float64, period int) *float64 {
	rsi := RSI(closes, period)
	if len(rsi) == 0 {
		return nil
	}

	last := rsi[len(rsi)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// MACD calculates the MACD line, signal line and histogram using the
// standard 12/26/9 parameterization.
func MACD(closes []float64) (macd, signal, histogram []float64) {
	if len(closes) < 35 { // slow EMA 26 + signal EMA 9
		return nil, nil, nil
	}
	return talib.Macd(closes, 12, 26, 9)
}

// Bollinger calculates Bollinger Bands (upper, middle, lower) with the
// given period and standard-deviation multiplier.
func Bollinger(closes []float64, period int, stdDevs float64) (upper, middle, lower []float64) {
	if len(closes) < period {
		return nil, nil, nil
	}
	return talib.BBands(closes, period, stdDevs, stdDevs, talib.SMA)
}
