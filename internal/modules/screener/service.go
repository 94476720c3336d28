// Package screener ranks tickers by a cross-sectional factor score and
// keeps the best few per sector.
package screener

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/pkg/formulas"
)

// PriceSource supplies daily close history.
type PriceSource interface {
	History(ctx context.Context, ticker string, lookbackDays int) ([]yahoo.Bar, error)
}

// Service runs screener passes.
type Service struct {
	prices PriceSource
	log    zerolog.Logger
}

// NewService creates a screener service.
func NewService(prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		prices: prices,
		log:    log.With().Str("service", "screener").Logger(),
	}
}

// Run scores every ticker and returns the topN per sector, descending by
// score. Tickers without enough history are reported in Skipped.
func (s *Service) Run(ctx context.Context, tickers []string, sectors map[string][]string, topN int) (*RunResult, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	type scored struct {
		ticker  string
		close_  float64
		factors Factors
	}

	var rows []scored
	var skipped []string
	for _, ticker := range tickers {
		bars, err := s.prices.History(ctx, ticker, 560) // ~400 trading days
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("No price history")
			skipped = append(skipped, ticker)
			continue
		}

		closes := yahoo.Closes(bars)
		factors, ok := ComputeFactors(closes)
		if !ok {
			skipped = append(skipped, ticker)
			continue
		}
		rows = append(rows, scored{ticker: ticker, close_: closes[len(closes)-1], factors: factors})
	}

	if len(rows) == 0 {
		return &RunResult{Picks: map[string][]Result{}, Scanned: len(tickers), Skipped: skipped}, nil
	}

	// Cross-sectional percentile ranks per factor. Volatility and distance
	// to the 52-week high enter negated: calmer names and deeper pullbacks
	// below the high rank higher.
	mom12 := make([]float64, len(rows))
	mom3 := make([]float64, len(rows))
	vol := make([]float64, len(rows))
	dist := make([]float64, len(rows))
	trend := make([]float64, len(rows))
	for i, r := range rows {
		mom12[i] = r.factors.Momentum12M
		mom3[i] = r.factors.Momentum3M
		vol[i] = -r.factors.Volatility20D
		dist[i] = -r.factors.DistToHigh
		if r.factors.Uptrend {
			trend[i] = 1
		}
	}

	rMom12 := percentileRanks(mom12)
	rMom3 := percentileRanks(mom3)
	rVol := percentileRanks(vol)
	rDist := percentileRanks(dist)
	rTrend := percentileRanks(trend)

	sectorOf := invertSectors(sectors)

	results := make([]Result, len(rows))
	for i, r := range rows {
		score := (rMom12[i] + rMom3[i] + rVol[i] + rDist[i] + rTrend[i]) / 5

		sector := sectorOf[r.ticker]
		if sector == "" {
			sector = "Other"
		}
		results[i] = Result{
			Ticker:  r.ticker,
			Sector:  sector,
			Score:   score,
			Close:   r.close_,
			Factors: r.factors,
		}
	}

	picks := make(map[string][]Result)
	for _, res := range results {
		picks[res.Sector] = append(picks[res.Sector], res)
	}
	for sector, list := range picks {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Score != list[j].Score {
				return list[i].Score > list[j].Score
			}
			return list[i].Ticker < list[j].Ticker
		})
		if len(list) > topN {
			list = list[:topN]
		}
		picks[sector] = list
	}

	return &RunResult{Picks: picks, Scanned: len(tickers), Skipped: skipped}, nil
}

// ComputeFactors derives the raw factor values from a close series. ok is
// false when the series is shorter than MinBars.
func ComputeFactors(closes []float64) (Factors, bool) {
	n := len(closes)
	if n < MinBars {
		return Factors{}, false
	}

	last := closes[n-1]

	lookback12 := 252
	if lookback12 > n-1 {
		lookback12 = n - 1
	}
	lookback3 := 63
	if lookback3 > n-1 {
		lookback3 = n - 1
	}

	f := Factors{
		Momentum12M: last/closes[n-1-lookback12] - 1,
		Momentum3M:  last/closes[n-1-lookback3] - 1,
	}

	returns := formulas.CalculateReturns(closes[n-21:])
	f.Volatility20D = formulas.StdDev(returns)

	high := closes[n-1-lookback12]
	for _, c := range closes[n-1-lookback12:] {
		if c > high {
			high = c
		}
	}
	f.DistToHigh = last/high - 1

	if ma50 := formulas.SMA(closes, 50); ma50 != nil {
		f.Uptrend = last > ma50[n-1]
	}

	return f, true
}

// percentileRanks maps each value to its cross-sectional percentile in
// [0,1]; ties share the average of their positions.
func percentileRanks(values []float64) []float64 {
	n := len(values)
	ranks := make([]float64, n)
	if n == 1 {
		ranks[0] = 0.5
		return ranks
	}

	for i, v := range values {
		below, equal := 0, 0
		for j, w := range values {
			if j == i {
				continue
			}
			switch {
			case w < v:
				below++
			case w == v:
				equal++
			}
		}
		ranks[i] = (float64(below) + float64(equal)/2) / float64(n-1)
	}
	return ranks
}

func invertSectors(sectors map[string][]string) map[string]string {
	out := make(map[string]string)
	for sector, tickers := range sectors {
		for _, t := range tickers {
			out[t] = sector
		}
	}
	return out
}
