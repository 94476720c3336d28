// Package optimization sizes portfolio weights from return history using
// inverse-variance allocation with an optional volatility target.
package optimization

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/pkg/formulas"
)

// MinRows is the minimum number of aligned return rows for an allocation.
const MinRows = 30

// maxRows caps the trailing window at roughly one trading year.
const maxRows = 252

// PriceSource supplies daily close history.
type PriceSource interface {
	History(ctx context.Context, ticker string, lookbackDays int) ([]yahoo.Bar, error)
}

// Allocation is the result of a weight calculation.
type Allocation struct {
	Weights      map[string]float64 `json:"weights"`
	Cash         float64            `json:"cash"`
	PortfolioVol float64            `json:"portfolio_vol"`
	TargetVol    *float64           `json:"target_vol,omitempty"`
	Rows         int                `json:"rows"`
}

// Service computes allocations.
type Service struct {
	prices PriceSource
	log    zerolog.Logger
}

// NewService creates an optimization service.
func NewService(prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		prices: prices,
		log:    log.With().Str("service", "optimization").Logger(),
	}
}

// Allocate fetches history, aligns trailing returns across tickers and
// applies the target-volatility allocation. targetVol <= 0 means plain
// inverse variance with no cash sleeve.
func (s *Service) Allocate(ctx context.Context, tickers []string, lookbackDays int, targetVol float64) (*Allocation, error) {
	returns, err := s.alignedReturns(ctx, tickers, lookbackDays)
	if err != nil {
		return nil, err
	}

	if targetVol > 0 {
		return TargetVolatility(returns, targetVol)
	}
	return InverseVariance(returns)
}

// alignedReturns builds equal-length trailing return series per ticker.
// Series are right-aligned (most recent bars) and truncated to the shortest
// ticker, capped at one year.
func (s *Service) alignedReturns(ctx context.Context, tickers []string, lookbackDays int) (map[string][]float64, error) {
	series := make(map[string][]float64, len(tickers))
	minLen := -1

	for _, ticker := range tickers {
		bars, err := s.prices.History(ctx, ticker, lookbackDays)
		if err != nil {
			return nil, fmt.Errorf("fetching history for %s: %w", ticker, err)
		}

		returns := formulas.CalculateReturns(yahoo.Closes(bars))
		if len(returns) == 0 {
			return nil, fmt.Errorf("no usable history for %s", ticker)
		}
		series[ticker] = returns
		if minLen < 0 || len(returns) < minLen {
			minLen = len(returns)
		}
	}

	if minLen > maxRows {
		minLen = maxRows
	}
	if minLen < MinRows {
		return nil, fmt.Errorf("need at least %d aligned return rows, got %d", MinRows, minLen)
	}

	for ticker, returns := range series {
		series[ticker] = returns[len(returns)-minLen:]
	}
	return series, nil
}

// InverseVariance allocates proportionally to 1/variance, normalized to
// sum to one.
func InverseVariance(returns map[string][]float64) (*Allocation, error) {
	rows, err := rowCount(returns)
	if err != nil {
		return nil, err
	}

	weights := make(map[string]float64, len(returns))
	total := 0.0
	for ticker, series := range returns {
		sd := formulas.StdDev(series)
		if sd == 0 {
			return nil, fmt.Errorf("zero variance for %s", ticker)
		}
		w := 1 / (sd * sd)
		weights[ticker] = w
		total += w
	}
	for ticker := range weights {
		weights[ticker] /= total
	}

	return &Allocation{
		Weights:      weights,
		Cash:         0,
		PortfolioVol: portfolioVol(returns, weights),
		Rows:         rows,
	}, nil
}

// TargetVolatility scales the inverse-variance allocation so annualized
// portfolio volatility lands on the target, never levering above fully
// invested. The unallocated remainder is cash.
func TargetVolatility(returns map[string][]float64, targetVol float64) (*Allocation, error) {
	if targetVol <= 0 {
		return nil, fmt.Errorf("target volatility must be positive")
	}

	base, err := InverseVariance(returns)
	if err != nil {
		return nil, err
	}

	scale := 1.0
	if base.PortfolioVol > 0 {
		scale = targetVol / base.PortfolioVol
	}
	if scale > 1 {
		scale = 1
	}

	weights := make(map[string]float64, len(base.Weights))
	invested := 0.0
	for ticker, w := range base.Weights {
		weights[ticker] = w * scale
		invested += weights[ticker]
	}

	tv := targetVol
	return &Allocation{
		Weights:      weights,
		Cash:         1 - invested,
		PortfolioVol: portfolioVol(returns, weights),
		TargetVol:    &tv,
		Rows:         base.Rows,
	}, nil
}

// portfolioVol computes annualized sqrt(w' Sigma w) over the aligned
// return matrix. Cash (the unallocated remainder) contributes nothing.
func portfolioVol(returns map[string][]float64, weights map[string]float64) float64 {
	tickers := sortedTickers(returns)
	n := len(tickers)
	if n == 0 {
		return 0
	}
	rows := len(returns[tickers[0]])

	data := mat.NewDense(rows, n, nil)
	for j, ticker := range tickers {
		for i, r := range returns[ticker] {
			data.Set(i, j, r)
		}
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, data, nil)

	variance := 0.0
	for i, ti := range tickers {
		for j, tj := range tickers {
			variance += weights[ti] * weights[tj] * cov.At(i, j)
		}
	}
	if variance < 0 {
		variance = 0
	}

	return math.Sqrt(variance) * math.Sqrt(252)
}

func rowCount(returns map[string][]float64) (int, error) {
	if len(returns) == 0 {
		return 0, fmt.Errorf("no return series")
	}

	rows := -1
	for ticker, series := range returns {
		if rows < 0 {
			rows = len(series)
		} else if len(series) != rows {
			return 0, fmt.Errorf("misaligned return series for %s", ticker)
		}
	}
	if rows < MinRows {
		return 0, fmt.Errorf("need at least %d return rows, got %d", MinRows, rows)
	}
	return rows, nil
}

func sortedTickers(returns map[string][]float64) []string {
	out := make([]string, 0, len(returns))
	for t := range returns {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
