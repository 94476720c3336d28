// Package portfolio tracks holdings, their market-value weights and drift
// against the target allocation plan.
package portfolio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
)

// QuoteSource supplies last prices.
type QuoteSource interface {
	Quote(ctx context.Context, ticker string) (float64, error)
}

// Service manages positions.
type Service struct {
	repo   *Repository
	quotes QuoteSource
	log    zerolog.Logger
}

// NewService creates a portfolio service.
func NewService(repo *Repository, quotes QuoteSource, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		quotes: quotes,
		log:    log.With().Str("service", "portfolio").Logger(),
	}
}

// Positions returns all stored positions.
func (s *Service) Positions() ([]Position, error) {
	return s.repo.List()
}

// ImportCSV parses and upserts positions from a CSV stream. The header row
// is required; recognized columns are ticker, qty (or quantity), avg_price
// and currency, in any order. Unknown columns are ignored. A bad row fails
// the whole import with its row number.
func (s *Service) ImportCSV(reader io.Reader) (*ImportResult, error) {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	tickerCol, ok := cols["ticker"]
	if !ok {
		return nil, fmt.Errorf("CSV header must include a ticker column")
	}
	qtyCol, ok := cols["qty"]
	if !ok {
		qtyCol, ok = cols["quantity"]
	}
	if !ok {
		return nil, fmt.Errorf("CSV header must include a qty column")
	}

	var positions []Position
	row := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		ticker := config.NormalizeTicker(record[tickerCol])
		if ticker == "" {
			return nil, fmt.Errorf("row %d: empty ticker", row)
		}

		qty, err := strconv.ParseFloat(strings.TrimSpace(record[qtyCol]), 64)
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("row %d: invalid quantity %q", row, record[qtyCol])
		}

		p := Position{Ticker: ticker, Quantity: qty}
		if i, ok := cols["avg_price"]; ok && i < len(record) && strings.TrimSpace(record[i]) != "" {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil || v < 0 {
				return nil, fmt.Errorf("row %d: invalid avg_price %q", row, record[i])
			}
			p.AvgPrice = &v
		}
		if i, ok := cols["currency"]; ok && i < len(record) {
			p.Currency = strings.ToUpper(strings.TrimSpace(record[i]))
		}

		positions = append(positions, p)
	}

	if len(positions) == 0 {
		return nil, fmt.Errorf("CSV contains no positions")
	}

	result := &ImportResult{}
	for _, p := range positions {
		if err := s.repo.Upsert(p); err != nil {
			return nil, err
		}
		result.Imported++
		result.Tickers = append(result.Tickers, p.Ticker)
	}
	sort.Strings(result.Tickers)

	return result, nil
}

// Weights computes market-value weights of all positions at last prices.
// Tickers without a quote are excluded and reported in Missing.
func (s *Service) Weights(ctx context.Context) (*WeightReport, error) {
	positions, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("no positions; import a portfolio first")
	}

	values := map[string]float64{}
	total := 0.0
	var missing []string
	for _, p := range positions {
		price, err := s.quotes.Quote(ctx, p.Ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", p.Ticker).Msg("No quote for weight calculation")
			missing = append(missing, p.Ticker)
			continue
		}
		value := p.Quantity * price
		values[p.Ticker] = value
		total += value
	}

	if total == 0 {
		return nil, fmt.Errorf("no quotable positions")
	}

	weights := make(map[string]float64, len(values))
	for ticker, value := range values {
		weights[ticker] = value / total
	}

	return &WeightReport{Weights: weights, TotalValue: total, Missing: missing}, nil
}

// SectorWeights aggregates ticker weights by the configured sector map.
// Tickers without a sector land in "Other".
func SectorWeights(weights map[string]float64, sectors map[string][]string) map[string]float64 {
	sectorOf := map[string]string{}
	for sector, tickers := range sectors {
		for _, t := range tickers {
			sectorOf[t] = sector
		}
	}

	out := map[string]float64{}
	for ticker, w := range weights {
		sector := sectorOf[ticker]
		if sector == "" {
			sector = "Other"
		}
		out[sector] += w
	}
	return out
}

// PlanNudges compares sector weights to targets and produces a nudge for
// each sector deviating by more than bandPP percentage points. Sectors
// appearing only in targets count as currently 0%.
func PlanNudges(sectorWeights, targets map[string]float64, bandPP float64) []Nudge {
	sectors := map[string]bool{}
	for s := range sectorWeights {
		sectors[s] = true
	}
	for s := range targets {
		sectors[s] = true
	}

	names := make([]string, 0, len(sectors))
	for s := range sectors {
		names = append(names, s)
	}
	sort.Strings(names)

	var nudges []Nudge
	for _, sector := range names {
		current := sectorWeights[sector] * 100
		target := targets[sector] * 100
		delta := current - target

		if delta > bandPP {
			nudges = append(nudges, Nudge{
				Sector:  sector,
				Current: current,
				Target:  target,
				DeltaPP: delta,
				Message: fmt.Sprintf("%s is %.1fpp above its %.0f%% target; consider trimming", sector, delta, target),
			})
		} else if -delta > bandPP {
			nudges = append(nudges, Nudge{
				Sector:  sector,
				Current: current,
				Target:  target,
				DeltaPP: delta,
				Message: fmt.Sprintf("%s is %.1fpp below its %.0f%% target; consider adding", sector, -delta, target),
			})
		}
	}
	return nudges
}
