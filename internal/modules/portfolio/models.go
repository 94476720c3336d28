package portfolio

import "time"

// Position is one holding.
type Position struct {
	Ticker    string    `json:"ticker"`
	Quantity  float64   `json:"quantity"`
	AvgPrice  *float64  `json:"avg_price,omitempty"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Tickers  []string `json:"tickers"`
}

// WeightReport is the market-value weight breakdown of the book.
type WeightReport struct {
	Weights    map[string]float64 `json:"weights"`
	TotalValue float64            `json:"total_value"`
	Missing    []string           `json:"missing,omitempty"`
}

// Nudge is one rebalancing suggestion.
type Nudge struct {
	Sector  string  `json:"sector"`
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
	DeltaPP float64 `json:"delta_pp"`
	Message string  `json:"message"`
}
