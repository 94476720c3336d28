package screener

// MinBars is the minimum history length for a ticker to be scored.
const MinBars = 120

// DefaultTopN is the number of picks kept per sector.
const DefaultTopN = 5

// Factors holds the raw factor values for one ticker.
type Factors struct {
	Momentum12M   float64 `json:"momentum_12m"`
	Momentum3M    float64 `json:"momentum_3m"`
	Volatility20D float64 `json:"volatility_20d"`
	DistToHigh    float64 `json:"dist_to_high"`
	Uptrend       bool    `json:"uptrend"`
}

// Result is one scored ticker.
type Result struct {
	Ticker  string  `json:"ticker"`
	Sector  string  `json:"sector"`
	Score   float64 `json:"score"`
	Close   float64 `json:"close"`
	Factors Factors `json:"factors"`
}

// RunResult is a full screener pass grouped by sector.
type RunResult struct {
	Picks   map[string][]Result `json:"picks"`
	Scanned int                 `json:"scanned"`
	Skipped []string            `json:"skipped,omitempty"`
}
