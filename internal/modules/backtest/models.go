package backtest

// Strategy names.
const (
	StrategyComposite     = "composite"
	StrategyBuyHold       = "buy_hold"
	StrategyMeanReversion = "rsi_mean_reversion"
)

// DefaultCostBps is the round-trip-half cost charged on each position change.
const DefaultCostBps = 5.0

// Metrics summarizes one strategy run. Pointer fields are nil when the
// series is too short or degenerate for the formula.
type Metrics struct {
	FinalEquity float64  `json:"final_equity"`
	CAGR        *float64 `json:"cagr"`
	Sharpe      *float64 `json:"sharpe"`
	AnnVol      float64  `json:"ann_vol"`
	MaxDrawdown *float64 `json:"max_drawdown"`
	Trades      int      `json:"trades"`
}

// StrategyResult is one strategy's equity curve and metrics.
type StrategyResult struct {
	Strategy string    `json:"strategy"`
	Metrics  Metrics   `json:"metrics"`
	Equity   []float64 `json:"equity"`
}

// Comparison is the result of running all strategies over the same bars.
type Comparison struct {
	Ticker  string           `json:"ticker"`
	Bars    int              `json:"bars"`
	CostBps float64          `json:"cost_bps"`
	Results []StrategyResult `json:"results"`
}
