package signals

// Signal values.
const (
	SignalBuy  = "BUY"
	SignalSell = "SELL"
	SignalHold = "HOLD"
)

// Snapshot is the latest indicator state for one ticker, plus the signal
// derived from it.
type Snapshot struct {
	Ticker     string  `json:"ticker"`
	Signal     string  `json:"signal"`
	Close      float64 `json:"close"`
	SMAShort   float64 `json:"sma_s"`
	SMALong    float64 `json:"sma_l"`
	EMA20      float64 `json:"ema_20"`
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_sig"`
	BBLower    float64 `json:"bb_l"`
	BBUpper    float64 `json:"bb_h"`
}
