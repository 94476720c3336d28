package yahoo

// Bar is a single daily price bar. Only the close is carried: every
// downstream consumer (signals, screener, backtest, optimizer) works on
// adjusted closes.
type Bar struct {
	Date  string  `json:"date" msgpack:"date"` // YYYY-MM-DD
	Close float64 `json:"close" msgpack:"close"`
}

// chartResponse mirrors the relevant parts of the Yahoo Finance v8 chart
// API payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}
