package journal

import "time"

// Trade sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Note is a free-form note attached to one ticker.
type Note struct {
	Ticker    string    `json:"ticker"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Trade is one journal entry.
type Trade struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Ticker    string    `json:"ticker"`
	Side      string    `json:"side"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
