package report

import (
	"time"

	"github.com/aristath/advisor/internal/modules/screener"
	"github.com/aristath/advisor/internal/modules/signals"
)

// Dispatch statuses recorded per channel.
const (
	StatusSent    = "sent"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// SectorSummary aggregates price coverage for one sector.
type SectorSummary struct {
	Sector      string  `json:"sector"`
	AvgPrice    float64 `json:"avg_price"`
	MedianPrice float64 `json:"median_price"`
	Covered     int     `json:"covered"`
	Missing     int     `json:"missing"`
}

// RiskConfig is the risk block echoed into the report.
type RiskConfig struct {
	StopLossPct        float64 `json:"stop_loss_pct"`
	TakeProfitPct      float64 `json:"take_profit_pct"`
	MaxPositionPct     float64 `json:"max_position_pct"`
	TargetPortfolioVol float64 `json:"target_portfolio_vol"`
}

// Daily is the assembled daily report payload.
type Daily struct {
	GeneratedAt   time.Time                      `json:"generated_at" msgpack:"generated_at"`
	Prices        map[string]float64             `json:"prices" msgpack:"prices"`
	Signals       map[string]signals.Snapshot    `json:"signals" msgpack:"signals"`
	Forecast      map[string]float64             `json:"forecast" msgpack:"forecast"`
	Sectors       []SectorSummary                `json:"sectors" msgpack:"sectors"`
	ScreenerPicks map[string][]screener.Result   `json:"screener_picks" msgpack:"screener_picks"`
	Risk          RiskConfig                     `json:"risk" msgpack:"risk"`
}

// Snapshot is a stored report with its dispatch outcome.
type Snapshot struct {
	ID          int64     `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Markdown    string    `json:"markdown"`
	SlackStatus string    `json:"slack_status"`
	EmailStatus string    `json:"email_status"`
}
