package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings is the user-editable domain configuration. It is persisted as
// YAML so it can be edited by hand while the service is stopped.
type Settings struct {
	Portfolio PortfolioSettings   `yaml:"portfolio" json:"portfolio"`
	Watchlist []string            `yaml:"watchlist" json:"watchlist"`
	Sectors   map[string][]string `yaml:"sectors" json:"sectors"`
	Signals   SignalSettings      `yaml:"signals" json:"signals"`
	Risk      RiskSettings        `yaml:"risk" json:"risk"`
	Data      DataSettings        `yaml:"data" json:"data"`
	News      NewsSettings        `yaml:"news" json:"news"`
	Plan      PlanSettings        `yaml:"plan" json:"plan"`
}

// PortfolioSettings lists the tracked portfolio universe.
type PortfolioSettings struct {
	Tickers []string           `yaml:"tickers" json:"tickers"`
	Weights map[string]float64 `yaml:"weights,omitempty" json:"weights,omitempty"`
}

// SignalSettings parameterizes the indicator rule set.
type SignalSettings struct {
	MAShort   int     `yaml:"ma_short" json:"ma_short"`
	MALong    int     `yaml:"ma_long" json:"ma_long"`
	RSIPeriod int     `yaml:"rsi_period" json:"rsi_period"`
	RSIBuy    float64 `yaml:"rsi_buy" json:"rsi_buy"`
	RSISell   float64 `yaml:"rsi_sell" json:"rsi_sell"`
}

// RiskSettings holds position and portfolio level risk limits.
type RiskSettings struct {
	MaxPositionPct     float64 `yaml:"max_position_pct" json:"max_position_pct"`
	StopLossPct        float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	TakeProfitPct      float64 `yaml:"take_profit_pct" json:"take_profit_pct"`
	TargetPortfolioVol float64 `yaml:"target_portfolio_vol" json:"target_portfolio_vol"`
}

// DataSettings controls price history depth.
type DataSettings struct {
	LookbackDays int `yaml:"lookback_days" json:"lookback_days"`
}

// NewsSettings selects the headline provider and volume.
type NewsSettings struct {
	Provider  string `yaml:"provider" json:"provider"` // auto, newsapi, finnhub
	PerTicker int    `yaml:"per_ticker" json:"per_ticker"`
}

// PlanSettings holds target sector allocations and the tolerated deviation
// band in percentage points.
type PlanSettings struct {
	TargetAllocations map[string]float64 `yaml:"target_allocations" json:"target_allocations"`
	BandsPct          float64            `yaml:"bands_pct" json:"bands_pct"`
}

// DefaultSettings returns the settings written on first run.
func DefaultSettings() Settings {
	return Settings{
		Portfolio: PortfolioSettings{
			Tickers: []string{"ASML.AS", "AAPL", "MSFT", "NVDA"},
		},
		Watchlist: []string{"ASML.AS", "AAPL", "NVDA"},
		Sectors: map[string][]string{
			"Tech": {"ASML.AS", "AAPL", "MSFT", "NVDA"},
		},
		Signals: SignalSettings{
			MAShort:   20,
			MALong:    50,
			RSIPeriod: 14,
			RSIBuy:    35,
			RSISell:   65,
		},
		Risk: RiskSettings{
			MaxPositionPct:     0.20,
			StopLossPct:        0.10,
			TakeProfitPct:      0.20,
			TargetPortfolioVol: 0.15,
		},
		Data: DataSettings{LookbackDays: 365},
		News: NewsSettings{Provider: "auto", PerTicker: 8},
		Plan: PlanSettings{
			TargetAllocations: map[string]float64{"Tech": 1.0},
			BandsPct:          5,
		},
	}
}

// Store loads, caches and persists Settings. Safe for concurrent use:
// HTTP handlers mutate the watchlist and plan while jobs read them.
type Store struct {
	path     string
	mu       sync.RWMutex
	settings Settings
}

// NewStore loads settings from path, creating the file with defaults when
// it does not exist.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.settings = DefaultSettings()
		if err := s.flush(); err != nil {
			return nil, fmt.Errorf("failed to write default settings: %w", err)
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	s.applyDefaults()
	return s, nil
}

// applyDefaults fills zero values left by a hand-edited file.
func (s *Store) applyDefaults() {
	def := DefaultSettings()
	if s.settings.Signals.MAShort == 0 {
		s.settings.Signals = def.Signals
	}
	if s.settings.Data.LookbackDays == 0 {
		s.settings.Data = def.Data
	}
	if s.settings.News.PerTicker == 0 {
		s.settings.News.PerTicker = def.News.PerTicker
	}
	if s.settings.News.Provider == "" {
		s.settings.News.Provider = def.News.Provider
	}
	if s.settings.Sectors == nil {
		s.settings.Sectors = map[string][]string{}
	}
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update applies fn to the settings under lock and persists the result.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.settings)
	return s.flush()
}

// AddToWatchlist adds a ticker, ignoring duplicates. Returns true when the
// ticker was added.
func (s *Store) AddToWatchlist(ticker string) (bool, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return false, fmt.Errorf("empty ticker")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.settings.Watchlist {
		if t == ticker {
			return false, nil
		}
	}

	s.settings.Watchlist = append(s.settings.Watchlist, ticker)
	sort.Strings(s.settings.Watchlist)
	return true, s.flush()
}

// RemoveFromWatchlist removes a ticker. Returns true when it was present.
func (s *Store) RemoveFromWatchlist(ticker string) (bool, error) {
	ticker = NormalizeTicker(ticker)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.settings.Watchlist[:0]
	removed := false
	for _, t := range s.settings.Watchlist {
		if t == ticker {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	s.settings.Watchlist = kept

	if !removed {
		return false, nil
	}
	return true, s.flush()
}

// AllTickers returns the union of portfolio and watchlist tickers, sorted.
func (s *Store) AllTickers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	var out []string
	for _, t := range append(append([]string{}, s.settings.Portfolio.Tickers...), s.settings.Watchlist...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// flush writes settings to disk. Callers must hold the write lock.
func (s *Store) flush() error {
	data, err := yaml.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// NormalizeTicker uppercases and trims a ticker symbol. Berkshire class-B
// style dots are preserved here; provider-specific notation is handled by
// the price client.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
