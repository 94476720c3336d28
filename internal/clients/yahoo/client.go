// Package yahoo fetches daily price history and quotes from the Yahoo
// Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/pkg/httpclient"
)

const baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Client is a Yahoo Finance chart API client with persistent caching.
// cache is optional; when nil, every call hits the API.
type Client struct {
	baseURL string
	http    *httpclient.Client
	cache   *clientdata.Repository
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client.
func NewClient(cache *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http: httpclient.New(httpclient.Options{
			Timeout:        30 * time.Second,
			RequestsPerSec: 4,
		}),
		cache: cache,
		log:   log.With().Str("client", "yahoo").Logger(),
	}
}

// Symbol converts a configured ticker to Yahoo notation.
// Class shares use a dash on Yahoo: BRK.B -> BRK-B. Exchange-suffixed
// tickers (ASML.AS, BASF.DE) pass through unchanged.
func Symbol(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	switch t {
	case "BRK.B":
		return "BRK-B"
	case "BRK.A":
		return "BRK-A"
	}
	return t
}

// History returns daily closing bars for the trailing lookbackDays.
// Results are cached for an hour; when the API fails, a stale cache entry
// is served instead (stale data > no data).
func (c *Client) History(ctx context.Context, ticker string, lookbackDays int) ([]Bar, error) {
	if lookbackDays <= 0 {
		lookbackDays = 365
	}

	cacheKey := fmt.Sprintf("history:%s:%d", Symbol(ticker), lookbackDays)

	var cached []Bar
	if c.cache != nil {
		if err := c.cache.GetFresh("yahoo", cacheKey, &cached); err == nil {
			c.log.Debug().Str("ticker", ticker).Int("bars", len(cached)).Msg("History cache hit")
			return cached, nil
		}
	}

	bars, err := c.fetchHistory(ctx, ticker, lookbackDays)
	if err != nil {
		if c.cache != nil {
			var stale []Bar
			if cacheErr := c.cache.GetStale("yahoo", cacheKey, &stale); cacheErr == nil {
				c.log.Warn().Err(err).Str("ticker", ticker).Msg("API failed, using stale cached history")
				return stale, nil
			}
		}
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Store("yahoo", cacheKey, bars, clientdata.TTLPriceHistory); err != nil {
			c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache history")
		}
	}

	return bars, nil
}

// Quote returns the most recent price for a ticker, cached for 10 minutes.
func (c *Client) Quote(ctx context.Context, ticker string) (float64, error) {
	cacheKey := "quote:" + Symbol(ticker)

	var cached float64
	if c.cache != nil {
		if err := c.cache.GetFresh("yahoo", cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	// A 5-day window keeps the payload small while surviving long weekends.
	resp, err := c.fetchChart(ctx, ticker, 7)
	if err != nil {
		if c.cache != nil {
			if cacheErr := c.cache.GetStale("yahoo", cacheKey, &cached); cacheErr == nil {
				c.log.Warn().Err(err).Str("ticker", ticker).Msg("API failed, using stale cached quote")
				return cached, nil
			}
		}
		return 0, err
	}

	price := resp.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		bars := parseBars(resp)
		if len(bars) == 0 {
			return 0, fmt.Errorf("no price available for %s", ticker)
		}
		price = bars[len(bars)-1].Close
	}

	if c.cache != nil {
		if err := c.cache.Store("yahoo", cacheKey, price, clientdata.TTLCurrentPrice); err != nil {
			c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache quote")
		}
	}

	return price, nil
}

func (c *Client) fetchHistory(ctx context.Context, ticker string, lookbackDays int) ([]Bar, error) {
	resp, err := c.fetchChart(ctx, ticker, lookbackDays)
	if err != nil {
		return nil, err
	}

	bars := parseBars(resp)
	if len(bars) == 0 {
		return nil, fmt.Errorf("no price data for %s", ticker)
	}

	return bars, nil
}

func (c *Client) fetchChart(ctx context.Context, ticker string, lookbackDays int) (*chartResponse, error) {
	now := time.Now()
	period1 := now.AddDate(0, 0, -lookbackDays).Unix()
	period2 := now.Unix()

	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d&events=div%%2Csplit",
		c.baseURL, Symbol(ticker), period1, period2)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	// The chart API rejects requests without a browser-ish user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; advisor/1.0)")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse chart response: %w", err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", ticker, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, errors.New("chart API returned no result")
	}

	return &parsed, nil
}

// parseBars extracts daily bars, preferring adjusted closes and skipping
// null entries (holidays, halted sessions).
func parseBars(resp *chartResponse) []Bar {
	result := resp.Chart.Result[0]

	closes := []*float64(nil)
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) > 0 {
		closes = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	var bars []Bar
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		bars = append(bars, Bar{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: *closes[i],
		})
	}
	return bars
}

// Closes extracts the close values from a bar series.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
