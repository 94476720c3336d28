// Package finnhub fetches company headlines from finnhub.io.
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/pkg/httpclient"
)

// ErrNoAPIKey is returned when the client has no API key configured.
var ErrNoAPIKey = errors.New("finnhub: FINNHUB_KEY not configured")

// Headline is a single article as returned by finnhub.io.
type Headline struct {
	Title       string `json:"title"`
	Publisher   string `json:"publisher"`
	Link        string `json:"link"`
	PublishedAt string `json:"published_at"`
}

// Client is a finnhub.io company-news client.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	log     zerolog.Logger
}

// NewClient creates a new finnhub client. An empty apiKey is allowed;
// calls return ErrNoAPIKey so the news service can skip the provider.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: "https://finnhub.io/api/v1/company-news",
		apiKey:  apiKey,
		http: httpclient.New(httpclient.Options{
			Timeout:        10 * time.Second,
			RequestsPerSec: 2,
		}),
		log: log.With().Str("client", "finnhub").Logger(),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// CompanyNews returns up to limit articles for the symbol from the
// trailing year.
func (c *Client) CompanyNews(ctx context.Context, ticker string, limit int) ([]Headline, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if limit <= 0 {
		limit = 5
	}

	now := time.Now().UTC()
	query := url.Values{}
	query.Set("symbol", ticker)
	query.Set("from", now.AddDate(-1, 0, 0).Format("2006-01-02"))
	query.Set("to", now.Format("2006-01-02"))
	query.Set("token", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("finnhub request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed []struct {
		Headline string `json:"headline"`
		Source   string `json:"source"`
		URL      string `json:"url"`
		Datetime int64  `json:"datetime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse finnhub response: %w", err)
	}

	headlines := make([]Headline, 0, limit)
	for _, a := range parsed {
		if len(headlines) >= limit {
			break
		}
		publisher := a.Source
		if publisher == "" {
			publisher = "Unknown"
		}
		headlines = append(headlines, Headline{
			Title:       a.Headline,
			Publisher:   publisher,
			Link:        a.URL,
			PublishedAt: time.Unix(a.Datetime, 0).UTC().Format(time.RFC3339),
		})
	}

	c.log.Debug().Str("ticker", ticker).Int("count", len(headlines)).Msg("Fetched headlines")
	return headlines, nil
}
