// Package newsapi fetches company headlines from newsapi.org.
package newsapi

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
var ErrNoAPIKey = errors.New("newsapi: NEWSAPI_KEY not configured")

// Headline is a single article as returned by newsapi.org.
type Headline struct {
	Title       string `json:"title"`
	Publisher   string `json:"publisher"`
	Link        string `json:"link"`
	PublishedAt string `json:"published_at"`
}

// Client is a newsapi.org client.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	log     zerolog.Logger
}

// NewClient creates a new newsapi.org client. An empty apiKey is allowed;
// calls will return ErrNoAPIKey so the news service can fall through to
// the next provider.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: "https://newsapi.org/v2/everything",
		apiKey:  apiKey,
		http: httpclient.New(httpclient.Options{
			Timeout:        10 * time.Second,
			RequestsPerSec: 2,
		}),
		log: log.With().Str("client", "newsapi").Logger(),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// CompanyNews returns up to limit recent English-language articles
// mentioning the ticker.
func (c *Client) CompanyNews(ctx context.Context, ticker string, limit int) ([]Headline, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if limit <= 0 {
		limit = 5
	}

	query := url.Values{}
	query.Set("q", ticker)
	query.Set("language", "en")
	query.Set("pageSize", fmt.Sprint(limit))
	query.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Articles []struct {
			Title  string `json:"title"`
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse newsapi response: %w", err)
	}

	if parsed.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s", parsed.Message)
	}

	headlines := make([]Headline, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		publisher := a.Source.Name
		if publisher == "" {
			publisher = "Unknown"
		}
		headlines = append(headlines, Headline{
			Title:       a.Title,
			Publisher:   publisher,
			Link:        a.URL,
			PublishedAt: a.PublishedAt,
		})
	}

	c.log.Debug().Str("ticker", ticker).Int("count", len(headlines)).Msg("Fetched headlines")
	return headlines, nil
}
