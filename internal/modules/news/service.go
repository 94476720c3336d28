package news

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/clients/finnhub"
	"github.com/aristath/advisor/internal/clients/newsapi"
	"github.com/aristath/advisor/internal/config"
)

// Source is a headline provider. The concrete clients are adapted to this
// interface so the fallback chain (and tests) can treat them uniformly.
type Source interface {
	Name() string
	Configured() bool
	Fetch(ctx context.Context, ticker string, limit int) ([]Item, error)
}

// Service aggregates headlines across providers with ordered fallback.
type Service struct {
	sources []Source // fallback order for "auto"
	cache   *clientdata.Repository
	log     zerolog.Logger
}

// NewService creates a news service backed by newsapi.org and finnhub.io.
func NewService(na *newsapi.Client, fh *finnhub.Client, cache *clientdata.Repository, log zerolog.Logger) *Service {
	return NewServiceWithSources(
		[]Source{newsapiSource{na}, finnhubSource{fh}},
		cache,
		log,
	)
}

// NewServiceWithSources creates a news service from explicit sources.
func NewServiceWithSources(sources []Source, cache *clientdata.Repository, log zerolog.Logger) *Service {
	return &Service{
		sources: sources,
		cache:   cache,
		log:     log.With().Str("service", "news").Logger(),
	}
}

// Fetch returns up to perTicker headlines per ticker.
//
// provider "auto" tries each source in order and falls through when a
// source errors or returns zero items. A forced provider never falls back.
// Per-ticker failures are logged and skipped so one bad symbol does not
// sink the whole batch.
func (s *Service) Fetch(ctx context.Context, tickers []string, perTicker int, provider string) ([]Item, error) {
	if provider == "" {
		provider = ProviderAuto
	}
	if !ValidProvider(provider) {
		return nil, fmt.Errorf("unknown news provider %q", provider)
	}
	if perTicker <= 0 {
		perTicker = 5
	}

	var out []Item
	for _, ticker := range tickers {
		ticker = config.NormalizeTicker(ticker)
		if ticker == "" {
			continue
		}

		items, err := s.fetchTicker(ctx, ticker, perTicker, provider)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Str("provider", provider).Msg("No headlines for ticker")
			continue
		}
		out = append(out, items...)
	}

	return out, nil
}

func (s *Service) fetchTicker(ctx context.Context, ticker string, limit int, provider string) ([]Item, error) {
	cacheKey := fmt.Sprintf("%s:%s:%d", provider, ticker, limit)

	var cached []Item
	if s.cache != nil {
		if err := s.cache.GetFresh("news", cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	items, err := s.fetchUncached(ctx, ticker, limit, provider)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(items) > 0 {
		if err := s.cache.Store("news", cacheKey, items, clientdata.TTLNews); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache headlines")
		}
	}

	return items, nil
}

func (s *Service) fetchUncached(ctx context.Context, ticker string, limit int, provider string) ([]Item, error) {
	if provider != ProviderAuto {
		source := s.source(provider)
		if source == nil {
			return nil, fmt.Errorf("provider %s not available", provider)
		}
		return source.Fetch(ctx, ticker, limit)
	}

	var lastErr error
	for _, source := range s.sources {
		if !source.Configured() {
			continue
		}

		items, err := source.Fetch(ctx, ticker, limit)
		if err != nil {
			s.log.Debug().Err(err).Str("ticker", ticker).Str("source", source.Name()).Msg("Source failed, trying next")
			lastErr = err
			continue
		}
		if len(items) == 0 {
			continue
		}
		return items, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all providers failed: %w", lastErr)
	}
	return nil, fmt.Errorf("no provider returned headlines for %s", ticker)
}

func (s *Service) source(name string) Source {
	for _, src := range s.sources {
		if src.Name() == name {
			return src
		}
	}
	return nil
}

// newsapiSource adapts the newsapi client to the Source interface.
type newsapiSource struct {
	client *newsapi.Client
}

func (s newsapiSource) Name() string     { return ProviderNewsAPI }
func (s newsapiSource) Configured() bool { return s.client.Configured() }

func (s newsapiSource) Fetch(ctx context.Context, ticker string, limit int) ([]Item, error) {
	headlines, err := s.client.CompanyNews(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(headlines))
	for _, h := range headlines {
		items = append(items, Item{
			Ticker:      ticker,
			Title:       h.Title,
			Publisher:   h.Publisher,
			Link:        h.Link,
			PublishedAt: h.PublishedAt,
			Provider:    ProviderNewsAPI,
		})
	}
	return items, nil
}

// finnhubSource adapts the finnhub client to the Source interface.
type finnhubSource struct {
	client *finnhub.Client
}

func (s finnhubSource) Name() string     { return ProviderFinnhub }
func (s finnhubSource) Configured() bool { return s.client.Configured() }

func (s finnhubSource) Fetch(ctx context.Context, ticker string, limit int) ([]Item, error) {
	headlines, err := s.client.CompanyNews(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(headlines))
	for _, h := range headlines {
		items = append(items, Item{
			Ticker:      ticker,
			Title:       h.Title,
			Publisher:   h.Publisher,
			Link:        h.Link,
			PublishedAt: h.PublishedAt,
			Provider:    ProviderFinnhub,
		})
	}
	return items, nil
}
