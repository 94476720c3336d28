package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := NewStore(path)
	require.NoError(t, err)
	return store
}

func TestNewStoreCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	store, err := NewStore(path)
	require.NoError(t, err)

	// File written to disk
	_, err = os.Stat(path)
	require.NoError(t, err)

	settings := store.Get()
	assert.Equal(t, []string{"ASML.AS", "AAPL", "MSFT", "NVDA"}, settings.Portfolio.Tickers)
	assert.Equal(t, "auto", settings.News.Provider)
	assert.Equal(t, 20, settings.Signals.MAShort)
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	store, err := NewStore(path)
	require.NoError(t, err)

	err = store.Update(func(s *Settings) {
		s.Data.LookbackDays = 500
		s.Sectors["Energy"] = []string{"SHELL.AS"}
	})
	require.NoError(t, err)

	// Reload from disk
	reloaded, err := NewStore(path)
	require.NoError(t, err)

	settings := reloaded.Get()
	assert.Equal(t, 500, settings.Data.LookbackDays)
	assert.Equal(t, []string{"SHELL.AS"}, settings.Sectors["Energy"])
}

func TestAddToWatchlist(t *testing.T) {
	store := newTestStore(t)

	added, err := store.AddToWatchlist(" tsla ")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Contains(t, store.Get().Watchlist, "TSLA")

	// Duplicate is a no-op
	added, err = store.AddToWatchlist("TSLA")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = store.AddToWatchlist("   ")
	assert.Error(t, err)
}

func TestRemoveFromWatchlist(t *testing.T) {
	store := newTestStore(t)

	removed, err := store.RemoveFromWatchlist("AAPL")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NotContains(t, store.Get().Watchlist, "AAPL")

	removed, err = store.RemoveFromWatchlist("AAPL")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestAllTickers(t *testing.T) {
	store := newTestStore(t)

	tickers := store.AllTickers()
	// Union of portfolio and watchlist, deduplicated and sorted.
	assert.Equal(t, []string{"AAPL", "ASML.AS", "MSFT", "NVDA"}, tickers)
}

func TestApplyDefaultsOnPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := []byte("watchlist:\n  - AAPL\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	store, err := NewStore(path)
	require.NoError(t, err)

	settings := store.Get()
	assert.Equal(t, []string{"AAPL"}, settings.Watchlist)
	assert.Equal(t, 14, settings.Signals.RSIPeriod)
	assert.Equal(t, 365, settings.Data.LookbackDays)
	assert.Equal(t, 8, settings.News.PerTicker)
}
