package news

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is a scriptable Source for fallback tests.
type fakeSource struct {
	name       string
	configured bool
	items      []Item
	err        error
	calls      int
}

func (f *fakeSource) Name() string     { return f.name }
func (f *fakeSource) Configured() bool { return f.configured }

func (f *fakeSource) Fetch(_ context.Context, ticker string, limit int) ([]Item, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	out := make([]Item, 0, len(f.items))
	for _, item := range f.items {
		item.Ticker = ticker
		item.Provider = f.name
		out = append(out, item)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newService(sources ...Source) *Service {
	return NewServiceWithSources(sources, nil, zerolog.Nop())
}

func TestAutoUsesFirstSource(t *testing.T) {
	first := &fakeSource{name: ProviderNewsAPI, configured: true, items: []Item{{Title: "a"}}}
	second := &fakeSource{name: ProviderFinnhub, configured: true, items: []Item{{Title: "b"}}}

	svc := newService(first, second)
	items, err := svc.Fetch(context.Background(), []string{"AAPL"}, 5, ProviderAuto)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, ProviderNewsAPI, items[0].Provider)
	assert.Equal(t, "AAPL", items[0].Ticker)
	assert.Equal(t, 0, second.calls)
}

func TestAutoFallsThroughOnError(t *testing.T) {
	first := &fakeSource{name: ProviderNewsAPI, configured: true, err: errors.New("boom")}
	second := &fakeSource{name: ProviderFinnhub, configured: true, items: []Item{{Title: "b"}}}

	svc := newService(first, second)
	items, err := svc.Fetch(context.Background(), []string{"AAPL"}, 5, ProviderAuto)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, ProviderFinnhub, items[0].Provider)
}

func TestAutoFallsThroughOnEmpty(t *testing.T) {
	first := &fakeSource{name: ProviderNewsAPI, configured: true}
	second := &fakeSource{name: ProviderFinnhub, configured: true, items: []Item{{Title: "b"}}}

	svc := newService(first, second)
	items, err := svc.Fetch(context.Background(), []string{"AAPL"}, 5, ProviderAuto)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, ProviderFinnhub, items[0].Provider)
}

func TestAutoSkipsUnconfiguredSource(t *testing.T) {
	first := &fakeSource{name: ProviderNewsAPI, configured: false, items: []Item{{Title: "a"}}}
	second := &fakeSource{name: ProviderFinnhub, configured: true, items: []Item{{Title: "b"}}}

	svc := newService(first, second)
	items, err := svc.Fetch(context.Background(), []string{"AAPL"}, 5, ProviderAuto)
	require.NoError(t, err)

	assert.Equal(t, 0, first.calls)
	require.Len(t, items, 1)
	assert.Equal(t, ProviderFinnhub, items[0].Provider)
}

func TestForcedProviderDoesNotFallBack(t *testing.T) {
	first := &fakeSource{name: ProviderNewsAPI, configured: true, err: errors.New("boom")}
	second := &fakeSource{name: ProviderFinnhub, configured: true, items: []Item{{Title: "b"}}}

	svc := newService(first, second)
	items, err := svc.Fetch(context.Background(), []string{"AAPL"}, 5, ProviderNewsAPI)
	// Per-ticker failures are skipped, not fatal for the batch.
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, second.calls)
}

func TestFetchMultipleTickersPartialFailure(t *testing.T) {
	source := &fakeSource{name: ProviderNewsAPI, configured: true, items: []Item{{Title: "a"}}}

	svc := newService(source)
	items, err := svc.Fetch(context.Background(), []string{"AAPL", "", "msft"}, 5, ProviderAuto)
	require.NoError(t, err)

	// Empty ticker skipped, lowercase normalized.
	require.Len(t, items, 2)
	assert.Equal(t, "AAPL", items[0].Ticker)
	assert.Equal(t, "MSFT", items[1].Ticker)
}

func TestFetchLimitApplied(t *testing.T) {
	source := &fakeSource{name: ProviderNewsAPI, configured: true, items: []Item{{Title: "a"}, {Title: "b"}, {Title: "c"}}}

	svc := newService(source)
	items, err := svc.Fetch(context.Background(), []string{"AAPL"}, 2, ProviderAuto)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestUnknownProviderRejected(t *testing.T) {
	svc := newService()
	_, err := svc.Fetch(context.Background(), []string{"AAPL"}, 5, "bloomberg")
	assert.Error(t, err)
}
