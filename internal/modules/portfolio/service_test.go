package portfolio

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/database"
)

type fakeQuotes struct {
	prices map[string]float64
}

func (f *fakeQuotes) Quote(_ context.Context, ticker string) (float64, error) {
	price, ok := f.prices[ticker]
	if !ok {
		return 0, fmt.Errorf("no quote for %s", ticker)
	}
	return price, nil
}

func setupService(t *testing.T, quotes QuoteSource) *Service {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewService(NewRepository(db), quotes, zerolog.Nop())
}

func TestImportCSVBasic(t *testing.T) {
	svc := setupService(t, &fakeQuotes{})

	csv := "ticker,qty,avg_price,currency\nAAPL,10,150.5,USD\nasml.as,2,,EUR\n"
	result, err := svc.ImportCSV(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, []string{"AAPL", "ASML.AS"}, result.Tickers)

	positions, err := svc.Positions()
	require.NoError(t, err)
	require.Len(t, positions, 2)

	assert.Equal(t, "AAPL", positions[0].Ticker)
	require.NotNil(t, positions[0].AvgPrice)
	assert.Equal(t, 150.5, *positions[0].AvgPrice)
	assert.Equal(t, "USD", positions[0].Currency)

	assert.Equal(t, "ASML.AS", positions[1].Ticker)
	assert.Nil(t, positions[1].AvgPrice)
}

func TestImportCSVHeaderVariants(t *testing.T) {
	svc := setupService(t, &fakeQuotes{})

	// quantity alias, extra unknown column, different order.
	csv := "name,quantity,ticker\nignored,5,MSFT\n"
	result, err := svc.ImportCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestImportCSVBadRowReportsNumber(t *testing.T) {
	svc := setupService(t, &fakeQuotes{})

	csv := "ticker,qty\nAAPL,10\nMSFT,not-a-number\n"
	_, err := svc.ImportCSV(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

func TestImportCSVMissingHeader(t *testing.T) {
	svc := setupService(t, &fakeQuotes{})

	_, err := svc.ImportCSV(strings.NewReader("symbol,amount\nAAPL,10\n"))
	assert.Error(t, err)
}

func TestImportCSVUpsertsExisting(t *testing.T) {
	svc := setupService(t, &fakeQuotes{})

	_, err := svc.ImportCSV(strings.NewReader("ticker,qty\nAAPL,10\n"))
	require.NoError(t, err)
	_, err = svc.ImportCSV(strings.NewReader("ticker,qty\nAAPL,25\n"))
	require.NoError(t, err)

	positions, err := svc.Positions()
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 25.0, positions[0].Quantity)
}

func TestWeights(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 200, "MSFT": 400}}
	svc := setupService(t, quotes)

	_, err := svc.ImportCSV(strings.NewReader("ticker,qty\nAAPL,10\nMSFT,5\nNVDA,3\n"))
	require.NoError(t, err)

	report, err := svc.Weights(context.Background())
	require.NoError(t, err)

	// 2000 + 2000 = 4000 total; NVDA has no quote.
	assert.InDelta(t, 0.5, report.Weights["AAPL"], 1e-9)
	assert.InDelta(t, 0.5, report.Weights["MSFT"], 1e-9)
	assert.Equal(t, 4000.0, report.TotalValue)
	assert.Equal(t, []string{"NVDA"}, report.Missing)
}

func TestWeightsNoPositions(t *testing.T) {
	svc := setupService(t, &fakeQuotes{})

	_, err := svc.Weights(context.Background())
	assert.Error(t, err)
}

func TestSectorWeights(t *testing.T) {
	weights := map[string]float64{"AAPL": 0.5, "MSFT": 0.3, "XOM": 0.2}
	sectors := map[string][]string{"Tech": {"AAPL", "MSFT"}}

	sw := SectorWeights(weights, sectors)

	assert.InDelta(t, 0.8, sw["Tech"], 1e-9)
	assert.InDelta(t, 0.2, sw["Other"], 1e-9)
}

func TestPlanNudges(t *testing.T) {
	sectorWeights := map[string]float64{"Tech": 0.70, "Energy": 0.30}
	targets := map[string]float64{"Tech": 0.50, "Energy": 0.30, "Health": 0.20}

	nudges := PlanNudges(sectorWeights, targets, 5)

	require.Len(t, nudges, 2)

	// Sorted by sector name: Health below target, Tech above.
	assert.Equal(t, "Health", nudges[0].Sector)
	assert.Contains(t, nudges[0].Message, "below")
	assert.Equal(t, "Tech", nudges[1].Sector)
	assert.Contains(t, nudges[1].Message, "above")
	assert.InDelta(t, 20, nudges[1].DeltaPP, 1e-9)
}

func TestPlanNudgesWithinBand(t *testing.T) {
	sectorWeights := map[string]float64{"Tech": 0.52}
	targets := map[string]float64{"Tech": 0.50}

	nudges := PlanNudges(sectorWeights, targets, 5)
	assert.Empty(t, nudges)
}
