package journal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/database"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewService(NewRepository(db), zerolog.Nop())
}

func TestNotesUpsertAndGet(t *testing.T) {
	svc := setupService(t)

	note, err := svc.SaveNote("aapl", "watching earnings")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", note.Ticker)

	note, err = svc.SaveNote("AAPL", "earnings beat")
	require.NoError(t, err)
	assert.Equal(t, "earnings beat", note.Body)

	got, err := svc.Note("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "earnings beat", got.Body)

	notes, err := svc.Notes()
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestNoteNotFound(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Note("MSFT")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddTradeValidation(t *testing.T) {
	svc := setupService(t)

	tests := []struct {
		name  string
		trade Trade
	}{
		{"missing ticker", Trade{Side: SideBuy, Quantity: 1, Price: 10}},
		{"bad side", Trade{Ticker: "AAPL", Side: "HOLD", Quantity: 1, Price: 10}},
		{"zero quantity", Trade{Ticker: "AAPL", Side: SideBuy, Quantity: 0, Price: 10}},
		{"negative price", Trade{Ticker: "AAPL", Side: SideBuy, Quantity: 1, Price: -1}},
		{"bad date", Trade{Ticker: "AAPL", Side: SideBuy, Quantity: 1, Price: 10, Date: "01/02/2024"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddTrade(tt.trade)
			assert.Error(t, err)
		})
	}
}

func TestAddTradeAssignsIDAndDate(t *testing.T) {
	svc := setupService(t)

	saved, err := svc.AddTrade(Trade{Ticker: "aapl", Side: "buy", Quantity: 10, Price: 150})
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "AAPL", saved.Ticker)
	assert.Equal(t, SideBuy, saved.Side)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, saved.Date)
}

func TestTradesFilterAndDelete(t *testing.T) {
	svc := setupService(t)

	first, err := svc.AddTrade(Trade{Ticker: "AAPL", Side: SideBuy, Quantity: 10, Price: 150, Date: "2024-01-02"})
	require.NoError(t, err)
	_, err = svc.AddTrade(Trade{Ticker: "MSFT", Side: SideSell, Quantity: 5, Price: 400, Date: "2024-02-01"})
	require.NoError(t, err)

	all, err := svc.Trades("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Newest date first.
	assert.Equal(t, "MSFT", all[0].Ticker)

	apple, err := svc.Trades("aapl")
	require.NoError(t, err)
	require.Len(t, apple, 1)

	require.NoError(t, svc.DeleteTrade(first.ID))
	assert.ErrorIs(t, svc.DeleteTrade(first.ID), ErrNotFound)
}

func TestCSVRoundTrip(t *testing.T) {
	svc := setupService(t)

	_, err := svc.AddTrade(Trade{Ticker: "AAPL", Side: SideBuy, Quantity: 10, Price: 150.25, Date: "2024-01-02", Note: "opening"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(&buf))
	assert.Contains(t, buf.String(), "date,ticker,side,quantity,price,note")
	assert.Contains(t, buf.String(), "AAPL,BUY,10,150.25,opening")

	other := setupService(t)
	imported, err := other.ImportCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	trades, err := other.Trades("")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 150.25, trades[0].Price)
}

func TestImportCSVBadRow(t *testing.T) {
	svc := setupService(t)

	csv := "date,ticker,side,quantity,price\n2024-01-02,AAPL,BUY,10,150\n2024-01-03,MSFT,HOLD,5,400\n"
	imported, err := svc.ImportCSV(strings.NewReader(csv))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
	assert.Equal(t, 1, imported)
}
