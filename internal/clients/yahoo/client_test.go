package yahoo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"aapl", "AAPL"},
		{" MSFT ", "MSFT"},
		{"BRK.B", "BRK-B"},
		{"BRK.A", "BRK-A"},
		{"ASML.AS", "ASML.AS"},
		{"BASF.DE", "BASF.DE"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Symbol(tt.in), "Symbol(%q)", tt.in)
	}
}

func TestParseBars(t *testing.T) {
	payload := `{
		"chart": {
			"result": [{
				"meta": {"symbol": "AAPL", "regularMarketPrice": 190.5},
				"timestamp": [1700000000, 1700086400, 1700172800],
				"indicators": {
					"quote": [{"close": [189.0, null, 190.5]}]
				}
			}]
		}
	}`

	var resp chartResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))

	bars := parseBars(&resp)
	require.Len(t, bars, 2) // null entry skipped
	assert.Equal(t, 189.0, bars[0].Close)
	assert.Equal(t, 190.5, bars[1].Close)
	assert.Equal(t, "2023-11-14", bars[0].Date)
}

func TestParseBarsPrefersAdjClose(t *testing.T) {
	payload := `{
		"chart": {
			"result": [{
				"meta": {"symbol": "AAPL"},
				"timestamp": [1700000000],
				"indicators": {
					"quote": [{"close": [200.0]}],
					"adjclose": [{"adjclose": [198.5]}]
				}
			}]
		}
	}`

	var resp chartResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))

	bars := parseBars(&resp)
	require.Len(t, bars, 1)
	assert.Equal(t, 198.5, bars[0].Close)
}

func TestCloses(t *testing.T) {
	bars := []Bar{{Date: "2024-01-01", Close: 1}, {Date: "2024-01-02", Close: 2}}
	assert.Equal(t, []float64{1, 2}, Closes(bars))
}
