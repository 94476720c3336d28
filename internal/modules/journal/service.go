// Package journal keeps per-ticker notes and a trade log with CSV
// interchange.
package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
)

// Service validates and records journal entries.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a journal service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "journal").Logger(),
	}
}

// SaveNote upserts the note for a ticker.
func (s *Service) SaveNote(ticker, body string) (*Note, error) {
	ticker = config.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}

	if err := s.repo.UpsertNote(ticker, body); err != nil {
		return nil, err
	}
	return s.repo.GetNote(ticker)
}

// Note returns the note for a ticker.
func (s *Service) Note(ticker string) (*Note, error) {
	return s.repo.GetNote(config.NormalizeTicker(ticker))
}

// Notes returns all notes.
func (s *Service) Notes() ([]Note, error) {
	return s.repo.ListNotes()
}

// AddTrade validates and appends a trade, assigning it a fresh id. An
// empty date defaults to today.
func (s *Service) AddTrade(t Trade) (*Trade, error) {
	t.Ticker = config.NormalizeTicker(t.Ticker)
	t.Side = strings.ToUpper(strings.TrimSpace(t.Side))

	if t.Ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return nil, fmt.Errorf("side must be BUY or SELL")
	}
	if t.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if t.Price <= 0 {
		return nil, fmt.Errorf("price must be positive")
	}

	if t.Date == "" {
		t.Date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", t.Date); err != nil {
		return nil, fmt.Errorf("date must be YYYY-MM-DD")
	}

	t.ID = uuid.NewString()
	if err := s.repo.InsertTrade(t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Trades lists trades, optionally filtered by ticker.
func (s *Service) Trades(ticker string) ([]Trade, error) {
	return s.repo.ListTrades(config.NormalizeTicker(ticker))
}

// DeleteTrade removes a trade by id.
func (s *Service) DeleteTrade(id string) error {
	return s.repo.DeleteTrade(id)
}

// ExportCSV writes all trades as CSV.
func (s *Service) ExportCSV(w io.Writer) error {
	trades, err := s.repo.ListTrades("")
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "ticker", "side", "quantity", "price", "note"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, t := range trades {
		record := []string{
			t.Date,
			t.Ticker,
			t.Side,
			strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			strconv.FormatFloat(t.Price, 'f', -1, 64),
			t.Note,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV appends trades from a CSV stream in the export format. Valid
// rows are appended; the first invalid row aborts with its row number.
func (s *Service) ImportCSV(reader io.Reader) (int, error) {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "ticker", "side", "quantity", "price"} {
		if _, ok := cols[required]; !ok {
			return 0, fmt.Errorf("CSV header must include a %s column", required)
		}
	}

	imported := 0
	row := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", row, err)
		}

		qty, err := strconv.ParseFloat(strings.TrimSpace(record[cols["quantity"]]), 64)
		if err != nil {
			return imported, fmt.Errorf("row %d: invalid quantity", row)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[cols["price"]]), 64)
		if err != nil {
			return imported, fmt.Errorf("row %d: invalid price", row)
		}

		trade := Trade{
			Date:     strings.TrimSpace(record[cols["date"]]),
			Ticker:   record[cols["ticker"]],
			Side:     record[cols["side"]],
			Quantity: qty,
			Price:    price,
		}
		if i, ok := cols["note"]; ok && i < len(record) {
			trade.Note = record[i]
		}

		if _, err := s.AddTrade(trade); err != nil {
			return imported, fmt.Errorf("row %d: %w", row, err)
		}
		imported++
	}

	return imported, nil
}
