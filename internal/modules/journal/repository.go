package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/database"
)

// ErrNotFound is returned when a note or trade does not exist.
var ErrNotFound = errors.New("not found")

// Repository persists notes and trades.
type Repository struct {
	db *database.DB
}

// NewRepository creates a journal repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// UpsertNote inserts or replaces the note for a ticker.
func (r *Repository) UpsertNote(ticker, body string) error {
	_, err := r.db.Exec(`
		INSERT INTO notes (ticker, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (ticker) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at`,
		ticker, body, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting note for %s: %w", ticker, err)
	}
	return nil
}

// GetNote returns the note for a ticker, or ErrNotFound.
func (r *Repository) GetNote(ticker string) (*Note, error) {
	var n Note
	var updatedAt string
	err := r.db.QueryRow(
		`SELECT ticker, body, updated_at FROM notes WHERE ticker = ?`, ticker,
	).Scan(&n.Ticker, &n.Body, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying note for %s: %w", ticker, err)
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		n.UpdatedAt = t
	}
	return &n, nil
}

// ListNotes returns all notes ordered by ticker.
func (r *Repository) ListNotes() ([]Note, error) {
	rows, err := r.db.Query(`SELECT ticker, body, updated_at FROM notes ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		var n Note
		var updatedAt string
		if err := rows.Scan(&n.Ticker, &n.Body, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			n.UpdatedAt = t
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// InsertTrade appends a trade.
func (r *Repository) InsertTrade(t Trade) error {
	_, err := r.db.Exec(`
		INSERT INTO trades (id, date, ticker, side, quantity, price, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date, t.Ticker, t.Side, t.Quantity, t.Price, t.Note,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting trade: %w", err)
	}
	return nil
}

// ListTrades returns trades newest-date first, optionally filtered by ticker.
func (r *Repository) ListTrades(ticker string) ([]Trade, error) {
	query := `SELECT id, date, ticker, side, quantity, price, note, created_at
		FROM trades`
	args := []interface{}{}
	if ticker != "" {
		query += ` WHERE ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	trades := []Trade{}
	for rows.Next() {
		var t Trade
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Date, &t.Ticker, &t.Side, &t.Quantity, &t.Price, &t.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			t.CreatedAt = ts
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// DeleteTrade removes a trade by id, or returns ErrNotFound.
func (r *Repository) DeleteTrade(id string) error {
	result, err := r.db.Exec(`DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting trade %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
