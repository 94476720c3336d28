package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/database"
)

// Repository persists positions.
type Repository struct {
	db *database.DB
}

// NewRepository creates a positions repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts or replaces a position. A zero quantity removes it.
func (r *Repository) Upsert(p Position) error {
	if p.Quantity == 0 {
		_, err := r.db.Exec(`DELETE FROM positions WHERE ticker = ?`, p.Ticker)
		return err
	}

	var avgPrice interface{}
	if p.AvgPrice != nil {
		avgPrice = *p.AvgPrice
	}
	currency := p.Currency
	if currency == "" {
		currency = "EUR"
	}

	_, err := r.db.Exec(`
		INSERT INTO positions (ticker, quantity, avg_price, currency, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (ticker) DO UPDATE SET
			quantity = excluded.quantity,
			avg_price = excluded.avg_price,
			currency = excluded.currency,
			updated_at = excluded.updated_at`,
		p.Ticker, p.Quantity, avgPrice, currency, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting position %s: %w", p.Ticker, err)
	}
	return nil
}

// List returns all positions ordered by ticker.
func (r *Repository) List() ([]Position, error) {
	rows, err := r.db.Query(
		`SELECT ticker, quantity, avg_price, currency, updated_at FROM positions ORDER BY ticker`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying positions: %w", err)
	}
	defer rows.Close()

	positions := []Position{}
	for rows.Next() {
		var p Position
		var avgPrice sql.NullFloat64
		var updatedAt string
		if err := rows.Scan(&p.Ticker, &p.Quantity, &avgPrice, &p.Currency, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		if avgPrice.Valid {
			v := avgPrice.Float64
			p.AvgPrice = &v
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			p.UpdatedAt = t
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
