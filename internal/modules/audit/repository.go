// Package audit records mutating actions in an append-only log.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/database"
)

// Entry is one audit log row.
type Entry struct {
	ID        int64                  `json:"id"`
	Action    string                 `json:"action"`
	Detail    map[string]interface{} `json:"detail"`
	CreatedAt time.Time              `json:"created_at"`
}

// Repository writes and reads the audit log.
type Repository struct {
	db *database.DB
}

// NewRepository creates an audit repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Record appends one entry. Detail may be nil.
func (r *Repository) Record(action string, detail map[string]interface{}) error {
	if detail == nil {
		detail = map[string]interface{}{}
	}
	blob, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshaling audit detail: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO audit_log (action, detail, created_at) VALUES (?, ?, ?)`,
		action, string(blob), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// List returns the newest entries first, up to limit.
func (r *Repository) List(limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.db.Query(
		`SELECT id, action, detail, created_at FROM audit_log ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var detail, createdAt string
		if err := rows.Scan(&e.ID, &e.Action, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if err := json.Unmarshal([]byte(detail), &e.Detail); err != nil {
			e.Detail = map[string]interface{}{"raw": detail}
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
