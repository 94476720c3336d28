// Package clientdata provides persistent caching for external API client
// responses. Entries are msgpack blobs keyed by (source, key) with an
// expiration timestamp for cache-first behavior.
package clientdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when no cache entry exists for a key.
var ErrNotFound = errors.New("cache entry not found")

// Repository provides cache operations for client data.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Store saves a value with expiration = now + ttl, replacing any previous
// entry for the same (source, key).
func (r *Repository) Store(source, key string, value interface{}, ttl time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	expiresAt := time.Now().Add(ttl).Unix()

	_, err = r.db.Exec(
		`INSERT OR REPLACE INTO client_cache (source, key, data, expires_at) VALUES (?, ?, ?, ?)`,
		source, key, data, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// GetFresh decodes a non-expired entry into out. Returns ErrNotFound for
// missing or expired entries.
func (r *Repository) GetFresh(source, key string, out interface{}) error {
	return r.get(source, key, out, true)
}

// GetStale decodes an entry into out regardless of expiration. Used as a
// fallback when the upstream API is down: stale data beats no data.
func (r *Repository) GetStale(source, key string, out interface{}) error {
	return r.get(source, key, out, false)
}

func (r *Repository) get(source, key string, out interface{}, freshOnly bool) error {
	query := `SELECT data, expires_at FROM client_cache WHERE source = ? AND key = ?`

	var data []byte
	var expiresAt int64
	err := r.db.QueryRow(query, source, key).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read cache entry: %w", err)
	}

	if freshOnly && time.Now().Unix() >= expiresAt {
		return ErrNotFound
	}

	if err := msgpack.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired entries and returns the number removed.
func (r *Repository) PurgeExpired() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM client_cache WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}
