package report

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/advisor/internal/database"
)

// ErrNoReports is returned by Latest when no report has been generated.
var ErrNoReports = errors.New("no reports generated yet")

// Repository persists report snapshots.
type Repository struct {
	db *database.DB
}

// NewRepository creates a report repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Store saves a generated report with its dispatch outcome. The payload is
// msgpack so old snapshots stay loadable without the JSON field bloat.
func (r *Repository) Store(daily *Daily, markdown string, dispatch DispatchResult) (int64, error) {
	payload, err := msgpack.Marshal(daily)
	if err != nil {
		return 0, fmt.Errorf("marshaling report payload: %w", err)
	}

	result, err := r.db.Exec(`
		INSERT INTO report_snapshots (generated_at, markdown, payload, slack_status, email_status)
		VALUES (?, ?, ?, ?, ?)`,
		daily.GeneratedAt.Format(time.RFC3339), markdown, payload,
		dispatch.SlackStatus, dispatch.EmailStatus,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting report snapshot: %w", err)
	}
	return result.LastInsertId()
}

// Latest returns the most recent snapshot and its decoded payload.
func (r *Repository) Latest() (*Snapshot, *Daily, error) {
	var s Snapshot
	var generatedAt string
	var payload []byte

	err := r.db.QueryRow(`
		SELECT id, generated_at, markdown, payload, slack_status, email_status
		FROM report_snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&s.ID, &generatedAt, &s.Markdown, &payload, &s.SlackStatus, &s.EmailStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNoReports
	}
	if err != nil {
		return nil, nil, fmt.Errorf("querying latest report: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, generatedAt); err == nil {
		s.GeneratedAt = t
	}

	var daily Daily
	if len(payload) > 0 {
		if err := msgpack.Unmarshal(payload, &daily); err != nil {
			return nil, nil, fmt.Errorf("decoding report payload: %w", err)
		}
	}
	return &s, &daily, nil
}
