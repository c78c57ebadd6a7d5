package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/smart-mermaid/go-mermaid-backend/internal/history/domain"
)

// ArchiveRepository handles PostgreSQL operations for the long-term
// archive. Records dropped from the live catalog by cleanup or cap
// eviction land here so they stay recoverable.
type ArchiveRepository struct {
	db *sql.DB
}

// NewArchiveRepository creates a new ArchiveRepository.
func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Archive inserts records into history_archive. Records already archived
// under the same id are left untouched.
func (r *ArchiveRepository) Archive(records []*domain.HistoryRecord) (int, error) {
	query := `
		INSERT INTO history_archive (id, saved_at, auto_saved, payload)
		VALUES ($1, to_timestamp($2 / 1000.0), $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	archived := 0
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return archived, fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
		}

		res, err := r.db.Exec(query, rec.ID, rec.Timestamp, rec.AutoSaved, payload)
		if err != nil {
			return archived, fmt.Errorf("failed to archive record %s: %w", rec.ID, err)
		}

		if n, err := res.RowsAffected(); err == nil {
			archived += int(n)
		}
	}

	return archived, nil
}

// Get retrieves one archived record by id.
func (r *ArchiveRepository) Get(id string) (*domain.HistoryRecord, error) {
	var payload []byte
	err := r.db.QueryRow(`SELECT payload FROM history_archive WHERE id = $1`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archived record: %w", err)
	}

	var rec domain.HistoryRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode archived record: %w", err)
	}

	return &rec, nil
}

// Count returns the number of archived records.
func (r *ArchiveRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM history_archive`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count archive: %w", err)
	}
	return count, nil
}
