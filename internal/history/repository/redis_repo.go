package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smart-mermaid/go-mermaid-backend/internal/history/domain"
)

// historyKey holds the whole catalog as one JSON blob, mirroring the
// localStorage layout the browser app used.
const historyKey = "smart-mermaid:history"

// storedCatalog is the persisted blob shape. Readers tolerate unknown
// extra fields and skip records that fail to decode.
type storedCatalog struct {
	Version   string            `json:"version"`
	Timestamp int64             `json:"timestamp"`
	Records   []json.RawMessage `json:"records"`
}

// CatalogRepository persists the history catalog to Redis.
type CatalogRepository struct {
	client *redis.Client
	ctx    context.Context
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(client *redis.Client) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		ctx:    context.Background(),
	}
}

// Save writes the full record set as a single blob. Callers treat a
// failed save as best-effort: the in-memory catalog stays authoritative.
func (r *CatalogRepository) Save(records []*domain.HistoryRecord) error {
	raws := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
		}
		raws = append(raws, data)
	}

	blob, err := json.Marshal(storedCatalog{
		Version:   domain.RecordVersion,
		Timestamp: time.Now().UnixMilli(),
		Records:   raws,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := r.client.Set(r.ctx, historyKey, blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to persist catalog: %w", err)
	}

	return nil
}

// Load reads the persisted catalog. A missing key yields an empty slice;
// records that fail to decode individually are skipped.
func (r *CatalogRepository) Load() ([]*domain.HistoryRecord, error) {
	data, err := r.client.Get(r.ctx, historyKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	var blob storedCatalog
	if err := json.Unmarshal([]byte(data), &blob); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	records := make([]*domain.HistoryRecord, 0, len(blob.Records))
	for _, raw := range blob.Records {
		var rec domain.HistoryRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.ID == "" {
			continue
		}
		rec.Normalize()
		records = append(records, &rec)
	}

	return records, nil
}

// Clear removes the persisted blob.
func (r *CatalogRepository) Clear() error {
	if err := r.client.Del(r.ctx, historyKey).Err(); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	return nil
}
