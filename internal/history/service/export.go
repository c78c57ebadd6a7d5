package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smart-mermaid/go-mermaid-backend/internal/history/domain"
)

// Export serializes the catalog. Supported formats are "json" (pretty
// envelope with exportTime/version/total) and "csv" (7 quoted columns).
func (m *Manager) Export(format string) ([]byte, error) {
	records := m.AllRecords()

	switch strings.ToLower(format) {
	case "json":
		payload := domain.ExportPayload{
			ExportTime: time.Now().UnixMilli(),
			Version:    domain.RecordVersion,
			Total:      len(records),
			Records:    records,
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal export: %w", err)
		}
		return data, nil

	case "csv":
		return exportCSV(records), nil

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
}

// exportCSV renders records in the fixed 7-column layout. Every field is
// double-quoted, including the header, matching the original export file
// format exactly (encoding/csv only quotes when it has to).
func exportCSV(records []*domain.HistoryRecord) []byte {
	rows := make([]string, 0, len(records)+1)
	rows = append(rows, csvRow("ID", "Title", "Time", "Type", "RenderMode", "CodeLines", "AutoSaved"))

	for _, rec := range records {
		autoSaved := "no"
		if rec.AutoSaved {
			autoSaved = "yes"
		}
		rows = append(rows, csvRow(
			rec.ID,
			rec.Title,
			rec.FormattedTime(),
			rec.DiagramType,
			rec.RenderMode,
			fmt.Sprintf("%d", rec.CodeLineCount()),
			autoSaved,
		))
	}

	return []byte(strings.Join(rows, "\n"))
}

func csvRow(fields ...string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// importPayload tolerates unknown envelope fields; only records matters.
type importPayload struct {
	Records *[]json.RawMessage `json:"records"`
}

// Import merges an exported payload into the catalog. Existing ids are
// skipped, never overwritten; malformed individual records are skipped
// and counted while the import continues.
func (m *Manager) Import(data []byte) (domain.ImportResult, error) {
	var payload importPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.ImportResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	if payload.Records == nil {
		return domain.ImportResult{}, fmt.Errorf("%w: missing records field", domain.ErrInvalidFormat)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := domain.ImportResult{Total: len(*payload.Records)}
	for _, raw := range *payload.Records {
		var rec domain.HistoryRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.ID == "" {
			result.Skipped++
			continue
		}

		if _, exists := m.index[rec.ID]; exists {
			result.Skipped++
			continue
		}

		rec.Normalize()
		m.records = append(m.records, &rec)
		m.index[rec.ID] = &rec
		result.Imported++
	}

	if result.Imported > 0 {
		m.persistLocked()
	}

	return result, nil
}
