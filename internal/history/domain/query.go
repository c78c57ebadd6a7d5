package domain

import (
	"strings"
	"time"
)

// DateRange bounds record timestamps inclusively, epoch milliseconds.
// A zero bound is open.
type DateRange struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

// SearchFilters narrows a search. Nil / zero-valued fields are inactive.
type SearchFilters struct {
	AutoSaved   *bool      `json:"autoSaved,omitempty"`
	DiagramType string     `json:"diagramType,omitempty"`
	RenderMode  string     `json:"renderMode,omitempty"`
	DateRange   *DateRange `json:"dateRange,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// MatchesQuery reports whether the record contains query (case-insensitive)
// in its title, description, code or input text. An empty query matches.
func (r *HistoryRecord) MatchesQuery(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(r.Title), q) ||
		strings.Contains(strings.ToLower(r.Description), q) ||
		strings.Contains(strings.ToLower(r.MermaidCode), q) ||
		strings.Contains(strings.ToLower(r.InputText), q)
}

// MatchesFilters reports whether the record satisfies every active filter.
func (r *HistoryRecord) MatchesFilters(f SearchFilters) bool {
	if f.AutoSaved != nil && r.AutoSaved != *f.AutoSaved {
		return false
	}
	if f.DiagramType != "" && r.DiagramType != f.DiagramType {
		return false
	}
	if f.RenderMode != "" && r.RenderMode != f.RenderMode {
		return false
	}
	if f.DateRange != nil {
		if f.DateRange.Start != 0 && r.Timestamp < f.DateRange.Start {
			return false
		}
		if f.DateRange.End != 0 && r.Timestamp > f.DateRange.End {
			return false
		}
	}
	if len(f.Tags) > 0 {
		found := false
		for _, tag := range f.Tags {
			if r.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SizeDiff holds signed character-length differences (record1 - record2).
type SizeDiff struct {
	Code  int `json:"code"`
	Input int `json:"input"`
}

// Differences is the field-by-field result of comparing two records.
type Differences struct {
	Title       bool     `json:"title"`
	MermaidCode bool     `json:"mermaidCode"`
	InputText   bool     `json:"inputText"`
	DiagramType bool     `json:"diagramType"`
	RenderMode  bool     `json:"renderMode"`
	TimeDiff    int64    `json:"timeDiff"`
	SizeDiff    SizeDiff `json:"sizeDiff"`
}

// Comparison pairs two records with their structured diff.
type Comparison struct {
	Record1     *HistoryRecord `json:"record1"`
	Record2     *HistoryRecord `json:"record2"`
	Differences Differences    `json:"differences"`
}

// TypeCount is one entry of the most-used diagram type ranking.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Statistics aggregates the catalog. The recency windows are fixed
// durations from now (24h, 7x24h, 30x24h), not calendar boundaries.
type Statistics struct {
	Total             int            `json:"total"`
	AutoSaved         int            `json:"autoSaved"`
	Manual            int            `json:"manual"`
	Today             int            `json:"today"`
	ThisWeek          int            `json:"thisWeek"`
	ThisMonth         int            `json:"thisMonth"`
	AverageComplexity int            `json:"averageComplexity"`
	TotalCodeLines    int            `json:"totalCodeLines"`
	MostUsedTypes     []TypeCount    `json:"mostUsedTypes"`
	OldestRecord      *HistoryRecord `json:"oldestRecord,omitempty"`
	NewestRecord      *HistoryRecord `json:"newestRecord,omitempty"`
}

// CleanupOptions control retention. Zero values fall back to defaults:
// olderThan 30 days, keepAutoSaved false, keepManual true, maxRecords
// the catalog cap. A record is removed when it is older than OlderThan,
// OR the running count still exceeds MaxRecords, OR its kind is not kept.
type CleanupOptions struct {
	OlderThan     time.Duration `json:"-"`
	KeepAutoSaved *bool         `json:"keepAutoSaved,omitempty"`
	KeepManual    *bool         `json:"keepManual,omitempty"`
	MaxRecords    int           `json:"maxRecords,omitempty"`
}

// CleanupResult reports what cleanup did.
type CleanupResult struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

// ImportResult reports per-record outcomes of an import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// ExportPayload is the JSON export envelope.
type ExportPayload struct {
	ExportTime int64            `json:"exportTime"`
	Version    string           `json:"version"`
	Total      int              `json:"total"`
	Records    []*HistoryRecord `json:"records"`
}
