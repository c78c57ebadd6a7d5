package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordVersion tags records and persisted blobs with the layout version.
const RecordVersion = "1.0.0"

var (
	arrowPattern       = regexp.MustCompile(`-->`)
	bracketNodePattern = regexp.MustCompile(`\[[^\]]*\]`)
)

// HistoryRecord is one saved version of the editor state: a checkpoint the
// user named, an automatic snapshot, or the result of a restore. Records
// are append-only; restoring never rewrites an existing record.
//
// JSON field names match the blob the browser app used to keep in
// localStorage, so exports from the old frontend import cleanly.
type HistoryRecord struct {
	ID          string                 `json:"id"`
	Timestamp   int64                  `json:"timestamp"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	MermaidCode string                 `json:"mermaidCode"`
	InputText   string                 `json:"inputText"`
	DiagramType string                 `json:"diagramType"`
	RenderMode  string                 `json:"renderMode"`
	Metadata    map[string]interface{} `json:"metadata"`
	Tags        []string               `json:"tags"`
	Version     string                 `json:"version"`
	ParentID    string                 `json:"parentId,omitempty"`
	AutoSaved   bool                   `json:"autoSaved"`
}

// NewRecordID generates a unique record id, e.g. "history_1724832000000_1a2b3c4d".
func NewRecordID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("history_%d_%s", time.Now().UnixMilli(), suffix)
}

// Normalize fills generated fields so records built from partial input
// (manual saves, imports) are complete.
func (r *HistoryRecord) Normalize() {
	if r.ID == "" {
		r.ID = NewRecordID()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
	if r.Title == "" {
		r.Title = "Version " + r.FormattedTime()
	}
	if r.DiagramType == "" {
		r.DiagramType = "auto"
	}
	if r.RenderMode == "" {
		r.RenderMode = "excalidraw"
	}
	if r.Metadata == nil {
		r.Metadata = map[string]interface{}{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Version == "" {
		r.Version = RecordVersion
	}
}

// FormattedTime renders the record timestamp for exports and titles.
func (r *HistoryRecord) FormattedTime() string {
	return time.UnixMilli(r.Timestamp).Format("2006-01-02 15:04:05")
}

// ShortTitle truncates long titles for list views.
func (r *HistoryRecord) ShortTitle() string {
	if len(r.Title) > 30 {
		return r.Title[:30] + "..."
	}
	return r.Title
}

// CodeLineCount counts non-blank lines of mermaid code.
func (r *HistoryRecord) CodeLineCount() int {
	count := 0
	for _, line := range strings.Split(r.MermaidCode, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// Complexity is a rough size metric: non-blank lines plus arrow tokens
// plus bracket-delimited node labels.
func (r *HistoryRecord) Complexity() int {
	lines := r.CodeLineCount()
	arrows := len(arrowPattern.FindAllStringIndex(r.MermaidCode, -1))
	nodes := len(bracketNodePattern.FindAllStringIndex(r.MermaidCode, -1))
	return lines + arrows + nodes
}

// HasTag reports whether the record carries the given tag.
func (r *HistoryRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
