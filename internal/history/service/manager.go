package service

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	editordomain "github.com/smart-mermaid/go-mermaid-backend/internal/editor/domain"
	"github.com/smart-mermaid/go-mermaid-backend/internal/history/domain"
)

// DefaultMaxRecords caps the live catalog when no limit is configured.
const DefaultMaxRecords = 100

// DefaultCleanupAge is the cleanup age threshold when none is given.
const DefaultCleanupAge = 30 * 24 * time.Hour

// CatalogStore persists the catalog. Saves are best-effort; the
// in-memory catalog is the source of truth for the session.
type CatalogStore interface {
	Save(records []*domain.HistoryRecord) error
	Load() ([]*domain.HistoryRecord, error)
}

// Archiver receives records dropped from the live catalog.
type Archiver interface {
	Archive(records []*domain.HistoryRecord) (int, error)
}

// EditorSession is the slice of the editor the manager needs: reading the
// current state on save and pushing a state back on restore.
type EditorSession interface {
	State() editordomain.EditorState
	Restore(state editordomain.EditorState)
}

// Manager owns the history catalog: auto/manual saves, search, diff,
// statistics, import/export and retention. Records are append-only;
// restores create new records instead of rewriting the log.
type Manager struct {
	mu      sync.RWMutex
	records []*domain.HistoryRecord // insertion order
	index   map[string]*domain.HistoryRecord

	maxRecords int
	store      CatalogStore
	archive    Archiver
	editor     EditorSession
	zlog       zerolog.Logger
}

// NewManager creates a Manager and loads any persisted catalog. store and
// archive may be nil (persistence and archiving disabled).
func NewManager(editor EditorSession, store CatalogStore, archive Archiver, maxRecords int, zlog zerolog.Logger) *Manager {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}

	m := &Manager{
		index:      make(map[string]*domain.HistoryRecord),
		maxRecords: maxRecords,
		store:      store,
		archive:    archive,
		editor:     editor,
		zlog:       zlog,
	}

	if store != nil {
		records, err := store.Load()
		if err != nil {
			zlog.Error().Err(err).Msg("failed to load history catalog")
		}
		for _, rec := range records {
			if _, ok := m.index[rec.ID]; ok {
				continue
			}
			m.records = append(m.records, rec)
			m.index[rec.ID] = rec
		}
	}

	return m
}

// AutoSave snapshots the current editor state. It is a no-op when the
// editor is empty or when the latest record already holds identical code
// and input. Returns the new record, or nil when skipped.
func (m *Manager) AutoSave() *domain.HistoryRecord {
	state := m.editor.State()
	if state.MermaidCode == "" && state.InputText == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if latest := m.latestLocked(); latest != nil &&
		latest.MermaidCode == state.MermaidCode &&
		latest.InputText == state.InputText {
		return nil
	}

	rec := &domain.HistoryRecord{
		Title:       "Auto-save " + time.Now().Format("15:04:05"),
		MermaidCode: state.MermaidCode,
		InputText:   state.InputText,
		DiagramType: state.DiagramType,
		RenderMode:  state.RenderMode,
		AutoSaved:   true,
		Metadata: map[string]interface{}{
			"autoSave": true,
			"editorState": map[string]interface{}{
				"codeLength":  len(state.MermaidCode),
				"inputLength": len(state.InputText),
			},
		},
	}

	m.addLocked(rec)
	m.persistLocked()
	m.zlog.Debug().Str("record_id", rec.ID).Msg("auto-save completed")
	return rec
}

// ManualSave creates a user-named checkpoint from the current editor state.
func (m *Manager) ManualSave(title, description string, tags []string) (*domain.HistoryRecord, error) {
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}

	state := m.editor.State()
	rec := &domain.HistoryRecord{
		Title:       title,
		Description: description,
		MermaidCode: state.MermaidCode,
		InputText:   state.InputText,
		DiagramType: state.DiagramType,
		RenderMode:  state.RenderMode,
		Tags:        tags,
		AutoSaved:   false,
		Metadata: map[string]interface{}{
			"manual":   true,
			"saveTime": time.Now().UnixMilli(),
		},
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.addLocked(rec)
	m.persistLocked()
	return rec, nil
}

// AddRecord inserts a record, evicting the single oldest record by
// timestamp once the cap is exceeded.
func (m *Manager) AddRecord(rec *domain.HistoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addLocked(rec)
	m.persistLocked()
}

func (m *Manager) addLocked(rec *domain.HistoryRecord) {
	rec.Normalize()

	if existing, ok := m.index[rec.ID]; ok {
		// Same id replaces in place; ids embed time and a random
		// suffix, so this only happens on deliberate re-adds.
		*existing = *rec
		return
	}

	m.records = append(m.records, rec)
	m.index[rec.ID] = rec

	if len(m.records) > m.maxRecords {
		m.evictOldestLocked()
	}
}

func (m *Manager) evictOldestLocked() {
	oldestIdx := -1
	oldestTime := int64(math.MaxInt64)
	for i, rec := range m.records {
		if rec.Timestamp < oldestTime {
			oldestTime = rec.Timestamp
			oldestIdx = i
		}
	}
	if oldestIdx < 0 {
		return
	}

	evicted := m.records[oldestIdx]
	m.records = append(m.records[:oldestIdx], m.records[oldestIdx+1:]...)
	delete(m.index, evicted.ID)
	m.archiveDropped([]*domain.HistoryRecord{evicted})
}

// DeleteRecord removes a record by id, reporting whether it existed.
func (m *Manager) DeleteRecord(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[id]; !ok {
		return false
	}

	for i, rec := range m.records {
		if rec.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			break
		}
	}
	delete(m.index, id)
	m.persistLocked()
	return true
}

// GetRecord returns the record with the given id.
func (m *Manager) GetRecord(id string) (*domain.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	return rec, nil
}

// AllRecords returns the catalog newest first.
func (m *Manager) AllRecords() []*domain.HistoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.allLocked()
}

func (m *Manager) allLocked() []*domain.HistoryRecord {
	out := make([]*domain.HistoryRecord, len(m.records))
	copy(out, m.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// LatestRecord returns the newest record, or nil for an empty catalog.
func (m *Manager) LatestRecord() *domain.HistoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latestLocked()
}

func (m *Manager) latestLocked() *domain.HistoryRecord {
	var latest *domain.HistoryRecord
	for _, rec := range m.records {
		if latest == nil || rec.Timestamp > latest.Timestamp {
			latest = rec
		}
	}
	return latest
}

// RestoreRecord pushes a saved version back into the editor and appends a
// new record documenting the restoration, with parentId pointing at the
// restored-from record. History is never rewound.
func (m *Manager) RestoreRecord(id string) (*domain.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}

	m.editor.Restore(editordomain.EditorState{
		InputText:   rec.InputText,
		MermaidCode: rec.MermaidCode,
		DiagramType: rec.DiagramType,
		RenderMode:  rec.RenderMode,
	})

	restored := &domain.HistoryRecord{
		Title:       "Restored: " + rec.Title,
		Description: fmt.Sprintf("Restored from the version of %s", rec.FormattedTime()),
		MermaidCode: rec.MermaidCode,
		InputText:   rec.InputText,
		DiagramType: rec.DiagramType,
		RenderMode:  rec.RenderMode,
		ParentID:    rec.ID,
		Metadata: map[string]interface{}{
			"restored":     true,
			"originalId":   rec.ID,
			"originalTime": rec.Timestamp,
		},
	}

	m.addLocked(restored)
	m.persistLocked()
	return restored, nil
}

// SearchRecords returns records matching the query substring (any of
// title, description, code, input) and every active filter, newest first.
func (m *Manager) SearchRecords(query string, filters domain.SearchFilters) []*domain.HistoryRecord {
	all := m.AllRecords()

	out := make([]*domain.HistoryRecord, 0, len(all))
	for _, rec := range all {
		if rec.MatchesQuery(query) && rec.MatchesFilters(filters) {
			out = append(out, rec)
		}
	}
	return out
}

// CompareRecords diffs two records field by field.
func (m *Manager) CompareRecords(id1, id2 string) (*domain.Comparison, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r1, ok := m.index[id1]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id1)
	}
	r2, ok := m.index[id2]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id2)
	}

	timeDiff := r1.Timestamp - r2.Timestamp
	if timeDiff < 0 {
		timeDiff = -timeDiff
	}

	return &domain.Comparison{
		Record1: r1,
		Record2: r2,
		Differences: domain.Differences{
			Title:       r1.Title != r2.Title,
			MermaidCode: r1.MermaidCode != r2.MermaidCode,
			InputText:   r1.InputText != r2.InputText,
			DiagramType: r1.DiagramType != r2.DiagramType,
			RenderMode:  r1.RenderMode != r2.RenderMode,
			TimeDiff:    timeDiff,
			SizeDiff: domain.SizeDiff{
				Code:  len(r1.MermaidCode) - len(r2.MermaidCode),
				Input: len(r1.InputText) - len(r2.InputText),
			},
		},
	}, nil
}

// Statistics aggregates the catalog. Recency windows are fixed durations
// from now, not calendar boundaries.
func (m *Manager) Statistics() domain.Statistics {
	records := m.AllRecords()
	now := time.Now().UnixMilli()

	const oneDay = int64(24 * 60 * 60 * 1000)
	oneWeek := 7 * oneDay
	oneMonth := 30 * oneDay

	stats := domain.Statistics{
		Total:         len(records),
		MostUsedTypes: mostUsedTypes(records),
	}

	totalComplexity := 0
	for _, rec := range records {
		if rec.AutoSaved {
			stats.AutoSaved++
		} else {
			stats.Manual++
		}
		age := now - rec.Timestamp
		if age < oneDay {
			stats.Today++
		}
		if age < oneWeek {
			stats.ThisWeek++
		}
		if age < oneMonth {
			stats.ThisMonth++
		}
		totalComplexity += rec.Complexity()
		stats.TotalCodeLines += rec.CodeLineCount()
	}

	if len(records) > 0 {
		stats.AverageComplexity = int(math.Round(float64(totalComplexity) / float64(len(records))))
		stats.NewestRecord = records[0]
		stats.OldestRecord = records[len(records)-1]
	}

	return stats
}

// mostUsedTypes ranks diagram types by count, top 5, ties broken by
// first-encountered order.
func mostUsedTypes(records []*domain.HistoryRecord) []domain.TypeCount {
	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		if _, seen := counts[rec.DiagramType]; !seen {
			order = append(order, rec.DiagramType)
		}
		counts[rec.DiagramType]++
	}

	ranked := make([]domain.TypeCount, 0, len(order))
	for _, t := range order {
		ranked = append(ranked, domain.TypeCount{Type: t, Count: counts[t]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	return ranked
}

// Cleanup removes records per the retention options. A record is removed
// when it is older than OlderThan, OR the pre-cleanup total minus the
// running removed count still exceeds MaxRecords, OR it is auto-saved and
// auto-saves are not kept, OR it is manual and manual saves are not kept.
func (m *Manager) Cleanup(opts domain.CleanupOptions) domain.CleanupResult {
	olderThan := opts.OlderThan
	if olderThan == 0 {
		olderThan = DefaultCleanupAge
	}
	keepAutoSaved := false
	if opts.KeepAutoSaved != nil {
		keepAutoSaved = *opts.KeepAutoSaved
	}
	keepManual := true
	if opts.KeepManual != nil {
		keepManual = *opts.KeepManual
	}
	maxRecords := opts.MaxRecords
	if maxRecords <= 0 {
		maxRecords = m.maxRecords
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UnixMilli()
	candidates := m.allLocked()
	total := len(candidates)

	var dropped []*domain.HistoryRecord
	for _, rec := range candidates {
		remove := (now-rec.Timestamp > olderThan.Milliseconds()) ||
			(total-len(dropped) > maxRecords) ||
			(!keepAutoSaved && rec.AutoSaved) ||
			(!keepManual && !rec.AutoSaved)

		if remove {
			dropped = append(dropped, rec)
		}
	}

	for _, rec := range dropped {
		for i, r := range m.records {
			if r.ID == rec.ID {
				m.records = append(m.records[:i], m.records[i+1:]...)
				break
			}
		}
		delete(m.index, rec.ID)
	}

	if len(dropped) > 0 {
		m.archiveDropped(dropped)
		m.persistLocked()
	}

	return domain.CleanupResult{
		Removed:   len(dropped),
		Remaining: len(m.records),
	}
}

// archiveDropped sends removed records to the archive, best-effort.
func (m *Manager) archiveDropped(records []*domain.HistoryRecord) {
	if m.archive == nil || len(records) == 0 {
		return
	}
	if _, err := m.archive.Archive(records); err != nil {
		m.zlog.Error().Err(err).Int("count", len(records)).Msg("failed to archive dropped records")
	}
}

// persistLocked saves the catalog, best-effort. Failures are logged and
// never propagated; the in-memory catalog stays authoritative.
func (m *Manager) persistLocked() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.allLocked()); err != nil {
		m.zlog.Error().Err(err).Msg("failed to persist history catalog")
	}
}
