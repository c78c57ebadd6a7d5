package service_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	editordomain "github.com/smart-mermaid/go-mermaid-backend/internal/editor/domain"
	"github.com/smart-mermaid/go-mermaid-backend/internal/history/domain"
	"github.com/smart-mermaid/go-mermaid-backend/internal/history/service"
)

// stubEditor is a minimal EditorSession: a settable state plus a capture
// of the last restored state.
type stubEditor struct {
	state    editordomain.EditorState
	restored *editordomain.EditorState
}

func (s *stubEditor) State() editordomain.EditorState { return s.state }

func (s *stubEditor) Restore(state editordomain.EditorState) {
	s.restored = &state
}

type memStore struct {
	saved   [][]*domain.HistoryRecord
	initial []*domain.HistoryRecord
	loadErr error
	saveErr error
}

func (s *memStore) Save(records []*domain.HistoryRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, records)
	return nil
}

func (s *memStore) Load() ([]*domain.HistoryRecord, error) {
	return s.initial, s.loadErr
}

type fakeArchiver struct {
	archived []*domain.HistoryRecord
	err      error
}

func (a *fakeArchiver) Archive(records []*domain.HistoryRecord) (int, error) {
	if a.err != nil {
		return 0, a.err
	}
	a.archived = append(a.archived, records...)
	return len(records), nil
}

func newManager(t *testing.T, editor *stubEditor, maxRecords int) *service.Manager {
	t.Helper()
	if editor == nil {
		editor = &stubEditor{state: editordomain.NewEditorState()}
	}
	return service.NewManager(editor, nil, nil, maxRecords, zerolog.Nop())
}

func record(id string, ts int64, autoSaved bool) *domain.HistoryRecord {
	return &domain.HistoryRecord{
		ID:          id,
		Timestamp:   ts,
		Title:       "rec " + id,
		MermaidCode: "graph TD; " + id,
		AutoSaved:   autoSaved,
	}
}

func TestManager_ManualSave(t *testing.T) {
	editor := &stubEditor{state: editordomain.EditorState{
		InputText:   "an order is placed",
		MermaidCode: "graph TD; A-->B",
		DiagramType: "flowchart",
		RenderMode:  "mermaid",
	}}
	m := newManager(t, editor, 0)

	rec, err := m.ManualSave("Order flow", "first draft", []string{"orders"})
	require.NoError(t, err)

	assert.Equal(t, "Order flow", rec.Title)
	assert.Equal(t, "graph TD; A-->B", rec.MermaidCode)
	assert.Equal(t, "an order is placed", rec.InputText)
	assert.False(t, rec.AutoSaved)
	assert.Equal(t, []string{"orders"}, rec.Tags)
	assert.Equal(t, true, rec.Metadata["manual"])

	stats := m.Statistics()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Manual)
	assert.Equal(t, 0, stats.AutoSaved)
}

func TestManager_ManualSaveRequiresTitle(t *testing.T) {
	m := newManager(t, nil, 0)

	_, err := m.ManualSave("", "", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)
	assert.Empty(t, m.AllRecords())
}

func TestManager_AutoSave(t *testing.T) {
	t.Run("skips empty editor", func(t *testing.T) {
		m := newManager(t, &stubEditor{state: editordomain.NewEditorState()}, 0)
		assert.Nil(t, m.AutoSave())
		assert.Empty(t, m.AllRecords())
	})

	t.Run("saves and marks autoSaved", func(t *testing.T) {
		editor := &stubEditor{state: editordomain.EditorState{MermaidCode: "graph TD; A"}}
		m := newManager(t, editor, 0)

		rec := m.AutoSave()
		require.NotNil(t, rec)
		assert.True(t, rec.AutoSaved)
		assert.Contains(t, rec.Title, "Auto-save")
		assert.Equal(t, true, rec.Metadata["autoSave"])
	})

	t.Run("skips when identical to latest", func(t *testing.T) {
		editor := &stubEditor{state: editordomain.EditorState{MermaidCode: "graph TD; A"}}
		m := newManager(t, editor, 0)

		require.NotNil(t, m.AutoSave())
		assert.Nil(t, m.AutoSave())
		assert.Len(t, m.AllRecords(), 1)

		editor.state.MermaidCode = "graph TD; A-->B"
		assert.NotNil(t, m.AutoSave())
		assert.Len(t, m.AllRecords(), 2)
	})
}

func TestManager_AddRecordEvictsOldestPastCap(t *testing.T) {
	archive := &fakeArchiver{}
	m := service.NewManager(&stubEditor{}, nil, archive, 5, zerolog.Nop())

	for i := 1; i <= 6; i++ {
		m.AddRecord(record(fmt.Sprintf("history_%d_x", i), int64(i*1000), false))
	}

	all := m.AllRecords()
	require.Len(t, all, 5)

	// The oldest by timestamp is gone and went to the archive.
	_, err := m.GetRecord("history_1_x")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	require.Len(t, archive.archived, 1)
	assert.Equal(t, "history_1_x", archive.archived[0].ID)

	// Newest first.
	assert.Equal(t, "history_6_x", all[0].ID)
	assert.Equal(t, "history_2_x", all[4].ID)
}

func TestManager_DeleteRecord(t *testing.T) {
	m := newManager(t, nil, 0)
	m.AddRecord(record("history_1_a", 1000, false))

	assert.True(t, m.DeleteRecord("history_1_a"))
	assert.False(t, m.DeleteRecord("history_1_a"))

	_, err := m.GetRecord("history_1_a")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestManager_GetRecordNotFound(t *testing.T) {
	m := newManager(t, nil, 0)

	_, err := m.GetRecord("history_missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.Contains(t, err.Error(), "history_missing")
}

func TestManager_RestoreRecord(t *testing.T) {
	editor := &stubEditor{}
	m := service.NewManager(editor, nil, nil, 0, zerolog.Nop())

	original := &domain.HistoryRecord{
		ID:          "history_1_orig",
		Timestamp:   1000,
		Title:       "Checkpoint",
		MermaidCode: "graph TD; A-->B",
		InputText:   "input",
		DiagramType: "flowchart",
		RenderMode:  "mermaid",
	}
	m.AddRecord(original)

	restored, err := m.RestoreRecord("history_1_orig")
	require.NoError(t, err)

	// The editor got the saved state back.
	require.NotNil(t, editor.restored)
	assert.Equal(t, "graph TD; A-->B", editor.restored.MermaidCode)
	assert.Equal(t, "input", editor.restored.InputText)

	// Restoring appends a new record instead of rewinding.
	assert.Len(t, m.AllRecords(), 2)
	assert.Equal(t, "Restored: Checkpoint", restored.Title)
	assert.Equal(t, "history_1_orig", restored.ParentID)
	assert.Equal(t, "history_1_orig", restored.Metadata["originalId"])
	assert.NotEqual(t, original.ID, restored.ID)

	_, err = m.RestoreRecord("history_missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestManager_SearchRecords(t *testing.T) {
	m := newManager(t, nil, 0)

	a := record("history_1_a", 1000, true)
	a.Title = "Login flow"
	a.DiagramType = "flowchart"
	b := record("history_2_b", 2000, false)
	b.Title = "Login sequence"
	b.DiagramType = "sequenceDiagram"
	c := record("history_3_c", 3000, false)
	c.Title = "Deployment"
	c.DiagramType = "flowchart"
	m.AddRecord(a)
	m.AddRecord(b)
	m.AddRecord(c)

	t.Run("empty query returns all newest first", func(t *testing.T) {
		out := m.SearchRecords("", domain.SearchFilters{})
		require.Len(t, out, 3)
		assert.Equal(t, "history_3_c", out[0].ID)
		assert.Equal(t, "history_1_a", out[2].ID)
	})

	t.Run("query matches title substring", func(t *testing.T) {
		out := m.SearchRecords("login", domain.SearchFilters{})
		assert.Len(t, out, 2)
	})

	t.Run("filters are conjunctive with query", func(t *testing.T) {
		out := m.SearchRecords("login", domain.SearchFilters{DiagramType: "flowchart"})
		require.Len(t, out, 1)
		assert.Equal(t, "history_1_a", out[0].ID)
	})

	t.Run("no match yields empty non-nil slice", func(t *testing.T) {
		out := m.SearchRecords("nonexistent", domain.SearchFilters{})
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})
}

func TestManager_CompareRecords(t *testing.T) {
	m := newManager(t, nil, 0)

	r1 := record("history_1_a", 5000, false)
	r1.MermaidCode = "graph TD; A-->B"
	r1.InputText = "short"
	r2 := record("history_2_b", 2000, false)
	r2.MermaidCode = "graph TD; A"
	r2.InputText = "a longer input"
	m.AddRecord(r1)
	m.AddRecord(r2)

	cmp, err := m.CompareRecords("history_1_a", "history_2_b")
	require.NoError(t, err)

	assert.True(t, cmp.Differences.Title)
	assert.True(t, cmp.Differences.MermaidCode)
	assert.Equal(t, int64(3000), cmp.Differences.TimeDiff)
	assert.Equal(t, len(r1.MermaidCode)-len(r2.MermaidCode), cmp.Differences.SizeDiff.Code)
	assert.Equal(t, len(r1.InputText)-len(r2.InputText), cmp.Differences.SizeDiff.Input)

	// TimeDiff is absolute regardless of argument order.
	rev, err := m.CompareRecords("history_2_b", "history_1_a")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), rev.Differences.TimeDiff)

	_, err = m.CompareRecords("history_1_a", "history_missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestManager_Statistics(t *testing.T) {
	m := newManager(t, nil, 0)
	now := time.Now().UnixMilli()
	hour := int64(60 * 60 * 1000)
	day := 24 * hour

	recent := record("history_1_a", now-2*hour, true)
	recent.MermaidCode = "graph TD\nA[Start] --> B[End]"
	recent.DiagramType = "flowchart"
	thisWeek := record("history_2_b", now-3*day, false)
	thisWeek.DiagramType = "flowchart"
	thisMonth := record("history_3_c", now-10*day, false)
	thisMonth.DiagramType = "sequenceDiagram"
	old := record("history_4_d", now-40*day, false)
	old.DiagramType = "flowchart"

	m.AddRecord(recent)
	m.AddRecord(thisWeek)
	m.AddRecord(thisMonth)
	m.AddRecord(old)

	stats := m.Statistics()

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.AutoSaved)
	assert.Equal(t, 3, stats.Manual)
	assert.Equal(t, 1, stats.Today)
	assert.Equal(t, 2, stats.ThisWeek)
	assert.Equal(t, 3, stats.ThisMonth)

	require.NotNil(t, stats.NewestRecord)
	assert.Equal(t, "history_1_a", stats.NewestRecord.ID)
	require.NotNil(t, stats.OldestRecord)
	assert.Equal(t, "history_4_d", stats.OldestRecord.ID)

	require.NotEmpty(t, stats.MostUsedTypes)
	assert.Equal(t, "flowchart", stats.MostUsedTypes[0].Type)
	assert.Equal(t, 3, stats.MostUsedTypes[0].Count)
}

func TestManager_StatisticsEmpty(t *testing.T) {
	m := newManager(t, nil, 0)

	stats := m.Statistics()
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.AverageComplexity)
	assert.Nil(t, stats.NewestRecord)
	assert.Nil(t, stats.OldestRecord)
}

func TestManager_Cleanup(t *testing.T) {
	day := int64(24 * 60 * 60 * 1000)

	t.Run("default options drop auto-saves and the aged", func(t *testing.T) {
		m := newManager(t, nil, 0)
		now := time.Now().UnixMilli()

		// Oldest to newest: 45 days (auto), 20 days (manual), 5 days (auto).
		m.AddRecord(record("history_1_a", now-45*day, true))
		m.AddRecord(record("history_2_b", now-20*day, false))
		m.AddRecord(record("history_3_c", now-5*day, true))

		result := m.Cleanup(domain.CleanupOptions{})

		assert.Equal(t, 2, result.Removed)
		assert.Equal(t, 1, result.Remaining)

		remaining := m.AllRecords()
		require.Len(t, remaining, 1)
		assert.Equal(t, "history_2_b", remaining[0].ID)
	})

	t.Run("keeping both kinds within age removes nothing", func(t *testing.T) {
		m := newManager(t, nil, 0)
		now := time.Now().UnixMilli()
		keep := true

		m.AddRecord(record("history_1_a", now-5*day, true))
		m.AddRecord(record("history_2_b", now-2*day, false))

		result := m.Cleanup(domain.CleanupOptions{
			KeepAutoSaved: &keep,
			KeepManual:    &keep,
		})

		assert.Equal(t, 0, result.Removed)
		assert.Equal(t, 2, result.Remaining)
	})

	t.Run("maxRecords trims down to the cap", func(t *testing.T) {
		m := newManager(t, nil, 0)
		now := time.Now().UnixMilli()
		keep := true

		for i := 1; i <= 5; i++ {
			m.AddRecord(record(fmt.Sprintf("history_%d_x", i), now-int64(i)*1000, false))
		}

		result := m.Cleanup(domain.CleanupOptions{
			KeepAutoSaved: &keep,
			KeepManual:    &keep,
			MaxRecords:    3,
		})

		assert.Equal(t, 2, result.Removed)
		assert.Equal(t, 3, result.Remaining)
	})

	t.Run("dropped records go to the archive", func(t *testing.T) {
		archive := &fakeArchiver{}
		m := service.NewManager(&stubEditor{}, nil, archive, 0, zerolog.Nop())
		now := time.Now().UnixMilli()

		m.AddRecord(record("history_1_a", now-45*day, false))
		m.AddRecord(record("history_2_b", now-1*day, false))

		result := m.Cleanup(domain.CleanupOptions{})

		assert.Equal(t, 1, result.Removed)
		require.Len(t, archive.archived, 1)
		assert.Equal(t, "history_1_a", archive.archived[0].ID)
	})
}

func TestManager_LoadsPersistedCatalog(t *testing.T) {
	store := &memStore{initial: []*domain.HistoryRecord{
		record("history_1_a", 1000, false),
		record("history_2_b", 2000, true),
		record("history_1_a", 1000, false), // duplicate id, dropped
	}}

	m := service.NewManager(&stubEditor{}, store, nil, 0, zerolog.Nop())

	assert.Len(t, m.AllRecords(), 2)
}

func TestManager_LoadFailureStartsEmpty(t *testing.T) {
	store := &memStore{loadErr: errors.New("redis down")}

	m := service.NewManager(&stubEditor{}, store, nil, 0, zerolog.Nop())

	assert.Empty(t, m.AllRecords())
}

func TestManager_PersistenceIsBestEffort(t *testing.T) {
	store := &memStore{saveErr: errors.New("redis down")}
	m := service.NewManager(&stubEditor{}, store, nil, 0, zerolog.Nop())

	// Saves fail silently; the in-memory catalog still works.
	m.AddRecord(record("history_1_a", 1000, false))
	assert.Len(t, m.AllRecords(), 1)
}

func TestManager_PersistsNewestFirst(t *testing.T) {
	store := &memStore{}
	m := service.NewManager(&stubEditor{}, store, nil, 0, zerolog.Nop())

	m.AddRecord(record("history_1_a", 1000, false))
	m.AddRecord(record("history_2_b", 2000, false))

	require.NotEmpty(t, store.saved)
	last := store.saved[len(store.saved)-1]
	require.Len(t, last, 2)
	assert.Equal(t, "history_2_b", last[0].ID)
}
