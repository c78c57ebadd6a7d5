package service

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/smart-mermaid/go-mermaid-backend/internal/editor/domain"
)

// Session holds the live editor state for the single-user session and the
// undo log backing it. Setting mermaid code records an undo snapshot;
// input text and display settings are not part of the undo log.
type Session struct {
	mu    sync.RWMutex
	state domain.EditorState
	log   *CommandLog
	zlog  zerolog.Logger
}

func NewSession(maxUndoEntries int, zlog zerolog.Logger) *Session {
	return &Session{
		state: domain.NewEditorState(),
		log:   NewCommandLog(maxUndoEntries),
		zlog:  zlog,
	}
}

// State returns a copy of the current editor state.
func (s *Session) State() domain.EditorState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetMermaidCode updates the diagram code and records an undo snapshot.
func (s *Session) SetMermaidCode(code string) {
	s.mu.Lock()
	s.state.MermaidCode = code
	s.mu.Unlock()

	s.log.Record(code)
}

// SetInputText updates the natural-language input text.
func (s *Session) SetInputText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.InputText = text
}

// SetDiagramType updates the diagram type tag.
func (s *Session) SetDiagramType(diagramType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DiagramType = diagramType
}

// SetRenderMode updates the render mode tag.
func (s *Session) SetRenderMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.RenderMode = mode
}

// Undo steps the undo log back one snapshot and applies its code.
// Returns the resulting state and whether anything changed.
func (s *Session) Undo() (domain.EditorState, bool) {
	snap, ok := s.log.Undo()
	if !ok {
		return s.State(), false
	}

	s.mu.Lock()
	s.state.MermaidCode = snap.Code
	st := s.state
	s.mu.Unlock()
	return st, true
}

// Redo steps the undo log forward one snapshot and applies its code.
func (s *Session) Redo() (domain.EditorState, bool) {
	snap, ok := s.log.Redo()
	if !ok {
		return s.State(), false
	}

	s.mu.Lock()
	s.state.MermaidCode = snap.Code
	st := s.state
	s.mu.Unlock()
	return st, true
}

func (s *Session) CanUndo() bool { return s.log.CanUndo() }
func (s *Session) CanRedo() bool { return s.log.CanRedo() }

// UndoDepth returns the number of snapshots currently in the undo log.
func (s *Session) UndoDepth() int { return s.log.Len() }

// ClearHistory drops the undo log without touching the editor state.
func (s *Session) ClearHistory() {
	s.log.Clear()
	s.zlog.Info().Msg("undo history cleared")
}

// Restore overwrites the whole editor state without recording an undo
// snapshot. Programmatic restores from the history catalog go through
// here, not through SetMermaidCode.
func (s *Session) Restore(state domain.EditorState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Reset clears the text fields and the undo log, keeping display settings.
func (s *Session) Reset() {
	s.mu.Lock()
	s.state.InputText = ""
	s.state.MermaidCode = ""
	s.mu.Unlock()

	s.log.Clear()
}
