package service

import (
	"sync"
	"time"

	"github.com/smart-mermaid/go-mermaid-backend/internal/editor/domain"
)

// DefaultMaxLogSize bounds the undo log when no limit is configured.
const DefaultMaxLogSize = 50

// CommandLog is a bounded, single-branch undo/redo log of code snapshots.
// A cursor marks the current position; recording after an undo discards
// the abandoned redo entries. The zero cursor value for an empty log is -1.
//
// Every operation is a total function: out-of-range undo/redo calls are
// no-ops, not errors.
type CommandLog struct {
	mu sync.Mutex

	entries []domain.Snapshot
	cursor  int
	maxSize int
}

// NewCommandLog creates an empty log holding at most maxSize snapshots.
func NewCommandLog(maxSize int) *CommandLog {
	if maxSize <= 0 {
		maxSize = DefaultMaxLogSize
	}
	return &CommandLog{
		cursor:  -1,
		maxSize: maxSize,
	}
}

// Record appends a snapshot of code, discarding any redo-able entries
// past the cursor. Oldest entries are evicted once the log is full.
// Identical consecutive snapshots are not deduplicated; callers decide
// what counts as an edit.
func (l *CommandLog) Record(code string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries[:l.cursor+1], domain.Snapshot{
		Code:      code,
		Timestamp: time.Now().UnixMilli(),
	})

	if len(l.entries) > l.maxSize {
		excess := len(l.entries) - l.maxSize
		l.entries = l.entries[excess:]
	}

	l.cursor = len(l.entries) - 1
}

// Undo moves the cursor back one entry and returns the snapshot there.
// Returns ok=false when there is nothing to undo.
func (l *CommandLog) Undo() (domain.Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cursor <= 0 {
		return domain.Snapshot{}, false
	}

	l.cursor--
	return l.entries[l.cursor], true
}

// Redo moves the cursor forward one entry and returns the snapshot there.
// Returns ok=false when there is nothing to redo.
func (l *CommandLog) Redo() (domain.Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cursor >= len(l.entries)-1 {
		return domain.Snapshot{}, false
	}

	l.cursor++
	return l.entries[l.cursor], true
}

// CanUndo reports whether an undo is available.
func (l *CommandLog) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor > 0
}

// CanRedo reports whether a redo is available.
func (l *CommandLog) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor < len(l.entries)-1
}

// Len returns the number of snapshots in the log.
func (l *CommandLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Cursor returns the current cursor index, -1 when empty.
func (l *CommandLog) Cursor() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

// Clear drops every snapshot. Destructive; the caller confirms with the
// user before invoking.
func (l *CommandLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	l.cursor = -1
}
