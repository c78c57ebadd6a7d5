package domain

// Render modes supported by the frontend.
const (
	RenderModeExcalidraw = "excalidraw"
	RenderModeMermaid    = "mermaid"
)

// DiagramTypeAuto lets the generator pick the diagram type.
const DiagramTypeAuto = "auto"

// EditorState is the live state of the diagram editor session.
// It is storage-agnostic and shared across service and HTTP layers.
type EditorState struct {
	InputText   string `json:"inputText"`
	MermaidCode string `json:"mermaidCode"`
	DiagramType string `json:"diagramType"`
	RenderMode  string `json:"renderMode"`
}

// NewEditorState returns the default state for a fresh session.
func NewEditorState() EditorState {
	return EditorState{
		DiagramType: DiagramTypeAuto,
		RenderMode:  RenderModeExcalidraw,
	}
}

// Snapshot is one entry of the undo/redo log: the mermaid code as it
// was at a point in time. Timestamps are epoch milliseconds.
type Snapshot struct {
	Code      string `json:"code"`
	Timestamp int64  `json:"timestamp"`
}
