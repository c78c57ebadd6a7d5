package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smart-mermaid/go-mermaid-backend/internal/editor/service"
)

// Handler exposes the editor session over HTTP for the browser frontend.
type Handler struct {
	session *service.Session
}

func NewHandler(session *service.Session) *Handler {
	return &Handler{session: session}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/editor")
	g.GET("/state", h.getState)
	g.PUT("/code", h.setCode)
	g.PUT("/input", h.setInput)
	g.PUT("/settings", h.setSettings)
	g.POST("/undo", h.undo)
	g.POST("/redo", h.redo)
	g.DELETE("/history", h.clearHistory)
	g.POST("/reset", h.reset)
}

func (h *Handler) stateBody() gin.H {
	return gin.H{
		"ok":      true,
		"state":   h.session.State(),
		"canUndo": h.session.CanUndo(),
		"canRedo": h.session.CanRedo(),
	}
}

func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.stateBody())
}

type setCodeReq struct {
	Code string `json:"code"`
}

func (h *Handler) setCode(c *gin.Context) {
	var req setCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	h.session.SetMermaidCode(req.Code)
	c.JSON(http.StatusOK, h.stateBody())
}

type setInputReq struct {
	Text string `json:"text"`
}

func (h *Handler) setInput(c *gin.Context) {
	var req setInputReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	h.session.SetInputText(req.Text)
	c.JSON(http.StatusOK, h.stateBody())
}

type setSettingsReq struct {
	DiagramType *string `json:"diagramType,omitempty"`
	RenderMode  *string `json:"renderMode,omitempty"`
}

func (h *Handler) setSettings(c *gin.Context) {
	var req setSettingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if req.DiagramType != nil {
		h.session.SetDiagramType(*req.DiagramType)
	}
	if req.RenderMode != nil {
		h.session.SetRenderMode(*req.RenderMode)
	}
	c.JSON(http.StatusOK, h.stateBody())
}

func (h *Handler) undo(c *gin.Context) {
	state, applied := h.session.Undo()
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"applied": applied,
		"state":   state,
		"canUndo": h.session.CanUndo(),
		"canRedo": h.session.CanRedo(),
	})
}

func (h *Handler) redo(c *gin.Context) {
	state, applied := h.session.Redo()
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"applied": applied,
		"state":   state,
		"canUndo": h.session.CanUndo(),
		"canRedo": h.session.CanRedo(),
	})
}

// clearHistory is destructive; the frontend confirms with the user first.
func (h *Handler) clearHistory(c *gin.Context) {
	h.session.ClearHistory()
	c.JSON(http.StatusOK, h.stateBody())
}

func (h *Handler) reset(c *gin.Context) {
	h.session.Reset()
	c.JSON(http.StatusOK, h.stateBody())
}
