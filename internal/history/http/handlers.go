package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smart-mermaid/go-mermaid-backend/internal/history/domain"
	"github.com/smart-mermaid/go-mermaid-backend/internal/history/service"
)

// Handler exposes the history catalog over HTTP.
type Handler struct {
	manager *service.Manager
}

func NewHandler(manager *service.Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/history")
	g.GET("", h.search)
	g.POST("", h.manualSave)
	g.GET("/stats", h.stats)
	g.GET("/export", h.export)
	g.POST("/import", h.importRecords)
	g.POST("/cleanup", h.cleanup)
	g.GET("/compare", h.compare)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/restore", h.restore)
}

type manualSaveReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (h *Handler) manualSave(c *gin.Context) {
	var req manualSaveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	rec, err := h.manager.ManualSave(strings.TrimSpace(req.Title), req.Description, req.Tags)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyTitle) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "title is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "record": rec})
}

// search handles GET /history with query and filter parameters:
// q, autoSaved, diagramType, renderMode, start, end (epoch millis), tags
// (comma-separated).
func (h *Handler) search(c *gin.Context) {
	var filters domain.SearchFilters

	if v := c.Query("autoSaved"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid autoSaved value"})
			return
		}
		filters.AutoSaved = &b
	}
	filters.DiagramType = c.Query("diagramType")
	filters.RenderMode = c.Query("renderMode")

	start, okStart := parseMillis(c.Query("start"))
	end, okEnd := parseMillis(c.Query("end"))
	if !okStart || !okEnd {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid date range"})
		return
	}
	if start != 0 || end != 0 {
		filters.DateRange = &domain.DateRange{Start: start, End: end}
	}

	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if t := strings.TrimSpace(tag); t != "" {
				filters.Tags = append(filters.Tags, t)
			}
		}
	}

	records := h.manager.SearchRecords(c.Query("q"), filters)
	c.JSON(http.StatusOK, gin.H{"ok": true, "total": len(records), "records": records})
}

func parseMillis(v string) (int64, bool) {
	if v == "" {
		return 0, true
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.manager.GetRecord(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "record": rec})
}

func (h *Handler) delete(c *gin.Context) {
	if !h.manager.DeleteRecord(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) restore(c *gin.Context) {
	rec, err := h.manager.RestoreRecord(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "record": rec})
}

func (h *Handler) compare(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "from and to are required"})
		return
	}

	cmp, err := h.manager.CompareRecords(from, to)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "comparison": cmp})
}

func (h *Handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "statistics": h.manager.Statistics()})
}

func (h *Handler) export(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	data, err := h.manager.Export(format)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	filename := "smart-mermaid-history-" + time.Now().Format("20060102-150405")
	switch strings.ToLower(format) {
	case "csv":
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	default:
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.json"`)
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
	}
}

func (h *Handler) importRecords(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "empty body"})
		return
	}

	result, err := h.manager.Import(data)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result})
}

type cleanupReq struct {
	OlderThanMs   int64 `json:"olderThanMs,omitempty"`
	KeepAutoSaved *bool `json:"keepAutoSaved,omitempty"`
	KeepManual    *bool `json:"keepManual,omitempty"`
	MaxRecords    int   `json:"maxRecords,omitempty"`
}

func (h *Handler) cleanup(c *gin.Context) {
	var req cleanupReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
			return
		}
	}

	// A negative age would make every record age-expired and empty the
	// catalog; zero means "use the 30-day default".
	if req.OlderThanMs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "olderThanMs must not be negative"})
		return
	}

	result := h.manager.Cleanup(domain.CleanupOptions{
		OlderThan:     time.Duration(req.OlderThanMs) * time.Millisecond,
		KeepAutoSaved: req.KeepAutoSaved,
		KeepManual:    req.KeepManual,
		MaxRecords:    req.MaxRecords,
	})

	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result})
}
