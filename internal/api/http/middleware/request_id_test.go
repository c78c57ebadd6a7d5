package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-mermaid/go-mermaid-backend/internal/api/http/middleware"
)

func setupRequestID(t *testing.T) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	zlog := zerolog.New(&buf)

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware(zlog))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "request_id": c.GetString("request_id")})
	})
	return router, &buf
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	router, _ := setupRequestID(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	rid := w.Header().Get("X-Request-Id")
	require.NotEmpty(t, rid)
	assert.Len(t, rid, 32)
	assert.Contains(t, w.Body.String(), rid)
}

func TestRequestIDMiddleware_EchoesIncomingID(t *testing.T) {
	router, _ := setupRequestID(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "frontend-trace-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "frontend-trace-42", w.Header().Get("X-Request-Id"))
	assert.Contains(t, w.Body.String(), "frontend-trace-42")
}

func TestRequestIDMiddleware_LogsStructuredAccessLine(t *testing.T) {
	router, buf := setupRequestID(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "frontend-trace-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	line := buf.String()
	assert.Contains(t, line, `"request_id":"frontend-trace-42"`)
	assert.Contains(t, line, `"method":"GET"`)
	assert.Contains(t, line, `"path":"/ping"`)
	assert.Contains(t, line, `"status":200`)
}

func TestRequestIDMiddleware_BlankHeaderGetsFreshID(t *testing.T) {
	router, _ := setupRequestID(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "   ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	rid := w.Header().Get("X-Request-Id")
	assert.Len(t, rid, 32)
}
