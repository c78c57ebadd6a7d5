package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestIDMiddleware tags every request with a stable id and writes one
// structured access-log line per request. An incoming X-Request-Id is
// trusted so the frontend can correlate its own traces; otherwise a fresh
// id is generated. The id is stored in the gin context as "request_id"
// and echoed back in the X-Request-Id response header.
func RequestIDMiddleware(zlog zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if rid == "" {
			rid = newRequestID()
		}

		c.Set("request_id", rid)
		c.Writer.Header().Set("X-Request-Id", rid)

		start := time.Now()
		c.Next()

		zlog.Info().
			Str("request_id", rid).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func newRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err == nil {
		return hex.EncodeToString(b)
	}
	// rand failure is effectively unreachable; a timestamp id still
	// keeps requests distinguishable.
	return time.Now().Format("20060102T150405.000000000")
}
