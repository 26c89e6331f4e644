// Package middleware holds the gin middleware shared by every route.
package middleware

import (
	"fmt"
	"time"

	"github.com/beka-birhanu/reelrite-rendezvous/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID carries the request id in and out.
	HeaderRequestID = "X-Request-ID"

	// ContextRequestID is the key used to store the request id in the Gin context.
	ContextRequestID = "requestID"
)

// RequestID reuses the caller's X-Request-ID or mints a new one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(ContextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// AccessLog writes one line per request. Server errors are logged at error level.
func AccessLog(logger i.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		line := fmt.Sprintf("%s %s status=%d latency=%s request_id=%s",
			c.Request.Method,
			c.Request.URL.RequestURI(),
			c.Writer.Status(),
			time.Since(start),
			c.GetString(ContextRequestID),
		)
		if c.Writer.Status() >= 500 {
			logger.Error(line)
			return
		}
		logger.Info(line)
	}
}
