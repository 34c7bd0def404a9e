package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tradebook/pkg/logger"
)

// HeaderRequestID is the inbound/outbound request id header.
const HeaderRequestID = "X-Request-ID"

// Trace middleware attaches a request id to each request and stores a
// request-scoped logger in the context so log lines downstream carry it.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		log := logger.FromContext(c.Request.Context()).With("request_id", requestID)
		ctx := logger.WithLogger(c.Request.Context(), log)
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
