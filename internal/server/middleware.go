package server

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware tags every request with a UUIDv7, honoring an id the
// caller already supplied.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			value, err := uuid.NewV7()
			if err != nil {
				value = uuid.New()
			}
			requestID = value.String()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}
