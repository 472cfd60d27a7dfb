package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes caps JSON request bodies. Webhook payloads from the
// processor stay well under it.
const DefaultMaxBodyBytes int64 = 1 << 20

// MaxBodySize returns middleware that limits the request body size.
// Once the limit is exceeded the reader returns an error and binding
// fails with a validation error.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
