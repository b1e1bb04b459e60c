package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at limit bytes. overrides is keyed by route
// pattern (gin's FullPath) for endpoints that accept larger payloads.
func BodyLimit(limit int64, overrides map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		capBytes := limit
		if n, ok := overrides[c.FullPath()]; ok {
			capBytes = n
		}
		if c.Request.ContentLength > capBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large", "code": "payload-too-large"})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, capBytes)
		}
		c.Next()
	}
}
