package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	requestStartKey = "request_start"
	responseMetaKey = "response_meta"
)

// WithResponseMeta stamps the request start so handlers can report processing time.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Next()
	}
}

// SetMeta attaches a key to the meta block of the response envelope.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta := ensureMeta(c)
	meta[key] = value
}

// Meta returns the collected metadata plus processing_time_ms measured now, or
// nil when nothing was collected and the request was not stamped.
func Meta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	var meta map[string]interface{}
	if value, exists := c.Get(responseMetaKey); exists {
		meta, _ = value.(map[string]interface{})
	}
	if value, exists := c.Get(requestStartKey); exists {
		if start, ok := value.(time.Time); ok {
			if meta == nil {
				meta = ensureMeta(c)
			}
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if value, exists := c.Get(responseMetaKey); exists {
		if typed, ok := value.(map[string]interface{}); ok {
			return typed
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
