package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/metadata"
)

const (
	RequestIDHeader = "X-Request-Id"
	// RequestIDMetadataKey carries the request id to the book service.
	RequestIDMetadataKey = "x-request-id"
	requestIDKey         = "requestID"
)

// RequestID tags each request with an id, reusing the caller's header when
// present, and forwards it as outgoing gRPC metadata.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		ctx := metadata.AppendToOutgoingContext(c.Request.Context(), RequestIDMetadataKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger writes one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"query":      c.Request.URL.RawQuery,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
			"request_id": GetRequestID(c),
		})
		if c.Writer.Status() >= 500 {
			entry.Error("HTTP request")
		} else {
			entry.Info("HTTP request")
		}
	}
}
