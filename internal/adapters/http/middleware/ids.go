// Package middleware provides the gin middleware of the quote API.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-engine/internal/platform/logging"
)

const (
	HeaderRequestID = "X-Request-ID"
	// HeaderCorrelationID carries the id shared by every request of one
	// business transaction, such as a quote's approval run.
	HeaderCorrelationID = "X-Correlation-ID"

	// Gin context keys.
	ContextKeyRequestID     = "request_id"
	ContextKeyCorrelationID = "correlation_id"
)

// maxIDLength bounds inbound ids; longer or non-printable values are
// replaced with a fresh one.
const maxIDLength = 128

type contextKey string

const (
	ctxKeyRequestID     contextKey = "request_id"
	ctxKeyCorrelationID contextKey = "correlation_id"
)

// RequestID reuses the caller's X-Request-ID or generates one, echoes it in
// the response and attaches it to the request context and logger.
func RequestID() gin.HandlerFunc {
	return propagateID(HeaderRequestID, ContextKeyRequestID, func(ctx context.Context, id string) context.Context {
		return logging.WithRequestID(ContextWithRequestID(ctx, id), id)
	})
}

// CorrelationID does the same for X-Correlation-ID.
func CorrelationID() gin.HandlerFunc {
	return propagateID(HeaderCorrelationID, ContextKeyCorrelationID, func(ctx context.Context, id string) context.Context {
		return logging.WithCorrelationID(ContextWithCorrelationID(ctx, id), id)
	})
}

func propagateID(header, key string, attach func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if !acceptableID(id) {
			id = uuid.NewString()
		}

		c.Set(key, id)
		c.Header(header, id)
		c.Request = c.Request.WithContext(attach(c.Request.Context(), id))

		c.Next()
	}
}

func acceptableID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for i := range len(id) {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}

// GetRequestID returns the request id set by RequestID, or "".
func GetRequestID(c *gin.Context) string { return ginString(c, ContextKeyRequestID) }

// GetCorrelationID returns the correlation id set by CorrelationID, or "".
func GetCorrelationID(c *gin.Context) string { return ginString(c, ContextKeyCorrelationID) }

// MustGetRequestID returns the request id or "unknown".
func MustGetRequestID(c *gin.Context) string { return orUnknown(GetRequestID(c)) }

// MustGetCorrelationID returns the correlation id or "unknown".
func MustGetCorrelationID(c *gin.Context) string { return orUnknown(GetCorrelationID(c)) }

func ginString(c *gin.Context, key string) string {
	s, _ := c.Value(key).(string)
	return s
}

func orUnknown(id string) string {
	if id == "" {
		return "unknown"
	}

	return id
}

// RequestIDFromContext returns the request id stored by RequestID, or "".
// Outbound clients forward it downstream.
func RequestIDFromContext(ctx context.Context) string { return ctxString(ctx, ctxKeyRequestID) }

// CorrelationIDFromContext returns the correlation id stored by
// CorrelationID, or "".
func CorrelationIDFromContext(ctx context.Context) string { return ctxString(ctx, ctxKeyCorrelationID) }

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

func ctxString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}

	s, _ := ctx.Value(key).(string)

	return s
}
