package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// SimpleTimeout gives every request a context deadline. Handlers and the
// stores they call observe it through ctx; nothing is aborted from outside.
func SimpleTimeout(timeout time.Duration) gin.HandlerFunc {
	return TimeoutWithSkipPaths(timeout, nil)
}

// TimeoutWithSkipPaths is SimpleTimeout except for the given route
// patterns, such as the trash purge which may delete many quotes.
func TimeoutWithSkipPaths(timeout time.Duration, skipPaths []string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.FullPath()]; ok {
			c.Next()
			return
		}

		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
