package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-engine/internal/adapters/http/dto"
)

// ErrorCodeMethodNotAllowed is returned for a known path with the wrong
// method.
const ErrorCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"

// NoRoute answers unknown paths with the error envelope.
func NoRoute(c *gin.Context) {
	abortWithErrorCode(c, http.StatusNotFound, dto.ErrorCodeNotFound, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
}

// NoMethod answers a known path requested with an unsupported method.
func NoMethod(c *gin.Context) {
	abortWithErrorCode(c, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
		"method "+c.Request.Method+" not allowed on "+c.Request.URL.Path)
}

func abortWithErrorCode(c *gin.Context, status int, code, message string) {
	resp := dto.NewErrorResponse(code, message)
	resp.TraceID = dto.GetTraceID(c)

	c.AbortWithStatusJSON(status, resp)
}
