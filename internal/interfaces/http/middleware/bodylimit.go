package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/japabox/storefront/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeRequestTooBig,
					"Request body exceeds maximum allowed size",
					c.GetString(RequestIDKey)))
			return
		}

		// streaming bodies without a Content-Length are cut at the limit
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
