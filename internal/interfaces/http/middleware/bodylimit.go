package middleware

import (
	"errors"
	"net/http"

	"github.com/claimswift/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DefaultBodyLimit caps JSON request bodies at 1 MiB.
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit rejects bodies larger than maxBytes. A declared Content-Length
// over the limit is refused up front with 413; chunked bodies are cut off
// while being read, which surfaces as an *http.MaxBytesError from binding.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			RespondBodyTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from reading past the BodyLimit cap.
func IsBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

// RespondBodyTooLarge aborts with a 413 ERR_REQUEST_TOO_LARGE envelope.
func RespondBodyTooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
		dto.ErrCodeTooLarge,
		"Request body exceeds maximum allowed size",
		GetRequestID(c),
	))
}
