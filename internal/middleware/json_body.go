package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// JSONBodyKey is the gin.Context key holding the decoded request body.
const JSONBodyKey = "json_body"

// MaxJSONBodyBytes caps JSON request bodies at 100 KiB.
const MaxJSONBodyBytes int64 = 100 << 10

// JSONBody parses JSON request bodies up front so handlers can read them with
// c.Get(JSONBodyKey). Requests without a body or with another content type
// pass through untouched. Malformed JSON is rejected with 400 and bodies over
// MaxJSONBodyBytes with 413.
func JSONBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 || c.ContentType() != binding.MIMEJSON {
			c.Next()
			return
		}

		if c.Request.ContentLength > MaxJSONBodyBytes {
			abortTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxJSONBodyBytes)

		// ShouldBindBodyWith caches the raw bytes in the context, so a handler
		// can still bind the body into its own struct afterwards.
		var body any
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			if errors.Is(err, io.EOF) {
				c.Next()
				return
			}
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				abortTooLarge(c)
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid JSON body",
			})
			return
		}

		c.Set(JSONBodyKey, body)
		c.Next()
	}
}

func abortTooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": "request body too large",
	})
}
