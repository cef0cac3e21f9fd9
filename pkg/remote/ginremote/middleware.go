// Package ginremote answers whole-form validation checks inside a gin
// router.
package ginremote

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-formguard/pkg/remote"
)

// Middleware answers requests carrying the whole-form check marker and
// aborts the chain for them. Other requests continue to the next handler.
func Middleware(validate remote.ValidateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed form"})
			return
		}
		reply, handled, err := remote.Check(c.Request.Context(), validate, c.Request.Form)
		if !handled {
			c.Next()
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
			return
		}
		remote.WriteReply(c.Writer, reply)
		c.Abort()
	}
}
