package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const msgBodyTooLarge = "Request body too large"

// MaxBodyBytes rejects declared oversize bodies with 413 up front and caps
// streamed ones so BindJSON fails once the limit is crossed.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength > limit {
			ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"msg": msgBodyTooLarge})
			return
		}

		if ctx.Request.Body != nil {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
		}

		ctx.Next()
	}
}
