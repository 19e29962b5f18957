package handlers

import (
	"github.com/geocoder89/devnet/internal/actorctx"
	"github.com/gin-gonic/gin"
)

// actorID returns the authenticated caller. Routes behind RequireAuth always
// have one; answering 401 here covers handlers mounted without it.
func actorID(ctx *gin.Context) (string, bool) {
	id, ok := actorctx.UserIDFrom(ctx.Request.Context())
	if !ok {
		RespondUnauthorized(ctx, msgNoToken)
		return "", false
	}

	return id, true
}
