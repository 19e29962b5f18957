package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	msgNoToken         = "No token, authorization denied"
	msgNotAuthorized   = "User is not authorized"
	msgServerError     = "Server error"
	msgInvalidCreds    = "Invalid Credentials"
	msgUserExists      = "User already exists"
	msgNoProfile       = "There is no profile for this user"
	msgProfileNotFound = "Profile not found"
	msgPostNotFound    = "Post not found"
)

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondMsg(ctx *gin.Context, status int, msg string) {
	ctx.JSON(status, gin.H{"msg": msg})
}

func RespondBadRequest(ctx *gin.Context, msg string) {
	RespondMsg(ctx, http.StatusBadRequest, msg)
}

// RespondNotFound answers 400: a missing resource is reported like bad input, never as 404.
func RespondNotFound(ctx *gin.Context, msg string) {
	RespondMsg(ctx, http.StatusBadRequest, msg)
}

func RespondUnauthorized(ctx *gin.Context, msg string) {
	RespondMsg(ctx, http.StatusUnauthorized, msg)
}

func RespondForbidden(ctx *gin.Context) {
	RespondMsg(ctx, http.StatusForbidden, msgNotAuthorized)
}

// RespondServerError logs the cause and sends the client a generic body.
func RespondServerError(ctx *gin.Context, op string, err error) {
	slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
		"op", op,
		"err", err,
		"request_id", requestIDFrom(ctx),
	)

	RespondMsg(ctx, http.StatusInternalServerError, msgServerError)
}

func RespondValidation(ctx *gin.Context, fields []FieldError) {
	ctx.JSON(http.StatusBadRequest, gin.H{"errors": fields})
}

// RespondErrors sends a single message in the validation shape, used for
// failures that must not reveal which input was wrong.
func RespondErrors(ctx *gin.Context, msg string) {
	RespondValidation(ctx, []FieldError{{Message: msg}})
}
