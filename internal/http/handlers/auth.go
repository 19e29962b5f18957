package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/devnet/internal/actorctx"
	"github.com/geocoder89/devnet/internal/config"
	"github.com/geocoder89/devnet/internal/domain/user"
	"github.com/geocoder89/devnet/internal/observability"
	"github.com/gin-gonic/gin"
)

// Revoker denylists a token id until the token would have expired.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
}

type AuthHandler struct {
	users   UserReader
	hasher  PasswordHasher
	tokens  TokenIssuer
	revoker Revoker
	prom    *observability.Prom
	timeout time.Duration

	// compared against when the email is unknown so both failure paths cost one hash check
	dummyHash string
}

func NewAuthHandler(users UserReader, hasher PasswordHasher, tokens TokenIssuer, revoker Revoker, prom *observability.Prom, timeout time.Duration) *AuthHandler {
	dummy, _ := hasher.Hash("devnet-unknown-account")

	return &AuthHandler{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		revoker:   revoker,
		prom:      prom,
		timeout:   timeout,
		dummyHash: dummy,
	}
}

// Me returns the caller without the password hash.
func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondServerError(ctx, "auth.me", err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, user.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.hasher.Verify(req.Password, h.dummyHash)
			h.prom.LoginAttempt("invalid_credentials")
			RespondErrors(ctx, msgInvalidCreds)
			return
		}

		h.prom.LoginAttempt("error")
		RespondServerError(ctx, "auth.login.lookup", err)
		return
	}

	if !h.hasher.Verify(req.Password, found.PasswordHash) {
		h.prom.LoginAttempt("invalid_credentials")
		RespondErrors(ctx, msgInvalidCreds)
		return
	}

	token, err := h.tokens.Issue(found.ID)
	if err != nil {
		h.prom.LoginAttempt("error")
		RespondServerError(ctx, "auth.login.issue", err)
		return
	}

	h.prom.LoginAttempt("ok")

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
	})
}

// Logout denylists the presented token. Other tokens of the same user stay valid.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	tok, ok := actorctx.TokenFrom(ctx.Request.Context())
	if !ok {
		RespondUnauthorized(ctx, msgNoToken)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.revoker.Revoke(cctx, tok.ID, tok.ExpiresAt); err != nil {
		RespondServerError(ctx, "auth.logout", err)
		return
	}

	RespondMsg(ctx, http.StatusOK, "Logged out")
}
