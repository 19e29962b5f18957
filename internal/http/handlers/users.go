package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/devnet/internal/config"
	"github.com/geocoder89/devnet/internal/domain/user"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type UsersHandler struct {
	users   UserReader
	writer  UserWriter
	hasher  PasswordHasher
	tokens  TokenIssuer
	timeout time.Duration
}

func NewUsersHandler(users UserReader, writer UserWriter, hasher PasswordHasher, tokens TokenIssuer, timeout time.Duration) *UsersHandler {
	return &UsersHandler{
		users:   users,
		writer:  writer,
		hasher:  hasher,
		tokens:  tokens,
		timeout: timeout,
	}
}

// Register creates the account and answers with a token for it, so the client is logged in straight away.
func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	email := user.NormalizeEmail(req.Email)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	_, err := h.users.GetByEmail(cctx, email)
	switch {
	case err == nil:
		RespondErrors(ctx, msgUserExists)
		return
	case !errors.Is(err, user.ErrNotFound):
		RespondServerError(ctx, "users.register.lookup", err)
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		RespondServerError(ctx, "users.register.hash", err)
		return
	}

	u, err := h.writer.Create(cctx, user.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Avatar:       user.GravatarURL(email),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, user.ErrEmailTaken) {
			RespondErrors(ctx, msgUserExists)
			return
		}

		RespondServerError(ctx, "users.register.create", err)
		return
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		RespondServerError(ctx, "users.register.issue", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  u,
	})
}
