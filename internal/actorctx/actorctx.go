// Package actorctx carries the authenticated caller through context.Context,
// so code below the HTTP layer can see who is acting without importing gin.
package actorctx

import (
	"context"
	"time"
)

type ctxKey string

const (
	keyUserID ctxKey = "user_id"
	keyToken  ctxKey = "token"
)

// Token identifies the credential the caller presented.
type Token struct {
	ID        string
	ExpiresAt time.Time
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyUserID).(string)

	return v, ok && v != ""
}

func WithToken(ctx context.Context, t Token) context.Context {
	return context.WithValue(ctx, keyToken, t)
}

func TokenFrom(ctx context.Context) (Token, bool) {
	t, ok := ctx.Value(keyToken).(Token)

	return t, ok && t.ID != ""
}
