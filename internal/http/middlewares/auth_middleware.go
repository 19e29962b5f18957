package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/devnet/internal/actorctx"
	"github.com/geocoder89/devnet/internal/auth"
	"github.com/geocoder89/devnet/internal/observability"
	"github.com/gin-gonic/gin"
)

const tokenHeader = "x-auth-token"

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RevocationChecker reports whether a token id has been logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthMiddleware struct {
	jwt     TokenVerifier
	revoked RevocationChecker
	prom    *observability.Prom
}

// NewAuthMiddleware builds the verifier. revoked may be nil, in which case a
// token is valid purely on its signature and expiry.
func NewAuthMiddleware(jwt TokenVerifier, revoked RevocationChecker, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, revoked: revoked, prom: prom}
}

const ctxUserIDKey = "auth.userID"

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			m.prom.AuthDecision("missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "No token, authorization denied"})
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			outcome := "invalid"
			if errors.Is(err, auth.ErrTokenExpired) {
				outcome = "expired"
			}
			m.prom.AuthDecision(outcome)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token is not valid"})
			return
		}

		if m.revoked != nil {
			revoked, err := m.revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				m.prom.AuthDecision("error")
				slog.Default().ErrorContext(c.Request.Context(), "revocation lookup failed", "err", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
				return
			}
			if revoked {
				m.prom.AuthDecision("revoked")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token is not valid"})
				return
			}
		}

		m.prom.AuthDecision("ok")

		// Stash useful bits of identity on the context
		c.Set(ctxUserIDKey, claims.User.ID)

		ctx := actorctx.WithUserID(c.Request.Context(), claims.User.ID)
		ctx = actorctx.WithToken(ctx, actorctx.Token{ID: claims.ID, ExpiresAt: claims.Expiry()})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// tokenFromRequest reads x-auth-token, falling back to an Authorization bearer.
func tokenFromRequest(c *gin.Context) string {
	if raw := strings.TrimSpace(c.GetHeader(tokenHeader)); raw != "" {
		return raw
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return ""
}

// UserIDFromContext is read by the per-user rate limiter.
func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
