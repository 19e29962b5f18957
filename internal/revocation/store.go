// Package revocation holds the denylist of logged-out tokens, keyed by token id (jti).
// Entries only need to live until the token would have expired anyway.
package revocation

import (
	"context"
	"time"
)

type Store interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
