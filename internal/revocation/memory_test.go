package revocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RevokeUntilExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Revoke(ctx, "jti-1", now.Add(time.Minute)))

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)

	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_IgnoresAlreadyExpired(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.Revoke(context.Background(), "old", time.Now().Add(-time.Second)))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_RejectsEmptyID(t *testing.T) {
	require.Error(t, NewMemoryStore().Revoke(context.Background(), "", time.Now().Add(time.Hour)))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	until := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Revoke(ctx, "same", until)
			_, _ = s.IsRevoked(ctx, "same")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, s.Len())
}
