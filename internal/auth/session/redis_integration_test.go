//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/auth"
	"bloodlink/internal/auth/session"
	platformredis "bloodlink/internal/platform/redis"
	"bloodlink/pkg/testutil/containers"
)

func TestRedisSessions_SaveExistsDelete(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	sessions := session.NewRedis(&platformredis.Client{Client: rc.Client})

	s := auth.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		Role:      auth.RoleBloodBank,
		Browser:   "Chrome 120.0",
		OS:        "Linux",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, sessions.Save(ctx, s, time.Minute))

	alive, err := sessions.Exists(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, alive)

	require.NoError(t, sessions.Delete(ctx, "sess-1"))

	alive, err = sessions.Exists(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, alive)

	// Deleting a dead session stays quiet.
	assert.NoError(t, sessions.Delete(ctx, "sess-1"))
}

func TestRedisSessions_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	sessions := session.NewRedis(&platformredis.Client{Client: rc.Client})

	s := auth.Session{ID: "sess-ttl", UserID: "user-1", Role: auth.RoleDonor}
	require.NoError(t, sessions.Save(ctx, s, 500*time.Millisecond))

	require.Eventually(t, func() bool {
		alive, err := sessions.Exists(ctx, "sess-ttl")
		return err == nil && !alive
	}, 5*time.Second, 100*time.Millisecond)
}
