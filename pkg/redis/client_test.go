package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/plutocart/user-service/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := New(context.Background(), config.RedisConfig{Address: srv.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{}, nil)
	require.Error(t, err)
}

func TestOptionsFromURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://:pw@cache.internal:6380/2",
		PoolSize:    7,
		DialTimeout: time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)
}

func TestPingAndClose(t *testing.T) {
	client, _ := newMiniredisClient(t)
	require.NoError(t, client.Ping(context.Background()))

	empty := &Client{}
	assert.Error(t, empty.Ping(context.Background()))
	assert.NoError(t, empty.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "usersvc:guard:registration:abc", client.GuardKey("registration", "abc"))
	assert.Equal(t, "usersvc:guard:abc", client.GuardKey("", "abc"))

	key := client.RegistrationGuardKey("a@x.com")
	assert.True(t, strings.HasPrefix(key, "usersvc:guard:registration:"))
	assert.NotContains(t, key, "a@x.com")
	assert.Equal(t, key, client.RegistrationGuardKey("a@x.com"))
}

func TestRegistrationGuardExclusive(t *testing.T) {
	ctx := context.Background()
	client, srv := newMiniredisClient(t)

	guard, acquired, err := client.AcquireRegistrationGuard(ctx, "a@x.com", 10*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)
	require.NotNil(t, guard)

	_, acquired, err = client.AcquireRegistrationGuard(ctx, "a@x.com", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, acquired, "second acquire should see the guard held")

	other, acquired, err := client.AcquireRegistrationGuard(ctx, "b@x.com", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired, "guards are per email")
	require.NoError(t, other.Release(ctx))

	require.NoError(t, guard.Release(ctx))
	assert.False(t, srv.Exists(client.RegistrationGuardKey("a@x.com")))
	require.NoError(t, guard.Release(ctx))

	_, acquired, err = client.AcquireRegistrationGuard(ctx, "a@x.com", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired, "released guard should be acquirable again")
}

func TestRegistrationGuardExpires(t *testing.T) {
	ctx := context.Background()
	client, srv := newMiniredisClient(t)

	stale, acquired, err := client.AcquireRegistrationGuard(ctx, "a@x.com", time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	srv.FastForward(2 * time.Second)

	fresh, acquired, err := client.AcquireRegistrationGuard(ctx, "a@x.com", 10*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, stale.Release(ctx))
	assert.True(t, srv.Exists(client.RegistrationGuardKey("a@x.com")), "stale release must not free the newer guard")
	require.NoError(t, fresh.Release(ctx))
}

func TestRegistrationGuardRejectsZeroTTL(t *testing.T) {
	client, _ := newMiniredisClient(t)
	_, _, err := client.AcquireRegistrationGuard(context.Background(), "a@x.com", 0)
	assert.Error(t, err)
}

func TestRegistrationGuardSurfacesRedisErrors(t *testing.T) {
	client, srv := newMiniredisClient(t)
	srv.Close()

	_, acquired, err := client.AcquireRegistrationGuard(context.Background(), "a@x.com", time.Second)
	assert.Error(t, err)
	assert.False(t, acquired)
}
