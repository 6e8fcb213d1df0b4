package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// releaseScript deletes the guard only while it still holds our token, so a
// slow request never frees a guard that expired and was re-acquired.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Guard is a held registration guard. Release is safe to call more than once.
type Guard struct {
	client *Client
	key    string
	token  string
}

// RegistrationGuardKey hashes the normalized email so raw addresses never land in redis.
func (c *Client) RegistrationGuardKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return c.GuardKey(registrationScope, hex.EncodeToString(sum[:]))
}

// AcquireRegistrationGuard claims the per-email registration guard for ttl.
// acquired is false when another request already holds it.
func (c *Client) AcquireRegistrationGuard(ctx context.Context, email string, ttl time.Duration) (guard *Guard, acquired bool, err error) {
	if ttl <= 0 {
		return nil, false, errors.New("guard ttl must be positive")
	}
	key := c.RegistrationGuardKey(email)
	token := uuid.NewString()
	ok, err := c.SetNX(ctx, key, token, ttl)
	if err != nil || !ok {
		return nil, false, err
	}
	return &Guard{client: c, key: key, token: token}, true, nil
}

// Release frees the guard if it is still ours.
func (g *Guard) Release(ctx context.Context) error {
	if g == nil || g.client == nil || g.client.store == nil {
		return nil
	}
	err := g.client.store.Eval(ctx, releaseScript, []string{g.key}, g.token).Err()
	g.client = nil
	return err
}
