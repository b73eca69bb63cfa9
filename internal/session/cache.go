package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedStore is a read-through Redis cache in front of another Store.
// Cache failures degrade to the underlying store rather than failing the
// lookup.
type CachedStore struct {
	Next   Store
	R      *redis.Client
	TTL    time.Duration
	Logger zerolog.Logger
}

const cacheKeyPrefix = "session:shop:"

// FindByShop returns the cached session for shop, falling back to the
// underlying store on a miss. ErrNotFound is not cached so a freshly
// installed shop becomes visible immediately.
func (c CachedStore) FindByShop(ctx context.Context, shop string) (Session, error) {
	shop = NormalizeShop(shop)
	key := cacheKeyPrefix + shop

	if c.R != nil {
		raw, err := c.R.Get(ctx, key).Bytes()
		if err == nil {
			var sess Session
			if err := json.Unmarshal(raw, &sess); err == nil {
				return sess, nil
			}
			// Corrupt entry, drop it and fall through.
			c.R.Del(ctx, key)
		} else if err != redis.Nil {
			c.Logger.Warn().Err(err).Str("shop", shop).Msg("session cache read failed")
		}
	}

	sess, err := c.Next.FindByShop(ctx, shop)
	if err != nil {
		return Session{}, err
	}

	if c.R != nil {
		if raw, err := json.Marshal(sess); err == nil {
			if err := c.R.Set(ctx, key, raw, c.ttl()).Err(); err != nil {
				c.Logger.Warn().Err(err).Str("shop", shop).Msg("session cache write failed")
			}
		}
	}
	return sess, nil
}

// Invalidate removes the cached entry for shop.
func (c CachedStore) Invalidate(ctx context.Context, shop string) {
	if c.R == nil {
		return
	}
	c.R.Del(ctx, cacheKeyPrefix+NormalizeShop(shop))
}

func (c CachedStore) ttl() time.Duration {
	if c.TTL <= 0 {
		return 5 * time.Minute
	}
	return c.TTL
}
