package session_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/parcelpoint/tracking-backend/internal/session"
)

type countingStore struct {
	sessions map[string]session.Session
	calls    int
}

func (s *countingStore) FindByShop(_ context.Context, shop string) (session.Session, error) {
	s.calls++
	sess, ok := s.sessions[shop]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedStoreReadThrough(t *testing.T) {
	_, client := newTestRedis(t)
	backing := &countingStore{sessions: map[string]session.Session{
		"demo.myshopify.com": {ID: "offline_demo", Shop: "demo.myshopify.com", AccessToken: "shpat_secret", Scope: "read_orders"},
	}}
	store := session.CachedStore{Next: backing, R: client, TTL: time.Minute}

	ctx := context.Background()
	first, err := store.FindByShop(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	require.Equal(t, "shpat_secret", first.AccessToken)
	require.Equal(t, 1, backing.calls)

	second, err := store.FindByShop(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, backing.calls, "second lookup should hit the cache")
}

func TestCachedStoreNormalizesShop(t *testing.T) {
	_, client := newTestRedis(t)
	backing := &countingStore{sessions: map[string]session.Session{
		"demo.myshopify.com": {Shop: "demo.myshopify.com", AccessToken: "shpat_secret"},
	}}
	store := session.CachedStore{Next: backing, R: client, TTL: time.Minute}

	_, err := store.FindByShop(context.Background(), "  DEMO.myshopify.com ")
	require.NoError(t, err)
	require.Equal(t, 1, backing.calls)
}

func TestCachedStoreDoesNotCacheMisses(t *testing.T) {
	_, client := newTestRedis(t)
	backing := &countingStore{sessions: map[string]session.Session{}}
	store := session.CachedStore{Next: backing, R: client, TTL: time.Minute}

	ctx := context.Background()
	_, err := store.FindByShop(ctx, "gone.myshopify.com")
	require.ErrorIs(t, err, session.ErrNotFound)

	backing.sessions["gone.myshopify.com"] = session.Session{Shop: "gone.myshopify.com", AccessToken: "shpat_new"}
	sess, err := store.FindByShop(ctx, "gone.myshopify.com")
	require.NoError(t, err)
	require.Equal(t, "shpat_new", sess.AccessToken)
}

func TestCachedStoreSurvivesRedisOutage(t *testing.T) {
	mr, client := newTestRedis(t)
	backing := &countingStore{sessions: map[string]session.Session{
		"demo.myshopify.com": {Shop: "demo.myshopify.com", AccessToken: "shpat_secret"},
	}}
	store := session.CachedStore{Next: backing, R: client, TTL: time.Minute}

	mr.Close()

	sess, err := store.FindByShop(context.Background(), "demo.myshopify.com")
	require.NoError(t, err)
	require.Equal(t, "shpat_secret", sess.AccessToken)
}

func TestInvalidate(t *testing.T) {
	_, client := newTestRedis(t)
	backing := &countingStore{sessions: map[string]session.Session{
		"demo.myshopify.com": {Shop: "demo.myshopify.com", AccessToken: "shpat_secret"},
	}}
	store := session.CachedStore{Next: backing, R: client, TTL: time.Minute}

	ctx := context.Background()
	_, err := store.FindByShop(ctx, "demo.myshopify.com")
	require.NoError(t, err)

	store.Invalidate(ctx, "demo.myshopify.com")

	_, err = store.FindByShop(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	require.Equal(t, 2, backing.calls)
}
