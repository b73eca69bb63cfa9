package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore reads sessions from the shopify_sessions table.
type PGStore struct {
	Pool *pgxpool.Pool
}

// FindByShop returns the session stored for shop, or ErrNotFound.
func (s PGStore) FindByShop(ctx context.Context, shop string) (Session, error) {
	if s.Pool == nil {
		return Session{}, errors.New("session: pool not configured")
	}

	const query = `
		SELECT id, shop, access_token, scope, expires_at
		FROM shopify_sessions
		WHERE shop = $1`

	var (
		sess      Session
		scope     pgtype.Text
		expiresAt pgtype.Timestamptz
	)
	row := s.Pool.QueryRow(ctx, query, NormalizeShop(shop))
	if err := row.Scan(&sess.ID, &sess.Shop, &sess.AccessToken, &scope, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("session: query shop %q: %w", shop, err)
	}
	if scope.Valid {
		sess.Scope = scope.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		sess.ExpiresAt = &t
	}
	return sess, nil
}
