// Package session resolves stored Shopify API credentials by shop domain.
// Sessions are written by the OAuth install flow; this package only reads
// them.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when no session exists for a shop.
var ErrNotFound = errors.New("session: not found")

// Session is the credential bundle stored per shop.
type Session struct {
	ID          string     `json:"id"`
	Shop        string     `json:"shop"`
	AccessToken string     `json:"accessToken"`
	Scope       string     `json:"scope,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// Store looks up credentials for a shop domain.
type Store interface {
	FindByShop(ctx context.Context, shop string) (Session, error)
}

// MarshalZerologObject logs the session with the access token redacted.
// Sessions must never reach a log line through any other path.
func (s Session) MarshalZerologObject(e *zerolog.Event) {
	e.Str("shop", s.Shop).
		Str("scope", s.Scope).
		Str("access_token", redact(s.AccessToken))
	if s.ExpiresAt != nil {
		e.Time("expires_at", *s.ExpiresAt)
	}
}

func redact(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

// NormalizeShop lowercases and trims a shop domain so cache keys and
// database lookups agree on a single spelling.
func NormalizeShop(shop string) string {
	return strings.ToLower(strings.TrimSpace(shop))
}
