// Package sessiontoken verifies Shopify embedded-app session tokens: HS256
// JWTs signed with the app's API secret, carrying the shop in the dest
// claim.
package sessiontoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Verifier checks session tokens issued for this app.
type Verifier struct {
	APIKey    string
	Secret    string
	ClockSkew time.Duration
}

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("sessiontoken: invalid token")

// Verify parses and validates a raw session token and returns the shop
// domain from its dest claim.
func (v Verifier) Verify(raw string, now time.Time) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrInvalidToken
	}

	options := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, []byte(v.Secret)),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
	}
	if v.APIKey != "" {
		options = append(options, jwt.WithAudience(v.APIKey))
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}

	tok, err := jwt.Parse([]byte(raw), options...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	dest, ok := tok.Get("dest")
	if !ok {
		return "", fmt.Errorf("%w: missing dest claim", ErrInvalidToken)
	}
	destStr, _ := dest.(string)
	shop := strings.TrimPrefix(strings.TrimSpace(destStr), "https://")
	shop = strings.TrimSuffix(shop, "/")
	if shop == "" {
		return "", fmt.Errorf("%w: empty dest claim", ErrInvalidToken)
	}
	return strings.ToLower(shop), nil
}
