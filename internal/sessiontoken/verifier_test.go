package sessiontoken_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/parcelpoint/tracking-backend/internal/sessiontoken"
)

const (
	apiKey = "test-api-key"
	secret = "test-api-secret"
)

func mintToken(t *testing.T, opts ...func(*jwt.Builder)) string {
	t.Helper()
	now := time.Now()
	builder := jwt.NewBuilder().
		Issuer("https://demo.myshopify.com/admin").
		Audience([]string{apiKey}).
		Claim("dest", "https://demo.myshopify.com").
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(time.Minute))
	for _, opt := range opts {
		opt(builder)
	}
	tok, err := builder.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	require.NoError(t, err)
	return string(signed)
}

func verifier() sessiontoken.Verifier {
	return sessiontoken.Verifier{APIKey: apiKey, Secret: secret, ClockSkew: 5 * time.Second}
}

func TestVerifyValidToken(t *testing.T) {
	shop, err := verifier().Verify(mintToken(t), time.Now())
	require.NoError(t, err)
	require.Equal(t, "demo.myshopify.com", shop)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := sessiontoken.Verifier{APIKey: apiKey, Secret: "another-secret"}
	_, err := v.Verify(mintToken(t), time.Now())
	require.ErrorIs(t, err, sessiontoken.ErrInvalidToken)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	raw := mintToken(t, func(b *jwt.Builder) { b.Audience([]string{"other-app"}) })
	_, err := verifier().Verify(raw, time.Now())
	require.ErrorIs(t, err, sessiontoken.ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	_, err := verifier().Verify(mintToken(t), time.Now().Add(2*time.Minute))
	require.ErrorIs(t, err, sessiontoken.ErrInvalidToken)
}

func TestVerifyRejectsMissingDest(t *testing.T) {
	raw := mintToken(t, func(b *jwt.Builder) { b.Claim("dest", "") })
	_, err := verifier().Verify(raw, time.Now())
	require.ErrorIs(t, err, sessiontoken.ErrInvalidToken)
}

func TestRequireTokenMiddleware(t *testing.T) {
	mw := sessiontoken.Middleware{Verifier: verifier()}

	var gotShop string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotShop, _ = sessiontoken.ShopFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t))
	rec := httptest.NewRecorder()
	mw.RequireToken(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "demo.myshopify.com", gotShop)
}

func TestRequireTokenMissingHeader(t *testing.T) {
	mw := sessiontoken.Middleware{Verifier: verifier()}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/subscriptions", nil)
	rec := httptest.NewRecorder()
	mw.RequireToken(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
