// Package appproxy verifies that storefront app-proxy requests were signed
// by the platform with the app's shared secret.
package appproxy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// SignatureParam is the query parameter carrying the signature. It is
// excluded from the signed message.
const SignatureParam = "hmac"

// Sign canonicalises the query parameters (excluding the signature
// parameter) and returns the lowercase hex HMAC-SHA256 of the result.
//
// Canonical form: multi-valued parameters are joined with commas, keys are
// sorted bytewise ascending, each pair rendered as key=value, pairs joined
// with "&".
func Sign(query url.Values, secret string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		if k == SignatureParam {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+strings.Join(query[k], ","))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the hmac query parameter matches the signature of
// the remaining parameters under secret. The comparison is constant time.
func Verify(query url.Values, secret string) bool {
	provided := query.Get(SignatureParam)
	if provided == "" {
		return false
	}
	expected := Sign(query, secret)
	return hmac.Equal([]byte(expected), []byte(provided))
}
