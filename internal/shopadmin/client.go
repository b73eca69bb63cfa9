// Package shopadmin is a thin client for the Shopify Admin GraphQL API.
package shopadmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parcelpoint/tracking-backend/internal/obs"
	"github.com/parcelpoint/tracking-backend/internal/session"
)

const defaultAPIVersion = "2024-07"

// Client issues Admin GraphQL requests on behalf of a shop session.
type Client struct {
	APIVersion string
	HTTP       *http.Client

	// BaseURL overrides the per-shop https://{shop} prefix. Tests point it
	// at a local server.
	BaseURL string
}

// GraphQLError is a single error entry from the Admin API response envelope.
type GraphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

type envelope[T any] struct {
	Data   T              `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// APIError is returned when the Admin API answers with a non-2xx status or
// GraphQL-level errors.
type APIError struct {
	Status int
	Errors []GraphQLError
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		msgs := make([]string, 0, len(e.Errors))
		for _, ge := range e.Errors {
			msgs = append(msgs, ge.Message)
		}
		return fmt.Sprintf("shopadmin: api error (status %d): %s", e.Status, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("shopadmin: api error (status %d)", e.Status)
}

func (c *Client) endpoint(shop string) string {
	base := c.BaseURL
	if base == "" {
		base = "https://" + shop
	}
	version := c.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", strings.TrimRight(base, "/"), version)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func post[T any](ctx context.Context, c *Client, sess session.Session, query string, variables any) (T, error) {
	var zero T

	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return zero, fmt.Errorf("shopadmin: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(sess.Shop), bytes.NewReader(payload))
	if err != nil {
		return zero, fmt.Errorf("shopadmin: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", sess.AccessToken)

	start := time.Now()
	res, err := c.httpClient().Do(req)
	if obs.AdminAPILatency != nil {
		obs.AdminAPILatency.Observe(obs.DurationMillis(time.Since(start)))
	}
	if err != nil {
		return zero, fmt.Errorf("shopadmin: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return zero, fmt.Errorf("shopadmin: read response: %w", err)
	}

	var out envelope[T]
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("shopadmin: decode response (status %d): %w", res.StatusCode, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 || len(out.Errors) > 0 {
		return zero, &APIError{Status: res.StatusCode, Errors: out.Errors}
	}
	return out.Data, nil
}
