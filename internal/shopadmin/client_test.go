package shopadmin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parcelpoint/tracking-backend/internal/session"
	"github.com/parcelpoint/tracking-backend/internal/shopadmin"
)

func testSession() session.Session {
	return session.Session{Shop: "demo.myshopify.com", AccessToken: "shpat_token"}
}

func TestActiveSubscriptions(t *testing.T) {
	var gotToken, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"currentAppInstallation": map[string]any{
					"activeSubscriptions": []map[string]any{
						{"name": "Basic Plan", "status": "ACTIVE", "trialDays": 1, "currentPeriodEnd": "2026-09-30T00:00:00Z"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client := &shopadmin.Client{BaseURL: srv.URL, APIVersion: "2024-07"}
	subs, err := client.ActiveSubscriptions(context.Background(), testSession())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "Basic Plan", subs[0].Name)
	require.Equal(t, "ACTIVE", subs[0].Status)
	require.Equal(t, "shpat_token", gotToken)
	require.Equal(t, "/admin/api/2024-07/graphql.json", gotPath)
}

func TestCreateSubscriptionReturnsConfirmationURL(t *testing.T) {
	var gotVars map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Variables map[string]any `json:"variables"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotVars = body.Variables
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"appSubscriptionCreate": map[string]any{
					"appSubscription": map[string]any{"id": "gid://shopify/AppSubscription/1"},
					"confirmationUrl": "https://demo.myshopify.com/admin/charges/1/confirm",
					"userErrors":      []any{},
				},
			},
		})
	}))
	defer srv.Close()

	client := &shopadmin.Client{BaseURL: srv.URL}
	url, err := client.CreateSubscription(context.Background(), testSession(), shopadmin.SubscriptionInput{
		Name:      "Basic Plan",
		Price:     10,
		Interval:  "EVERY_30_DAYS",
		TrialDays: 1,
		ReturnURL: "https://app.example.com/app",
	})
	require.NoError(t, err)
	require.Equal(t, "https://demo.myshopify.com/admin/charges/1/confirm", url)
	require.Equal(t, "Basic Plan", gotVars["name"])
	require.Equal(t, "https://app.example.com/app", gotVars["returnUrl"])
}

func TestCreateSubscriptionUserErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"appSubscriptionCreate": map[string]any{
					"confirmationUrl": "",
					"userErrors": []map[string]any{
						{"field": []string{"lineItems"}, "message": "price must be positive"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client := &shopadmin.Client{BaseURL: srv.URL}
	_, err := client.CreateSubscription(context.Background(), testSession(), shopadmin.SubscriptionInput{Name: "Bad"})
	require.ErrorContains(t, err, "price must be positive")
}

func TestGraphQLErrorsSurfaceAsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`))
	}))
	defer srv.Close()

	client := &shopadmin.Client{BaseURL: srv.URL}
	_, err := client.ActiveSubscriptions(context.Background(), testSession())
	var apiErr *shopadmin.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "THROTTLED", apiErr.Errors[0].Extensions.Code)
}

func TestUpstreamFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := &shopadmin.Client{BaseURL: srv.URL}
	_, err := client.ActiveSubscriptions(context.Background(), testSession())
	var apiErr *shopadmin.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.Status)
}
