// Package billing exposes the embedded-admin subscription API backed by the
// Admin GraphQL API.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/parcelpoint/tracking-backend/internal/common"
	"github.com/parcelpoint/tracking-backend/internal/session"
	"github.com/parcelpoint/tracking-backend/internal/sessiontoken"
	"github.com/parcelpoint/tracking-backend/internal/shopadmin"
)

// Plan is one purchasable option shown on the billing page.
type Plan struct {
	Name      string
	Price     int
	Interval  string
	OneTime   bool
	TrialDays int
}

// Plans is keyed by the identifier the frontend submits.
var Plans = map[string]Plan{
	"setup":    {Name: "One-Time Setup", Price: 100, OneTime: true},
	"basic":    {Name: "Basic Plan", Price: 10, Interval: "EVERY_30_DAYS", TrialDays: 1},
	"standard": {Name: "Standard Plan", Price: 20, Interval: "EVERY_30_DAYS", TrialDays: 1},
	"premium":  {Name: "Premium Plan", Price: 60, Interval: "EVERY_30_DAYS", TrialDays: 1},
}

// AdminAPI is the slice of the Admin client used by billing.
type AdminAPI interface {
	ActiveSubscriptions(ctx context.Context, sess session.Session) ([]shopadmin.AppSubscription, error)
	CreateSubscription(ctx context.Context, sess session.Session, input shopadmin.SubscriptionInput) (string, error)
}

// Handler serves the billing endpoints. Routes using it must sit behind
// sessiontoken.Middleware.
type Handler struct {
	Sessions   session.Store
	Admin      AdminAPI
	Validate   *validator.Validate
	AppBaseURL string
	Logger     zerolog.Logger
}

type subscribeRequest struct {
	Plan string `json:"plan" validate:"required,oneof=setup basic standard premium"`
}

// ListSubscriptions reports the shop's active app subscriptions.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	subs, err := h.Admin.ActiveSubscriptions(r.Context(), sess)
	if err != nil {
		h.Logger.Error().Err(err).Str("shop", sess.Shop).Msg("list subscriptions failed")
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "could not load subscriptions", nil)
		return
	}
	if subs == nil {
		subs = []shopadmin.AppSubscription{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"subscriptions":         subs,
		"hasActiveSubscription": len(subs) > 0,
	})
}

// Subscribe creates a subscription for the selected plan and returns the
// confirmation URL the merchant must approve.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown plan", nil)
			return
		}
	}
	plan, ok := Plans[req.Plan]
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown plan", nil)
		return
	}

	sess, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	confirmationURL, err := h.Admin.CreateSubscription(r.Context(), sess, shopadmin.SubscriptionInput{
		Name:      plan.Name,
		Price:     plan.Price,
		Interval:  plan.Interval,
		OneTime:   plan.OneTime,
		TrialDays: plan.TrialDays,
		ReturnURL: h.AppBaseURL + "/app",
	})
	if err != nil {
		h.Logger.Error().Err(err).Str("shop", sess.Shop).Str("plan", req.Plan).Msg("create subscription failed")
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "could not create subscription", nil)
		return
	}

	common.JSON(w, http.StatusOK, map[string]any{"confirmationUrl": confirmationURL})
}

func (h *Handler) resolveSession(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	shop, ok := sessiontoken.ShopFromContext(r.Context())
	if !ok || shop == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return session.Session{}, false
	}

	sess, err := h.Sessions.FindByShop(r.Context(), shop)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no session for this shop, please reinstall the app", nil)
			return session.Session{}, false
		}
		h.Logger.Error().Err(err).Str("shop", shop).Msg("session lookup failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve session", nil)
		return session.Session{}, false
	}
	return sess, true
}
