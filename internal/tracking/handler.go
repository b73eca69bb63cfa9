// Package tracking implements the storefront app-proxy endpoint that lets
// shoppers look up fulfillment status by order number and email.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parcelpoint/tracking-backend/internal/appproxy"
	"github.com/parcelpoint/tracking-backend/internal/obs"
	"github.com/parcelpoint/tracking-backend/internal/session"
	"github.com/parcelpoint/tracking-backend/internal/shopadmin"
)

// OrderFinder queries the commerce API for the first order matching the
// order name and email. A nil order means no match.
type OrderFinder interface {
	FindOrder(ctx context.Context, sess session.Session, orderName, email string) (*shopadmin.Order, error)
}

// Handler serves POST /apps/track-order and its CORS preflight.
type Handler struct {
	Secret   string
	Sessions session.Store
	Orders   OrderFinder
	Logger   zerolog.Logger
}

type trackRequest struct {
	OrderNumber string `json:"orderNumber"`
	Email       string `json:"email"`
}

// Preflight answers OPTIONS with 204 and no body. The endpoint is called
// from shopper-facing storefronts on arbitrary origins.
func (h *Handler) Preflight(w http.ResponseWriter, _ *http.Request) {
	setCORS(w.Header())
	w.WriteHeader(http.StatusNoContent)
}

// Track runs the lookup pipeline: parse query, verify signature, parse
// body, resolve session, query the order, map the result.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	shop := query.Get("shop")
	if shop == "" || query.Get(appproxy.SignatureParam) == "" {
		h.write(w, http.StatusBadRequest, respMissingParams)
		return
	}

	if !appproxy.Verify(query, h.Secret) {
		h.Logger.Warn().Str("shop", shop).Msg("proxy signature rejected")
		countLookup("invalid_hmac")
		h.write(w, http.StatusForbidden, respInvalidHMAC)
		return
	}

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.write(w, http.StatusBadRequest, respInvalidBody)
		return
	}

	sess, err := h.Sessions.FindByShop(r.Context(), shop)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			countLookup("no_session")
			h.write(w, http.StatusUnauthorized, respNoSession)
			return
		}
		h.Logger.Error().Err(err).Str("shop", shop).Msg("session lookup failed")
		countLookup("error")
		h.write(w, http.StatusInternalServerError, respInternalError)
		return
	}

	orderName := normalizeOrderNumber(req.OrderNumber)

	order, err := h.Orders.FindOrder(r.Context(), sess, orderName, req.Email)
	if err != nil {
		h.Logger.Error().Err(err).Str("shop", shop).Str("order", orderName).Msg("order lookup failed")
		countLookup("error")
		h.write(w, http.StatusInternalServerError, respInternalError)
		return
	}
	if order == nil {
		countLookup("not_found")
		h.write(w, http.StatusNotFound, respOrderNotFound)
		return
	}
	if len(order.Fulfillments) == 0 {
		countLookup("pending")
		h.write(w, http.StatusOK, respNotDispatched)
		return
	}

	first := order.Fulfillments[0]
	countLookup("dispatched")
	h.write(w, http.StatusOK, respDispatched(TrackingInfo{
		TrackingNumber:  first.TrackingNumber,
		TrackingURL:     first.TrackingURL,
		TrackingCompany: first.TrackingCompany,
	}))
}

func countLookup(outcome string) {
	if obs.TrackingLookupTotal != nil {
		obs.TrackingLookupTotal.WithLabelValues(outcome).Inc()
	}
}

// normalizeOrderNumber strips a single leading "#" so shoppers can paste
// the display name shown on their confirmation email.
func normalizeOrderNumber(orderNumber string) string {
	return strings.TrimPrefix(strings.TrimSpace(orderNumber), "#")
}

func (h *Handler) write(w http.ResponseWriter, status int, body Response) {
	setCORS(w.Header())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// setCORS attaches permissive cross-origin headers. Every response carries
// them, success and error alike, so browsers surface the JSON body.
func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Accept")
	h.Set("Access-Control-Max-Age", "300")
}
