package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/parcelpoint/tracking-backend/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("trackproxy", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/apps/track-order", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/apps/track-order"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodPost, "/apps/track-order", "204"))
	require.Equal(t, float64(1), total)
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
}

func TestStatusRecorderDefaults(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := obs.NewStatusRecorder(rec)
	_, err := sr.Write([]byte("ok"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, sr.Status())
	require.Equal(t, int64(2), sr.BytesWritten())
}

func TestRoutePatternContext(t *testing.T) {
	ctx := obs.WithRoutePattern(nil, "/api/v1/billing/subscriptions")
	require.Equal(t, "/api/v1/billing/subscriptions", obs.RoutePatternFromContext(ctx))
	require.Empty(t, obs.RoutePatternFromContext(nil))
}
