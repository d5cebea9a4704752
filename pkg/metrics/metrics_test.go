package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrumentCountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "test")

	h := m.Instrument("checkout")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/checkout", nil))
	}

	require.Equal(t, float64(3), testutil.ToFloat64(m.Requests.WithLabelValues("checkout", "400")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "test")
	m.Fulfillment.WithLabelValues("completed").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "storefront_test_fulfillment_total")
}
