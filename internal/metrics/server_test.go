package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"quota-gateway/middleware/quota/domain"
	"quota-gateway/middleware/quota/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMux_Healthz(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(prometheus.NewRegistry()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestMux_ExposesQuotaMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	stats := infra.NewPrometheusStatsStore(reg)
	_ = stats.Record(context.Background(), domain.StatsEvent{Resource: domain.ResourceQueries, Cost: 1, Allowed: true})

	w := httptest.NewRecorder()
	NewMux(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `quota_admission_decisions_total{outcome="allowed",resource="queries"} 1`)
}
