package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quota-gateway/middleware/quota/application"
	"quota-gateway/middleware/quota/domain"
	"quota-gateway/middleware/quota/infra"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config {
	return config{
		quotaEnabled:    true,
		quotaResource:   domain.ResourceQueries,
		quotaCost:       1,
		quotaMode:       application.ModeStrict,
		principalHeader: "X-Principal",
		concurrencyMax:  10,
	}
}

func TestBuildHandler_ForwardsPrincipalAndEnforcesQuota(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Header.Get("X-Principal"))
	})

	ctrl := application.NewController(infra.NewStore())
	ctrl.SetQuota("tenant-1", domain.ResourceQuota{Type: domain.ResourceQueries, Limit: 1})
	stats := infra.NewMemoryStatsStore()

	h := buildHandler(testConfig(), ctrl, stats, zerolog.Nop(), upstream)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodGet, "/data", nil)
		r.Header.Set("X-Principal", "tenant-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
		if i == 0 {
			assert.Equal(t, "tenant-1", w.Body.String())
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, infra.Counters{Allowed: 1, Denied: 1, Cost: 1}, stats.Total())
}

func TestBuildHandler_QuotaDisabledPassesThrough(t *testing.T) {
	calls := 0
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ })

	ctrl := application.NewController(infra.NewStore())
	ctrl.SetQuota(domain.Anonymous, domain.ResourceQuota{Type: domain.ResourceQueries, Limit: 0})

	cfg := testConfig()
	cfg.quotaEnabled = false
	h := buildHandler(cfg, ctrl, nil, zerolog.Nop(), upstream)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}

func TestBuildHandler_PerPrincipalConnectionsReleaseAfterRequest(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	ctrl := application.NewController(infra.NewStore())
	ctrl.SetQuota("tenant-1", domain.ResourceQuota{Type: domain.ResourceConnections, Limit: 1})

	cfg := testConfig()
	cfg.quotaEnabled = false
	cfg.connectionsPerPrincipal = true
	h := buildHandler(cfg, ctrl, nil, zerolog.Nop(), upstream)

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Principal", "tenant-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
	}

	u, ok := ctrl.GetUsage("tenant-1", domain.ResourceConnections)
	require.True(t, ok)
	assert.Equal(t, int64(0), u.Used)
}
