package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quota-gateway/middleware/quota/application"
	"quota-gateway/middleware/quota/domain"
	"quota-gateway/middleware/quota/infra"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (http.Handler, application.Controller) {
	ctrl := application.NewController(infra.NewStore())
	return NewRouter(NewHandler(ctrl, zerolog.Nop())), ctrl
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestSetQuota(t *testing.T) {
	h, ctrl := newTestRouter()

	w := do(t, h, http.MethodPut, "/quotas/tenant-1/queries", `{"limit":100,"unit":"req"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"type":"queries","limit":100,"unit":"req"}`, w.Body.String())

	q, ok := ctrl.GetQuota("tenant-1", domain.ResourceQueries)
	require.True(t, ok)
	assert.Equal(t, int64(100), q.Limit)
}

func TestSetQuota_ZeroLimitIsValid(t *testing.T) {
	h, ctrl := newTestRouter()

	w := do(t, h, http.MethodPut, "/quotas/tenant-1/cpu", `{"limit":0}`)
	require.Equal(t, http.StatusOK, w.Code)

	q, ok := ctrl.GetQuota("tenant-1", domain.ResourceCPU)
	require.True(t, ok)
	assert.Equal(t, int64(0), q.Limit)
}

func TestSetQuota_Validation(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"unknown resource", "/quotas/t/gpu", `{"limit":1}`, "unknown resource type"},
		{"missing limit", "/quotas/t/cpu", `{"unit":"cores"}`, "validation error"},
		{"negative limit", "/quotas/t/cpu", `{"limit":-1}`, "validation error"},
		{"bad json", "/quotas/t/cpu", `{`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter()
			w := do(t, h, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, errorBody(t, w), tt.want)
		})
	}
}

func TestGetQuota(t *testing.T) {
	h, ctrl := newTestRouter()
	ctrl.SetQuota("tenant-1", domain.ResourceQuota{Type: domain.ResourceDisk, Limit: 50, Unit: "GB"})

	w := do(t, h, http.MethodGet, "/quotas/tenant-1/disk", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"type":"disk","limit":50,"unit":"GB"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/quotas/tenant-1/memory", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no quota configured", errorBody(t, w))
}

func TestListQuotas(t *testing.T) {
	h, ctrl := newTestRouter()
	ctrl.SetQuota("tenant-1", domain.ResourceQuota{Type: domain.ResourceDisk, Limit: 50})
	ctrl.SetQuota("tenant-1", domain.ResourceQuota{Type: domain.ResourceCPU, Limit: 4})

	w := do(t, h, http.MethodGet, "/quotas/tenant-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"disk":{"type":"disk","limit":50},"cpu":{"type":"cpu","limit":4}}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/quotas/nobody", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestUsageEndpoints(t *testing.T) {
	h, ctrl := newTestRouter()
	ctrl.RecordUsage("tenant-1", domain.ResourceUsage{Type: domain.ResourceQueries, Used: 1, Limit: 100})

	w := do(t, h, http.MethodGet, "/usage/tenant-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all map[domain.ResourceType]domain.ResourceUsage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, int64(1), all[domain.ResourceQueries].Used)

	w = do(t, h, http.MethodGet, "/usage/tenant-1/queries", "")
	require.Equal(t, http.StatusOK, w.Code)
	var u domain.ResourceUsage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	assert.Equal(t, int64(100), u.Limit)

	w = do(t, h, http.MethodGet, "/usage/tenant-1/cpu", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheck(t *testing.T) {
	h, ctrl := newTestRouter()
	ctrl.SetQuota("tenant-1", domain.ResourceQuota{Type: domain.ResourceQueries, Limit: 10})
	ctrl.RecordUsage("tenant-1", domain.ResourceUsage{Type: domain.ResourceQueries, Used: 8})

	w := do(t, h, http.MethodPost, "/check", `{"principal":"tenant-1","resource":"queries","requested_amount":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"allowed":true,"quota":{"type":"queries","limit":10}}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/check", `{"principal":"tenant-1","resource":"queries","requested_amount":3}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"allowed":false,"reason":"quota exceeded for queries: 11/10","quota":{"type":"queries","limit":10}}`, w.Body.String())

	// check não registra uso
	u, _ := ctrl.GetUsage("tenant-1", domain.ResourceQueries)
	assert.Equal(t, int64(8), u.Used)
}

func TestCheck_UnconfiguredAndAnonymous(t *testing.T) {
	h, _ := newTestRouter()

	w := do(t, h, http.MethodPost, "/check", `{"resource":"network","requested_amount":1000}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"allowed":true}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/check", `{"resource":"","requested_amount":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrincipalPathIsUnescaped(t *testing.T) {
	tests := []struct {
		name string
		path string
		want domain.Principal
	}{
		{"escaped slash", "/quotas/org%2Fteam/queries", "org/team"},
		{"literal percent", "/quotas/50%25off/queries", "50%off"},
		{"slash and percent", "/quotas/org%2F50%25/queries", "org/50%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ctrl := newTestRouter()

			w := do(t, h, http.MethodPut, tt.path, `{"limit":5}`)
			require.Equal(t, http.StatusOK, w.Code)

			q, ok := ctrl.GetQuota(tt.want, domain.ResourceQueries)
			require.True(t, ok)
			assert.Equal(t, int64(5), q.Limit)

			w = do(t, h, http.MethodGet, tt.path, "")
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestUsageWithEscapedPrincipal(t *testing.T) {
	h, ctrl := newTestRouter()
	ctrl.RecordUsage("org/team", domain.ResourceUsage{Type: domain.ResourceQueries, Used: 3})

	w := do(t, h, http.MethodGet, "/usage/org%2Fteam", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all map[domain.ResourceType]domain.ResourceUsage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Equal(t, int64(3), all[domain.ResourceQueries].Used)

	w = do(t, h, http.MethodGet, "/usage/org%2Fteam/queries", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
