package quota

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"quota-gateway/middleware/quota/application"
	"quota-gateway/middleware/quota/domain"
	"quota-gateway/middleware/quota/infra"

	"github.com/stretchr/testify/assert"
)

// holdFirst devolve um handler que segura a primeira requisição até release fechar.
func holdFirst(started chan struct{}, release chan struct{}) http.Handler {
	var once sync.Once
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first := false
		once.Do(func() { first = true; close(started) })
		if first {
			<-release
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestConcurrencyMiddleware_TimesOutWhenNoSlot(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	h := ConcurrencyMiddleware(ConcurrencyOptions{
		Max:            1,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: 25 * time.Millisecond,
	})(holdFirst(started, release))

	var wg sync.WaitGroup
	wg.Add(1)

	// request 1: ocupa o semáforo e fica pendurado
	go func() {
		defer wg.Done()
		w1 := httptest.NewRecorder()
		h.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "http://example/", nil))
		assert.Equal(t, http.StatusOK, w1.Code)
	}()

	select {
	case <-started:
	case <-time.After(200 * time.Millisecond):
		close(release)
		wg.Wait()
		t.Fatalf("timeout waiting first request to start")
	}

	// request 2: deve falhar por timeout ao tentar adquirir
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "http://example/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w2.Code)

	close(release)
	wg.Wait()
}

func TestConcurrencyMiddleware_DisabledPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := ConcurrencyMiddleware(ConcurrencyOptions{})(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestConcurrencyMiddleware_PerPrincipalSlots(t *testing.T) {
	ctrl := application.NewController(infra.NewStore())
	ctrl.SetQuota("tenant-1", domain.ResourceQuota{Type: domain.ResourceConnections, Limit: 1})

	release := make(chan struct{})
	started := make(chan struct{})

	h := IdentityMiddleware("")(ConcurrencyMiddleware(ConcurrencyOptions{
		Pool:           application.ConnectionSlots{Controller: ctrl, PollInterval: time.Millisecond},
		AcquireTimeout: 20 * time.Millisecond,
	})(holdFirst(started, release)))

	req := func(who string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.Header.Set(DefaultPrincipalHeader, who)
		return r
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req("tenant-1"))
		assert.Equal(t, http.StatusOK, w.Code)
	}()
	<-started

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req("tenant-1"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// outro tenant não tem quota de conexões: passa
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req("tenant-2"))
	assert.Equal(t, http.StatusOK, w.Code)

	close(release)
	wg.Wait()

	u, ok := ctrl.GetUsage("tenant-1", domain.ResourceConnections)
	assert.True(t, ok)
	assert.Equal(t, int64(0), u.Used)
}
