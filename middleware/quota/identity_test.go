package quota

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"quota-gateway/middleware/quota/domain"

	"github.com/stretchr/testify/assert"
)

func TestPrincipalFromContext(t *testing.T) {
	assert.Equal(t, domain.Principal(""), PrincipalFromContext(context.Background()))

	ctx := ContextWithPrincipal(context.Background(), "tenant-1")
	assert.Equal(t, domain.Principal("tenant-1"), PrincipalFromContext(ctx))
}

func TestPrincipalFromContext_IgnoresUntypedStringKey(t *testing.T) {
	//nolint:staticcheck // simula quem grava com chave string solta
	ctx := context.WithValue(context.Background(), "user_id", "tenant-1")
	assert.Equal(t, domain.Principal(""), PrincipalFromContext(ctx))
}

func TestIdentityMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   domain.Principal
	}{
		{"default header", "", " client-123 ", "client-123"},
		{"custom header", "X-Tenant-ID", "acme", "acme"},
		{"missing header", "", "", domain.Anonymous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = resolvePrincipal(PrincipalFromContext, r)
			})

			r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
			if tt.value != "" {
				h := tt.header
				if h == "" {
					h = DefaultPrincipalHeader
				}
				r.Header.Set(h, tt.value)
			}
			IdentityMiddleware(tt.header)(next).ServeHTTP(httptest.NewRecorder(), r)
			assert.Equal(t, tt.want, got)
		})
	}
}
