package quota

import (
	"context"
	"net/http"
	"strings"

	"quota-gateway/middleware/quota/domain"
)

// PrincipalFunc resolve o principal a partir do contexto da requisição.
// Retornar "" faz o middleware usar domain.Anonymous.
type PrincipalFunc func(ctx context.Context) domain.Principal

type principalKey struct{}

// ContextWithPrincipal anexa o principal ao contexto.
func ContextWithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext é o PrincipalFunc padrão.
func PrincipalFromContext(ctx context.Context) domain.Principal {
	if p, ok := ctx.Value(principalKey{}).(domain.Principal); ok {
		return p
	}
	return ""
}

func resolvePrincipal(fn PrincipalFunc, r *http.Request) domain.Principal {
	if p := fn(r.Context()); p != "" {
		return p
	}
	return domain.Anonymous
}

const DefaultPrincipalHeader = "X-Principal"

// IdentityMiddleware copia o header informado (padrão X-Principal) para o
// contexto. Sem header, a requisição segue sem principal (vira "anonymous").
//
// Use apenas atrás de algo que autentique o header (ex: API gateway/auth).
func IdentityMiddleware(header string) func(next http.Handler) http.Handler {
	if header == "" {
		header = DefaultPrincipalHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
				r = r.WithContext(ContextWithPrincipal(r.Context(), domain.Principal(v)))
			}
			next.ServeHTTP(w, r)
		})
	}
}
