package quota

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"quota-gateway/middleware/quota/application"
	"quota-gateway/middleware/quota/domain"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type Options struct {
	Controller application.Controller
	Resource   domain.ResourceType
	// Cost é o custo nominal por requisição admitida (padrão 1).
	Cost int64
	// Limit é gravado no snapshot de uso; 0 usa o limite da quota configurada.
	Limit int64
	Unit  string
	Mode  application.Mode

	Principal    PrincipalFunc
	RejectStatus int
	// RetryAfter > 0 adiciona Retry-After nas respostas negadas.
	RetryAfter time.Duration

	Stats  domain.StatsStore
	Logger *zerolog.Logger
	// DenyLogInterval limita a frequência dos logs de negação (padrão 1s).
	DenyLogInterval time.Duration
	Now             func() time.Time
}

// Middleware aplica a governança de quota: resolve o principal, consulta o
// Controller e, se negado, responde RejectStatus (429) com o diagnóstico sem
// chamar o próximo handler. Se admitido, registra o uso e segue.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.Cost == 0 {
		opts.Cost = 1
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.Principal == nil {
		opts.Principal = PrincipalFromContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DenyLogInterval == 0 {
		opts.DenyLogInterval = time.Second
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	denyLog := &rate.Sometimes{Interval: opts.DenyLogInterval}

	ctrl := opts.Controller
	ctrl.Now = opts.Now

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := resolvePrincipal(opts.Principal, r)

			limit := opts.Limit
			if limit == 0 && opts.Mode == application.ModeAdvisory {
				if q, ok := ctrl.GetQuota(p, opts.Resource); ok {
					limit = q.Limit
				}
			}

			allowed, err := ctrl.Admit(opts.Mode, p, opts.Resource, opts.Cost, limit, opts.Unit)

			if opts.Stats != nil {
				if serr := opts.Stats.Record(r.Context(), domain.StatsEvent{
					Principal: p,
					Resource:  opts.Resource,
					Cost:      opts.Cost,
					Allowed:   allowed,
					Method:    r.Method,
					Path:      r.URL.Path,
					At:        opts.Now(),
				}); serr != nil {
					log.Debug().Err(serr).Msg("quota stats record failed")
				}
			}

			if !allowed && err != nil && !errors.Is(err, domain.ErrQuotaExceeded) {
				log.Error().Err(err).Str("principal", string(p)).Msg("quota admission failed")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if !allowed {
				denyLog.Do(func() {
					log.Warn().
						Err(err).
						Str("principal", string(p)).
						Str("resource", opts.Resource.String()).
						Int64("cost", opts.Cost).
						Str("path", r.URL.Path).
						Msg("quota admission denied")
				})
				if opts.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(opts.RetryAfter.Seconds())))
				}
				msg := "resource limit exceeded"
				if err != nil {
					msg += ": " + err.Error()
				}
				http.Error(w, msg, opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
