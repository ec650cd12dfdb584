package quota

import (
	"net/http"
	"time"

	"quota-gateway/middleware/quota/application"
	"quota-gateway/middleware/quota/domain"
	"quota-gateway/middleware/quota/infra"

	"github.com/rs/zerolog"
)

type ConcurrencyOptions struct {
	// Max > 0 com Pool nil usa um semáforo global de Max vagas.
	Max int
	// Pool permite trocar a estratégia (ex: application.ConnectionSlots por principal).
	Pool           domain.SlotPool
	Principal      PrincipalFunc
	RejectStatus   int
	AcquireTimeout time.Duration
	Logger         *zerolog.Logger
}

// ConcurrencyMiddleware limita requisições em andamento. Sem vaga dentro do
// AcquireTimeout, responde RejectStatus (503).
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Pool == nil {
		if opts.Max <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		opts.Pool = infra.NewChanPool(opts.Max)
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Principal == nil {
		opts.Principal = PrincipalFromContext
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := resolvePrincipal(opts.Principal, r)

			release, ok := svc.Acquire(r.Context(), p)
			if !ok {
				log.Debug().Str("principal", string(p)).Msg("no connection slot available")
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
