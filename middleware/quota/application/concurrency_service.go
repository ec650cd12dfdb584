package application

import (
	"context"
	"time"

	"quota-gateway/middleware/quota/domain"
)

// ConcurrencyService aplica o prazo de espera por uma vaga de conexão do
// principal. A estratégia de vagas (global ou por principal) fica no Pool.
type ConcurrencyService struct {
	Pool domain.SlotPool
	// AcquireTimeout <= 0 espera enquanto o ctx da requisição estiver vivo.
	AcquireTimeout time.Duration
}

// Acquire devolve o release da vaga obtida para p; ok=false quando o prazo
// venceu ou o ctx encerrou sem vaga. Sem Pool, toda requisição passa.
func (s ConcurrencyService) Acquire(ctx context.Context, p domain.Principal) (release func(), ok bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}
	return s.Pool.Acquire(ctx, p)
}
