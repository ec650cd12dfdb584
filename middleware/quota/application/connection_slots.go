package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"quota-gateway/middleware/quota/domain"
)

// ConnectionSlots é um domain.SlotPool por principal, medido no ledger como
// ResourceConnections: cada vaga é uma reserva de 1 unidade e o release a devolve.
//
// Sem quota de conexões configurada para o principal, toda aquisição passa.
// Quando não há vaga, Acquire tenta de novo a cada PollInterval até o ctx encerrar.
type ConnectionSlots struct {
	Controller   Controller
	PollInterval time.Duration
}

func (s ConnectionSlots) Acquire(ctx context.Context, p domain.Principal) (func(), bool) {
	poll := s.PollInterval
	if poll <= 0 {
		poll = 5 * time.Millisecond
	}

	for {
		ok, err := s.Controller.CheckAndReserve(p, domain.ResourceConnections, 1)
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() { _ = s.Controller.Release(p, domain.ResourceConnections, 1) })
			}, true
		}
		if !errors.Is(err, domain.ErrQuotaExceeded) {
			return nil, false
		}

		t := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, false
		case <-t.C:
		}
	}
}
