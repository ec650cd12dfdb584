package infra

import (
	"context"

	"quota-gateway/middleware/quota/domain"
)

type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria um pool global baseado em channel com capacidade `max`.
// O principal é ignorado: todas as requisições disputam as mesmas vagas.
func NewChanPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context, _ domain.Principal) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}
